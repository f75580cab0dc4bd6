package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/velocity_tester/internal/config"
	"github.com/relabs-tech/velocity_tester/internal/motion"
)

// RunCmdVelConsole prints every Twist published on the cmd_vel topic, to
// check on the bench what the robot would receive.
func RunCmdVelConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicCmdVel, 0, cmdVelHandler(os.Stdout))
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicCmdVel)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func cmdVelHandler(w io.Writer) mqtt.MessageHandler {
	var count int
	return func(_ mqtt.Client, msg mqtt.Message) {
		var tw motion.Twist
		if err := json.Unmarshal(msg.Payload(), &tw); err != nil {
			log.Printf("console: cmd_vel unmarshal error: %v", err)
			return
		}
		count++

		tag := "MOVE"
		if tw.Command().IsStop() {
			tag = "STOP"
		}
		fmt.Fprintf(w,
			"[%s] #%05d %s  linear.x=%7.3f  angular.z=%7.3f\n",
			tag, count, time.Now().Format("15:04:05.000"), tw.Linear.X, tw.Angular.Z,
		)
	}
}
