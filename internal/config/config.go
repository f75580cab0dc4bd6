package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// DefaultPath is used when no -config flag is given. It may be absent.
const DefaultPath = "./velocity_test.conf"

// Backends accepted by CHANNEL_BACKEND.
const (
	BackendMQTT   = "mqtt"
	BackendSerial = "serial"
	BackendDryRun = "dryrun"
)

// Config holds all application configuration values.
type Config struct {
	// Command channel
	ChannelBackend string

	// MQTT
	MQTTBroker           string
	MQTTClientID         string
	MQTTClientIDConsole  string
	TopicCmdVel          string
	MQTTPublishTimeoutMs int

	// Serial drive base
	SerialPort     string
	SerialBaudRate uint

	// Hardware e-stop, empty disables it
	EStopGPIOPin string

	// Status display (SSD1306 over I2C)
	DisplayEnabled bool
	DisplayI2CBus  string

	// Web monitor, 0 disables it
	WebServerPort int

	// Logging, empty LogFile logs to stderr
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// Package-level singleton, set once by InitGlobal and read through Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for keys the file does not set.
func Default() *Config {
	return &Config{
		ChannelBackend:       BackendMQTT,
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientID:         "velocity-test-node",
		MQTTClientIDConsole:  "velocity-test-console",
		TopicCmdVel:          "robot/cmd_vel",
		MQTTPublishTimeoutMs: 500,
		SerialPort:           "/dev/ttyUSB0",
		SerialBaudRate:       115200,
		LogMaxSizeMB:         10,
		LogMaxBackups:        3,
		LogMaxAgeDays:        7,
	}
}

// Load reads a KEY=VALUE configuration file on top of the defaults. A
// missing file is only accepted for DefaultPath.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	values, err := godotenv.Read(configPath)
	if err != nil {
		if !(errors.Is(err, fs.ErrNotExist) && configPath == DefaultPath) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		values = map[string]string{}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := cfg.setValue(key, strings.TrimSpace(values[key])); err != nil {
			return nil, fmt.Errorf("config %s: %w", configPath, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	case "CHANNEL_BACKEND":
		c.ChannelBackend = strings.ToLower(value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "TOPIC_CMD_VEL":
		c.TopicCmdVel = value
	case "MQTT_PUBLISH_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MQTT_PUBLISH_TIMEOUT_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("MQTT_PUBLISH_TIMEOUT_MS must be positive, got %d", ms)
		}
		c.MQTTPublishTimeoutMs = ms

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = uint(rate)

	// Hardware
	case "ESTOP_GPIO_PIN":
		c.EStopGPIOPin = value
	case "DISPLAY_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = enabled
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 0 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", port)
		}
		c.WebServerPort = port

	// Logging
	case "LOG_FILE":
		c.LogFile = value
	case "LOG_MAX_SIZE_MB":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_MAX_SIZE_MB %q: %w", value, err)
		}
		c.LogMaxSizeMB = n
	case "LOG_MAX_BACKUPS":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_MAX_BACKUPS %q: %w", value, err)
		}
		c.LogMaxBackups = n
	case "LOG_MAX_AGE_DAYS":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_MAX_AGE_DAYS %q: %w", value, err)
		}
		c.LogMaxAgeDays = n

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks the fields the selected backend needs.
func (c *Config) validate() error {
	switch c.ChannelBackend {
	case BackendMQTT:
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required")
		}
		if c.TopicCmdVel == "" {
			return fmt.Errorf("TOPIC_CMD_VEL is required")
		}
	case BackendSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required")
		}
		if c.SerialBaudRate == 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE is required")
		}
	case BackendDryRun:
	default:
		return fmt.Errorf("CHANNEL_BACKEND must be %s, %s or %s, got %q",
			BackendMQTT, BackendSerial, BackendDryRun, c.ChannelBackend)
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Only the first
// call has an effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
