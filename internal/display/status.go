package display

import (
	"fmt"
	"image"
	"log"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/velocity_tester/internal/motion"
	"github.com/relabs-tech/velocity_tester/internal/session"
)

// Drawer is the part of *ssd1306.Dev the status screen needs.
type Drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Status mirrors the session state on a 128x64 OLED. Redraws happen on
// their own goroutine so observers never wait on the I2C bus.
type Status struct {
	dev Drawer

	mu      sync.Mutex
	pending *session.Event
	wake    chan struct{}
	done    chan struct{}
}

// Open initialises periph, opens busName ("" for the first bus) and the
// SSD1306 on it.
func Open(busName string) (*Status, i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: status display initialized on %s", bus)

	return New(dev), bus, nil
}

// New starts the redraw loop on dev and shows the splash screen.
func New(dev Drawer) *Status {
	s := &Status{
		dev:  dev,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	if err := s.draw(Splash()); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}
	go s.loop()
	return s
}

// SessionChanged keeps only the newest event; older undrawn ones are
// dropped.
func (s *Status) SessionChanged(ev session.Event) {
	s.mu.Lock()
	s.pending = &ev
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Close stops the redraw loop.
func (s *Status) Close() {
	close(s.done)
}

func (s *Status) loop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		ev := s.pending
		s.pending = nil
		s.mu.Unlock()
		if ev == nil {
			continue
		}

		if err := s.draw(Render(*ev)); err != nil {
			log.Printf("display: error updating status: %v", err)
		}
	}
}

func (s *Status) draw(img *image1bit.VerticalLSB) error {
	return s.dev.Draw(s.dev.Bounds(), img, image.Point{})
}

// Render draws the status screen for ev.
func Render(ev session.Event) *image1bit.VerticalLSB {
	img, drawer := newCanvas()

	drawLine(drawer, 13, "State: "+ev.State.String())

	switch ev.State {
	case session.Idle:
		drawLine(drawer, 39, "Ready")
	default:
		drawLine(drawer, 26, fmt.Sprintf("%s %+.2f", modeLabel(ev), ev.Params.Magnitude))
		drawLine(drawer, 39, fmt.Sprintf("T: %.1fs", ev.Params.Duration.Seconds()))
		if ev.State == session.Completed {
			drawLine(drawer, 52, fmt.Sprintf("Ran %.2fs %d", ev.Report.Elapsed.Seconds(), ev.Report.Ticks))
		}
	}

	return img
}

// Splash is shown until the first session event.
func Splash() *image1bit.VerticalLSB {
	img, drawer := newCanvas()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Velocity Test"))

	drawer.Dot = fixed.P(25, 43)
	drawer.DrawBytes([]byte("Waiting..."))

	return img
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, y int, text string) {
	d.Dot = fixed.P(0, y)
	d.DrawBytes([]byte(text))
}

func modeLabel(ev session.Event) string {
	if ev.Params.Mode == motion.Angular {
		return "Ang"
	}
	return "Lin"
}
