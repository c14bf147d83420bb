package pulse

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
)

// GPIO times pulses on a periph.io input pin using edge detection.
type GPIO struct {
	pin     gpio.PinIn
	Timeout time.Duration

	now func() time.Time
}

// NewGPIO configures pin as a pulled-down input with both-edge detection.
func NewGPIO(pin gpio.PinIn, timeout time.Duration) (*GPIO, error) {
	if err := pin.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, errors.Wrapf(err, "configuring %s for pulse input", pin)
	}
	return &GPIO{
		pin:     pin,
		Timeout: timeout,
		now:     time.Now,
	}, nil
}

// OpenGPIO looks up a pin by name.  host.Init() must have been called.
func OpenGPIO(name string, timeout time.Duration) (*GPIO, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no such GPIO pin %q", name)
	}
	return NewGPIO(pin, timeout)
}

// Read waits for a complete high pulse.  A pulse that is already in progress
// when Read is called is skipped, since its start was missed.
func (g *GPIO) Read() Measurement {
	deadline := g.now().Add(g.Timeout)
	if g.pin.Read() == gpio.High {
		if !g.waitFor(gpio.Low, deadline) {
			return NoSignal
		}
	}
	if !g.waitFor(gpio.High, deadline) {
		return NoSignal
	}
	start := g.now()
	if !g.waitFor(gpio.Low, deadline) {
		return NoSignal
	}
	return Of(g.now().Sub(start))
}

func (g *GPIO) waitFor(level gpio.Level, deadline time.Time) bool {
	for g.pin.Read() != level {
		remaining := deadline.Sub(g.now())
		if remaining <= 0 {
			return false
		}
		if !g.pin.WaitForEdge(remaining) {
			return false
		}
	}
	return true
}
