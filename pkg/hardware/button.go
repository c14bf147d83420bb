package hardware

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"

	"github.com/tigerbot-team/rcdrive/pkg/hw"
)

// GPIOButton reads a momentary button wired to a GPIO pin.
type GPIOButton struct {
	pin       gpio.PinIn
	activeLow bool
}

// NewGPIOButton configures the pin with a pull towards the released level, so
// an active-low button gets a pull-up.
func NewGPIOButton(pin gpio.PinIn, activeLow bool) (*GPIOButton, error) {
	pull := gpio.PullDown
	if activeLow {
		pull = gpio.PullUp
	}
	if err := pin.In(pull, gpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "configuring button %s", pin)
	}
	return &GPIOButton{pin: pin, activeLow: activeLow}, nil
}

func OpenGPIOButton(name string, activeLow bool) (*GPIOButton, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("no such GPIO pin %q", name)
	}
	return NewGPIOButton(pin, activeLow)
}

func (b *GPIOButton) Pressed() bool {
	l := b.pin.Read()
	if b.activeLow {
		return l == gpio.Low
	}
	return l == gpio.High
}

var _ hw.Button = (*GPIOButton)(nil)
