package hardware

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"periph.io/x/periph/host"

	"github.com/tigerbot-team/rcdrive/pkg/config"
	"github.com/tigerbot-team/rcdrive/pkg/hw"
	"github.com/tigerbot-team/rcdrive/pkg/pca9685"
	"github.com/tigerbot-team/rcdrive/pkg/pulse"
	"github.com/tigerbot-team/rcdrive/pkg/screen"
	"github.com/tigerbot-team/rcdrive/pkg/smc"
	"github.com/tigerbot-team/rcdrive/pkg/sound"
)

// Hardware is the robot's set of devices, built from the config.
type Hardware struct {
	Throttle pulse.Reader
	Steering pulse.Reader
	Button   hw.Button
	Motors   hw.Actuator
	Display  hw.Display
	Sounds   hw.SoundPlayer

	screen  *screen.Screen
	player  *sound.Player
	closers []io.Closer
}

// New opens the devices named in cfg.  With the dummy driver nothing is
// opened: the receiver is simulated at neutral and status goes to stdout.
func New(cfg config.Config) (*Hardware, error) {
	if cfg.Actuator.Driver == config.DriverDummy {
		return NewDummyHardware(), nil
	}

	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initialising periph host")
	}

	h := &Hardware{}
	ok := false
	defer func() {
		if !ok {
			h.closeAll()
		}
	}()

	cal := cfg.Calibration
	throttle, err := pulse.OpenGPIO(cfg.Pins.Throttle, cal.Timeout)
	if err != nil {
		return nil, errors.Wrap(err, "throttle channel")
	}
	steering, err := pulse.OpenGPIO(cfg.Pins.Steering, cal.Timeout)
	if err != nil {
		return nil, errors.Wrap(err, "steering channel")
	}
	h.Throttle = pulse.NewFilter(throttle, cfg.GlitchHold)
	h.Steering = pulse.NewFilter(steering, cfg.GlitchHold)

	h.Button, err = OpenGPIOButton(cfg.Pins.Button, cfg.Pins.ButtonActiveLow)
	if err != nil {
		return nil, errors.Wrap(err, "enable button")
	}

	h.Motors, err = h.openMotors(cfg)
	if err != nil {
		return nil, err
	}

	h.screen = screen.New(cfg.Display.Framebuffer, cal.MaxSpeed)
	h.Display = h.screen
	h.player = sound.NewPlayer()
	h.Sounds = h.player

	ok = true
	return h, nil
}

func (h *Hardware) openMotors(cfg config.Config) (hw.Actuator, error) {
	a := cfg.Actuator
	switch a.Driver {
	case config.DriverPCA9685:
		chip, err := pca9685.New(a.I2CDevice, a.I2CAddr)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, chip)
		if err := chip.Configure(a.PWMFreqHz); err != nil {
			return nil, errors.Wrap(err, "configuring PCA9685")
		}
		left, right := pca9685.HATMotor1, pca9685.HATMotor2
		left.Invert, right.Invert = a.InvertLeft, a.InvertRight
		return pca9685.NewMotors(chip, left, right, cfg.Calibration.MaxSpeed), nil
	case config.DriverSMC:
		c, port, err := smc.Open(a.SerialPort, a.Baud, smc.Config{
			LeftDevice:  a.LeftDevice,
			RightDevice: a.RightDevice,
			InvertLeft:  a.InvertLeft,
			InvertRight: a.InvertRight,
			MaxSpeed:    cfg.Calibration.MaxSpeed,
		})
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, port)
		return c, nil
	}
	return nil, fmt.Errorf("unknown actuator driver %q", a.Driver)
}

func NewDummyHardware() *Hardware {
	d := NewDummy()
	neutral := pulse.Fixed(pulse.Micros(1500))
	return &Hardware{
		Throttle: neutral,
		Steering: neutral,
		Button:   d,
		Motors:   d,
		Display:  NewConsole(os.Stdout),
		Sounds:   d,
	}
}

// Start kicks off the background screen refresh, if there is a screen.
func (h *Hardware) Start(ctx context.Context) {
	if h.screen != nil {
		go h.screen.LoopUpdatingScreen(ctx)
	}
}

// safeStopper is a motor controller that can latch itself stopped, so it
// ignores speed commands until it is re-armed.
type safeStopper interface {
	Stop() error
}

var _ safeStopper = (*smc.Controller)(nil)

// Shutdown zeroes the motors and releases the devices.
func (h *Hardware) Shutdown() {
	fmt.Println("HW: Zeroing motors")
	if err := h.Motors.SetSpeeds(0, 0); err != nil {
		fmt.Println("HW: Failed to zero motors", err)
	}
	if s, ok := h.Motors.(safeStopper); ok {
		if err := s.Stop(); err != nil {
			fmt.Println("HW: Failed to put motors into safe-start", err)
		}
	}
	h.closeAll()
}

func (h *Hardware) closeAll() {
	if h.player != nil {
		h.player.Close()
	}
	for _, c := range h.closers {
		if err := c.Close(); err != nil {
			fmt.Println("HW: Close failed", err)
		}
	}
	h.closers = nil
}
