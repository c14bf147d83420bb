package pca9685

import (
	"github.com/pkg/errors"

	"github.com/tigerbot-team/rcdrive/pkg/drive"
)

// Channel is the wiring of one H-bridge: a PWM port for speed and two logic
// ports for direction.
type Channel struct {
	PWM, In1, In2 int
	Invert        bool
}

// Motor HAT wiring of the M1 and M2 outputs.
var (
	HATMotor1 = Channel{PWM: 8, In1: 10, In2: 9}
	HATMotor2 = Channel{PWM: 13, In1: 11, In2: 12}
)

type bridge struct {
	Channel

	// Direction last written to In1/In2, valid if dirKnown.
	dir      int
	dirKnown bool
}

// Motors drives a left and right motor from one PCA9685.
type Motors struct {
	chip        Interface
	left, right bridge
	maxSpeed    int
}

func NewMotors(chip Interface, left, right Channel, maxSpeed int) *Motors {
	return &Motors{
		chip:     chip,
		left:     bridge{Channel: left},
		right:    bridge{Channel: right},
		maxSpeed: maxSpeed,
	}
}

func (m *Motors) SetSpeeds(left, right drive.Speed) error {
	if err := m.set(&m.left, left); err != nil {
		return errors.Wrap(err, "left motor")
	}
	if err := m.set(&m.right, right); err != nil {
		return errors.Wrap(err, "right motor")
	}
	return nil
}

func (m *Motors) set(b *bridge, speed drive.Speed) error {
	speed = drive.Clamp(speed, m.maxSpeed)
	if b.Invert {
		speed = -speed
	}
	dir := 0
	if speed > 0 {
		dir = 1
	} else if speed < 0 {
		dir = -1
		speed = -speed
	}

	if !b.dirKnown || b.dir != dir {
		// Drop the PWM first so a direction change never sees full power.
		// Zero releases the bridge (both inputs low) so the motor coasts.
		b.dirKnown = false
		if err := m.chip.SetPWM(b.PWM, 0); err != nil {
			return err
		}
		if err := m.chip.SetPin(b.In1, dir > 0); err != nil {
			return err
		}
		if err := m.chip.SetPin(b.In2, dir < 0); err != nil {
			return err
		}
		b.dir, b.dirKnown = dir, true
	}
	return m.chip.SetPWM(b.PWM, float64(speed)/float64(m.maxSpeed))
}
