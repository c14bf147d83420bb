//-----------------------------------------------------------------------------
/*

Pololu Simple Motor Controller driver

Two controllers share one serial line and are addressed by device number
using the Pololu protocol.

See: https://www.pololu.com/docs/0J44

*/
//-----------------------------------------------------------------------------

package smc

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/tigerbot-team/rcdrive/pkg/drive"
)

//-----------------------------------------------------------------------------

// commands
const cmdExitSafeStart = 0x83
const cmdMotorForward = 0x85
const cmdMotorReverse = 0x86
const cmdStopMotor = 0xe0

// full speed in controller units
const MaxSpeed = 3200

const pololuStart = 0xaa

//-----------------------------------------------------------------------------

// Config is the motor controller pair configuration.
type Config struct {
	LeftDevice  uint8 // device number of the left controller
	RightDevice uint8 // device number of the right controller
	InvertLeft  bool  // left motor is wired backwards
	InvertRight bool  // right motor is wired backwards
	MaxSpeed    int   // drive.Speed that maps to full controller speed
}

// Controller drives a left/right pair of Simple Motor Controllers.
type Controller struct {
	port io.ReadWriter
	cfg  Config
}

// Open opens the serial port and returns a controller pair.
func Open(portName string, baud int, cfg Config) (*Controller, io.Closer, error) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %s", portName)
	}
	c, err := New(port, cfg)
	if err != nil {
		port.Close()
		return nil, nil, err
	}
	return c, port, nil
}

// New returns a controller pair on an open port.  Both controllers are told
// to exit safe-start so that they accept speed commands.
func New(port io.ReadWriter, cfg Config) (*Controller, error) {
	if cfg.MaxSpeed <= 0 {
		return nil, fmt.Errorf("max speed must be positive, not %d", cfg.MaxSpeed)
	}
	c := &Controller{
		port: port,
		cfg:  cfg,
	}
	for _, dev := range []uint8{cfg.LeftDevice, cfg.RightDevice} {
		if err := c.cmdWrite(dev, cmdExitSafeStart); err != nil {
			return nil, errors.Wrapf(err, "exiting safe start on device %d", dev)
		}
	}
	return c, nil
}

// cmdWrite writes a command to the serial port.
func (c *Controller) cmdWrite(device uint8, command uint8, data ...byte) error {
	buf := append([]byte{pololuStart, device & 0x7f, command & 0x7f}, data...)
	_, err := c.port.Write(buf)
	return err
}

// scale converts a drive speed to signed controller units.
func (c *Controller) scale(speed drive.Speed, invert bool) int {
	speed = drive.Clamp(speed, c.cfg.MaxSpeed)
	if invert {
		speed = -speed
	}
	return int(speed) * MaxSpeed / c.cfg.MaxSpeed
}

// SetSpeed sets the speed of one controller, -3200 to 3200.
func (c *Controller) SetSpeed(device uint8, speed int) error {
	cmd := uint8(cmdMotorForward)
	if speed < 0 {
		cmd = cmdMotorReverse
		speed = -speed
	}
	if speed > MaxSpeed {
		speed = MaxSpeed
	}
	return c.cmdWrite(device, cmd, byte(speed&0x1f), byte(speed>>5))
}

// SetSpeeds implements the drive actuator.
func (c *Controller) SetSpeeds(left, right drive.Speed) error {
	if err := c.SetSpeed(c.cfg.LeftDevice, c.scale(left, c.cfg.InvertLeft)); err != nil {
		return errors.Wrap(err, "left controller")
	}
	if err := c.SetSpeed(c.cfg.RightDevice, c.scale(right, c.cfg.InvertRight)); err != nil {
		return errors.Wrap(err, "right controller")
	}
	return nil
}

// Stop stops both motors and puts them back into safe-start.
func (c *Controller) Stop() error {
	for _, dev := range []uint8{c.cfg.LeftDevice, c.cfg.RightDevice} {
		if err := c.cmdWrite(dev, cmdStopMotor); err != nil {
			return err
		}
	}
	return nil
}

//-----------------------------------------------------------------------------
