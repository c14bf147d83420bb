package pca9685

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	// Adafruit DC & Stepper Motor HAT.
	DefaultAddr = 0x60

	RegMode1 = 0x00
	RegMode2 = 0x01

	// Each PWM output has two 16-bit (low byte first) registers.
	// First register is the on time, second is the off time.
	RegLEDBase = 0x06

	RegPreScale = 0xfe // Pre-scaler for PWM frequency.
	RegTestMode = 0xff

	OscillatorHz = 25000000

	PWMMax = 4095

	// Bit 4 of the high byte of the on/off registers forces the output fully
	// on/off.
	fullBit = 0x10

	NumPorts = 16
)

type Interface interface {
	Configure(freqHz int) error
	SetPWM(port int, value float64) error
	SetPin(port int, on bool) error
	Close() error
}

// port is the subset of an I2C device that we use.
type port interface {
	WriteReg(reg byte, buf []byte) error
	Close() error
}

type PCA9685 struct {
	dev port
}

func New(deviceFile string, addr int) (*PCA9685, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "opening PCA9685 at %s:0x%02x", deviceFile, addr)
	}
	return &PCA9685{
		dev: dev,
	}, nil
}

// PreScale is the prescaler register value for the given PWM frequency.
func PreScale(freqHz int) byte {
	v := math.Round(float64(OscillatorHz)/(4096*float64(freqHz))) - 1
	if v < 3 {
		v = 3
	} else if v > 255 {
		v = 255
	}
	return byte(v)
}

func (p *PCA9685) Configure(freqHz int) (err error) {
	// Put device to sleep.
	err = p.dev.WriteReg(RegMode1, []byte{0x11})
	if err != nil {
		return
	}
	// Update pre-scaler.
	err = p.dev.WriteReg(RegPreScale, []byte{PreScale(freqHz)})
	if err != nil {
		return
	}
	// Trigger a reset
	err = p.dev.WriteReg(RegMode1, []byte{0x01})
	if err != nil {
		return
	}
	// Required delay after reset.
	time.Sleep(1 * time.Millisecond)
	// Enable.
	err = p.dev.WriteReg(RegMode1, []byte{0x81})
	return
}

// SetPWM sets the duty cycle of a port, 0.0-1.0.
func (p *PCA9685) SetPWM(port int, value float64) error {
	if port < 0 || port >= NumPorts {
		return fmt.Errorf("PWM port out of range: %d", port)
	}
	if value < 0 {
		value = 0
	} else if value > 1 {
		value = 1
	}

	pwmValue := uint16(PWMMax * value)
	addr := RegLEDBase + port*4

	return p.dev.WriteReg(byte(addr), []byte{0, 0, byte(pwmValue & 0xff), byte(pwmValue >> 8)})
}

// SetPin drives a port fully on or off, for use as a logic output.
func (p *PCA9685) SetPin(port int, on bool) error {
	if port < 0 || port >= NumPorts {
		return fmt.Errorf("PWM port out of range: %d", port)
	}
	addr := RegLEDBase + port*4
	if on {
		return p.dev.WriteReg(byte(addr), []byte{0, fullBit, 0, 0})
	}
	return p.dev.WriteReg(byte(addr), []byte{0, 0, 0, fullBit})
}

func (p *PCA9685) Close() error {
	return p.dev.Close()
}

var _ Interface = (*PCA9685)(nil)
