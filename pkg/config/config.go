package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/tigerbot-team/rcdrive/pkg/calibration"
)

const (
	DriverPCA9685 = "pca9685"
	DriverSMC     = "smc"
	DriverDummy   = "dummy"
)

type Config struct {
	Calibration calibration.Calibration `yaml:"calibration"`
	Loop        LoopConfig              `yaml:"loop"`
	Pins        PinConfig               `yaml:"pins"`
	Actuator    ActuatorConfig          `yaml:"actuator"`
	Display     DisplayConfig           `yaml:"display"`
	Sounds      SoundConfig             `yaml:"sounds"`

	// GlitchHold is how many consecutive timeouts on a channel are covered
	// by repeating its last good pulse.  0 disables the hold.
	GlitchHold int `yaml:"glitch_hold"`
}

type LoopConfig struct {
	Period time.Duration `yaml:"period"`
	// Settle is the button hold-off after a toggle.
	Settle time.Duration `yaml:"settle"`
}

type PinConfig struct {
	Throttle        string `yaml:"throttle"`
	Steering        string `yaml:"steering"`
	Button          string `yaml:"button"`
	ButtonActiveLow bool   `yaml:"button_active_low"`
}

type ActuatorConfig struct {
	Driver string `yaml:"driver"`

	// PCA9685 motor HAT.
	I2CDevice string `yaml:"i2c_device"`
	I2CAddr   int    `yaml:"i2c_addr"`
	PWMFreqHz int    `yaml:"pwm_freq_hz"`

	// Pololu Simple Motor Controllers.
	SerialPort  string `yaml:"serial_port"`
	Baud        int    `yaml:"baud"`
	LeftDevice  uint8  `yaml:"left_device"`
	RightDevice uint8  `yaml:"right_device"`

	InvertLeft  bool `yaml:"invert_left"`
	InvertRight bool `yaml:"invert_right"`
}

type DisplayConfig struct {
	Framebuffer string `yaml:"framebuffer"`
}

type SoundConfig struct {
	Enable  string `yaml:"enable"`
	Disable string `yaml:"disable"`
}

// Env holds the settings that come from the environment.
type Env struct {
	ConfigFile    string `env:"RCDRIVE_CONFIG" envDefault:"/cfg/rcdrive.yaml"`
	DummyHardware bool   `env:"RCDRIVE_DUMMY_HARDWARE"`
	Actuator      string `env:"RCDRIVE_ACTUATOR"`
}

func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return e, errors.Wrap(err, "parsing environment")
	}
	return e, nil
}

func Default() Config {
	return Config{
		Calibration: calibration.Default(),
		Loop: LoopConfig{
			Period: 20 * time.Millisecond,
			Settle: 200 * time.Millisecond,
		},
		Pins: PinConfig{
			Throttle:        "GPIO18",
			Steering:        "GPIO19",
			Button:          "GPIO17",
			ButtonActiveLow: true,
		},
		Actuator: ActuatorConfig{
			Driver:      DriverPCA9685,
			I2CDevice:   "/dev/i2c-1",
			I2CAddr:     0x60,
			PWMFreqHz:   1600,
			SerialPort:  "/dev/ttyS0",
			Baud:        9600,
			LeftDevice:  13,
			RightDevice: 14,
		},
		Display: DisplayConfig{
			Framebuffer: "/dev/fb1",
		},
		Sounds: SoundConfig{
			Enable:  "/sounds/rcon.wav",
			Disable: "/sounds/rcoff.wav",
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Calibration.Validate(); err != nil {
		return err
	}
	if c.Loop.Period <= 0 {
		return fmt.Errorf("loop period must be positive, not %v", c.Loop.Period)
	}
	if c.Loop.Settle < 0 {
		return fmt.Errorf("loop settle must not be negative, not %v", c.Loop.Settle)
	}
	if c.GlitchHold < 0 {
		return fmt.Errorf("glitch_hold must not be negative, not %d", c.GlitchHold)
	}
	switch c.Actuator.Driver {
	case DriverPCA9685, DriverSMC, DriverDummy:
	default:
		return fmt.Errorf("unknown actuator driver %q", c.Actuator.Driver)
	}
	return nil
}

// Parse overlays YAML onto the defaults and validates the result.  Unknown
// keys are an error.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, errors.Wrap(err, "parsing config")
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Load reads the config file.  A missing file gives the defaults.
func Load(path string) (Config, error) {
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Println("No config file at", path, "using defaults")
		c := Default()
		return c, c.Validate()
	} else if err != nil {
		return Config{}, errors.Wrap(err, "reading config")
	}
	return Parse(data)
}

// LoadFromEnv applies environment overrides on top of the config file.
func LoadFromEnv(e Env) (Config, error) {
	c, err := Load(e.ConfigFile)
	if err != nil {
		return c, err
	}
	if e.DummyHardware {
		c.Actuator.Driver = DriverDummy
	} else if e.Actuator != "" {
		c.Actuator.Driver = e.Actuator
	}
	return c, c.Validate()
}

// InUsePath is where the effective config for path is written:
// /cfg/rcdrive.yaml -> /cfg/rcdrive-in-use.yaml.
func InUsePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-in-use" + ext
}

// WriteInUse records the config actually in use next to the source file.
func WriteInUse(path string, c Config) error {
	data, err := yaml.Marshal(&c)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	return errors.Wrap(ioutil.WriteFile(InUsePath(path), data, 0666), "writing in-use config")
}
