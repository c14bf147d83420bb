package calibration

import (
	"fmt"
	"time"

	"github.com/tigerbot-team/rcdrive/pkg/drive"
	"github.com/tigerbot-team/rcdrive/pkg/pulse"
)

// Calibration ties a receiver's pulse widths to an actuator's speed range.
type Calibration struct {
	// Center is the pulse width with the stick at neutral.
	Center time.Duration `yaml:"center"`
	// HalfRange is the offset from Center that maps to full speed.
	HalfRange time.Duration `yaml:"half_range"`
	// Deadband is the jitter window around Center that reads as zero.
	Deadband time.Duration `yaml:"deadband"`
	MaxSpeed int           `yaml:"max_speed"`
	// Timeout bounds the wait for one pulse.
	Timeout time.Duration `yaml:"timeout"`
}

// Default suits a standard 1000-2000us receiver driving Zumo-style motors.
func Default() Calibration {
	return Calibration{
		Center:    1500 * time.Microsecond,
		HalfRange: 500 * time.Microsecond,
		Deadband:  40 * time.Microsecond,
		MaxSpeed:  6000,
		Timeout:   25 * time.Millisecond,
	}
}

// Limits on what Validate accepts.  Widths shorter than MinWidth are almost
// certainly bare integers read as nanoseconds, and the caps keep the
// nanosecond maths in ToSpeed well inside int64.
const (
	MinWidth    = 100 * time.Microsecond
	MaxTimeout  = time.Second
	MaxMaxSpeed = 1 << 20
)

type InvalidError struct {
	Field  string
	Reason string
}

func (err *InvalidError) Error() string {
	return fmt.Sprintf("invalid calibration: %s %s", err.Field, err.Reason)
}

func (c Calibration) Validate() error {
	switch {
	case c.MaxSpeed <= 0:
		return &InvalidError{"max_speed", "must be positive"}
	case c.MaxSpeed > MaxMaxSpeed:
		return &InvalidError{"max_speed", fmt.Sprintf("must be at most %d", MaxMaxSpeed)}
	case c.Center <= 0:
		return &InvalidError{"center", "must be positive"}
	case c.Center < MinWidth:
		return &InvalidError{"center", fmt.Sprintf("(%v) must be at least %v; durations need units, e.g. 1500us", c.Center, MinWidth)}
	case c.HalfRange <= 0:
		return &InvalidError{"half_range", "must be positive"}
	case c.HalfRange < MinWidth:
		return &InvalidError{"half_range", fmt.Sprintf("(%v) must be at least %v; durations need units, e.g. 500us", c.HalfRange, MinWidth)}
	case c.Deadband < 0:
		return &InvalidError{"deadband", "must not be negative"}
	case c.Deadband >= c.HalfRange:
		return &InvalidError{"deadband", fmt.Sprintf("(%v) must be less than half_range (%v)", c.Deadband, c.HalfRange)}
	case c.Timeout <= 0:
		return &InvalidError{"timeout", "must be positive"}
	case c.Timeout > MaxTimeout:
		return &InvalidError{"timeout", fmt.Sprintf("(%v) must be at most %v", c.Timeout, MaxTimeout)}
	case c.Center+c.HalfRange > c.Timeout:
		return &InvalidError{"timeout", fmt.Sprintf("(%v) must cover a full-scale pulse (%v)", c.Timeout, c.Center+c.HalfRange)}
	}
	return nil
}

// ToSpeed maps a pulse to a speed.  Loss of signal and pulses inside the
// deadband give zero.  Scaling truncates toward zero and the result is
// clamped to +/-MaxSpeed.
func (c Calibration) ToSpeed(m pulse.Measurement) drive.Speed {
	if !m.Valid {
		return 0
	}
	delta := m.Width - c.Center
	if delta < c.Deadband && -delta < c.Deadband {
		return 0
	}
	// Nanosecond integer maths.  Pulses are bounded by Timeout, so with a
	// validated calibration delta*MaxSpeed stays far inside int64.
	speed := int64(delta) * int64(c.MaxSpeed) / int64(c.HalfRange)
	if speed > int64(c.MaxSpeed) {
		speed = int64(c.MaxSpeed)
	} else if speed < -int64(c.MaxSpeed) {
		speed = -int64(c.MaxSpeed)
	}
	return drive.Speed(speed)
}
