package drive

import "fmt"

// Speed is a signed motor speed in the range [-MaxSpeed, +MaxSpeed] of the
// actuator it is destined for.
type Speed int

// Command is a left/right pair of motor speeds.
type Command struct {
	Left, Right Speed
}

func (c Command) String() string {
	return fmt.Sprintf("L=%d R=%d", c.Left, c.Right)
}

// Stop is the all-zero command.
var Stop = Command{}

// State is the drive state threaded through the control loop.  Enabled is only
// ever changed by the safety gate; the speeds are overwritten every cycle.
type State struct {
	Enabled  bool
	Throttle Speed
	Steering Speed

	// Mixed is the last command computed from Throttle and Steering.  It is
	// kept for display even while disabled, when it is never sent.
	Mixed Command
}

// Clamp limits v to [-max, +max].
func Clamp(v Speed, max int) Speed {
	if v >= Speed(max) {
		return Speed(max)
	}
	if v <= Speed(-max) {
		return Speed(-max)
	}
	return v
}

// Mix does arcade-style differential mixing: throttle drives both sides,
// steering adds to the left and subtracts from the right.  Outputs are
// clamped after mixing, so full throttle plus full steering gives (max, 0)
// rather than scaling both sides down.
func Mix(throttle, steering Speed, max int) Command {
	return Command{
		Left:  Clamp(throttle+steering, max),
		Right: Clamp(throttle-steering, max),
	}
}
