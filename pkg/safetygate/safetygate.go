// Package safetygate is the manual enable/disable switch between the mixer
// and the motors.  The gate is the only thing that talks to the actuator.
package safetygate

import (
	"fmt"
	"time"

	"github.com/tigerbot-team/rcdrive/pkg/drive"
	"github.com/tigerbot-team/rcdrive/pkg/hw"
)

type ButtonState int

const (
	// Released: the next press toggles the gate.
	Released ButtonState = iota
	// WaitingForRelease: a press has been handled; ignore the button until
	// it is let go and the settle time has passed.
	WaitingForRelease
)

func (s ButtonState) String() string {
	switch s {
	case Released:
		return "released"
	case WaitingForRelease:
		return "waiting-for-release"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

type Gate struct {
	motors hw.Actuator
	settle time.Duration

	button      ButtonState
	settleUntil time.Time

	// Set if the stop sent on disable failed; retried until it succeeds.
	stopPending bool
}

// New returns a gate in the released state.  settle is the minimum time after
// a toggle before the button can re-arm, which covers contact bounce.
func New(motors hw.Actuator, settle time.Duration) *Gate {
	return &Gate{
		motors: motors,
		settle: settle,
	}
}

func (g *Gate) ButtonState() ButtonState {
	return g.button
}

// Poll feeds one button sample into the edge detector.  A fresh press flips
// state.Enabled; on disable the motors are stopped before Poll returns.
func (g *Gate) Poll(state *drive.State, now time.Time, pressed bool) (toggled bool, err error) {
	switch g.button {
	case WaitingForRelease:
		if !pressed && !now.Before(g.settleUntil) {
			g.button = Released
		}
		return false, nil
	case Released:
		if !pressed {
			return false, nil
		}
	}

	g.button = WaitingForRelease
	g.settleUntil = now.Add(g.settle)
	state.Enabled = !state.Enabled
	if state.Enabled {
		return true, nil
	}

	err = g.motors.SetSpeeds(0, 0)
	g.stopPending = err != nil
	return true, err
}

// Forward sends cmd to the motors if the gate is enabled.  While disabled
// nothing is sent, apart from retrying a failed stop.
func (g *Gate) Forward(state *drive.State, cmd drive.Command) (sent bool, err error) {
	if !state.Enabled {
		if g.stopPending {
			err = g.motors.SetSpeeds(0, 0)
			g.stopPending = err != nil
		}
		return false, err
	}
	g.stopPending = false
	return true, g.motors.SetSpeeds(cmd.Left, cmd.Right)
}

// Stop zeroes the motors regardless of state, for shutdown.
func (g *Gate) Stop() error {
	return g.motors.SetSpeeds(0, 0)
}
