package hardware

import (
	"fmt"
	"io"
	"os"

	"github.com/tigerbot-team/rcdrive/pkg/drive"
	"github.com/tigerbot-team/rcdrive/pkg/hw"
)

// Console is a Display that prints the status whenever it changes.
type Console struct {
	w       io.Writer
	last    drive.State
	printed bool
}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

func (c *Console) ShowStatus(state drive.State) {
	if c.printed && state == c.last {
		return
	}
	c.last = state
	c.printed = true
	fmt.Fprintln(c.w, StatusLine(state))
}

// StatusLine renders the state the way the robot's screen shows it.
func StatusLine(state drive.State) string {
	rc := "off"
	if state.Enabled {
		rc = "on"
	}
	return fmt.Sprintf("RC %s  Thr: %d  Str: %d  %v", rc, state.Throttle, state.Steering, state.Mixed)
}

var _ hw.Display = (*Console)(nil)
