package hardware

import (
	"fmt"

	"github.com/tigerbot-team/rcdrive/pkg/drive"
	"github.com/tigerbot-team/rcdrive/pkg/hw"
)

// Dummy stands in for all the hardware when running off the robot.
type Dummy struct {
	last drive.Command
}

func NewDummy() *Dummy {
	return &Dummy{}
}

func (d *Dummy) SetSpeeds(left, right drive.Speed) error {
	c := drive.Command{Left: left, Right: right}
	if c != d.last {
		fmt.Printf("DHW: SetSpeeds %v\n", c)
		d.last = c
	}
	return nil
}

func (d *Dummy) Pressed() bool {
	return false
}

func (d *Dummy) PlaySound(path string) {
	fmt.Printf("DHW: PlaySound path=%v\n", path)
}

var (
	_ hw.Actuator    = (*Dummy)(nil)
	_ hw.Button      = (*Dummy)(nil)
	_ hw.SoundPlayer = (*Dummy)(nil)
)
