package hw

import "github.com/tigerbot-team/rcdrive/pkg/drive"

// Actuator is the two-motor drive.  Callers must keep speeds within the
// actuator's MaxSpeed.
type Actuator interface {
	SetSpeeds(left, right drive.Speed) error
}

// Button reports the raw level of a momentary button.  Edge detection and
// debouncing are up to the caller.
type Button interface {
	Pressed() bool
}

type Display interface {
	ShowStatus(state drive.State)
}

type SoundPlayer interface {
	PlaySound(path string)
}
