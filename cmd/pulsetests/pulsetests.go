package main

import (
	"fmt"
	"time"

	"periph.io/x/periph/host"

	"github.com/tigerbot-team/rcdrive/pkg/config"
	"github.com/tigerbot-team/rcdrive/pkg/drive"
	"github.com/tigerbot-team/rcdrive/pkg/pulse"
)

// Prints the raw pulse widths from the receiver and what they map to, for
// checking the calibration against a real transmitter.
func main() {
	env, err := config.ParseEnv()
	if err != nil {
		panic(err)
	}
	cfg, err := config.Load(env.ConfigFile)
	if err != nil {
		panic(err)
	}
	if _, err := host.Init(); err != nil {
		panic(err)
	}

	cal := cfg.Calibration
	throttle, err := pulse.OpenGPIO(cfg.Pins.Throttle, cal.Timeout)
	if err != nil {
		panic(err)
	}
	steering, err := pulse.OpenGPIO(cfg.Pins.Steering, cal.Timeout)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Calibration: %+v\n", cal)
	var minT, maxT, minS, maxS time.Duration
	for {
		t := throttle.Read()
		s := steering.Read()
		minT, maxT = track(t, minT, maxT)
		minS, maxS = track(s, minS, maxS)

		ts, ss := cal.ToSpeed(t), cal.ToSpeed(s)
		fmt.Printf("Thr: %-10v (%v-%v) -> %5d  Str: %-10v (%v-%v) -> %5d  Mix: %v\n",
			t, minT, maxT, ts, s, minS, maxS, ss, drive.Mix(ts, ss, cal.MaxSpeed))
		time.Sleep(200 * time.Millisecond)
	}
}

func track(m pulse.Measurement, min, max time.Duration) (time.Duration, time.Duration) {
	if !m.Valid {
		return min, max
	}
	if min == 0 || m.Width < min {
		min = m.Width
	}
	if m.Width > max {
		max = m.Width
	}
	return min, max
}
