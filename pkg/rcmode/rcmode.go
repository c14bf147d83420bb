package rcmode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tigerbot-team/rcdrive/pkg/calibration"
	"github.com/tigerbot-team/rcdrive/pkg/drive"
	"github.com/tigerbot-team/rcdrive/pkg/hw"
	"github.com/tigerbot-team/rcdrive/pkg/pulse"
	"github.com/tigerbot-team/rcdrive/pkg/safetygate"
)

type Config struct {
	Calibration calibration.Calibration
	Period      time.Duration
	Settle      time.Duration

	EnableSound  string
	DisableSound string
}

// Hardware is what the control loop talks to.  Sounds may be nil.
type Hardware struct {
	Throttle pulse.Reader
	Steering pulse.Reader
	Button   hw.Button
	Motors   hw.Actuator
	Display  hw.Display
	Sounds   hw.SoundPlayer
}

type RCMode struct {
	cfg Config
	hw  Hardware

	gate *safetygate.Gate

	stateLock sync.Mutex // Guards state against State() calls from other goroutines.
	state     drive.State

	throttleLost, steeringLost bool

	cancel context.CancelFunc
	stopWG sync.WaitGroup
}

func New(cfg Config, devices Hardware) (*RCMode, error) {
	if err := cfg.Calibration.Validate(); err != nil {
		return nil, err
	}
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("control period must be positive, not %v", cfg.Period)
	}
	if cfg.Settle < 0 {
		return nil, fmt.Errorf("settle time must not be negative, not %v", cfg.Settle)
	}
	return &RCMode{
		cfg:  cfg,
		hw:   devices,
		gate: safetygate.New(devices.Motors, cfg.Settle),
	}, nil
}

func (m *RCMode) Name() string {
	return "RC mode"
}

func (m *RCMode) Start(ctx context.Context) {
	m.stopWG.Add(1)
	var loopCtx context.Context
	loopCtx, m.cancel = context.WithCancel(ctx)
	go m.loop(loopCtx)
}

func (m *RCMode) Stop() {
	m.cancel()
	m.stopWG.Wait()
}

// State returns a copy of the current drive state.
func (m *RCMode) State() drive.State {
	m.stateLock.Lock()
	defer m.stateLock.Unlock()
	return m.state
}

func (m *RCMode) loop(ctx context.Context) {
	defer m.stopWG.Done()
	defer func() {
		fmt.Println("RC: Zeroing motors")
		if err := m.gate.Stop(); err != nil {
			fmt.Println("RC: Failed to zero motors!", err)
		}
	}()

	m.hw.Display.ShowStatus(m.State())

	timer := time.NewTimer(0)
	defer timer.Stop()
	next := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		now := time.Now()
		m.Step(now)

		// Sleep out the rest of the period.  If we overran, go again straight
		// away and take the schedule from here.
		next = next.Add(m.cfg.Period)
		now = time.Now()
		if next.Before(now) {
			next = now
		}
		timer.Reset(next.Sub(now))
	}
}

// Step runs one control cycle: button, sample, mix, forward, display.
func (m *RCMode) Step(now time.Time) {
	m.stateLock.Lock()
	state := m.state
	m.stateLock.Unlock()

	toggled, err := m.gate.Poll(&state, now, m.hw.Button.Pressed())
	if toggled {
		m.announce(state.Enabled)
	}
	if err != nil {
		fmt.Println("RC: Failed to stop motors!", err)
	}

	throttle := m.hw.Throttle.Read()
	steering := m.hw.Steering.Read()
	m.noteSignal("throttle", throttle, &m.throttleLost)
	m.noteSignal("steering", steering, &m.steeringLost)

	cal := m.cfg.Calibration
	state.Throttle = cal.ToSpeed(throttle)
	state.Steering = cal.ToSpeed(steering)
	state.Mixed = drive.Mix(state.Throttle, state.Steering, cal.MaxSpeed)

	if _, err := m.gate.Forward(&state, state.Mixed); err != nil {
		fmt.Println("Failed to set motor speeds!", err)
	}

	m.stateLock.Lock()
	m.state = state
	m.stateLock.Unlock()

	m.hw.Display.ShowStatus(state)
}

func (m *RCMode) announce(enabled bool) {
	sound := m.cfg.DisableSound
	if enabled {
		fmt.Println("RC: Drive enabled")
		sound = m.cfg.EnableSound
	} else {
		fmt.Println("RC: Drive disabled, motors stopped")
	}
	if m.hw.Sounds != nil && sound != "" {
		m.hw.Sounds.PlaySound(sound)
	}
}

// noteSignal logs loss and recovery of a channel once per transition.
func (m *RCMode) noteSignal(channel string, meas pulse.Measurement, lost *bool) {
	if !meas.Valid && !*lost {
		fmt.Printf("RC: No signal on %s channel\n", channel)
	} else if meas.Valid && *lost {
		fmt.Printf("RC: Signal back on %s channel: %v\n", channel, meas)
	}
	*lost = !meas.Valid
}
