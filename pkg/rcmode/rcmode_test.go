package rcmode

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tigerbot-team/rcdrive/pkg/calibration"
	"github.com/tigerbot-team/rcdrive/pkg/drive"
	"github.com/tigerbot-team/rcdrive/pkg/pulse"
)

type recordingMotors struct {
	lock  sync.Mutex
	calls []drive.Command
}

func (r *recordingMotors) SetSpeeds(left, right drive.Speed) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.calls = append(r.calls, drive.Command{Left: left, Right: right})
	return nil
}

func (r *recordingMotors) Calls() []drive.Command {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]drive.Command(nil), r.calls...)
}

type fakeButton struct {
	lock    sync.Mutex
	pressed bool
}

func (b *fakeButton) Pressed() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.pressed
}

func (b *fakeButton) Set(pressed bool) {
	b.lock.Lock()
	b.pressed = pressed
	b.lock.Unlock()
}

type recordingDisplay struct {
	lock  sync.Mutex
	shown []drive.State
}

func (d *recordingDisplay) ShowStatus(s drive.State) {
	d.lock.Lock()
	d.shown = append(d.shown, s)
	d.lock.Unlock()
}

func (d *recordingDisplay) Last() drive.State {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.shown[len(d.shown)-1]
}

type recordingSounds struct {
	played []string
}

func (s *recordingSounds) PlaySound(path string) {
	s.played = append(s.played, path)
}

type rig struct {
	mode     *RCMode
	throttle *pulse.Train
	steering *pulse.Train
	button   *fakeButton
	motors   *recordingMotors
	display  *recordingDisplay
	sounds   *recordingSounds
	now      time.Time
}

const (
	center    = 1500
	halfRange = 500
)

var maxSpeed = drive.Speed(calibration.Default().MaxSpeed)

func newRig(t *testing.T) *rig {
	r := &rig{
		throttle: pulse.NewTrain(pulse.Micros(center)),
		steering: pulse.NewTrain(pulse.Micros(center)),
		button:   &fakeButton{},
		motors:   &recordingMotors{},
		display:  &recordingDisplay{},
		sounds:   &recordingSounds{},
		now:      time.Unix(1000, 0),
	}
	var err error
	r.mode, err = New(Config{
		Calibration:  calibration.Default(),
		Period:       20 * time.Millisecond,
		Settle:       200 * time.Millisecond,
		EnableSound:  "on.wav",
		DisableSound: "off.wav",
	}, Hardware{
		Throttle: r.throttle,
		Steering: r.steering,
		Button:   r.button,
		Motors:   r.motors,
		Display:  r.display,
		Sounds:   r.sounds,
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// step runs one cycle and advances the fake clock by a period.
func (r *rig) step() {
	r.mode.Step(r.now)
	r.now = r.now.Add(20 * time.Millisecond)
}

// press does a full press-and-release, long enough to clear the settle time.
func (r *rig) press() {
	r.button.Set(true)
	r.step()
	r.button.Set(false)
	for i := 0; i < 10; i++ {
		r.step()
	}
}

func (r *rig) lastCall(t *testing.T) drive.Command {
	calls := r.motors.Calls()
	if len(calls) == 0 {
		t.Fatal("Expected the motors to have been driven")
	}
	return calls[len(calls)-1]
}

func TestNewRejectsInvalidCalibration(t *testing.T) {
	cal := calibration.Default()
	cal.Deadband = cal.HalfRange
	_, err := New(Config{Calibration: cal, Period: 20 * time.Millisecond}, Hardware{})
	if _, ok := err.(*calibration.InvalidError); !ok {
		t.Fatalf("Expected an invalid calibration error, got %v", err)
	}

	_, err = New(Config{Calibration: calibration.Default()}, Hardware{})
	if err == nil {
		t.Fatal("Expected a zero period to be rejected")
	}
}

func TestFullForward(t *testing.T) {
	r := newRig(t)
	r.press()
	r.throttle.Set(pulse.Micros(center + halfRange))
	r.step()
	if c := r.lastCall(t); c != (drive.Command{Left: maxSpeed, Right: maxSpeed}) {
		t.Fatalf("Full forward gave %v", c)
	}
}

func TestFullRight(t *testing.T) {
	r := newRig(t)
	r.press()
	r.steering.Set(pulse.Micros(center + halfRange))
	r.step()
	if c := r.lastCall(t); c != (drive.Command{Left: maxSpeed, Right: -maxSpeed}) {
		t.Fatalf("Full right gave %v", c)
	}
}

func TestThrottleTimeoutDegradesToSteeringOnly(t *testing.T) {
	r := newRig(t)
	r.press()
	r.throttle.Set(pulse.NoSignal)
	r.steering.Set(pulse.Micros(center + halfRange))
	r.step()
	if c := r.lastCall(t); c != (drive.Command{Left: maxSpeed, Right: -maxSpeed}) {
		t.Fatalf("Steering alone gave %v", c)
	}
	if s := r.mode.State(); s.Throttle != 0 || s.Steering != maxSpeed {
		t.Fatalf("Unexpected state %+v", s)
	}
}

func TestForwardsEveryCycleWhileEnabled(t *testing.T) {
	r := newRig(t)
	r.press()
	r.throttle.Set(pulse.Micros(1750))
	before := len(r.motors.Calls())
	for i := 0; i < 5; i++ {
		r.step()
	}
	calls := r.motors.Calls()[before:]
	if len(calls) != 5 {
		t.Fatalf("Expected a command every cycle, got %v", calls)
	}
	for _, c := range calls {
		if c != (drive.Command{Left: 3000, Right: 3000}) {
			t.Fatalf("Unexpected command %v", c)
		}
	}
}

func TestNeverDrivesWhileDisabled(t *testing.T) {
	r := newRig(t)
	for _, th := range []int{1000, 1250, 1500, 1750, 2000, 2500} {
		for _, st := range []int{1000, 1500, 2000} {
			r.throttle.Set(pulse.Micros(th))
			r.steering.Set(pulse.Micros(st))
			r.step()
		}
	}
	if calls := r.motors.Calls(); len(calls) != 0 {
		t.Fatalf("Motors driven while disabled: %v", calls)
	}
	// The mixed command is still computed for the display.
	if s := r.display.Last(); s.Enabled || s.Throttle != maxSpeed || s.Mixed.Left != maxSpeed {
		t.Fatalf("Unexpected display state %+v", s)
	}
}

func TestDisableStopsBeforeAnythingElse(t *testing.T) {
	r := newRig(t)
	r.press()
	r.throttle.Set(pulse.Micros(2000))
	r.step()
	if c := r.lastCall(t); c != (drive.Command{Left: maxSpeed, Right: maxSpeed}) {
		t.Fatalf("Expected full speed, got %v", c)
	}
	before := len(r.motors.Calls())

	// Disable with the stick still held forward, and keep the button held.
	r.button.Set(true)
	for i := 0; i < 20; i++ {
		r.step()
	}
	calls := r.motors.Calls()[before:]
	if len(calls) != 1 || calls[0] != drive.Stop {
		t.Fatalf("Expected exactly one stop after disabling, got %v", calls)
	}
	if r.mode.State().Enabled {
		t.Fatal("Holding the button must not re-enable")
	}
	if len(r.sounds.played) != 2 || r.sounds.played[0] != "on.wav" || r.sounds.played[1] != "off.wav" {
		t.Fatalf("Unexpected sounds %v", r.sounds.played)
	}
}

func TestHeldButtonTogglesOnce(t *testing.T) {
	r := newRig(t)
	r.button.Set(true)
	for i := 0; i < 50; i++ {
		r.step()
	}
	if !r.mode.State().Enabled {
		t.Fatal("Expected a held press to enable once")
	}
	r.button.Set(false)
	for i := 0; i < 50; i++ {
		r.step()
	}
	if !r.mode.State().Enabled {
		t.Fatal("Release must not toggle")
	}
}

func TestDisplayUpdatedEveryCycle(t *testing.T) {
	r := newRig(t)
	for i := 0; i < 3; i++ {
		r.step()
	}
	r.display.lock.Lock()
	n := len(r.display.shown)
	r.display.lock.Unlock()
	if n != 3 {
		t.Fatalf("Expected 3 display updates, got %d", n)
	}
}

func TestLoopRunsAndZeroesOnStop(t *testing.T) {
	r := newRig(t)
	r.mode.cfg.Period = time.Millisecond
	r.button.Set(true)
	r.throttle.Set(pulse.Micros(2000))

	r.mode.Start(context.Background())
	deadline := time.Now().Add(5 * time.Second)
	for len(r.motors.Calls()) < 3 {
		if time.Now().After(deadline) {
			r.mode.Stop()
			t.Fatal("Loop never drove the motors")
		}
		time.Sleep(time.Millisecond)
	}
	r.mode.Stop()

	if c := r.lastCall(t); c != drive.Stop {
		t.Fatalf("Expected motors zeroed on stop, got %v", c)
	}
	if !r.mode.State().Enabled {
		t.Fatal("Expected the loop to have enabled the drive")
	}
}
