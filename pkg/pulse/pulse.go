package pulse

import (
	"fmt"
	"sync"
	"time"
)

// Measurement is the width of one high pulse from a receiver channel.  The
// zero value is NoSignal.
type Measurement struct {
	Width time.Duration
	Valid bool
}

// NoSignal is returned when no complete pulse was seen before the timeout:
// receiver off, disconnected, or idle.  It is an expected condition.
var NoSignal = Measurement{}

// Of returns a valid measurement of the given width.
func Of(width time.Duration) Measurement {
	return Measurement{Width: width, Valid: true}
}

// Micros is shorthand for Of(us * time.Microsecond).
func Micros(us int) Measurement {
	return Of(time.Duration(us) * time.Microsecond)
}

func (m Measurement) String() string {
	if !m.Valid {
		return "no signal"
	}
	return fmt.Sprintf("%dus", m.Width.Microseconds())
}

type Reader interface {
	// Read measures the next high pulse, returning NoSignal on timeout.
	Read() Measurement
}

// Fixed always reads the same measurement.
type Fixed Measurement

func (f Fixed) Read() Measurement {
	return Measurement(f)
}

// Train replays a sequence of measurements, wrapping at the end.  It stands in
// for a receiver in dummy hardware mode and in tests.
type Train struct {
	lock sync.Mutex
	seq  []Measurement
	next int
}

func NewTrain(seq ...Measurement) *Train {
	return &Train{seq: seq}
}

func (t *Train) Read() Measurement {
	t.lock.Lock()
	defer t.lock.Unlock()
	if len(t.seq) == 0 {
		return NoSignal
	}
	m := t.seq[t.next]
	t.next = (t.next + 1) % len(t.seq)
	return m
}

// Set replaces the sequence and restarts it.
func (t *Train) Set(seq ...Measurement) {
	t.lock.Lock()
	t.seq = seq
	t.next = 0
	t.lock.Unlock()
}

// Filter holds the last good measurement across up to Hold consecutive
// timeouts, to ride out single dropped frames.  With Hold == 0 it passes
// readings straight through.
type Filter struct {
	Reader Reader
	Hold   int

	last   Measurement
	missed int
}

func NewFilter(r Reader, hold int) *Filter {
	return &Filter{Reader: r, Hold: hold}
}

func (f *Filter) Read() Measurement {
	m := f.Reader.Read()
	if m.Valid {
		f.last = m
		f.missed = 0
		return m
	}
	if f.missed < f.Hold && f.last.Valid {
		f.missed++
		return f.last
	}
	f.last = NoSignal
	return NoSignal
}
