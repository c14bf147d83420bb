package sound

import (
	"testing"
	"time"
)

func TestPlaySoundDoesNotBlock(t *testing.T) {
	// No loop draining the queue, as if the speaker were busy.
	p := &Player{soundsToPlay: make(chan string, 1)}

	start := time.Now()
	p.PlaySound("a.wav")
	p.PlaySound("b.wav")
	p.PlaySound("c.wav")
	if elapsed := time.Since(start); elapsed > 5*time.Millisecond {
		t.Fatalf("PlaySound blocked for %v with a full queue", elapsed)
	}
	if s := <-p.soundsToPlay; s != "a.wav" {
		t.Fatalf("Expected the first sound to stay queued, got %s", s)
	}
}

func TestPlaySoundAfterClose(t *testing.T) {
	p := &Player{soundsToPlay: make(chan string, 1)}
	p.Close()
	p.Close()
	p.PlaySound("a.wav")
}
