package screen

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/tigerbot-team/rcdrive/pkg/drive"
)

const (
	S = 128

	RefreshInterval = 200 * time.Millisecond
)

// Screen shows the drive status on a 128x128 RGB565 framebuffer.  ShowStatus
// only records the state; LoopUpdatingScreen does the drawing so that the
// control loop never waits on the framebuffer.
type Screen struct {
	device   string
	maxSpeed int

	lock  sync.Mutex
	state drive.State
}

func New(device string, maxSpeed int) *Screen {
	return &Screen{
		device:   device,
		maxSpeed: maxSpeed,
	}
}

func (s *Screen) ShowStatus(state drive.State) {
	s.lock.Lock()
	s.state = state
	s.lock.Unlock()
}

func (s *Screen) LoopUpdatingScreen(ctx context.Context) {
	f, err := os.OpenFile(s.device, os.O_RDWR, 0666)
	if err != nil {
		fmt.Println("Failed to open screen, ignoring")
		return
	}
	defer f.Close()

	ticker := time.NewTicker(RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			var buf [S * S * 2]byte
			_, _ = f.Seek(0, 0)
			_, _ = f.Write(buf[:])
			return
		case <-ticker.C:
		}

		s.lock.Lock()
		state := s.state
		s.lock.Unlock()

		buf := Encode(Render(state, s.maxSpeed))
		_, err = f.Seek(0, 0)
		if err != nil {
			fmt.Println("Screen failure: ", err)
			return
		}

		for i := 0; i < S; i++ {
			_, err = f.Write(buf[i*S*2 : (i+1)*S*2])
			if err != nil {
				fmt.Println("Screen failure: ", err)
				return
			}
			time.Sleep(10 * time.Microsecond)
		}
	}
}

// Render draws the gate state, the two channel speeds and a bar per motor.
func Render(state drive.State, maxSpeed int) image.Image {
	dc := gg.NewContext(S, S)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	if state.Enabled {
		dc.SetRGB(0, 1, 0)
		dc.DrawString("RC on", 4, 14)
	} else {
		dc.SetRGB(1, 0.2, 0)
		dc.DrawString("RC off", 4, 14)
	}

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString(fmt.Sprintf("Thr: %d", state.Throttle), 4, 34)
	dc.DrawString(fmt.Sprintf("Str: %d", state.Steering), 4, 50)

	drawSpeedBar(dc, 30, state.Mixed.Left, maxSpeed)
	drawSpeedBar(dc, 88, state.Mixed.Right, maxSpeed)
	return dc.Image()
}

// drawSpeedBar draws a bar up or down from the midline of the lower half.
func drawSpeedBar(dc *gg.Context, x float64, speed drive.Speed, maxSpeed int) {
	const (
		mid    = 96
		height = 28
	)
	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawLine(x-2, mid, x+12, mid)
	dc.Stroke()
	if maxSpeed <= 0 || speed == 0 {
		return
	}
	h := float64(speed) / float64(maxSpeed) * height
	dc.DrawRectangle(x, mid-h, 10, h)
	dc.Fill()
}

// Encode packs an image into the panel's rotated RGB565 layout.
func Encode(img image.Image) []byte {
	buf := make([]byte, S*S*2)
	for y := 0; y < S; y++ {
		for x := 0; x < S; x++ {
			c := img.At(x, y)
			r, g, b, _ := c.RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(S-1-y)*2+(x)*S*2+1] = (rb << 3) | (gb >> 3)
			buf[(S-1-y)*2+(x)*S*2] = bb | (gb << 5)
		}
	}
	return buf
}
