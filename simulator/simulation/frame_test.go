package simulation

import (
	"math"
	"testing"
)

type captureSink struct {
	frames []Frame
}

func (c *captureSink) Publish(f Frame) { c.frames = append(c.frames, f) }

func TestFrameBufferCollectsTick(t *testing.T) {
	sink := &captureSink{}
	fb := NewFrameBuffer(sink)
	d, err := NewDriver(newTestStore(t), fb)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	fb.Attach(d.Paused)

	d.Tick()
	d.Tick()

	if len(sink.frames) != 2 {
		t.Fatalf("want 2 frames, got %d", len(sink.frames))
	}
	f := sink.frames[1]
	if f.Seq != 2 || f.Paused || len(f.Bodies) != 8 {
		t.Fatalf("unexpected frame %+v", f)
	}
	if f.Bodies[0].Name != "Mercury" || math.Abs(f.Bodies[0].Spin-2*SpinIncrement) > 1e-12 {
		t.Fatalf("unexpected first body %+v", f.Bodies[0])
	}
}

func TestFrameBufferHoldsPositionsWhilePaused(t *testing.T) {
	fb := NewFrameBuffer()
	d, _ := NewDriver(newTestStore(t), fb)
	fb.Attach(d.Paused)

	d.Tick()
	running := fb.Last()
	d.TogglePause()
	d.Tick()
	paused := fb.Last()

	if !paused.Paused || paused.Seq != running.Seq+1 {
		t.Fatalf("paused frame %+v", paused)
	}
	for i := range running.Bodies {
		if paused.Bodies[i] != running.Bodies[i] {
			t.Fatalf("body %d changed while paused", i)
		}
	}
}

func TestFrameBufferLastIsCopy(t *testing.T) {
	fb := NewFrameBuffer()
	d, _ := NewDriver(newTestStore(t), fb)
	d.Tick()
	f := fb.Last()
	f.Bodies[0].Name = "changed"
	if fb.Last().Bodies[0].Name != "Mercury" {
		t.Fatal("Last leaked internal slice")
	}
}
