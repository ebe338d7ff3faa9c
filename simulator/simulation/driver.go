package simulation

import (
	"context"
	"sync"
	"time"

	"solar-orrery/simulator/model"
)

// SpinIncrement is the self-rotation applied to every moving body each frame.
// It does not follow the orbital speed.
const SpinIncrement = 0.01

// Renderer receives the output of each tick.
type Renderer interface {
	Emit(name string, pos model.Position, spinDelta float64)
	RenderFrame()
}

// Driver steps the store once per frame while running.
type Driver struct {
	store    *Store
	renderer Renderer

	tickMu sync.Mutex
	mu     sync.Mutex
	paused bool
	ticks  uint64
}

func NewDriver(store *Store, renderer Renderer) (*Driver, error) {
	if renderer == nil {
		return nil, ErrNoRenderer
	}
	return &Driver{store: store, renderer: renderer}, nil
}

func (d *Driver) Store() *Store { return d.store }

func (d *Driver) Paused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

// TogglePause flips between running and paused and returns the new paused flag.
func (d *Driver) TogglePause() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paused = !d.paused
	return d.paused
}

func (d *Driver) Ticks() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}

// Tick runs one frame. The renderer is asked to draw even when paused.
func (d *Driver) Tick() {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	d.mu.Lock()
	paused := d.paused
	d.ticks++
	d.mu.Unlock()

	if !paused {
		for _, e := range d.store.step() {
			d.renderer.Emit(e.name, e.position, SpinIncrement)
		}
	}
	d.renderer.RenderFrame()
}

// Run ticks every interval until ctx is done.
func (d *Driver) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Tick()
		}
	}
}
