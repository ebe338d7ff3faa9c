package simulation

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"solar-orrery/simulator/model"
)

type emitCall struct {
	name string
	pos  model.Position
	spin float64
}

type recorder struct {
	mu     sync.Mutex
	emits  []emitCall
	frames int
}

func (r *recorder) Emit(name string, pos model.Position, spinDelta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emits = append(r.emits, emitCall{name, pos, spinDelta})
}

func (r *recorder) RenderFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
}

func (r *recorder) frameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func newTestDriver(t *testing.T) (*Driver, *recorder) {
	t.Helper()
	rec := &recorder{}
	d, err := NewDriver(newTestStore(t), rec)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return d, rec
}

func TestNewDriverRequiresRenderer(t *testing.T) {
	if _, err := NewDriver(newTestStore(t), nil); !errors.Is(err, ErrNoRenderer) {
		t.Fatalf("want ErrNoRenderer, got %v", err)
	}
}

func TestTickEarthScenario(t *testing.T) {
	s, err := NewStore([]model.Planet{model.NewPlanet("Earth", 8, 0.01)}, DefaultLimits, WithRandom(zeroAngles))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	rec := &recorder{}
	d, _ := NewDriver(s, rec)

	d.Tick()

	o, _ := s.Get("Earth")
	if math.Abs(o.Angle-0.01) > 1e-12 {
		t.Fatalf("angle = %f, want 0.01", o.Angle)
	}
	if len(rec.emits) != 1 {
		t.Fatalf("want 1 emit, got %d", len(rec.emits))
	}
	e := rec.emits[0]
	if e.name != "Earth" || e.spin != SpinIncrement {
		t.Fatalf("unexpected emit %+v", e)
	}
	if math.Abs(e.pos.X-7.9996) > 1e-4 || e.pos.Y != 0 || math.Abs(e.pos.Z-0.08) > 1e-4 {
		t.Fatalf("position = %+v, want ≈ (7.9996, 0, 0.08)", e.pos)
	}
	if rec.frames != 1 {
		t.Fatalf("want 1 frame, got %d", rec.frames)
	}
}

func TestTickAdvancesBySpeed(t *testing.T) {
	d, _ := newTestDriver(t)
	s := d.Store()
	_, _ = s.SetSpeed("Jupiter", 0.033)

	before := s.Snapshot()
	d.Tick()
	after := s.Snapshot()

	for i := range before {
		want := before[i].Angle + before[i].Speed
		if math.Abs(after[i].Angle-want) > 1e-12 {
			t.Errorf("%s: angle %f, want %f", before[i].Name, after[i].Angle, want)
		}
	}
}

func TestTickPositionsOnCircle(t *testing.T) {
	d, rec := newTestDriver(t)
	for i := 0; i < 500; i++ {
		d.Tick()
	}
	radii := map[string]float64{}
	for _, p := range DefaultPlanets() {
		radii[p.Name] = p.Radius
	}
	for _, e := range rec.emits {
		r := radii[e.name]
		if d := e.pos.X*e.pos.X + e.pos.Z*e.pos.Z - r*r; math.Abs(d) > 1e-9 {
			t.Fatalf("%s off circle by %g", e.name, d)
		}
	}
}

func TestTickEmitsInRegistrationOrder(t *testing.T) {
	d, rec := newTestDriver(t)
	d.Tick()
	names := d.Store().Names()
	for i, e := range rec.emits {
		if e.name != names[i] {
			t.Fatalf("emit %d = %s, want %s", i, e.name, names[i])
		}
	}
}

func TestPausedTickFreezesButRenders(t *testing.T) {
	d, rec := newTestDriver(t)
	d.Tick()
	before := d.Store().Snapshot()
	emits := len(rec.emits)

	if !d.TogglePause() {
		t.Fatal("TogglePause should report paused")
	}
	for i := 0; i < 25; i++ {
		d.Tick()
	}

	after := d.Store().Snapshot()
	for i := range before {
		if after[i].Angle != before[i].Angle {
			t.Errorf("%s moved while paused", before[i].Name)
		}
	}
	if len(rec.emits) != emits {
		t.Errorf("emitted %d positions while paused", len(rec.emits)-emits)
	}
	if rec.frames != 26 {
		t.Errorf("frames = %d, want 26", rec.frames)
	}
}

func TestDoubleToggleResumes(t *testing.T) {
	d, _ := newTestDriver(t)
	d.TogglePause()
	d.Tick()
	stopped, _ := d.Store().Get("Earth")

	if d.TogglePause() {
		t.Fatal("second toggle should resume")
	}
	d.Tick()

	o, _ := d.Store().Get("Earth")
	if math.Abs(o.Angle-(stopped.Angle+stopped.Speed)) > 1e-12 {
		t.Fatalf("angle %f, want %f", o.Angle, stopped.Angle+stopped.Speed)
	}
}

func TestTickWithoutBodies(t *testing.T) {
	s, _ := NewStore(nil, DefaultLimits)
	rec := &recorder{}
	d, _ := NewDriver(s, rec)
	d.Tick()
	d.Tick()
	if len(rec.emits) != 0 || rec.frames != 2 {
		t.Fatalf("emits=%d frames=%d", len(rec.emits), rec.frames)
	}
}

func TestSpeedChangeBetweenTicks(t *testing.T) {
	d, _ := newTestDriver(t)
	s := d.Store()
	d.Tick()
	_, _ = s.SetSpeed("Mercury", 0.05)
	before, _ := s.Get("Mercury")
	d.Tick()
	after, _ := s.Get("Mercury")
	if math.Abs(after.Angle-before.Angle-0.05) > 1e-12 {
		t.Fatalf("advanced by %f, want 0.05", after.Angle-before.Angle)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	d, rec := newTestDriver(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx, time.Millisecond) }()

	deadline := time.After(2 * time.Second)
	for rec.frameCount() < 3 {
		select {
		case <-deadline:
			t.Fatal("driver did not tick")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
}

func TestConcurrentIntentsDuringRun(t *testing.T) {
	d, _ := newTestDriver(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx, time.Millisecond) }()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := d.Store().Names()[i]
			for j := 0; j < 100; j++ {
				_, _ = d.Store().SetSpeed(name, 0.001*float64(j%50+1))
				if j%10 == 0 {
					_ = d.Store().ResetSpeed(name)
				}
			}
		}(i)
	}
	wg.Wait()

	lim := d.Store().Limits()
	for _, b := range d.Store().Snapshot() {
		if b.Speed < lim.Min || b.Speed > lim.Max {
			t.Errorf("%s speed %f out of range", b.Name, b.Speed)
		}
	}
}
