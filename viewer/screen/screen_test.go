package screen

import (
	"math"
	"testing"

	"github.com/gdamore/tcell/v2"

	"solar-orrery/simulator/model"
	"solar-orrery/simulator/simulation"
)

func newViewer(t *testing.T) (tcell.SimulationScreen, *Screen, *Controls, *simulation.Driver) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	if err := sim.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(sim.Fini)
	sim.SetSize(80, 24)

	store, err := simulation.NewStore(simulation.DefaultPlanets(), simulation.DefaultLimits,
		simulation.WithRandom(func() float64 { return 0 }))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	scr := New(sim)
	d, err := simulation.NewDriver(store, scr)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	controls := NewControls(d)
	scr.Bind(d, controls)
	return sim, scr, controls, d
}

func TestProjectCenterAndEdges(t *testing.T) {
	x, y := Project(model.Position{}, 22, 80, 24)
	if x != 40 || y != 11 {
		t.Fatalf("center = (%d, %d)", x, y)
	}
	x, _ = Project(model.Position{X: 22}, 22, 80, 24)
	_, y = Project(model.Position{Z: 22}, 22, 80, 24)
	if x < 40 || x >= 80 || y < 11 || y >= 22 {
		t.Fatalf("edge projected off screen: x=%d y=%d", x, y)
	}
	x, y = Project(model.Position{X: 5}, 0, 80, 24)
	if x != 40 || y != 11 {
		t.Fatal("zero radius should collapse to center")
	}
}

func TestRenderDrawsSunAndBodies(t *testing.T) {
	sim, _, _, d := newViewer(t)
	d.Tick()

	r, _, _, _ := sim.GetContent(40, 11)
	if r != '☀' {
		t.Fatalf("sun cell = %q", r)
	}

	pos := model.PositionOn(22, 0.017)
	x, y := Project(pos, 22, 80, 24)
	r, _, _, _ = sim.GetContent(x, y)
	found := false
	for _, g := range spinGlyphs {
		if r == g {
			found = true
		}
	}
	if !found {
		t.Fatalf("Neptune cell = %q", r)
	}
}

func TestRenderWhilePausedFromStart(t *testing.T) {
	sim, _, _, d := newViewer(t)
	d.TogglePause()
	d.Tick()
	x, y := Project(model.PositionOn(4, 0), 22, 80, 24)
	if r, _, _, _ := sim.GetContent(x, y); r == ' ' {
		t.Fatal("paused frame lost Mercury")
	}
}

func TestStarfieldDeterministicAndAboveHUD(t *testing.T) {
	a, b := starfield(starSeed, 80, 24), starfield(starSeed, 80, 24)
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("star counts %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("star %d differs: %+v vs %+v", i, a[i], b[i])
		}
		if a[i].x < 0 || a[i].x >= 80 || a[i].y < 0 || a[i].y >= 24-hudRows {
			t.Fatalf("star out of bounds: %+v", a[i])
		}
	}
	if starfield(starSeed, 80, hudRows) != nil {
		t.Fatal("no room above the HUD should give no stars")
	}
}

func TestRenderDrawsStars(t *testing.T) {
	sim, _, _, d := newViewer(t)
	d.Tick()

	for _, st := range starfield(starSeed, 80, 24) {
		r, _, _, _ := sim.GetContent(st.x, st.y)
		if r == st.glyph {
			return
		}
	}
	t.Fatal("no star survived on screen")
}

func TestHUDToggle(t *testing.T) {
	sim, _, c, d := newViewer(t)
	d.Tick()
	if r, _, _, _ := sim.GetContent(1, 23); r == ' ' {
		t.Fatal("HUD missing before toggle")
	}

	c.HandleKey(tcell.KeyRune, 'h')
	if c.HUDVisible() {
		t.Fatal("h should hide the HUD")
	}
	d.Tick()
	if r, _, _, _ := sim.GetContent(1, 23); r != ' ' {
		t.Fatalf("HUD cell after hide = %q", r)
	}

	c.HandleKey(tcell.KeyRune, 'h')
	d.Tick()
	if r, _, _, _ := sim.GetContent(1, 23); r == ' ' {
		t.Fatal("HUD missing after second toggle")
	}
}

func TestSpinGlyph(t *testing.T) {
	if spinGlyph(0) != '◐' {
		t.Fatalf("spinGlyph(0) = %q", spinGlyph(0))
	}
	if spinGlyph(math.Pi) != '◑' {
		t.Fatalf("spinGlyph(π) = %q", spinGlyph(math.Pi))
	}
	if spinGlyph(-0.1) != '◒' {
		t.Fatalf("spinGlyph(-0.1) = %q", spinGlyph(-0.1))
	}
}

func TestControlsSpeedAndReset(t *testing.T) {
	_, _, c, d := newViewer(t)
	store := d.Store()

	c.HandleKey(tcell.KeyRune, '3')
	c.HandleKey(tcell.KeyRune, '+')
	c.HandleKey(tcell.KeyRune, '+')
	o, _ := store.Get("Earth")
	if math.Abs(o.Speed-0.014) > 1e-12 {
		t.Fatalf("Earth speed = %f", o.Speed)
	}

	for i := 0; i < 100; i++ {
		c.HandleKey(tcell.KeyRune, '-')
	}
	o, _ = store.Get("Earth")
	if o.Speed != simulation.DefaultLimits.Min {
		t.Fatalf("speed not clamped: %f", o.Speed)
	}

	c.HandleKey(tcell.KeyRune, 'r')
	o, _ = store.Get("Earth")
	if o.Speed != simulation.DefaultSpeed(2) {
		t.Fatalf("reset speed = %f", o.Speed)
	}
}

func TestControlsSelectionPauseQuit(t *testing.T) {
	_, _, c, d := newViewer(t)

	c.HandleKey(tcell.KeyTab, 0)
	if c.Selected() != 1 {
		t.Fatalf("selected = %d", c.Selected())
	}
	c.HandleKey(tcell.KeyRune, '9')
	if c.Selected() != 1 {
		t.Fatal("out of range digit changed selection")
	}
	for i := 0; i < 7; i++ {
		c.HandleKey(tcell.KeyTab, 0)
	}
	if c.Selected() != 0 {
		t.Fatalf("tab should wrap, selected = %d", c.Selected())
	}

	c.HandleKey(tcell.KeyRune, ' ')
	if !d.Paused() {
		t.Fatal("space should pause")
	}
	if c.HandleKey(tcell.KeyRune, 'q') || c.HandleKey(tcell.KeyEscape, 0) {
		t.Fatal("quit keys should stop the viewer")
	}
}

func TestControlsResetAll(t *testing.T) {
	_, _, c, d := newViewer(t)
	store := d.Store()
	for _, name := range store.Names() {
		_, _ = store.SetSpeed(name, 0.04)
	}
	c.HandleKey(tcell.KeyRune, 'R')
	for i, name := range store.Names() {
		if o, _ := store.Get(name); o.Speed != simulation.DefaultSpeed(i) {
			t.Fatalf("%s speed = %f", name, o.Speed)
		}
	}
}
