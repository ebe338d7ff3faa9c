// Package screen draws the orrery top-down on a terminal and maps keys to control intents.
package screen

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/gdamore/tcell/v2"

	"solar-orrery/simulator/model"
	"solar-orrery/simulator/simulation"
)

const (
	hudRows = 2
	// one star per starDensity cells
	starDensity = 40
	starSeed    = 0x0bb17
)

var spinGlyphs = []rune{'◐', '◓', '◑', '◒'}

type placed struct {
	pos  model.Position
	spin float64
}

// Screen is a simulation.Renderer backed by a tcell screen.
type Screen struct {
	screen   tcell.Screen
	driver   *simulation.Driver
	controls *Controls
	maxR     float64
	bodies   map[string]placed

	stars        []star
	starW, starH int
}

type star struct {
	x, y  int
	glyph rune
}

func New(s tcell.Screen) *Screen {
	return &Screen{screen: s, bodies: make(map[string]placed)}
}

// Bind connects the screen to the driver it renders for and the controls shown in the HUD.
func (s *Screen) Bind(d *simulation.Driver, c *Controls) {
	s.driver = d
	s.controls = c
	s.maxR = 0
	for _, b := range d.Store().Snapshot() {
		s.maxR = math.Max(s.maxR, b.Radius)
	}
}

func (s *Screen) Emit(name string, pos model.Position, spinDelta float64) {
	p := s.bodies[name]
	p.pos = pos
	p.spin += spinDelta
	s.bodies[name] = p
}

// Project maps the orbital plane onto cells, x to columns and z to rows.
// Cells are about twice as tall as wide, so rows use half the scale.
func Project(pos model.Position, maxR float64, width, height int) (int, int) {
	cx, cy := float64(width)/2, float64(height-hudRows)/2
	if maxR <= 0 {
		return int(cx), int(cy)
	}
	scale := math.Min((cx-1)/maxR, 2*(cy-1)/maxR)
	return int(math.Round(cx + pos.X*scale)), int(math.Round(cy + pos.Z*scale/2))
}

func (s *Screen) RenderFrame() {
	s.screen.Clear()
	w, h := s.screen.Size()
	s.drawStars(w, h)

	if s.driver != nil {
		states := s.driver.Store().Snapshot()
		for _, b := range states {
			s.drawRing(b.Radius, w, h)
		}
		cx, cy := Project(model.Position{}, s.maxR, w, h)
		s.screen.SetContent(cx, cy, '☀', nil, tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true))

		for _, b := range states {
			p, ok := s.bodies[b.Name]
			if !ok {
				// not emitted yet (paused from the start): place from the stored angle
				p.pos = model.PositionOn(b.Radius, b.Angle)
			}
			x, y := Project(p.pos, s.maxR, w, h)
			s.screen.SetContent(x, y, spinGlyph(p.spin), nil, tcell.StyleDefault.Foreground(hexColor(b.Color)))
		}
		if s.controls == nil || s.controls.HUDVisible() {
			s.drawHUD(states, w, h)
		}
	}
	s.screen.Show()
}

func (s *Screen) drawStars(w, h int) {
	if w != s.starW || h != s.starH {
		s.stars = starfield(starSeed, w, h)
		s.starW, s.starH = w, h
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for _, st := range s.stars {
		s.screen.SetContent(st.x, st.y, st.glyph, nil, style)
	}
}

// starfield scatters a fixed backdrop over the area above the HUD. The same
// seed and size always give the same stars.
func starfield(seed uint64, w, h int) []star {
	rows := h - hudRows
	if w <= 0 || rows <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, uint64(w)<<32|uint64(h)))
	glyphs := []rune{'.', '.', '.', '+', '*'}
	n := w * rows / starDensity
	stars := make([]star, 0, n)
	for i := 0; i < n; i++ {
		stars = append(stars, star{
			x:     rng.IntN(w),
			y:     rng.IntN(rows),
			glyph: glyphs[rng.IntN(len(glyphs))],
		})
	}
	return stars
}

func (s *Screen) drawRing(radius float64, w, h int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	steps := int(radius * 12)
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		x, y := Project(model.PositionOn(radius, a), s.maxR, w, h)
		s.screen.SetContent(x, y, '·', nil, style)
	}
}

func (s *Screen) drawHUD(states []simulation.BodyState, w, h int) {
	status := "running"
	if s.driver.Paused() {
		status = "paused"
	}
	line := fmt.Sprintf(" %s | tab/1-8 select  +/- speed  space pause  r reset  R reset all  h hud  q quit", status)
	if s.controls != nil && len(states) > 0 {
		b := states[s.controls.Selected()%len(states)]
		line = fmt.Sprintf(" %s %s (%s) %s", b.Name, b.Label, b.Description, line)
	}
	drawText(s.screen, 0, h-1, w, line, tcell.StyleDefault.Reverse(true))
}

func drawText(s tcell.Screen, x, y, maxW int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= maxW {
			return
		}
		s.SetContent(col, y, r, nil, style)
		col++
	}
	for ; col < maxW; col++ {
		s.SetContent(col, y, ' ', nil, style)
	}
}

func spinGlyph(spin float64) rune {
	turn := math.Mod(spin, 2*math.Pi) / (2 * math.Pi)
	if turn < 0 {
		turn++
	}
	return spinGlyphs[int(turn*float64(len(spinGlyphs)))%len(spinGlyphs)]
}

func hexColor(c uint32) tcell.Color {
	if c == 0 {
		return tcell.ColorWhite
	}
	return tcell.NewRGBColor(int32(c>>16&0xff), int32(c>>8&0xff), int32(c&0xff))
}
