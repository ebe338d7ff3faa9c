package model

import (
	"fmt"
	"math"
)

// Position is a point in scene space. Orbits lie in the y=0 plane.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Orbit is the mutable per-body state: where the body is along its circle and how fast it moves.
type Orbit struct {
	Angle float64 `json:"angle"`
	Speed float64 `json:"speed"`
}

// Move advances the angle by delta radians. The angle is left unnormalized.
func (o *Orbit) Move(delta float64) {
	o.Angle += delta
}

// PositionOn returns the point at angle on a circle of the given radius.
func PositionOn(radius, angle float64) Position {
	return Position{X: radius * math.Cos(angle), Y: 0, Z: radius * math.Sin(angle)}
}

// Label renders a speed the way the control panel shows it, e.g. "1.20x".
func Label(speed float64) string {
	return fmt.Sprintf("%.2fx", speed*100)
}
