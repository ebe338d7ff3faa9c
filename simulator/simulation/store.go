package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"

	"solar-orrery/simulator/model"
)

// Limits bounds every stored speed.
type Limits struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (l Limits) validate() error {
	if l.Min <= 0 || l.Max < l.Min || math.IsNaN(l.Min) || math.IsNaN(l.Max) {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidLimits, l.Min, l.Max)
	}
	return nil
}

func (l Limits) contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

func (l Limits) clamp(v float64) float64 {
	return math.Min(l.Max, math.Max(l.Min, v))
}

// Policy decides what SetSpeed does with a value outside the limits.
type Policy int

const (
	Clamp Policy = iota
	Reject
)

func (p Policy) String() string {
	if p == Reject {
		return "reject"
	}
	return "clamp"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return Clamp, nil
	case "reject":
		return Reject, nil
	}
	return Clamp, fmt.Errorf("unknown speed policy %q", s)
}

type Option func(*Store)

func WithPolicy(p Policy) Option {
	return func(s *Store) { s.policy = p }
}

// WithRandom replaces the uniform [0,1) source used to pick starting angles.
func WithRandom(uniform func() float64) Option {
	return func(s *Store) { s.uniform = uniform }
}

// BodyState pairs a definition with its current orbit, for display.
type BodyState struct {
	model.Planet
	model.Orbit
	Label string `json:"label"`
}

type entry struct {
	planet model.Planet
	orbit  model.Orbit
}

// Store owns the orbit of every registered body. Bodies are fixed at construction.
type Store struct {
	mu      sync.Mutex
	limits  Limits
	policy  Policy
	uniform func() float64
	order   []string
	entries map[string]*entry
}

// NewStore registers bodies in the given order, each at a random angle in [0, 2π) and at its base speed.
func NewStore(planets []model.Planet, limits Limits, opts ...Option) (*Store, error) {
	if err := limits.validate(); err != nil {
		return nil, err
	}

	s := &Store{
		limits:  limits,
		uniform: rand.Float64,
		order:   make([]string, 0, len(planets)),
		entries: make(map[string]*entry, len(planets)),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, p := range planets {
		if p.Name == "" || !(p.Radius > 0) || !(p.BaseSpeed > 0) {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidBody, p)
		}
		if !limits.contains(p.BaseSpeed) {
			return nil, fmt.Errorf("%w: base speed %g of %q outside [%g, %g]",
				ErrInvalidBody, p.BaseSpeed, p.Name, limits.Min, limits.Max)
		}
		if _, ok := s.entries[p.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBody, p.Name)
		}
		s.entries[p.Name] = &entry{
			planet: p,
			orbit:  model.Orbit{Angle: s.uniform() * 2 * math.Pi, Speed: p.BaseSpeed},
		}
		s.order = append(s.order, p.Name)
	}
	return s, nil
}

func (s *Store) Limits() Limits { return s.limits }

func (s *Store) Policy() Policy { return s.policy }

func (s *Store) lookup(name string) (*entry, error) {
	e, ok := s.entries[name]
	if !ok {
		return nil, &UnknownBodyError{Name: name}
	}
	return e, nil
}

// SetSpeed stores v for name and returns the value actually stored.
func (s *Store) SetSpeed(name string, v float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return e.orbit.Speed, &OutOfRangeSpeedError{Name: name, Speed: v, Limits: s.limits}
	}
	if !s.limits.contains(v) {
		if s.policy == Reject {
			return e.orbit.Speed, &OutOfRangeSpeedError{Name: name, Speed: v, Limits: s.limits}
		}
		v = s.limits.clamp(v)
	}
	e.orbit.Speed = v
	return v, nil
}

// ResetSpeed restores the base speed of name. The angle is kept.
func (s *Store) ResetSpeed(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	e.orbit.Speed = e.planet.BaseSpeed
	return nil
}

// ResetAll restores every base speed at once, so no reader sees a half-reset store.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		e.orbit.Speed = e.planet.BaseSpeed
	}
}

func (s *Store) Advance(name string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err != nil {
		return err
	}
	e.orbit.Move(delta)
	return nil
}

func (s *Store) Get(name string) (model.Orbit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err != nil {
		return model.Orbit{}, err
	}
	return e.orbit, nil
}

func (s *Store) Planet(name string) (model.Planet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err != nil {
		return model.Planet{}, err
	}
	return e.planet, nil
}

// Names lists bodies in registration order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

func (s *Store) Len() int { return len(s.order) }

func (s *Store) State(name string) (BodyState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.lookup(name)
	if err != nil {
		return BodyState{}, err
	}
	return e.state(), nil
}

func (s *Store) Snapshot() []BodyState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]BodyState, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.entries[name].state())
	}
	return out
}

func (e *entry) state() BodyState {
	return BodyState{Planet: e.planet, Orbit: e.orbit, Label: model.Label(e.orbit.Speed)}
}

type emission struct {
	name     string
	position model.Position
}

// step is the batched form of Advance(name, speed) over every body in
// registration order. It holds the lock once, so a tick never interleaves
// with an intent.
func (s *Store) step() []emission {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]emission, 0, len(s.order))
	for _, name := range s.order {
		e := s.entries[name]
		e.orbit.Move(e.orbit.Speed)
		out = append(out, emission{name: name, position: model.PositionOn(e.planet.Radius, e.orbit.Angle)})
	}
	return out
}
