package simulation

import "solar-orrery/simulator/model"

// DefaultLimits is the range the speed controls allow.
var DefaultLimits = Limits{Min: 0.001, Max: 0.05}

// DefaultSpeed is the base speed of the body at index in the default catalog.
func DefaultSpeed(index int) float64 {
	return 0.01 + float64(index)*0.001
}

// DefaultPlanets returns the eight planets of the stock orrery, innermost first.
func DefaultPlanets() []model.Planet {
	planets := []model.Planet{
		model.NewPlanet("Mercury", 4, 0).WithDisplay(0.3, 0xaaaaaa, "Closest to Sun"),
		model.NewPlanet("Venus", 6, 0).WithDisplay(0.5, 0xff8800, "Hottest planet"),
		model.NewPlanet("Earth", 8, 0).WithDisplay(0.5, 0x2e86de, "Our home planet"),
		model.NewPlanet("Mars", 10, 0).WithDisplay(0.4, 0xff0000, "The Red Planet"),
		model.NewPlanet("Jupiter", 13, 0).WithDisplay(1.2, 0xffcc99, "Largest planet"),
		model.NewPlanet("Saturn", 16, 0).WithDisplay(1.1, 0xffff66, "With rings"),
		model.NewPlanet("Uranus", 19, 0).WithDisplay(0.9, 0x66ccff, "Ice giant"),
		model.NewPlanet("Neptune", 22, 0).WithDisplay(0.9, 0x3333ff, "Farthest planet"),
	}
	for i := range planets {
		planets[i].BaseSpeed = DefaultSpeed(i)
	}
	return planets
}
