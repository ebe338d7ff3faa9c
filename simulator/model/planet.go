package model

// Planet is the static definition of a celestial body. It never changes after load.
type Planet struct {
	Name        string  `json:"name"`
	Radius      float64 `json:"radius"`
	BaseSpeed   float64 `json:"baseSpeed"`
	Size        float64 `json:"size"`
	Color       uint32  `json:"color"`
	Description string  `json:"description"`
}

func NewPlanet(name string, radius, baseSpeed float64) Planet {
	return Planet{Name: name, Radius: radius, BaseSpeed: baseSpeed}
}

// WithDisplay attaches the rendering metadata the simulation itself ignores.
func (p Planet) WithDisplay(size float64, color uint32, description string) Planet {
	p.Size = size
	p.Color = color
	p.Description = description
	return p
}
