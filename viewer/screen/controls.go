package screen

import (
	"log"

	"github.com/gdamore/tcell/v2"

	"solar-orrery/simulator/simulation"
)

// SpeedStep is how much one +/- press changes the selected body's speed.
const SpeedStep = 0.001

// Controls turns key presses into intents on a driver. Calls happen between ticks.
type Controls struct {
	driver   *simulation.Driver
	selected int
	hideHUD  bool
}

func NewControls(d *simulation.Driver) *Controls {
	return &Controls{driver: d}
}

func (c *Controls) Selected() int { return c.selected }

func (c *Controls) HUDVisible() bool { return !c.hideHUD }

func (c *Controls) selectedName() (string, bool) {
	names := c.driver.Store().Names()
	if len(names) == 0 {
		return "", false
	}
	return names[c.selected%len(names)], true
}

// HandleKey applies the intent bound to the key. It returns false when the viewer should quit.
func (c *Controls) HandleKey(key tcell.Key, r rune) bool {
	store := c.driver.Store()

	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyTab:
		if n := store.Len(); n > 0 {
			c.selected = (c.selected + 1) % n
		}
		return true
	case tcell.KeyRune:
	default:
		return true
	}

	switch {
	case r == 'q':
		return false
	case r >= '1' && r <= '9':
		if i := int(r - '1'); i < store.Len() {
			c.selected = i
		}
	case r == ' ':
		c.driver.TogglePause()
	case r == 'h':
		c.hideHUD = !c.hideHUD
	case r == '+' || r == '=' || r == '-':
		name, ok := c.selectedName()
		if !ok {
			return true
		}
		o, err := store.Get(name)
		if err != nil {
			return true
		}
		delta := SpeedStep
		if r == '-' {
			delta = -SpeedStep
		}
		if _, err := store.SetSpeed(name, o.Speed+delta); err != nil {
			log.Printf("⚠️ %v", err)
		}
	case r == 'r':
		if name, ok := c.selectedName(); ok {
			_ = store.ResetSpeed(name)
		}
	case r == 'R':
		store.ResetAll()
	}
	return true
}
