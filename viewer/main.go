package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"solar-orrery/pkg/config"
	"solar-orrery/simulator/simulation"
	"solar-orrery/viewer/screen"
)

type Config struct {
	FrameInterval time.Duration `env:"FRAME_INTERVAL" envDefault:"33ms"`
	MinSpeed      float64       `env:"MIN_SPEED" envDefault:"0.001"`
	MaxSpeed      float64       `env:"MAX_SPEED" envDefault:"0.05"`
	LogFile       string        `env:"VIEWER_LOG" envDefault:"viewer.log"`
}

func main() {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the renderer; logs go to a file.
	if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	// No screen, no orrery: fail before any orbit state exists.
	s, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := s.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer s.Fini()

	store, err := simulation.NewStore(simulation.DefaultPlanets(),
		simulation.Limits{Min: cfg.MinSpeed, Max: cfg.MaxSpeed})
	if err != nil {
		s.Fini()
		fmt.Fprintf(os.Stderr, "Failed to initialize orbits: %v\n", err)
		os.Exit(1)
	}

	view := screen.New(s)
	driver, err := simulation.NewDriver(store, view)
	if err != nil {
		s.Fini()
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	controls := screen.NewControls(driver)
	view.Bind(driver, controls)

	run(s, driver, controls, cfg.FrameInterval)
}

// run is the frame clock: key events and ticks are handled on one goroutine.
func run(s tcell.Screen, driver *simulation.Driver, controls *screen.Controls, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !controls.HandleKey(ev.Key(), ev.Rune()) {
					return
				}
			case *tcell.EventResize:
				s.Sync()
			}
		case <-ticker.C:
			driver.Tick()
		}
	}
}
