package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/termview"
	"github.com/tochemey/goakt/v3/log"
)

const (
	tickInterval = 16 * time.Millisecond // ~60 FPS
	sampleRate   = beep.SampleRate(44100)
	addTone      = 880
	removeTone   = 440
)

// App runs the flock in a terminal: the same simulation as the windowed
// version, ticked directly instead of through an actor.
type App struct {
	screen     tcell.Screen
	view       *termview.View
	sim        *simulation.Simulation
	attractors *simulation.Attractors

	lastButtons tcell.ButtonMask
	audioInit   bool
}

func NewApp(cfg *simulation.Config) (*App, error) {
	attractors := simulation.NewAttractors()
	// the screen owns the terminal, so the simulation stays quiet
	sim, err := simulation.New(cfg, attractors, log.DiscardLogger)
	if err != nil {
		return nil, err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()
	screen.HideCursor()

	a := &App{
		screen:     screen,
		view:       termview.NewView(screen, cfg.Area()),
		sim:        sim,
		attractors: attractors,
	}

	// Non-fatal, the flock runs without sound
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err == nil {
		a.audioInit = true
	}
	return a, nil
}

func (a *App) playTone(freq float64) {
	if !a.audioInit {
		return
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(50*time.Millisecond), sine))
}

// handleInput returns false when the user asked to quit.
func (a *App) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case 'c':
				if a.attractors.Clear() > 0 {
					a.playTone(removeTone)
				}
			}
		}

	case *tcell.EventMouse:
		// act on the press only, tcell repeats the mask while the button is held
		buttons := ev.Buttons()
		pressed := buttons &^ a.lastButtons
		a.lastButtons = buttons

		col, row := ev.Position()
		vp := a.view.Viewport()
		if row >= vp.Rows {
			return true
		}
		pos := vp.WorldOf(col, row)
		if pressed&tcell.Button1 != 0 {
			a.attractors.Add(pos)
			a.playTone(addTone)
		}
		if pressed&tcell.Button2 != 0 {
			// a cell spans several world units, accept anything within two cells
			radius := 2 * max(vp.Area.Width()/float64(vp.Cols), vp.Area.Height()/float64(max(vp.Rows, 1)))
			if a.attractors.RemoveNearest(pos, radius) {
				a.playTone(removeTone)
			}
		}

	case *tcell.EventResize:
		a.screen.Sync()
		a.view.Resize()
	}
	return true
}

func (a *App) run() error {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !a.handleInput(ev) {
				return nil
			}

		case <-ticker.C:
			if _, err := a.sim.AdvanceTick(tickInterval); err != nil {
				return err
			}
			a.view.Draw(a.sim.Snapshot(false))
		}
	}
}

func (a *App) cleanup() {
	if a.audioInit {
		speaker.Close()
	}
	a.screen.Fini()
}

func main() {
	configFile := flag.String("config", "", "path to a JSON config file, defaults are used when empty")
	flag.Parse()

	logger := log.DefaultLogger
	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	app, err := NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	runErr := app.run()
	app.cleanup()
	if runErr != nil {
		logger.Errorf("simulation stopped: %v", runErr)
		os.Exit(1)
	}
	stats := app.sim.LastStats()
	logger.Infof("stopped after %d ticks, %d agents, last tick: steer %v, move %v",
		stats.Tick, stats.Agents, stats.Compute, stats.Integrate)
}
