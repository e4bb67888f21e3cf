// Command penalty plays the penalty shootout in a terminal. Drag with the
// left mouse button to swipe; the release sends the ball.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/vladimirvolkov/penalty/internal/audio/playback"
	"github.com/vladimirvolkov/penalty/internal/config"
	"github.com/vladimirvolkov/penalty/internal/game"
)

type app struct {
	screen  tcell.Screen
	session *game.Session
	view    *renderer
	player  *playback.Player
	start   time.Time
	pressed bool
	paused  bool
}

func newApp(screen tcell.Screen, settings game.Settings, rng *rand.Rand, player *playback.Player) *app {
	cols, rows := screen.Size()
	a := &app{
		screen: screen,
		view:   newRenderer(screen),
		player: player,
		start:  time.Now(),
	}
	a.session = game.NewSession(settings, viewportFor(cols, rows), rng, game.SessionHooks{
		OnOutcome: func(ev game.OutcomeEvent) {
			log.Printf("OUTCOME: %s zone=%d remaining=%d", ev.Kind, ev.Zone, ev.BallsRemaining)
		},
	})
	a.session.Start()
	return a
}

func (a *app) run() {
	ticker := time.NewTicker(game.DT)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok || !a.handle(ev) {
				return
			}
		case <-ticker.C:
			a.session.Tick(game.DT)
			f := a.session.Frame()
			for _, cue := range f.Cues {
				a.view.cue(cue, time.Now())
				if a.player != nil {
					a.player.Play(cue)
				}
			}
			a.view.draw(f, a.paused, time.Now())
		}
	}
}

func (a *app) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ', 'r':
				a.session.Reset()
			case 'n':
				a.session.Restart()
			case 'p':
				a.paused = !a.paused
				if a.paused {
					a.session.Pause()
				} else {
					a.session.Resume()
				}
			case 'm':
				if a.player != nil {
					a.player.SetMuted(!a.player.Muted())
				}
			}
		}

	case *tcell.EventMouse:
		x, y := ev.Position()
		p := pixelOf(x, y)
		at := ev.When().Sub(a.start)
		if ev.Buttons()&tcell.Button1 != 0 {
			if !a.pressed {
				a.pressed = true
				a.view.trail = a.view.trail[:0]
				a.session.Pointer(game.PointerDown, p, at)
			} else {
				a.session.Pointer(game.PointerMove, p, at)
			}
			a.view.trail = append(a.view.trail, p)
		} else if a.pressed {
			a.pressed = false
			a.session.Pointer(game.PointerUp, p, at)
			a.view.trail = a.view.trail[:0]
		}

	case *tcell.EventResize:
		a.screen.Sync()
		a.session.Resize(viewportFor(a.screen.Size()))
	}
	return true
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	logPath := flag.String("log", "", "write logs to this file (default: discard)")
	mute := flag.Bool("mute", false, "disable sound")
	seed := flag.Int64("seed", 0, "random seed for the keeper (0 = time based)")
	flag.Parse()

	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	screen.EnableMouse()
	defer screen.Fini()

	var player *playback.Player
	if !*mute {
		// Non-fatal, the game runs silent without a sound device
		if player, err = playback.NewPlayer(); err != nil {
			log.Printf("AUDIO: %v", err)
			player = nil
		} else {
			defer player.Close()
		}
	}

	newApp(screen, cfg.Settings, rand.New(rand.NewSource(*seed)), player).run()
}
