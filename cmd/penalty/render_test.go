package main

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/vladimirvolkov/penalty/internal/game"
	"github.com/vladimirvolkov/penalty/internal/geom"
)

func newSimScreen(t *testing.T, cols, rows int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	s.SetSize(cols, rows)
	t.Cleanup(s.Fini)
	return s
}

func row(s tcell.Screen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		ch, _, _, _ := s.GetContent(x, y)
		b.WriteRune(ch)
	}
	return b.String()
}

func TestCellMapping(t *testing.T) {
	for _, c := range [][2]int{{0, 0}, {5, 3}, {159, 44}} {
		x, y := cellOf(pixelOf(c[0], c[1]))
		if x != c[0] || y != c[1] {
			t.Errorf("Cell %v round-tripped to (%d, %d)", c, x, y)
		}
	}
	if vp := viewportFor(160, 45); vp.Width != 1280 || vp.Height != 720 {
		t.Errorf("Expected 1280x720, got %+v", vp)
	}
}

func TestDrawFrame(t *testing.T) {
	screen := newSimScreen(t, 160, 45)
	a := newApp(screen, game.DefaultSettings(), rand.New(rand.NewSource(1)), nil)
	f := a.session.Frame()
	a.view.draw(f, false, time.Now())

	if hud := row(screen, 0); !strings.Contains(hud, "Goals 0") || !strings.Contains(hud, "●●●●●") {
		t.Errorf("HUD missing tallies: %q", hud)
	}

	left := f.Posts[0]
	x, y := cellOf(geom.V(left.X+1, left.Y+left.H/2))
	if ch, _, _, _ := screen.GetContent(x, y); ch != '█' {
		t.Errorf("Expected left post at (%d, %d), got %q", x, y, ch)
	}

	bx, by := cellOf(f.Ball.Position)
	if ch, _, _, _ := screen.GetContent(bx, by); ch != '●' {
		t.Errorf("Expected ball at (%d, %d), got %q", bx, by, ch)
	}

	kx, ky := cellOf(f.Keeper.Position)
	if ch, _, _, _ := screen.GetContent(kx, ky); ch != 'O' {
		t.Errorf("Expected keeper at (%d, %d), got %q", kx, ky, ch)
	}
}

func TestBannerFollowsCues(t *testing.T) {
	screen := newSimScreen(t, 80, 30)
	r := newRenderer(screen)
	now := time.Now()

	r.cue(game.CueKick, now)
	if r.banner != "" {
		t.Errorf("Kick should not raise a banner, got %q", r.banner)
	}
	r.cue(game.CueSave, now)
	r.draw(game.Frame{}, false, now.Add(time.Second))
	if mid := row(screen, 15); !strings.Contains(mid, "SAVED") {
		t.Errorf("Expected SAVED banner, got %q", mid)
	}
	r.draw(game.Frame{}, false, now.Add(2*time.Second))
	if mid := row(screen, 15); strings.Contains(mid, "SAVED") {
		t.Error("Banner should expire")
	}
}

func TestMouseSwipeKicks(t *testing.T) {
	screen := newSimScreen(t, 160, 45)
	a := newApp(screen, game.DefaultSettings(), rand.New(rand.NewSource(1)), nil)
	a.handle(tcell.NewEventMouse(80, 40, tcell.Button1, tcell.ModNone))
	a.handle(tcell.NewEventMouse(78, 34, tcell.Button1, tcell.ModNone))
	a.handle(tcell.NewEventMouse(76, 28, tcell.ButtonNone, tcell.ModNone))

	if a.pressed {
		t.Error("Release should end the gesture")
	}
	if shots := a.session.Tallies().Shots; shots != 1 {
		t.Errorf("Expected a kick, shots=%d", shots)
	}
	if len(a.view.trail) != 0 {
		t.Error("Trail should clear on release")
	}
}

func TestKeys(t *testing.T) {
	screen := newSimScreen(t, 160, 45)
	a := newApp(screen, game.DefaultSettings(), rand.New(rand.NewSource(1)), nil)

	if !a.handle(tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone)) || !a.paused {
		t.Error("p should pause")
	}
	a.handle(tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone))
	if a.paused {
		t.Error("p again should resume")
	}
	if a.handle(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("q should quit")
	}
	if a.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Esc should quit")
	}
}
