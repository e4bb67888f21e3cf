package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/vladimirvolkov/penalty/internal/game"
	"github.com/vladimirvolkov/penalty/internal/geom"
	"github.com/vladimirvolkov/penalty/internal/goal"
	"github.com/vladimirvolkov/penalty/internal/keeper"
)

// A terminal cell stands in for an 8x16 pixel block of the simulated field.
const (
	cellW = 8
	cellH = 16
)

const bannerTime = 1500 * time.Millisecond

var (
	grassStyle  = tcell.StyleDefault.Background(tcell.ColorDarkGreen).Foreground(tcell.ColorGreen)
	netStyle    = tcell.StyleDefault.Background(tcell.ColorDarkGreen).Foreground(tcell.ColorSilver)
	zoneStyle   = tcell.StyleDefault.Background(tcell.ColorDarkGreen).Foreground(tcell.ColorGray)
	postStyle   = tcell.StyleDefault.Background(tcell.ColorDarkGreen).Foreground(tcell.ColorWhite)
	keeperStyle = tcell.StyleDefault.Background(tcell.ColorDarkGreen).Foreground(tcell.ColorYellow).Bold(true)
	ballStyle   = tcell.StyleDefault.Background(tcell.ColorDarkGreen).Foreground(tcell.ColorWhite).Bold(true)
	shadowStyle = tcell.StyleDefault.Background(tcell.ColorDarkGreen).Foreground(tcell.ColorBlack)
	trailStyle  = tcell.StyleDefault.Background(tcell.ColorDarkGreen).Foreground(tcell.ColorAqua)
	hudStyle    = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	powerStyle  = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorOrange)
)

func viewportFor(cols, rows int) goal.Viewport {
	return goal.Viewport{Width: float64(cols * cellW), Height: float64(rows * cellH)}
}

// pixelOf maps a cell to the pixel at its center.
func pixelOf(x, y int) geom.Vec2 {
	return geom.V(float64(x*cellW+cellW/2), float64(y*cellH+cellH/2))
}

func cellOf(p geom.Vec2) (int, int) {
	return int(p.X / cellW), int(p.Y / cellH)
}

type renderer struct {
	screen tcell.Screen
	trail  []geom.Vec2

	banner      string
	bannerStyle tcell.Style
	bannerUntil time.Time
}

func newRenderer(screen tcell.Screen) *renderer {
	return &renderer{screen: screen}
}

// cue turns outcome cues into a short banner.
func (r *renderer) cue(name string, now time.Time) {
	base := tcell.StyleDefault.Bold(true)
	switch name {
	case game.CueGoal:
		r.banner, r.bannerStyle = " GOAL! ", base.Background(tcell.ColorGreen).Foreground(tcell.ColorBlack)
	case game.CueSave:
		r.banner, r.bannerStyle = " SAVED ", base.Background(tcell.ColorYellow).Foreground(tcell.ColorBlack)
	case game.CueOut:
		r.banner, r.bannerStyle = " MISSED ", base.Background(tcell.ColorRed).Foreground(tcell.ColorWhite)
	default:
		return
	}
	r.bannerUntil = now.Add(bannerTime)
}

func (r *renderer) draw(f game.Frame, paused bool, now time.Time) {
	w, h := r.screen.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r.screen.SetContent(x, y, ' ', nil, grassStyle)
		}
	}

	r.fillRect(f.GoalArea, '░', netStyle)
	if f.Aiming {
		for _, z := range f.Zones {
			x, y := cellOf(z.Center())
			r.text(x, y, strconv.Itoa(z.ID), zoneStyle)
		}
	}
	for _, post := range f.Posts {
		r.fillRect(post, '█', postStyle)
	}

	r.drawKeeper(f.Keeper)

	for _, p := range r.trail {
		x, y := cellOf(p)
		r.screen.SetContent(x, y, '·', nil, trailStyle)
	}

	if b := f.Ball; b != nil {
		sx, sy := cellOf(b.Position.Add(geom.V(0, b.Height)))
		if b.Height > cellH {
			r.screen.SetContent(sx, sy, '▁', nil, shadowStyle)
		}
		x, y := cellOf(b.Position)
		r.screen.SetContent(x, y, '●', nil, ballStyle)
	}

	r.drawHUD(f, w)

	switch {
	case f.GameOver:
		r.centered(h/2, fmt.Sprintf(" FULL TIME  %d/%d goals  (n: new game, q: quit) ", f.Tallies.Goals, f.Tallies.Shots),
			tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack).Bold(true))
	case paused:
		r.centered(h/2, " PAUSED ", hudStyle.Reverse(true))
	case now.Before(r.bannerUntil):
		r.centered(h/2, r.banner, r.bannerStyle)
	}

	r.screen.Show()
}

func (r *renderer) drawKeeper(k keeper.State) {
	x, y := cellOf(k.Position)
	body := `\O/`
	switch k.Pose {
	case keeper.PoseDiving:
		body = "=O="
		if k.Rotation < 0 {
			body = "<O="
		} else if k.Rotation > 0 {
			body = "=O>"
		}
	case keeper.PoseFalling:
		body = "_o_"
	}
	r.text(x-1, y, body, keeperStyle)
	if k.Pose == keeper.PoseIdle {
		r.text(x-1, y+1, "/ \\", keeperStyle)
	}
}

func (r *renderer) drawHUD(f game.Frame, w int) {
	for x := 0; x < w; x++ {
		r.screen.SetContent(x, 0, ' ', nil, hudStyle)
	}
	t := f.Tallies
	balls := strings.Repeat("●", f.BallsRemaining)
	hud := fmt.Sprintf(" Goals %d  Saves %d  Out %d  Shots %d  Acc %.1f%%  Balls %s",
		t.Goals, t.Saves, t.Outs, t.Shots, t.Accuracy, balls)
	r.text(0, 0, hud, hudStyle)

	if f.Aiming {
		const barLen = 20
		filled := int(f.Power / 100 * barLen)
		bar := "Power [" + strings.Repeat("█", filled) + strings.Repeat(" ", barLen-filled) + "]"
		r.text(w-len([]rune(bar))-1, 0, bar, powerStyle)
	}
}

func (r *renderer) fillRect(rect geom.Rect, ch rune, style tcell.Style) {
	if rect.W <= 0 || rect.H <= 0 {
		return
	}
	x0, y0 := cellOf(geom.V(rect.X, rect.Y))
	x1, y1 := cellOf(geom.V(rect.Right()-1, rect.Bottom()-1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			r.screen.SetContent(x, y, ch, nil, style)
		}
	}
}

func (r *renderer) text(x, y int, s string, style tcell.Style) {
	for _, ch := range s {
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}

func (r *renderer) centered(y int, s string, style tcell.Style) {
	w, _ := r.screen.Size()
	r.text((w-len([]rune(s)))/2, y, s, style)
}
