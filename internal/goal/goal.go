package goal

import (
	"math"

	"github.com/vladimirvolkov/penalty/internal/geom"
)

const (
	Cols      = 4
	Rows      = 3
	ZoneCount = Cols * Rows
)

// Viewport is the drawable surface size, refreshed by the resize observer.
type Viewport struct {
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

func (v Viewport) Bounds() geom.Rect { return geom.Rect{W: v.Width, H: v.Height} }

// Layout holds frame art dimensions (texture pixels) and screen placement.
type Layout struct {
	TextureWidth   float64 `toml:"texture_width"`
	PostWidth      float64 `toml:"post_width"`
	PostHeight     float64 `toml:"post_height"`
	CrossbarHeight float64 `toml:"crossbar_height"`
	WidthRatio     float64 `toml:"width_ratio"`
	TopRatio       float64 `toml:"top_ratio"`
}

func DefaultLayout() Layout {
	return Layout{
		TextureWidth:   1440,
		PostWidth:      40,
		PostHeight:     520,
		CrossbarHeight: 40,
		WidthRatio:     0.7,
		TopRatio:       1.0 / 6,
	}
}

// Zone is one cell of the 4x3 scoring grid. IDs run 1..12 row-major.
type Zone struct {
	ID   int       `json:"id" msgpack:"id"`
	Row  int       `json:"row" msgpack:"row"`
	Col  int       `json:"col" msgpack:"col"`
	Rect geom.Rect `json:"rect" msgpack:"rect"`
}

func (z Zone) Center() geom.Vec2 { return z.Rect.Center() }

// ValidZoneID reports whether id names one of the twelve grid cells.
func ValidZoneID(id int) bool { return id >= 1 && id <= ZoneCount }

// ZoneByID builds a zone record with row/col only, for callers that need
// the grid position without geometry.
func ZoneByID(id int) Zone {
	return Zone{ID: id, Row: (id - 1) / Cols, Col: (id - 1) % Cols}
}

type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// InteractionZone is a flank region just outside a post ("green" zone).
type InteractionZone struct {
	Type string    `json:"type" msgpack:"type"`
	Side Side      `json:"side" msgpack:"side"`
	Rect geom.Rect `json:"rect" msgpack:"rect"`
}

type flank struct {
	side  Side
	local geom.Rect
}

// Goal owns the frame layout and answers geometry queries. Only Relayout
// mutates it; every query is derived from the current posts and crossbar.
type Goal struct {
	layout   Layout
	viewport Viewport

	scale     float64
	leftPost  geom.Rect
	rightPost geom.Rect
	crossbar  geom.Rect
	flanks    []flank
}

func New(layout Layout, vp Viewport) *Goal {
	g := &Goal{layout: layout}
	g.Relayout(vp)
	return g
}

// Relayout recomputes post and crossbar rectangles for a new viewport.
func (g *Goal) Relayout(vp Viewport) {
	g.viewport = vp
	l := g.layout

	frameW := vp.Width * l.WidthRatio
	s := 0.0
	if l.TextureWidth > 0 {
		s = frameW / l.TextureWidth
	}
	if frameW < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		frameW, s = 0, 0
	}
	g.scale = s

	left := vp.Width/2 - frameW/2
	top := vp.Height * l.TopRatio
	postW := l.PostWidth * s
	postH := l.PostHeight * s
	barH := l.CrossbarHeight * s

	g.leftPost = geom.Rect{X: left, Y: top, W: postW, H: postH}
	g.rightPost = geom.Rect{X: left + frameW - postW, Y: top, W: postW, H: postH}
	g.crossbar = geom.Rect{X: left, Y: top, W: frameW, H: barH}

	g.setupFlanks()
}

func (g *Goal) setupFlanks() {
	area := g.GoalArea()
	w := geom.Clamp(area.W*0.08, 24, 60)
	const gap = 6
	g.flanks = []flank{
		{side: SideLeft, local: geom.Rect{X: -w - gap, Y: 0, W: w, H: area.H}},
		{side: SideRight, local: geom.Rect{X: area.W + gap, Y: 0, W: w, H: area.H}},
	}
}

func (g *Goal) Viewport() Viewport { return g.viewport }

// Scale is the frame sprite scale (screen px per texture px).
func (g *Goal) Scale() float64 { return g.scale }

func (g *Goal) Posts() (left, right, crossbar geom.Rect) {
	return g.leftPost, g.rightPost, g.crossbar
}

// GoalArea is the net interior: between the inner post edges and from the
// crossbar underside to the post bottoms.
func (g *Goal) GoalArea() geom.Rect {
	x := g.leftPost.Right()
	y := g.leftPost.Y + g.crossbar.H
	w := g.rightPost.X - x
	h := g.leftPost.H - g.crossbar.H
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return geom.Rect{X: x, Y: y, W: w, H: h}
}

func (g *Goal) Center() geom.Vec2 { return g.GoalArea().Center() }

// Zones partitions the goal area into Cols x Rows cells, row-major.
func (g *Goal) Zones() []Zone {
	area := g.GoalArea()
	zw := area.W / Cols
	zh := area.H / Rows
	zones := make([]Zone, 0, ZoneCount)
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			zones = append(zones, Zone{
				ID:  row*Cols + col + 1,
				Row: row,
				Col: col,
				Rect: geom.Rect{
					X: area.X + float64(col)*zw,
					Y: area.Y + float64(row)*zh,
					W: zw,
					H: zh,
				},
			})
		}
	}
	return zones
}

// Zone returns the zone with the given id.
func (g *Goal) Zone(id int) (Zone, bool) {
	if !ValidZoneID(id) {
		return Zone{}, false
	}
	return g.Zones()[id-1], true
}

// ZoneAt returns the first zone containing (x, y), bounds inclusive.
// Points inside the goal area that fall through rounding seams between
// cells resolve by grid index, so the grid has no gaps.
func (g *Goal) ZoneAt(x, y float64) (Zone, bool) {
	zones := g.Zones()
	for _, z := range zones {
		if z.Rect.Contains(x, y) {
			return z, true
		}
	}
	area := g.GoalArea()
	if !area.Contains(x, y) {
		return Zone{}, false
	}
	col := int(geom.Clamp(math.Floor((x-area.X)/(area.W/Cols)), 0, Cols-1))
	row := int(geom.Clamp(math.Floor((y-area.Y)/(area.H/Rows)), 0, Rows-1))
	return zones[row*Cols+col], true
}

// NearestZone returns the zone whose center is closest to p.
func (g *Goal) NearestZone(p geom.Vec2) Zone {
	zones := g.Zones()
	best := zones[0]
	bestD := math.Inf(1)
	for _, z := range zones {
		if d := z.Center().Dist(p); d < bestD {
			best, bestD = z, d
		}
	}
	return best
}

func (g *Goal) InGoalArea(x, y float64) bool {
	return g.GoalArea().Contains(x, y)
}

// InteractionZoneAt returns the flank region containing the world point.
func (g *Goal) InteractionZoneAt(x, y float64) (InteractionZone, bool) {
	area := g.GoalArea()
	for _, f := range g.flanks {
		world := geom.Rect{X: area.X + f.local.X, Y: area.Y + f.local.Y, W: f.local.W, H: f.local.H}
		if world.Contains(x, y) {
			return InteractionZone{Type: "green", Side: f.side, Rect: world}, true
		}
	}
	return InteractionZone{}, false
}
