// Package termview draws the flock on a terminal. Every cell shows the
// heading of one of the agents inside it as an arrow.
package termview

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
)

// arrows are indexed by heading octant, starting at +X and turning toward +Y.
// Rows grow downward on a terminal, so +Y points down.
var arrows = [8]rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

const attractorRune = '✚'

var (
	agentStyle     = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	crowdStyle     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	attractorStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	statusStyle    = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

// Glyph returns the arrow closest to heading, in radians.
func Glyph(heading float64) rune {
	octant := int(math.Round(heading/(math.Pi/4))) % 8
	if octant < 0 {
		octant += 8
	}
	return arrows[octant]
}

// Viewport maps the simulation area onto a grid of terminal cells.
type Viewport struct {
	Area       geometry.Rectangle
	Cols, Rows int
}

// CellOf returns the cell showing pos. ok is false when pos is outside the area.
func (v Viewport) CellOf(pos geometry.Vector2D) (col, row int, ok bool) {
	if v.Cols <= 0 || v.Rows <= 0 || !v.Area.Contains(pos) {
		return 0, 0, false
	}
	lo := v.Area.Min()
	col = int((pos.X - lo.X) / v.Area.Width() * float64(v.Cols))
	row = int((pos.Y - lo.Y) / v.Area.Height() * float64(v.Rows))
	return min(col, v.Cols-1), min(row, v.Rows-1), true
}

// WorldOf returns the world position at the center of a cell.
func (v Viewport) WorldOf(col, row int) geometry.Vector2D {
	lo := v.Area.Min()
	return geometry.Vector2D{
		X: lo.X + (float64(col)+0.5)*v.Area.Width()/float64(max(v.Cols, 1)),
		Y: lo.Y + (float64(row)+0.5)*v.Area.Height()/float64(max(v.Rows, 1)),
	}
}

// View renders snapshots on a tcell screen, keeping the last row for a status line.
type View struct {
	screen tcell.Screen
	area   geometry.Rectangle
	vp     Viewport
	counts []int
}

func NewView(screen tcell.Screen, area geometry.Rectangle) *View {
	v := &View{screen: screen, area: area}
	v.Resize()
	return v
}

// Resize follows the current screen size.
func (v *View) Resize() {
	w, h := v.screen.Size()
	v.vp = Viewport{Area: v.area, Cols: w, Rows: max(h-1, 0)}
	v.counts = make([]int, v.vp.Cols*v.vp.Rows)
}

// Viewport returns the mapping used by the last Resize.
func (v *View) Viewport() Viewport { return v.vp }

// Draw paints one snapshot. Cells holding more than one agent are highlighted.
func (v *View) Draw(snap *simulation.WorldSnapshot) {
	v.screen.Clear()
	clear(v.counts)

	for _, a := range snap.Agents {
		col, row, ok := v.vp.CellOf(a.Pos)
		if !ok {
			continue
		}
		i := row*v.vp.Cols + col
		v.counts[i]++
		style := agentStyle
		if v.counts[i] > 1 {
			style = crowdStyle
		}
		v.screen.SetContent(col, row, Glyph(a.Heading), nil, style)
	}

	for _, p := range snap.Attractors {
		if col, row, ok := v.vp.CellOf(p); ok {
			v.screen.SetContent(col, row, attractorRune, nil, attractorStyle)
		}
	}

	v.drawStatus(snap.Stats)
	v.screen.Show()
}

func (v *View) drawStatus(stats simulation.TickStats) {
	row := v.vp.Rows
	line := fmt.Sprintf(" tick %d | agents %d | points %d | depth %d | steer %v | move %v | click: add point, right click: remove, c: clear, q: quit",
		stats.Tick, stats.Agents, stats.Attractors, stats.Depth,
		stats.Compute.Round(10*time.Microsecond), stats.Integrate.Round(10*time.Microsecond))
	col := 0
	for _, r := range line {
		if col >= v.vp.Cols {
			break
		}
		v.screen.SetContent(col, row, r, nil, statusStyle)
		col++
	}
	for ; col < v.vp.Cols; col++ {
		v.screen.SetContent(col, row, ' ', nil, statusStyle)
	}
}
