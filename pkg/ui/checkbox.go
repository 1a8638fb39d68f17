package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	checkBorder = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	checkHover  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	checkFill   = color.RGBA{R: 100, G: 200, B: 100, A: 255}
)

// Checkbox toggles one of the overlays. It changes on the press edge of the
// left button, holding the button down over it does not flicker.
type Checkbox struct {
	Label string
	Value bool
	X, Y  float64
	Size  float64
	held  bool
}

// NewCheckbox creates a new checkbox instance
func NewCheckbox(x, y float64, label string, value bool) *Checkbox {
	return &Checkbox{
		Label: label,
		Value: value,
		X:     x,
		Y:     y,
		Size:  16,
	}
}

// Set stores v and reports whether the value changed.
func (c *Checkbox) Set(v bool) bool {
	changed := c.Value != v
	c.Value = v
	return changed
}

// Toggle flips the value, for keyboard shortcuts.
func (c *Checkbox) Toggle() { c.Value = !c.Value }

// press feeds one frame of mouse state: over is true when the cursor is on
// the box, down when the left button is pressed.
func (c *Checkbox) press(over, down bool) {
	if over && down {
		if !c.held {
			c.Toggle()
		}
		c.held = true
		return
	}
	c.held = false
}

func (c *Checkbox) over(mx, my int) bool {
	return within(float64(mx), float64(my), c.X, c.Y, c.Size, c.Size)
}

// Update checks for mouse interaction
func (c *Checkbox) Update() {
	mx, my := ebiten.CursorPosition()
	c.press(c.over(mx, my), ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
}

// Draw renders the checkbox, the border lights up under the cursor.
func (c *Checkbox) Draw(screen *ebiten.Image) {
	border := checkBorder
	if c.over(ebiten.CursorPosition()) {
		border = checkHover
	}
	vector.StrokeRect(screen, float32(c.X), float32(c.Y), float32(c.Size), float32(c.Size), 2, border, true)

	if c.Value {
		vector.FillRect(screen, float32(c.X+2), float32(c.Y+2), float32(c.Size-4), float32(c.Size-4), checkFill, true)
	}
}
