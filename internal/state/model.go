package state

import "math"

const (
	// MinSize is the smallest width or height a local resize may produce.
	MinSize = 50.0
	// HandleSize is the side of the square resize handle at a box's
	// bottom-right corner.
	HandleSize = 20.0
)

// Point is a canvas-relative position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Box is a rectangle on the shared canvas. Whether it is selected is local
// to a participant and lives in Selection, never here.
type Box struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Box) Position() Point { return Point{X: b.X, Y: b.Y} }

// Corner is the bottom-right corner, the anchor of a resize.
func (b Box) Corner() Point { return Point{X: b.X + b.Width, Y: b.Y + b.Height} }

func (b Box) Rect() Rect { return Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height} }

// Move is the payload of move-box and an element of move-boxes.
type Move struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Resize is the payload of resize-box.
type Resize struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Part names the region of a box hit by the pointer.
type Part int

const (
	PartNone Part = iota
	PartBody
	PartHandle
)

func (p Part) String() string {
	switch p {
	case PartBody:
		return "body"
	case PartHandle:
		return "handle"
	default:
		return "none"
	}
}

// ClampSize applies the resize floor per axis.
func ClampSize(w, h, floor float64) (float64, float64) {
	return math.Max(floor, w), math.Max(floor, h)
}
