package state

import "math"

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// RectFromPoints normalizes two arbitrary corners into a Rect.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

// Overlaps reports whether the two rectangles share a region of non-zero
// area. Rectangles that only touch along an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.Width && r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height && r.Y+r.Height > o.Y
}

// Contains is inclusive on all edges; it is used for pointer hit-testing.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Selection is the set of box IDs selected by the local participant.
// It is never sent to peers. Selection is not safe for concurrent use; the
// interaction controller owns it.
type Selection struct {
	ids map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Click replaces the selection with id, or adds id when additive is set.
func (s *Selection) Click(id string, additive bool) {
	if !additive {
		s.Clear()
	}
	s.ids[id] = struct{}{}
}

// Replace sets the selection to exactly ids.
func (s *Selection) Replace(ids []string) {
	s.Clear()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Clear() {
	clear(s.ids)
}

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int { return len(s.ids) }

// IDs returns the selected IDs in unspecified order.
func (s *Selection) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	return ids
}

// Prune drops selected IDs for which exists returns false.
func (s *Selection) Prune(exists func(id string) bool) {
	for id := range s.ids {
		if !exists(id) {
			delete(s.ids, id)
		}
	}
}

// Intersecting returns the IDs of boxes whose rectangle overlaps r, in the
// order given.
func Intersecting(boxes []Box, r Rect) []string {
	var ids []string
	for _, b := range boxes {
		if b.Rect().Overlaps(r) {
			ids = append(ids, b.ID)
		}
	}
	return ids
}
