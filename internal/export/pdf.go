package export

import (
	"fmt"
	"math"

	"github.com/jung-kurt/gofpdf"

	"github.com/sanehaakhtar/localboard/internal/state"
)

const (
	pageW  = 297.0 // A4 landscape, mm
	pageH  = 210.0
	margin = 10.0
)

// PDF draws the boxes on one A4 landscape page, scaled to fit and in
// stacking order, and writes it to path.
func PDF(path string, boxes []state.Box) error {
	p := gofpdf.New("L", "mm", "A4", "")
	p.AddPage()
	p.SetDrawColor(113, 128, 150)
	p.SetFillColor(254, 252, 191)
	p.SetLineWidth(0.3)

	scale, origin := fit(boxes)
	for _, b := range boxes {
		p.Rect(
			margin+(b.X-origin.X)*scale,
			margin+(b.Y-origin.Y)*scale,
			b.Width*scale,
			b.Height*scale,
			"FD",
		)
	}
	if err := p.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf %s: %w", path, err)
	}
	return nil
}

// fit returns the scale and top-left canvas point that map the boxes'
// bounding rectangle onto the printable area without enlarging them.
func fit(boxes []state.Box) (float64, state.Point) {
	if len(boxes) == 0 {
		return 1, state.Point{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range boxes {
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.Width)
		maxY = math.Max(maxY, b.Y+b.Height)
	}
	w, h := maxX-minX, maxY-minY
	scale := 1.0
	if w > 0 {
		scale = math.Min(scale, (pageW-2*margin)/w)
	}
	if h > 0 {
		scale = math.Min(scale, (pageH-2*margin)/h)
	}
	return scale, state.Point{X: minX, Y: minY}
}
