package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/sanehaakhtar/localboard/internal/state"
)

var (
	boxFill        = color.NRGBA{R: 254, G: 249, B: 195, A: 255}
	boxBorder      = color.NRGBA{R: 254, G: 240, B: 138, A: 255}
	selectedBorder = color.NRGBA{R: 59, G: 130, B: 246, A: 255}
	handleFill     = color.NRGBA{R: 74, G: 85, B: 104, A: 128}
	bandBorder     = color.NRGBA{R: 74, G: 144, B: 226, A: 255}
	bandFill       = color.NRGBA{R: 74, G: 144, B: 226, A: 26}
)

type boardRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
}

func newBoardRenderer(b *BoardWidget) *boardRenderer {
	return &boardRenderer{board: b, background: canvas.NewRectangle(color.White)}
}

func pos(x, y float64) fyne.Position { return fyne.NewPos(float32(x), float32(y)) }
func size(w, h float64) fyne.Size    { return fyne.NewSize(float32(w), float32(h)) }

// Objects rebuilds the scene from the store on every call, bottom box first.
func (r *boardRenderer) Objects() []fyne.CanvasObject {
	objects := []fyne.CanvasObject{r.background}
	for _, b := range r.board.store.Boxes() {
		rect := canvas.NewRectangle(boxFill)
		rect.StrokeColor = boxBorder
		rect.StrokeWidth = 1
		if r.board.ctrl.IsSelected(b.ID) {
			rect.StrokeColor = selectedBorder
			rect.StrokeWidth = 2
		}
		rect.Move(pos(b.X, b.Y))
		rect.Resize(size(b.Width, b.Height))

		handle := canvas.NewRectangle(handleFill)
		handle.Move(pos(b.X+b.Width-state.HandleSize, b.Y+b.Height-state.HandleSize))
		handle.Resize(size(state.HandleSize, state.HandleSize))

		objects = append(objects, rect, handle)
	}
	if band, ok := r.board.ctrl.SelectionRect(); ok {
		rect := canvas.NewRectangle(bandFill)
		rect.StrokeColor = bandBorder
		rect.StrokeWidth = 1
		rect.Move(pos(band.X, band.Y))
		rect.Resize(size(band.Width, band.Height))
		objects = append(objects, rect)
	}
	return objects
}

func (r *boardRenderer) Refresh() {
	canvas.Refresh(r.board)
}

func (r *boardRenderer) Layout(s fyne.Size) {
	r.background.Resize(s)
}

func (r *boardRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardRenderer) Destroy() {}
