package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/sanehaakhtar/localboard/internal/interact"
	"github.com/sanehaakhtar/localboard/internal/state"
)

// BoardWidget shows the board and forwards pointer and keyboard input to
// the interaction controller. It holds no board state of its own.
type BoardWidget struct {
	widget.BaseWidget
	store *state.Store
	ctrl  *interact.Controller
	last  fyne.Position
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Focusable = (*BoardWidget)(nil)
var _ fyne.Shortcutable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

func NewBoardWidget(store *state.Store, ctrl *interact.Controller) *BoardWidget {
	b := &BoardWidget{store: store, ctrl: ctrl}
	b.ExtendBaseWidget(b)
	return b
}

func point(p fyne.Position) state.Point {
	return state.Point{X: float64(p.X), Y: float64(p.Y)}
}

func modifiers(m fyne.KeyModifier) interact.Modifier {
	var out interact.Modifier
	if m&fyne.KeyModifierShift != 0 {
		out |= interact.ModShift
	}
	if m&fyne.KeyModifierControl != 0 {
		out |= interact.ModControl
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= interact.ModAlt
	}
	if m&fyne.KeyModifierSuper != 0 {
		out |= interact.ModSuper
	}
	return out
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	if c := fyne.CurrentApp().Driver().CanvasForObject(b); c != nil {
		c.Focus(b)
	}
	b.last = e.Position
	b.ctrl.PointerDown(point(e.Position), modifiers(e.Modifier))
	b.Refresh()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.ctrl.PointerUp(point(e.Position))
	b.Refresh()
}

// Dragged keeps delivering positions after the pointer leaves the widget,
// which is what gestures rely on.
func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.last = e.Position
	b.ctrl.PointerMove(point(e.Position))
	b.Refresh()
}

func (b *BoardWidget) DragEnd() {
	b.ctrl.PointerUp(point(b.last))
	b.Refresh()
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}
func (b *BoardWidget) MouseOut()                   {}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	if b.ctrl.Gesture() == interact.Idle {
		return
	}
	b.last = e.Position
	b.ctrl.PointerMove(point(e.Position))
	b.Refresh()
}

func (b *BoardWidget) FocusGained()   {}
func (b *BoardWidget) FocusLost()     {}
func (b *BoardWidget) TypedRune(rune) {}

func (b *BoardWidget) TypedKey(e *fyne.KeyEvent) {
	var k interact.Key
	switch e.Name {
	case fyne.KeyEscape:
		k = interact.KeyEscape
	case fyne.KeyDelete:
		k = interact.KeyDelete
	case fyne.KeyBackspace:
		k = interact.KeyBackspace
	default:
		return
	}
	if b.ctrl.HandleKey(k, 0) {
		b.Refresh()
	}
}

func (b *BoardWidget) TypedShortcut(s fyne.Shortcut) {
	switch s.(type) {
	case *fyne.ShortcutCopy:
		b.ctrl.HandleKey(interact.KeyC, interact.ModControl)
	case *fyne.ShortcutPaste:
		b.ctrl.HandleKey(interact.KeyV, interact.ModControl)
	default:
		return
	}
	b.Refresh()
}

// AddBox creates a box from the toolbar.
func (b *BoardWidget) AddBox() {
	b.ctrl.AddBox()
	b.Refresh()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return newBoardRenderer(b)
}
