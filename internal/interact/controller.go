// Package interact turns a participant's pointer and keyboard input into
// board edits: dragging, resizing, rubber-band selection, and the clipboard
// shortcuts.
package interact

import (
	"log/slog"
	"sync"

	"github.com/sanehaakhtar/localboard/internal/state"
)

// Modifier is a bit set of held modifier keys.
type Modifier int

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModAlt
	ModSuper
)

func (m Modifier) Has(o Modifier) bool { return m&o != 0 }

// GestureKind identifies the pointer gesture in progress.
type GestureKind int

const (
	Idle GestureKind = iota
	Dragging
	Resizing
	Banding
)

func (k GestureKind) String() string {
	switch k {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case Banding:
		return "banding"
	default:
		return "idle"
	}
}

// Options tune the controller. Zero fields take the defaults.
type Options struct {
	MinSize     float64
	PasteOffset float64
	NewBox      state.Box
}

// DefaultOptions matches the stock board: 50 unit floor, pastes shifted by
// 10, new boxes 100x100 at (50,50).
func DefaultOptions() Options {
	return Options{
		MinSize:     state.MinSize,
		PasteOffset: 10,
		NewBox:      state.Box{X: 50, Y: 50, Width: 100, Height: 100},
	}
}

// Controller is the local participant's interaction state machine. Every
// entry point is serialized by one lock, so pointer, keyboard and shortcut
// handling observe a consistent selection and gesture.
type Controller struct {
	mu        sync.Mutex
	store     *state.Store
	sel       *state.Selection
	ids       state.IDGenerator
	clip      Slot
	opts      Options
	listeners *Listeners
	log       *slog.Logger

	gesture *Subscription
	kind    GestureKind
	band    *bandGesture
}

func NewController(store *state.Store, clip Slot, ids state.IDGenerator, opts Options, log *slog.Logger) *Controller {
	def := DefaultOptions()
	if opts.MinSize <= 0 {
		opts.MinSize = def.MinSize
	}
	if opts.PasteOffset == 0 {
		opts.PasteOffset = def.PasteOffset
	}
	if opts.NewBox.Width <= 0 || opts.NewBox.Height <= 0 {
		opts.NewBox = def.NewBox
	}
	if ids == nil {
		ids = state.UUIDs{}
	}
	if clip == nil {
		clip = &MemorySlot{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		store:     store,
		sel:       state.NewSelection(),
		ids:       ids,
		clip:      clip,
		opts:      opts,
		listeners: NewListeners(),
		log:       log.With("component", "interact"),
	}
}

// syncSelection forgets selected boxes that a peer has deleted.
func (c *Controller) syncSelection() {
	c.sel.Prune(c.store.Has)
}

func (c *Controller) begin(kind GestureKind, h PointerHandler) {
	c.end()
	c.kind = kind
	c.gesture = c.listeners.Subscribe(h)
	c.log.Debug("gesture started", "kind", kind)
}

func (c *Controller) end() {
	if !c.gesture.Active() {
		return
	}
	c.log.Debug("gesture ended", "kind", c.kind)
	c.gesture.Release()
	c.gesture = nil
	c.kind = Idle
	c.band = nil
}

// PointerDown starts a drag on a box body, a resize on a resize handle, or
// a rubber band on empty canvas.
func (c *Controller) PointerDown(p state.Point, mods Modifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncSelection()

	id, part := c.store.HitTest(p)
	b, ok := c.store.Get(id)
	switch {
	case ok && part == state.PartHandle:
		c.begin(Resizing, &resizeGesture{c: c, id: id, offset: p.Sub(b.Corner())})
	case ok && part == state.PartBody:
		g := &dragGesture{c: c, id: id, offset: p.Sub(b.Position())}
		// Pressing a member of a multi-selection keeps the group so it can be
		// dragged; a press that never moves still collapses it on release.
		if !mods.Has(ModShift) && c.sel.Has(id) && c.sel.Len() > 1 {
			g.collapse = true
		} else {
			c.sel.Click(id, mods.Has(ModShift))
		}
		c.begin(Dragging, g)
	default:
		c.sel.Clear()
		g := &bandGesture{c: c, anchor: p, cursor: p}
		c.begin(Banding, g)
		c.band = g
	}
}

// PointerMove and PointerUp are board-wide: they reach the active gesture
// wherever the pointer is.
func (c *Controller) PointerMove(p state.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners.Move(p)
}

func (c *Controller) PointerUp(p state.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners.Up(p)
}

// Gesture reports the gesture in progress.
func (c *Controller) Gesture() GestureKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kind
}

// SelectionRect returns the live rubber band, if one is being drawn.
func (c *Controller) SelectionRect() (state.Rect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.band == nil {
		return state.Rect{}, false
	}
	return state.RectFromPoints(c.band.anchor, c.band.cursor), true
}

// Selected returns the selected box IDs in stacking order.
func (c *Controller) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncSelection()
	var ids []string
	for _, b := range c.store.Selected(c.sel) {
		ids = append(ids, b.ID)
	}
	return ids
}

func (c *Controller) IsSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Has(id) && c.store.Has(id)
}

// AddBox creates a default-sized box with a fresh identifier.
func (c *Controller) AddBox() state.Box {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.opts.NewBox
	b.ID = state.UniqueID(c.ids, c.store.Has)
	c.store.ApplyLocalCreate(b)
	return b
}

// Close releases any pointer subscription still held.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.end()
	c.listeners.ReleaseAll()
}

// ActiveSubscriptions reports live pointer subscriptions.
func (c *Controller) ActiveSubscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listeners.Active()
}

type dragGesture struct {
	c        *Controller
	id       string
	offset   state.Point
	collapse bool
	moved    bool
}

func (g *dragGesture) PointerMove(p state.Point) {
	c := g.c
	if !c.store.Has(g.id) {
		c.end()
		return
	}
	g.moved = true
	to := p.Sub(g.offset)
	c.syncSelection()
	if c.sel.Has(g.id) && c.sel.Len() > 1 {
		c.store.TranslateGroup(g.id, to, c.sel.IDs())
		return
	}
	c.store.ApplyLocalMove(g.id, to.X, to.Y)
}

func (g *dragGesture) PointerUp(state.Point) {
	if g.collapse && !g.moved {
		g.c.sel.Click(g.id, false)
	}
	g.c.end()
}

type resizeGesture struct {
	c      *Controller
	id     string
	offset state.Point
}

func (g *resizeGesture) PointerMove(p state.Point) {
	c := g.c
	b, ok := c.store.Get(g.id)
	if !ok {
		c.end()
		return
	}
	size := p.Sub(b.Position()).Sub(g.offset)
	w, h := state.ClampSize(size.X, size.Y, c.opts.MinSize)
	c.store.ApplyLocalResize(g.id, w, h)
}

func (g *resizeGesture) PointerUp(state.Point) { g.c.end() }

type bandGesture struct {
	c      *Controller
	anchor state.Point
	cursor state.Point
}

func (g *bandGesture) PointerMove(p state.Point) { g.cursor = p }

func (g *bandGesture) PointerUp(p state.Point) {
	g.cursor = p
	r := state.RectFromPoints(g.anchor, g.cursor)
	g.c.sel.Replace(state.Intersecting(g.c.store.Boxes(), r))
	g.c.end()
}
