package interact

import "github.com/sanehaakhtar/localboard/internal/state"

// PointerHandler receives board-wide pointer events for the lifetime of a
// gesture, including those outside the box that started it.
type PointerHandler interface {
	PointerMove(p state.Point)
	PointerUp(p state.Point)
}

// Listeners is the board-wide pointer subscription list. It is not safe for
// concurrent use; the Controller guards it with its own lock.
type Listeners struct {
	next int
	subs map[int]PointerHandler
}

func NewListeners() *Listeners {
	return &Listeners{subs: make(map[int]PointerHandler)}
}

// Subscription is the handle returned by Subscribe. Release is idempotent.
type Subscription struct {
	l  *Listeners
	id int
}

func (l *Listeners) Subscribe(h PointerHandler) *Subscription {
	l.next++
	l.subs[l.next] = h
	return &Subscription{l: l, id: l.next}
}

func (s *Subscription) Release() {
	if s == nil || s.l == nil {
		return
	}
	delete(s.l.subs, s.id)
	s.l = nil
}

func (s *Subscription) Active() bool { return s != nil && s.l != nil }

// Active returns the number of live subscriptions.
func (l *Listeners) Active() int { return len(l.subs) }

// ReleaseAll drops every subscription, as on teardown.
func (l *Listeners) ReleaseAll() { clear(l.subs) }

func (l *Listeners) snapshot() []PointerHandler {
	hs := make([]PointerHandler, 0, len(l.subs))
	for _, h := range l.subs {
		hs = append(hs, h)
	}
	return hs
}

func (l *Listeners) Move(p state.Point) {
	for _, h := range l.snapshot() {
		h.PointerMove(p)
	}
}

func (l *Listeners) Up(p state.Point) {
	for _, h := range l.snapshot() {
		h.PointerUp(p)
	}
}
