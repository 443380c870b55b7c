package state

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/sanehaakhtar/localboard/internal/protocol"
)

// Store is a participant's copy of the board. Local mutations are applied
// and then emitted to peers; remote mutations are only applied. Updates carry
// no version, so the last one applied wins.
//
// All mutations are serialized by the store's lock, and every multi-box
// change is applied inside a single critical section.
type Store struct {
	mu    sync.RWMutex
	order []string
	boxes map[string]Box

	out      protocol.Emitter
	log      *slog.Logger
	onChange func()
}

// NewStore creates an empty board that emits local edits to out.
func NewStore(out protocol.Emitter, log *slog.Logger) *Store {
	if out == nil {
		out = protocol.Discard
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		boxes: make(map[string]Box),
		out:   out,
		log:   log.With("component", "store"),
	}
}

// OnChange registers fn to run after every mutation that changed the board.
// fn runs on the goroutine that applied the mutation, without the lock held.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) changed() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Boxes returns a copy of the board in stacking order, bottom first.
func (s *Store) Boxes() []Box {
	s.mu.RLock()
	defer s.mu.RUnlock()
	boxes := make([]Box, 0, len(s.order))
	for _, id := range s.order {
		boxes = append(boxes, s.boxes[id])
	}
	return boxes
}

func (s *Store) Get(id string) (Box, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boxes[id]
	return b, ok
}

func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// HitTest returns the topmost box under p and which part of it was hit.
// The resize handle takes precedence over the body.
func (s *Store) HitTest(p Point) (string, Part) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.boxes[s.order[i]]
		if !b.Rect().Contains(p) {
			continue
		}
		// The handle is clipped to the box, which matters for boxes smaller
		// than the handle itself.
		handle := Rect{X: b.X + b.Width - HandleSize, Y: b.Y + b.Height - HandleSize, Width: HandleSize, Height: HandleSize}
		if handle.Contains(p) {
			return b.ID, PartHandle
		}
		return b.ID, PartBody
	}
	return "", PartNone
}

// Selected returns the boxes whose IDs are in sel, in stacking order.
func (s *Store) Selected(sel *Selection) []Box {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var boxes []Box
	for _, id := range s.order {
		if sel.Has(id) {
			boxes = append(boxes, s.boxes[id])
		}
	}
	return boxes
}

// The unexported apply functions assume s.mu is held and report whether
// the board changed.

func (s *Store) create(b Box) bool {
	if b.ID == "" {
		return false
	}
	if _, ok := s.boxes[b.ID]; !ok {
		s.order = append(s.order, b.ID)
	}
	s.boxes[b.ID] = b
	return true
}

func (s *Store) move(m Move) bool {
	b, ok := s.boxes[m.ID]
	if !ok {
		return false
	}
	b.X, b.Y = m.X, m.Y
	s.boxes[m.ID] = b
	return true
}

func (s *Store) resize(r Resize) bool {
	b, ok := s.boxes[r.ID]
	if !ok {
		return false
	}
	b.Width, b.Height = r.Width, r.Height
	s.boxes[r.ID] = b
	return true
}

func (s *Store) remove(ids []string) []string {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.boxes[id]; ok {
			drop[id] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return nil
	}
	removed := make([]string, 0, len(drop))
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := drop[id]; ok {
			delete(s.boxes, id)
			removed = append(removed, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// ApplyLocalCreate adds b to the board and emits add-box.
func (s *Store) ApplyLocalCreate(b Box) {
	s.mu.Lock()
	ok := s.create(b)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.out.Emit(protocol.AddBox, b)
	s.changed()
}

// ApplyLocalMove repositions a box and emits move-box. Unknown IDs are
// ignored and nothing is emitted.
func (s *Store) ApplyLocalMove(id string, x, y float64) {
	m := Move{ID: id, X: x, Y: y}
	s.mu.Lock()
	ok := s.move(m)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.out.Emit(protocol.MoveBox, m)
	s.changed()
}

// ApplyLocalBatchMove repositions several boxes atomically and emits a
// single move-boxes carrying the updates that matched a box.
func (s *Store) ApplyLocalBatchMove(updates []Move) {
	s.mu.Lock()
	applied := s.moveAll(updates)
	s.mu.Unlock()
	s.emitBatchMove(applied)
}

// moveAll applies updates with s.mu held and returns the ones that matched
// a box.
func (s *Store) moveAll(updates []Move) []Move {
	applied := make([]Move, 0, len(updates))
	for _, m := range updates {
		if s.move(m) {
			applied = append(applied, m)
		}
	}
	return applied
}

func (s *Store) emitBatchMove(applied []Move) {
	if len(applied) == 0 {
		return
	}
	s.out.Emit(protocol.MoveBoxes, applied)
	s.changed()
}

// TranslateGroup moves anchor to `to` and every other box in ids by the
// same delta, as one atomic change emitted as a single move-boxes. It
// returns the applied updates, or nil when anchor is not on the board.
func (s *Store) TranslateGroup(anchor string, to Point, ids []string) []Move {
	s.mu.Lock()
	a, ok := s.boxes[anchor]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delta := to.Sub(a.Position())
	members := make(map[string]struct{}, len(ids)+1)
	members[anchor] = struct{}{}
	for _, id := range ids {
		members[id] = struct{}{}
	}
	var updates []Move
	for _, id := range s.order {
		if _, ok := members[id]; !ok {
			continue
		}
		p := s.boxes[id].Position().Add(delta)
		updates = append(updates, Move{ID: id, X: p.X, Y: p.Y})
	}
	applied := s.moveAll(updates)
	s.mu.Unlock()
	s.emitBatchMove(applied)
	return applied
}

// ApplyLocalResize sets a box's size and emits resize-box. The caller is
// responsible for the minimum size floor.
func (s *Store) ApplyLocalResize(id string, w, h float64) {
	r := Resize{ID: id, Width: w, Height: h}
	s.mu.Lock()
	ok := s.resize(r)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.out.Emit(protocol.ResizeBox, r)
	s.changed()
}

// ApplyLocalDelete removes boxes and emits one delete-boxes with the IDs
// that were actually removed. It returns those IDs.
func (s *Store) ApplyLocalDelete(ids []string) []string {
	s.mu.Lock()
	removed := s.remove(ids)
	s.mu.Unlock()
	if len(removed) == 0 {
		return nil
	}
	s.out.Emit(protocol.DeleteBoxes, removed)
	s.changed()
	return removed
}

func (s *Store) ApplyRemoteCreate(b Box) {
	s.mu.Lock()
	ok := s.create(b)
	s.mu.Unlock()
	if ok {
		s.changed()
	}
}

func (s *Store) ApplyRemoteMove(m Move) {
	s.mu.Lock()
	ok := s.move(m)
	s.mu.Unlock()
	if !ok {
		s.log.Debug("ignoring move of unknown box", "id", m.ID)
		return
	}
	s.changed()
}

func (s *Store) ApplyRemoteBatchMove(updates []Move) {
	s.mu.Lock()
	n := 0
	for _, m := range updates {
		if s.move(m) {
			n++
		}
	}
	s.mu.Unlock()
	if n > 0 {
		s.changed()
	}
}

// ApplyRemoteResize stores the received size as is; the floor is only
// enforced where a resize is computed.
func (s *Store) ApplyRemoteResize(r Resize) {
	s.mu.Lock()
	ok := s.resize(r)
	s.mu.Unlock()
	if !ok {
		s.log.Debug("ignoring resize of unknown box", "id", r.ID)
		return
	}
	s.changed()
}

func (s *Store) ApplyRemoteDelete(ids []string) {
	s.mu.Lock()
	removed := s.remove(ids)
	s.mu.Unlock()
	if len(removed) > 0 {
		s.changed()
	}
}

// ApplyRemoteEvent decodes an event fanned out by the relay and applies it.
// Unknown events and undecodable payloads are dropped; it reports whether
// the event was understood.
func (s *Store) ApplyRemoteEvent(env protocol.Envelope) bool {
	var err error
	switch env.Event {
	case protocol.BoxAdded:
		var b Box
		if err = json.Unmarshal(env.Payload, &b); err == nil && b.ID != "" {
			s.ApplyRemoteCreate(b)
			return true
		}
	case protocol.BoxMoved:
		var m Move
		if err = json.Unmarshal(env.Payload, &m); err == nil {
			s.ApplyRemoteMove(m)
			return true
		}
	case protocol.BoxesMoved:
		var ms []Move
		if err = json.Unmarshal(env.Payload, &ms); err == nil {
			s.ApplyRemoteBatchMove(ms)
			return true
		}
	case protocol.BoxResized:
		var r Resize
		if err = json.Unmarshal(env.Payload, &r); err == nil {
			s.ApplyRemoteResize(r)
			return true
		}
	case protocol.BoxesDeleted:
		var ids []string
		if err = json.Unmarshal(env.Payload, &ids); err == nil {
			s.ApplyRemoteDelete(ids)
			return true
		}
	default:
		s.log.Debug("ignoring unknown event", "event", env.Event)
		return false
	}
	s.log.Debug("ignoring malformed event", "event", env.Event, "err", err)
	return false
}
