package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanehaakhtar/localboard/internal/protocol"
)

type emitted struct {
	event   string
	payload string
}

type recorder struct {
	events []emitted
}

func (r *recorder) Emit(event string, payload any) {
	data, _ := json.Marshal(payload)
	r.events = append(r.events, emitted{event: event, payload: string(data)})
}

func newTestStore(t *testing.T) (*Store, *recorder) {
	t.Helper()
	rec := &recorder{}
	return NewStore(rec, nil), rec
}

func envelope(t *testing.T, event string, payload any) protocol.Envelope {
	t.Helper()
	env, err := protocol.NewEnvelope(event, payload)
	require.NoError(t, err)
	return env
}

func TestLocalMutationsEmit(t *testing.T) {
	s, rec := newTestStore(t)

	s.ApplyLocalCreate(Box{ID: "1", X: 50, Y: 50, Width: 100, Height: 100})
	s.ApplyLocalMove("1", 70, 80)
	s.ApplyLocalResize("1", 120, 60)
	s.ApplyLocalDelete([]string{"1"})

	require.Len(t, rec.events, 4)
	assert.Equal(t, protocol.AddBox, rec.events[0].event)
	assert.JSONEq(t, `{"id":"1","x":50,"y":50,"width":100,"height":100}`, rec.events[0].payload)
	assert.Equal(t, protocol.MoveBox, rec.events[1].event)
	assert.JSONEq(t, `{"id":"1","x":70,"y":80}`, rec.events[1].payload)
	assert.Equal(t, protocol.ResizeBox, rec.events[2].event)
	assert.JSONEq(t, `{"id":"1","width":120,"height":60}`, rec.events[2].payload)
	assert.Equal(t, protocol.DeleteBoxes, rec.events[3].event)
	assert.JSONEq(t, `["1"]`, rec.events[3].payload)
	assert.Zero(t, s.Len())
}

func TestRemoteMutationsDoNotEmit(t *testing.T) {
	s, rec := newTestStore(t)

	s.ApplyRemoteCreate(Box{ID: "1", X: 0, Y: 0, Width: 100, Height: 100})
	s.ApplyRemoteMove(Move{ID: "1", X: 5, Y: 6})
	s.ApplyRemoteBatchMove([]Move{{ID: "1", X: 7, Y: 8}})
	s.ApplyRemoteResize(Resize{ID: "1", Width: 10, Height: 10})

	b, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, Box{ID: "1", X: 7, Y: 8, Width: 10, Height: 10}, b, "remote sizes are stored without the floor")

	s.ApplyRemoteDelete([]string{"1"})
	assert.Empty(t, rec.events)
	assert.Zero(t, s.Len())
}

func TestUnknownIDsAreIgnored(t *testing.T) {
	s, rec := newTestStore(t)
	s.ApplyRemoteCreate(Box{ID: "1", X: 1, Y: 2, Width: 60, Height: 60})
	before := s.Boxes()

	s.ApplyRemoteMove(Move{ID: "ghost", X: 9, Y: 9})
	s.ApplyRemoteResize(Resize{ID: "ghost", Width: 9, Height: 9})
	s.ApplyRemoteBatchMove([]Move{{ID: "ghost"}})
	s.ApplyRemoteBatchMove(nil)
	s.ApplyLocalMove("ghost", 1, 1)
	s.ApplyLocalResize("ghost", 1, 1)
	s.ApplyLocalBatchMove([]Move{{ID: "ghost"}})

	assert.Equal(t, before, s.Boxes())
	assert.Empty(t, rec.events)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, rec := newTestStore(t)
	s.ApplyRemoteCreate(Box{ID: "1", Width: 60, Height: 60})
	s.ApplyRemoteCreate(Box{ID: "2", Width: 60, Height: 60})

	s.ApplyRemoteDelete([]string{"1"})
	s.ApplyRemoteDelete([]string{"1"})
	s.ApplyRemoteDelete(nil)
	assert.Nil(t, s.ApplyLocalDelete([]string{"1"}))
	assert.Empty(t, rec.events)

	require.Len(t, s.Boxes(), 1)
	assert.Equal(t, "2", s.Boxes()[0].ID)
}

func TestRemoteCreateIsUpsert(t *testing.T) {
	s, _ := newTestStore(t)
	s.ApplyRemoteCreate(Box{ID: "a", Width: 60, Height: 60})
	s.ApplyRemoteCreate(Box{ID: "b", Width: 60, Height: 60})
	s.ApplyRemoteCreate(Box{ID: "a", X: 3, Width: 70, Height: 70})

	boxes := s.Boxes()
	require.Len(t, boxes, 2)
	assert.Equal(t, "a", boxes[0].ID, "redelivery keeps the stacking position")
	assert.Equal(t, 3.0, boxes[0].X)
}

func TestConvergenceIndependentOfArrivalOrder(t *testing.T) {
	create := envelope(t, protocol.BoxAdded, Box{ID: "1", X: 50, Y: 50, Width: 100, Height: 100})
	fromA := envelope(t, protocol.BoxMoved, Move{ID: "1", X: 10, Y: 10})
	fromB := envelope(t, protocol.BoxResized, Resize{ID: "1", Width: 200, Height: 80})
	batch := envelope(t, protocol.BoxesMoved, []Move{{ID: "1", X: 10, Y: 10}})

	peerA, _ := newTestStore(t)
	peerB, _ := newTestStore(t)
	for _, env := range []protocol.Envelope{create, fromA, fromB, batch} {
		require.True(t, peerA.ApplyRemoteEvent(env))
	}
	for _, env := range []protocol.Envelope{create, fromB, batch, fromA} {
		require.True(t, peerB.ApplyRemoteEvent(env))
	}

	assert.Equal(t, peerA.Boxes(), peerB.Boxes())
}

func TestApplyRemoteEventRejectsGarbage(t *testing.T) {
	s, _ := newTestStore(t)
	s.ApplyRemoteCreate(Box{ID: "1", Width: 60, Height: 60})
	before := s.Boxes()

	assert.False(t, s.ApplyRemoteEvent(protocol.Envelope{Event: protocol.BoxMoved, Payload: json.RawMessage(`"nope"`)}))
	assert.False(t, s.ApplyRemoteEvent(protocol.Envelope{Event: protocol.BoxAdded, Payload: json.RawMessage(`{"x":1}`)}))
	assert.False(t, s.ApplyRemoteEvent(protocol.Envelope{Event: protocol.BoxesDeleted, Payload: json.RawMessage(`{}`)}))
	assert.False(t, s.ApplyRemoteEvent(protocol.Envelope{Event: "clear"}))
	assert.False(t, s.ApplyRemoteEvent(protocol.Envelope{Event: protocol.MoveBox, Payload: json.RawMessage(`{"id":"1","x":9,"y":9}`)}),
		"inbound names are never delivered by the relay")

	assert.Equal(t, before, s.Boxes())
}

func TestTranslateGroupMovesRigidly(t *testing.T) {
	s, rec := newTestStore(t)
	s.ApplyRemoteCreate(Box{ID: "a", X: 0, Y: 0, Width: 60, Height: 60})
	s.ApplyRemoteCreate(Box{ID: "b", X: 100, Y: 40, Width: 60, Height: 60})
	s.ApplyRemoteCreate(Box{ID: "c", X: 300, Y: 300, Width: 60, Height: 60})

	updates := s.TranslateGroup("a", Point{X: 15, Y: -5}, []string{"a", "b", "missing"})
	require.Len(t, updates, 2)

	a, _ := s.Get("a")
	b, _ := s.Get("b")
	c, _ := s.Get("c")
	assert.Equal(t, Point{X: 15, Y: -5}, a.Position())
	assert.Equal(t, Point{X: 115, Y: 35}, b.Position())
	assert.Equal(t, Point{X: 300, Y: 300}, c.Position())

	require.Len(t, rec.events, 1)
	assert.Equal(t, protocol.MoveBoxes, rec.events[0].event)
	assert.JSONEq(t, `[{"id":"a","x":15,"y":-5},{"id":"b","x":115,"y":35}]`, rec.events[0].payload)

	assert.Nil(t, s.TranslateGroup("missing", Point{}, nil))
}

func TestLocalBatchMoveEmitsMatchedUpdates(t *testing.T) {
	s, rec := newTestStore(t)
	s.ApplyRemoteCreate(Box{ID: "a", X: 0, Y: 0, Width: 60, Height: 60})
	s.ApplyRemoteCreate(Box{ID: "b", X: 100, Y: 100, Width: 60, Height: 60})

	s.ApplyLocalBatchMove([]Move{
		{ID: "a", X: 10, Y: 20},
		{ID: "gone", X: 1, Y: 1},
		{ID: "b", X: 110, Y: 120},
	})

	a, _ := s.Get("a")
	b, _ := s.Get("b")
	assert.Equal(t, Point{X: 10, Y: 20}, a.Position())
	assert.Equal(t, Point{X: 110, Y: 120}, b.Position())
	assert.Equal(t, 2, s.Len())

	require.Len(t, rec.events, 1)
	assert.Equal(t, protocol.MoveBoxes, rec.events[0].event)
	assert.JSONEq(t, `[{"id":"a","x":10,"y":20},{"id":"b","x":110,"y":120}]`, rec.events[0].payload)
}

func TestHitTestClipsHandleToSmallBoxes(t *testing.T) {
	s, _ := newTestStore(t)
	s.ApplyRemoteCreate(Box{ID: "tiny", X: 100, Y: 100, Width: 5, Height: 5})

	id, part := s.HitTest(Point{X: 90, Y: 90})
	assert.Empty(t, id)
	assert.Equal(t, PartNone, part)

	id, part = s.HitTest(Point{X: 103, Y: 103})
	assert.Equal(t, "tiny", id)
	assert.Equal(t, PartHandle, part)
}

func TestHitTestPrefersTopmostAndHandle(t *testing.T) {
	s, _ := newTestStore(t)
	s.ApplyRemoteCreate(Box{ID: "under", X: 0, Y: 0, Width: 100, Height: 100})
	s.ApplyRemoteCreate(Box{ID: "over", X: 50, Y: 50, Width: 100, Height: 100})

	id, part := s.HitTest(Point{X: 75, Y: 75})
	assert.Equal(t, "over", id)
	assert.Equal(t, PartBody, part)

	id, part = s.HitTest(Point{X: 10, Y: 10})
	assert.Equal(t, "under", id)
	assert.Equal(t, PartBody, part)

	id, part = s.HitTest(Point{X: 150, Y: 150})
	assert.Equal(t, "over", id)
	assert.Equal(t, PartHandle, part)

	id, part = s.HitTest(Point{X: 400, Y: 400})
	assert.Empty(t, id)
	assert.Equal(t, PartNone, part)
}

func TestOnChangeRunsAfterMutations(t *testing.T) {
	s, _ := newTestStore(t)
	calls := 0
	s.OnChange(func() {
		calls++
		// The hook must be able to read the board.
		_ = s.Boxes()
	})

	s.ApplyRemoteCreate(Box{ID: "1", Width: 60, Height: 60})
	s.ApplyRemoteMove(Move{ID: "unknown"})
	s.ApplyLocalMove("1", 2, 2)
	assert.Equal(t, 2, calls)
}
