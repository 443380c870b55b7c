package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanehaakhtar/localboard/internal/protocol"
)

func startRelay(t *testing.T, origins ...string) (*Relay, *httptest.Server) {
	t.Helper()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	relay := NewRelay(RelayOptions{AllowedOrigins: origins}, nil)
	srv := httptest.NewServer(NewRouter(relay, origins))
	t.Cleanup(func() {
		relay.Close()
		srv.Close()
	})
	return relay, srv
}

func socketURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + SocketPath
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(socketURL(srv), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitPeers(t *testing.T, relay *Relay, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return relay.Len() == n }, 2*time.Second, 10*time.Millisecond)
}

func readEnvelope(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := protocol.Decode(data)
	require.NoError(t, err)
	return env
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestRelayBroadcastsToAllButSender(t *testing.T) {
	relay, srv := startRelay(t)
	a, b, c := dial(t, srv), dial(t, srv), dial(t, srv)
	waitPeers(t, relay, 3)

	payload := `{"id":"x","x":1.25,"y":-3,"note":"kept verbatim"}`
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"event":"move-box","payload":`+payload+`}`)))

	for _, conn := range []*websocket.Conn{b, c} {
		env := readEnvelope(t, conn)
		assert.Equal(t, protocol.BoxMoved, env.Event)
		assert.JSONEq(t, payload, string(env.Payload))
	}
	expectSilence(t, a)
}

func TestRelayMapsEveryEditEvent(t *testing.T) {
	relay, srv := startRelay(t)
	a, b := dial(t, srv), dial(t, srv)
	waitPeers(t, relay, 2)

	for _, in := range []string{protocol.AddBox, protocol.MoveBox, protocol.MoveBoxes, protocol.ResizeBox, protocol.DeleteBoxes} {
		env, err := protocol.NewEnvelope(in, []string{"p"})
		require.NoError(t, err)
		frame, err := env.Encode()
		require.NoError(t, err)
		require.NoError(t, a.WriteMessage(websocket.TextMessage, frame))

		want, _ := protocol.Relayed(in)
		assert.Equal(t, want, readEnvelope(t, b).Event)
	}
}

func TestRelayDropsUnknownAndMalformedFrames(t *testing.T) {
	relay, srv := startRelay(t)
	a, b := dial(t, srv), dial(t, srv)
	waitPeers(t, relay, 2)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`garbage`)))
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"event":"clear","payload":{}}`)))
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"event":"box-added","payload":{}}`)))
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"event":"delete-boxes","payload":["z"]}`)))

	env := readEnvelope(t, b)
	assert.Equal(t, protocol.BoxesDeleted, env.Event)
	assert.JSONEq(t, `["z"]`, string(env.Payload))
	assert.Equal(t, 2, relay.Len(), "bad frames do not cost the sender its connection")
}

func TestRelayForgetsDisconnectedPeers(t *testing.T) {
	relay, srv := startRelay(t)
	a, b, c := dial(t, srv), dial(t, srv), dial(t, srv)
	waitPeers(t, relay, 3)

	require.NoError(t, b.Close())
	waitPeers(t, relay, 2)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"event":"add-box","payload":{"id":"q"}}`)))
	assert.Equal(t, protocol.BoxAdded, readEnvelope(t, c).Event)

	// Nothing is replayed to a participant that joins afterwards.
	late := dial(t, srv)
	waitPeers(t, relay, 3)
	expectSilence(t, late)
}

func TestRelayHealth(t *testing.T) {
	relay, srv := startRelay(t)
	dial(t, srv)
	waitPeers(t, relay, 1)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
		Peers  int    `json:"peers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Peers)
}

func TestRelayChecksOrigin(t *testing.T) {
	_, srv := startRelay(t, "http://localhost:3000")

	header := http.Header{"Origin": []string{"http://elsewhere.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(socketURL(srv), header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}

	header.Set("Origin", "http://localhost:3000")
	conn, _, err := websocket.DefaultDialer.Dial(socketURL(srv), header)
	require.NoError(t, err)
	conn.Close()
}

func TestRelayCloseDisconnectsPeers(t *testing.T) {
	relay, srv := startRelay(t)
	a := dial(t, srv)
	waitPeers(t, relay, 1)

	relay.Close()
	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := a.ReadMessage()
	require.Error(t, err)
	waitPeers(t, relay, 0)

	_, _, err = websocket.DefaultDialer.Dial(socketURL(srv), nil)
	if err == nil {
		waitPeers(t, relay, 0)
	}
}
