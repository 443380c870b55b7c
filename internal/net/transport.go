package net

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sanehaakhtar/localboard/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxFrame   = 1 << 20
)

// Peer is one participant connected to the relay.
type Peer struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
}

// Relay fans every edit it receives out to all other connected peers. It
// keeps no board state: no validation, ordering, persistence or replay.
type Relay struct {
	mu     sync.RWMutex
	peers  map[*Peer]struct{}
	closed bool

	upgrader   websocket.Upgrader
	sendBuffer int
	log        *slog.Logger
}

// RelayOptions configure a Relay. Zero fields take defaults.
type RelayOptions struct {
	// AllowedOrigins lists browser origins that may open a socket. "*"
	// allows any; requests without an Origin header are always allowed.
	AllowedOrigins []string
	// SendBuffer is the per-peer queue length. Frames for a peer whose
	// queue is full are dropped.
	SendBuffer int
}

func NewRelay(opts RelayOptions, log *slog.Logger) *Relay {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	if log == nil {
		log = slog.Default()
	}
	return &Relay{
		peers: make(map[*Peer]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		sendBuffer: opts.SendBuffer,
		log:        log.With("component", "relay"),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Len returns the number of connected peers.
func (r *Relay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

func (r *Relay) add(p *Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.peers[p] = struct{}{}
	r.log.Info("peer connected", "peer", p.ID, "addr", p.conn.RemoteAddr().String(), "peers", len(r.peers))
	return true
}

func (r *Relay) remove(p *Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[p]; !ok {
		return
	}
	delete(r.peers, p)
	close(p.send)
	r.log.Info("peer disconnected", "peer", p.ID, "peers", len(r.peers))
}

// Broadcast queues payload under event for every peer except sender and
// returns how many peers it was queued for. There is no retry: a peer with
// a full queue misses the frame.
func (r *Relay) Broadcast(sender *Peer, event string, payload json.RawMessage) int {
	frame, err := protocol.Envelope{Event: event, Payload: payload}.Encode()
	if err != nil {
		r.log.Warn("dropping unencodable frame", "event", event, "err", err)
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for p := range r.peers {
		if p == sender {
			continue
		}
		select {
		case p.send <- frame:
			n++
		default:
			r.log.Warn("peer queue full, dropping frame", "peer", p.ID, "event", event)
		}
	}
	return n
}

// ServeHTTP upgrades the request to a websocket and relays its frames until
// the connection ends.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	p := &Peer{ID: uuid.NewString(), conn: conn, send: make(chan []byte, r.sendBuffer)}
	if !r.add(p) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "relay shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	go r.writePump(p)
	r.readPump(p)
}

func (r *Relay) readPump(p *Peer) {
	defer func() {
		r.remove(p)
		p.conn.Close()
	}()
	p.conn.SetReadLimit(maxFrame)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.log.Info("peer read failed", "peer", p.ID, "err", err)
			}
			return
		}
		env, err := protocol.Decode(data)
		if err != nil {
			r.log.Debug("dropping undecodable frame", "peer", p.ID, "err", err)
			continue
		}
		out, ok := protocol.Relayed(env.Event)
		if !ok {
			r.log.Debug("dropping unknown event", "peer", p.ID, "event", env.Event)
			continue
		}
		n := r.Broadcast(p, out, env.Payload)
		r.log.Debug("relayed", "peer", p.ID, "event", out, "recipients", n)
	}
}

func (r *Relay) writePump(p *Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				r.log.Info("peer write failed", "peer", p.ID, "err", err)
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every peer and refuses new ones.
func (r *Relay) Close() {
	r.mu.Lock()
	r.closed = true
	peers := make([]*Peer, 0, len(r.peers))
	for p := range r.peers {
		peers = append(peers, p)
	}
	r.mu.Unlock()
	for _, p := range peers {
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "relay shutting down"),
			time.Now().Add(writeWait))
		p.conn.Close()
	}
}
