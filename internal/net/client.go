package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/sanehaakhtar/localboard/internal/protocol"
)

var ErrReconnectExhausted = errors.New("relay unreachable: reconnect attempts exhausted")

// Backoff bounds reconnection: at most Attempts consecutive failed dials,
// waiting Delay after the first and doubling up to MaxDelay.
type Backoff struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

func DefaultBackoff() Backoff {
	return Backoff{Attempts: 5, Delay: time.Second, MaxDelay: 5 * time.Second}
}

// Wait returns the pause before retry n, counting from 1.
func (b Backoff) Wait(n int) time.Duration {
	d := b.Delay
	for i := 1; i < n && d < b.MaxDelay; i++ {
		d *= 2
	}
	if b.MaxDelay > 0 && d > b.MaxDelay {
		d = b.MaxDelay
	}
	return d
}

// Receiver applies events that other participants made.
type Receiver interface {
	ApplyRemoteEvent(env protocol.Envelope) bool
}

// Client is a participant's connection to the relay. It implements
// protocol.Emitter; edits emitted while disconnected are dropped, and
// nothing is resynchronized after a reconnect.
type Client struct {
	url       string
	dialer    *websocket.Dialer
	backoff   Backoff
	recv      Receiver
	out       chan []byte
	connected atomic.Bool
	log       *slog.Logger

	// OnStatus, if set, is told about connection changes.
	OnStatus func(connected bool, err error)
}

// NewClient returns a client for the relay socket at url. A backoff without
// a delay is replaced by DefaultBackoff.
func NewClient(url string, backoff Backoff, recv Receiver, log *slog.Logger) *Client {
	if backoff.Delay <= 0 {
		backoff = DefaultBackoff()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		url:     url,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		backoff: backoff,
		recv:    recv,
		out:     make(chan []byte, 256),
		log:     log.With("component", "client", "url", url),
	}
}

// SetReceiver sets where remote events go. Call it before Run.
func (c *Client) SetReceiver(recv Receiver) { c.recv = recv }

func (c *Client) Connected() bool { return c.connected.Load() }

// Emit queues an edit for the relay.
func (c *Client) Emit(event string, payload any) {
	if !c.connected.Load() {
		c.log.Debug("not connected, dropping edit", "event", event)
		return
	}
	env, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		c.log.Warn("dropping edit", "event", event, "err", err)
		return
	}
	frame, err := env.Encode()
	if err != nil {
		c.log.Warn("dropping edit", "event", event, "err", err)
		return
	}
	select {
	case c.out <- frame:
	default:
		c.log.Warn("send queue full, dropping edit", "event", event)
	}
}

func (c *Client) status(connected bool, err error) {
	c.connected.Store(connected)
	if c.OnStatus != nil {
		c.OnStatus(connected, err)
	}
}

// Run connects and keeps reconnecting until ctx is cancelled or
// Backoff.Attempts consecutive dials fail.
func (c *Client) Run(ctx context.Context) error {
	failures := 0
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			if failures > c.backoff.Attempts {
				err = fmt.Errorf("%w: %v", ErrReconnectExhausted, err)
				c.status(false, err)
				return err
			}
			wait := c.backoff.Wait(failures)
			c.log.Info("dial failed, retrying", "attempt", failures, "wait", wait, "err", err)
			c.status(false, err)
			if !sleep(ctx, wait) {
				return nil
			}
			continue
		}

		failures = 0
		c.drain()
		c.status(true, nil)
		c.log.Info("connected to relay")
		err = c.session(ctx, conn)
		c.status(false, err)
		if ctx.Err() != nil {
			return nil
		}
		c.log.Info("disconnected from relay", "err", err)
		if !sleep(ctx, c.backoff.Wait(1)) {
			return nil
		}
	}
}

// drain discards edits queued for a previous connection.
func (c *Client) drain() {
	for {
		select {
		case <-c.out:
		default:
			return
		}
	}
}

func (c *Client) session(ctx context.Context, conn *websocket.Conn) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return fmt.Errorf("read: %w", err)
			}
			env, err := protocol.Decode(data)
			if err != nil {
				c.log.Debug("ignoring undecodable frame", "err", err)
				continue
			}
			c.recv.ApplyRemoteEvent(env)
		}
	})
	g.Go(func() error {
		defer conn.Close()
		for {
			select {
			case frame := <-c.out:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					return fmt.Errorf("write: %w", err)
				}
			case <-gctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return nil
			}
		}
	})
	return g.Wait()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
