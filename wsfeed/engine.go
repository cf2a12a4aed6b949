package wsfeed

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/feedbridge/errors"
	"github.com/c360/feedbridge/feed"
	"github.com/c360/feedbridge/market"
)

// Engine is the WebSocket implementation of feed.Engine. It speaks the
// JSON frame protocol in protocol.go: a subscribe frame and a start
// frame on connect, then metadata, record, and error frames from the
// gateway until either side closes.
//
// The engine owns one connection and never redials. A lost connection
// surfaces through the handler and the engine is spent.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	started bool
	closing bool
	done    chan struct{}
}

// Option configures the engine
type Option func(*Engine)

// WithLogger sets the structured logger; the default discards everything
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an engine from the config. The connection is not opened
// until Connect.
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Capabilities implements feed.Engine.
func (e *Engine) Capabilities() feed.Capabilities {
	return feed.Capabilities{
		MultiDataset: false,
		Snapshot:     true,
		Replay:       true,
	}
}

// Connect implements feed.Engine. It dials the gateway, submits the
// subscriptions, and starts the read loop.
func (e *Engine) Connect(ctx context.Context, subs []market.Subscription, h feed.Handler) error {
	if len(subs) == 0 {
		return errors.WrapInvalid(errors.ErrNoSubscriptions,
			"wsfeed.Engine", "Connect", "subscription check")
	}

	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return errors.WrapInvalid(errors.ErrInvalidState,
			"wsfeed.Engine", "Connect", "second connect")
	}
	e.started = true
	e.mu.Unlock()

	dialer := &websocket.Dialer{
		HandshakeTimeout:  e.cfg.HandshakeTimeout,
		ReadBufferSize:    e.cfg.ReadBufferSize,
		WriteBufferSize:   e.cfg.WriteBufferSize,
		EnableCompression: e.cfg.EnableCompression,
	}

	headers := http.Header{}
	if key := e.cfg.apiKey(); key != "" {
		headers.Set("Authorization", "Bearer "+key)
	}

	conn, resp, err := dialer.DialContext(ctx, e.cfg.URL, headers)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return errors.WrapFatal(errors.ErrAuthentication,
				"wsfeed.Engine", "Connect", "handshake")
		}
		return feed.NewError(feed.KindConnection, "dial", err)
	}

	sub := &frame{Type: frameSubscribe, Subscriptions: subs, TsOut: e.cfg.TsOut}
	if werr := conn.WriteJSON(sub); werr == nil {
		werr = conn.WriteJSON(&frame{Type: frameStart})
		if werr != nil {
			err = werr
		}
	} else {
		err = werr
	}
	if err != nil {
		_ = conn.Close()
		return feed.NewError(feed.KindConnection, "subscribe", err)
	}

	e.mu.Lock()
	e.conn = conn
	e.mu.Unlock()

	e.logger.Info("connected", "url", e.cfg.URL, "subscriptions", len(subs))
	go e.readLoop(conn, h)
	return nil
}

// Close implements feed.Engine. It sends a close frame, tears the
// connection down, and waits for the read loop, bounded by ctx.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	alreadyClosing := e.closing
	e.closing = true
	conn := e.conn
	e.mu.Unlock()

	// Never connected, nothing to wait for.
	if conn == nil {
		return nil
	}

	if !alreadyClosing {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client stop"),
			deadline)
		_ = conn.Close()
	}
	return e.waitDone(ctx)
}

func (e *Engine) waitDone(ctx context.Context) error {
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return errors.WrapTransient(ctx.Err(), "wsfeed.Engine", "Close", "read loop wait")
	}
}

// readLoop is the delivery goroutine: it decodes frames and forwards
// them to the handler until the connection dies.
func (e *Engine) readLoop(conn *websocket.Conn, h feed.Handler) {
	defer close(e.done)
	defer h.OnConnectionClosed()

	if e.cfg.HeartbeatInterval > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(2 * e.cfg.HeartbeatInterval))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(2 * e.cfg.HeartbeatInterval))
		})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if e.isClosing() || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			h.OnError(feed.NewError(feed.KindConnection, "read", err))
			return
		}
		if e.cfg.HeartbeatInterval > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(2 * e.cfg.HeartbeatInterval))
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			h.OnError(feed.NewError(feed.KindProtocol, "read", err))
			continue
		}

		switch f.Type {
		case frameMetadata:
			if f.Metadata == nil {
				h.OnError(feed.NewError(feed.KindProtocol, "read",
					stderrors.New("metadata frame without metadata")))
				continue
			}
			h.OnMetadata(f.Metadata)
		case frameRecord:
			rec, err := decodeRecord(f.Kind, f.Record)
			if err != nil {
				h.OnError(feed.NewError(feed.KindDecode, "read", err))
				continue
			}
			h.OnRecord(rec)
		case frameError:
			h.OnError(feed.NewError(feed.KindUpstream, "session",
				stderrors.New(f.Message)))
		case frameHeartbeat:
			// deadline already refreshed above
		default:
			e.logger.Warn("unknown frame type", "type", f.Type)
		}
	}
}

func (e *Engine) isClosing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closing
}
