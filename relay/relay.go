package relay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/feedbridge/errors"
	"github.com/c360/feedbridge/market"
)

// Publisher is the publishing subset of *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// Config holds configuration for the record relay
type Config struct {
	// SubjectPrefix is the leading subject token, e.g. "md" publishes
	// trades for instrument 42 to "md.trade.42".
	SubjectPrefix string `json:"subject_prefix"`

	// PublishErrors republishes stream errors to <prefix>.errors
	PublishErrors bool `json:"publish_errors,omitempty"`
}

// Validate checks the relay configuration.
func (c *Config) Validate() error {
	if c.SubjectPrefix == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: subject_prefix", errors.ErrMissingConfig),
			"relay.Config", "Validate", "validate config")
	}
	if strings.ContainsAny(c.SubjectPrefix, " \t*>") {
		return errors.WrapInvalid(
			fmt.Errorf("%w: subject_prefix %q", errors.ErrInvalidConfig, c.SubjectPrefix),
			"relay.Config", "Validate", "validate config")
	}
	return nil
}

// Relay republishes stream records to NATS subjects keyed by record
// kind and instrument ID. Attach its observers to a live.Client before
// Start:
//
//	rly, _ := relay.New(conn, relay.Config{SubjectPrefix: "md"})
//	client.OnRecord(rly.RecordObserver())
//	client.OnError(rly.ErrorObserver())
//
// Publish failures never disturb the stream: they are logged, counted,
// and dropped. NATS is a best-effort fan-out here, not a durability
// layer.
type Relay struct {
	pub     Publisher
	cfg     Config
	logger  *slog.Logger
	symbols *market.SymbolMap

	published atomic.Int64
	dropped   atomic.Int64
}

// Option configures the relay
type Option func(*Relay)

// WithLogger sets the structured logger; the default discards everything
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSymbolMap resolves instrument IDs to symbols in the published
// envelope, typically from live.Client.SymbolMap.
func WithSymbolMap(sm *market.SymbolMap) Option {
	return func(r *Relay) {
		r.symbols = sm
	}
}

// New builds a relay over an established publisher, typically a
// *nats.Conn.
func New(pub Publisher, cfg Config, opts ...Option) (*Relay, error) {
	if pub == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"relay.Relay", "New", "nil publisher")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Relay{
		pub:    pub,
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Connect dials NATS and builds a relay over the connection. The caller
// owns nothing extra; Close drains the connection.
func Connect(url string, cfg Config, opts ...Option) (*Relay, error) {
	conn, err := nats.Connect(url,
		nats.Name("feedbridge-relay"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errors.WrapTransient(err, "relay.Relay", "Connect", "nats dial")
	}
	return New(conn, cfg, opts...)
}

// envelope is the published payload.
type envelope struct {
	Kind       string        `json:"kind"`
	Instrument uint32        `json:"instrument"`
	Symbol     string        `json:"symbol,omitempty"`
	TsEvent    int64         `json:"ts_event"`
	Record     market.Record `json:"record"`
}

// RecordObserver returns an observer for live.Client.OnRecord.
func (r *Relay) RecordObserver() func(market.Record) {
	return func(rec market.Record) {
		subject := fmt.Sprintf("%s.%s.%d",
			r.cfg.SubjectPrefix, rec.Kind().String(), rec.InstrumentID())

		var symbol string
		if r.symbols != nil {
			// Early records legitimately precede their mapping; the
			// envelope just omits the symbol then.
			if s, err := r.symbols.Resolve(rec.InstrumentID()); err == nil {
				symbol = s
			}
		}

		data, err := json.Marshal(envelope{
			Kind:       rec.Kind().String(),
			Instrument: rec.InstrumentID(),
			Symbol:     symbol,
			TsEvent:    rec.TsEvent().UnixNano(),
			Record:     rec,
		})
		if err != nil {
			r.dropped.Add(1)
			r.logger.Error("record marshal failed", "subject", subject, "error", err)
			return
		}
		if err := r.pub.Publish(subject, data); err != nil {
			r.dropped.Add(1)
			r.logger.Warn("publish failed", "subject", subject, "error", err)
			return
		}
		r.published.Add(1)
	}
}

// ErrorObserver returns an observer for live.Client.OnError. It is a
// no-op unless Config.PublishErrors is set.
func (r *Relay) ErrorObserver() func(error) {
	subject := r.cfg.SubjectPrefix + ".errors"
	return func(streamErr error) {
		if !r.cfg.PublishErrors {
			return
		}
		payload, err := json.Marshal(map[string]string{
			"class": errors.Classify(streamErr).String(),
			"error": streamErr.Error(),
		})
		if err != nil {
			return
		}
		if err := r.pub.Publish(subject, payload); err != nil {
			r.logger.Warn("error publish failed", "subject", subject, "error", err)
		}
	}
}

// Published returns how many records were published successfully.
func (r *Relay) Published() int64 {
	return r.published.Load()
}

// Dropped returns how many records failed to publish.
func (r *Relay) Dropped() int64 {
	return r.dropped.Load()
}

// Close drains the underlying connection when the relay owns one.
func (r *Relay) Close() {
	if conn, ok := r.pub.(*nats.Conn); ok {
		if err := conn.Drain(); err != nil {
			r.logger.Warn("nats drain", "error", err)
		}
	}
}
