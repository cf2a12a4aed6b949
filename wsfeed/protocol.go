package wsfeed

import (
	"encoding/json"
	"fmt"

	"github.com/c360/feedbridge/market"
)

// Frame types exchanged with the gateway. The wire protocol is one JSON
// frame per WebSocket text message.
const (
	frameSubscribe = "subscribe"
	frameStart     = "start"
	frameMetadata  = "metadata"
	frameRecord    = "record"
	frameError     = "error"
	frameHeartbeat = "heartbeat"
)

// Record kind tags carried in record frames.
const (
	wireTrade         = "trade"
	wireQuote         = "quote"
	wireOhlcv         = "ohlcv"
	wireStatus        = "status"
	wireSymbolMapping = "symbol_mapping"
)

// frame is the envelope for every message in either direction. Fields
// are populated per Type; the rest stay empty on the wire.
type frame struct {
	Type string `json:"type"`

	// subscribe (client to gateway)
	Subscriptions []market.Subscription `json:"subscriptions,omitempty"`
	TsOut         bool                  `json:"ts_out,omitempty"`

	// metadata (gateway to client)
	Metadata *market.Metadata `json:"metadata,omitempty"`

	// record (gateway to client)
	Kind   string          `json:"kind,omitempty"`
	Record json.RawMessage `json:"record,omitempty"`

	// error (gateway to client)
	Message string `json:"message,omitempty"`
}

// decodeRecord parses a record frame payload into its concrete type.
func decodeRecord(kind string, payload json.RawMessage) (market.Record, error) {
	var rec market.Record
	switch kind {
	case wireTrade:
		rec = &market.TradeMsg{}
	case wireQuote:
		rec = &market.QuoteMsg{}
	case wireOhlcv:
		rec = &market.OhlcvMsg{}
	case wireStatus:
		rec = &market.StatusMsg{}
	case wireSymbolMapping:
		rec = &market.SymbolMappingMsg{}
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	if err := json.Unmarshal(payload, rec); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", kind, err)
	}
	return rec, nil
}

// encodeRecord builds a record frame for a market record. The engine
// itself only reads records; the gateway side of the tests writes them.
func encodeRecord(rec market.Record) (*frame, error) {
	var kind string
	switch rec.Kind() {
	case market.KindTrade:
		kind = wireTrade
	case market.KindQuote:
		kind = wireQuote
	case market.KindOhlcv:
		kind = wireOhlcv
	case market.KindStatus:
		kind = wireStatus
	case market.KindSymbolMapping:
		kind = wireSymbolMapping
	default:
		return nil, fmt.Errorf("unsupported record kind %v", rec.Kind())
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", kind, err)
	}
	return &frame{Type: frameRecord, Kind: kind, Record: payload}, nil
}
