package market

import "time"

// Kind discriminates the concrete record variants.
type Kind uint8

const (
	// KindTrade is an executed trade
	KindTrade Kind = iota + 1
	// KindQuote is a top-of-book update
	KindQuote
	// KindOhlcv is an aggregated bar
	KindOhlcv
	// KindStatus is a trading status change
	KindStatus
	// KindSymbolMapping is an instrument ID to symbol mapping update
	KindSymbolMapping
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindTrade:
		return "trade"
	case KindQuote:
		return "quote"
	case KindOhlcv:
		return "ohlcv"
	case KindStatus:
		return "status"
	case KindSymbolMapping:
		return "symbol_mapping"
	default:
		return "unknown"
	}
}

// Side indicates the aggressing side of a trade.
type Side byte

const (
	// SideNone means the side was not reported
	SideNone Side = 'N'
	// SideBid means the buyer was the aggressor
	SideBid Side = 'B'
	// SideAsk means the seller was the aggressor
	SideAsk Side = 'A'
)

// Record is the closed set of market events delivered by a feed. Records
// pushed by an engine may reference transport-owned memory; the delivery
// bridge calls Clone before the push entry point returns, so consumers
// always own what they observe.
//
// Only types in this package implement Record.
type Record interface {
	// Kind returns the variant discriminator.
	Kind() Kind
	// InstrumentID returns the numeric instrument identifier.
	InstrumentID() uint32
	// TsEvent returns the venue event timestamp.
	TsEvent() time.Time
	// Clone returns a deep copy owned by the caller.
	Clone() Record

	sealed()
}

// Header carries the fields common to every record variant.
type Header struct {
	Instrument  uint32 `json:"instrument_id"`
	PublisherID uint16 `json:"publisher_id"`
	TsEventNs   int64  `json:"ts_event"`
}

// InstrumentID returns the numeric instrument identifier.
func (h Header) InstrumentID() uint32 { return h.Instrument }

// TsEvent returns the venue event timestamp.
func (h Header) TsEvent() time.Time { return time.Unix(0, h.TsEventNs).UTC() }

func (Header) sealed() {}

// TradeMsg is an executed trade.
type TradeMsg struct {
	Header
	Price    Price  `json:"price"`
	Size     uint32 `json:"size"`
	Side     Side   `json:"side"`
	Sequence uint32 `json:"sequence"`
}

// Kind returns KindTrade.
func (*TradeMsg) Kind() Kind { return KindTrade }

// Clone returns a deep copy owned by the caller.
func (m *TradeMsg) Clone() Record {
	c := *m
	return &c
}

// QuoteMsg is a top-of-book update (best bid and offer).
type QuoteMsg struct {
	Header
	BidPrice Price  `json:"bid_px"`
	AskPrice Price  `json:"ask_px"`
	BidSize  uint32 `json:"bid_sz"`
	AskSize  uint32 `json:"ask_sz"`
	Sequence uint32 `json:"sequence"`
}

// Kind returns KindQuote.
func (*QuoteMsg) Kind() Kind { return KindQuote }

// Clone returns a deep copy owned by the caller.
func (m *QuoteMsg) Clone() Record {
	c := *m
	return &c
}

// OhlcvMsg is an aggregated open/high/low/close/volume bar.
type OhlcvMsg struct {
	Header
	Open   Price  `json:"open"`
	High   Price  `json:"high"`
	Low    Price  `json:"low"`
	Close  Price  `json:"close"`
	Volume uint64 `json:"volume"`
}

// Kind returns KindOhlcv.
func (*OhlcvMsg) Kind() Kind { return KindOhlcv }

// Clone returns a deep copy owned by the caller.
func (m *OhlcvMsg) Clone() Record {
	c := *m
	return &c
}

// StatusMsg is a venue trading status change.
type StatusMsg struct {
	Header
	Action    uint16 `json:"action"`
	Reason    uint16 `json:"reason"`
	IsTrading bool   `json:"is_trading"`
	IsQuoting bool   `json:"is_quoting"`
}

// Kind returns KindStatus.
func (*StatusMsg) Kind() Kind { return KindStatus }

// Clone returns a deep copy owned by the caller.
func (m *StatusMsg) Clone() Record {
	c := *m
	return &c
}

// SymbolMappingMsg maps an instrument ID to its symbol for an interval.
// Feeds emit these at stream start and on symbology changes; SymbolMap
// consumes them.
type SymbolMappingMsg struct {
	Header
	InSymbol  string `json:"stype_in_symbol"`
	OutSymbol string `json:"stype_out_symbol"`
	StartNs   int64  `json:"start_ts"`
	EndNs     int64  `json:"end_ts"`
}

// Kind returns KindSymbolMapping.
func (*SymbolMappingMsg) Kind() Kind { return KindSymbolMapping }

// Clone returns a deep copy owned by the caller.
func (m *SymbolMappingMsg) Clone() Record {
	c := *m
	return &c
}
