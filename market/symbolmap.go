package market

import (
	"fmt"
	"sync"

	"github.com/c360/feedbridge/errors"
)

// SymbolMap is a point-in-time instrument-ID-to-symbol map maintained from
// SymbolMappingMsg records. Feeds identify instruments numerically after the
// handshake; the map lets consumers recover the symbol they subscribed with.
//
// SymbolMap is safe for concurrent use: the typical shape is one goroutine
// applying records while others look up symbols.
type SymbolMap struct {
	mu      sync.RWMutex
	symbols map[uint32]string
}

// NewSymbolMap creates an empty symbol map.
func NewSymbolMap() *SymbolMap {
	return &SymbolMap{
		symbols: make(map[uint32]string),
	}
}

// Apply updates the map from a record. Non-mapping records are ignored, so
// the whole stream can be funneled through without filtering first.
func (sm *SymbolMap) Apply(rec Record) {
	mapping, ok := rec.(*SymbolMappingMsg)
	if !ok {
		return
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if mapping.OutSymbol == "" {
		// An empty output symbol retires the instrument ID
		delete(sm.symbols, mapping.InstrumentID())
		return
	}
	sm.symbols[mapping.InstrumentID()] = mapping.OutSymbol
}

// Get returns the symbol for an instrument ID.
func (sm *SymbolMap) Get(instrumentID uint32) (string, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.symbols[instrumentID]
	return s, ok
}

// Resolve returns the symbol for an instrument ID, or a classified
// error when no mapping has been seen for it yet.
func (sm *SymbolMap) Resolve(instrumentID uint32) (string, error) {
	s, ok := sm.Get(instrumentID)
	if !ok {
		return "", errors.WrapInvalid(errors.ErrSymbolNotFound,
			"market.SymbolMap", "Resolve", fmt.Sprintf("instrument %d", instrumentID))
	}
	return s, nil
}

// Size returns the number of mapped instruments.
func (sm *SymbolMap) Size() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.symbols)
}

// IsEmpty reports whether the map holds no mappings.
func (sm *SymbolMap) IsEmpty() bool {
	return sm.Size() == 0
}
