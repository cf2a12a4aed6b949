package market

import (
	"fmt"

	"github.com/c360/feedbridge/errors"
)

// Schema identifies the record layout delivered by a subscription.
// Values use the upstream wire names (lowercase, hyphenated).
type Schema string

const (
	// SchemaMbo is full order book activity (market-by-order)
	SchemaMbo Schema = "mbo"
	// SchemaMbp1 is top-of-book depth (market-by-price, 1 level)
	SchemaMbp1 Schema = "mbp-1"
	// SchemaMbp10 is ten levels of book depth
	SchemaMbp10 Schema = "mbp-10"
	// SchemaTrades is trade events only
	SchemaTrades Schema = "trades"
	// SchemaTbbo is trades paired with the prevailing best bid/offer
	SchemaTbbo Schema = "tbbo"
	// SchemaOhlcv1S is one-second bars
	SchemaOhlcv1S Schema = "ohlcv-1s"
	// SchemaOhlcv1M is one-minute bars
	SchemaOhlcv1M Schema = "ohlcv-1m"
	// SchemaOhlcv1H is one-hour bars
	SchemaOhlcv1H Schema = "ohlcv-1h"
	// SchemaOhlcv1D is daily bars
	SchemaOhlcv1D Schema = "ohlcv-1d"
	// SchemaDefinition is instrument definitions
	SchemaDefinition Schema = "definition"
	// SchemaStatistics is venue-published statistics
	SchemaStatistics Schema = "statistics"
	// SchemaStatus is trading status events
	SchemaStatus Schema = "status"
)

// allSchemas is the closed set of known schemas.
var allSchemas = map[Schema]bool{
	SchemaMbo:        true,
	SchemaMbp1:       true,
	SchemaMbp10:      true,
	SchemaTrades:     true,
	SchemaTbbo:       true,
	SchemaOhlcv1S:    true,
	SchemaOhlcv1M:    true,
	SchemaOhlcv1H:    true,
	SchemaOhlcv1D:    true,
	SchemaDefinition: true,
	SchemaStatistics: true,
	SchemaStatus:     true,
}

// Valid reports whether the schema is a known value.
func (s Schema) Valid() bool {
	return allSchemas[s]
}

// String returns the wire name of the schema.
func (s Schema) String() string {
	return string(s)
}

// ParseSchema converts a wire name into a Schema, failing on unknown names.
func ParseSchema(name string) (Schema, error) {
	s := Schema(name)
	if !s.Valid() {
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrInvalidSchema, name),
			"market", "ParseSchema", "validate schema name")
	}
	return s, nil
}
