// Package market defines the domain data model shared by feed engines and
// live clients: schemas, the closed set of record variants, stream metadata,
// fixed-point prices, and symbol maps.
//
// Records are a closed variant: only types in this package implement the
// Record interface. Every variant carries the common Header (instrument ID,
// publisher, event timestamp) plus kind-specific payload, and supports Clone
// so delivery layers can take ownership of transport-backed values.
package market
