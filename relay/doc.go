// Package relay republishes live stream records to NATS.
//
// The relay is a push consumer: it plugs into a live.Client as record
// and error observers and publishes each record as a JSON envelope to a
// subject of the form <prefix>.<kind>.<instrument>, e.g. "md.trade.42".
// Publishing is best effort; a failed publish is counted and logged but
// never slows or stops the stream.
package relay
