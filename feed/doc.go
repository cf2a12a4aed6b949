// Package feed defines the transport boundary between the streaming
// client in package live and the wire protocols that feed it.
//
// An Engine owns one upstream session and pushes events into a Handler
// from a single delivery goroutine. The ordering contract is strict:
// metadata arrives exactly once and before anything else, then records
// and errors in arrival order, then one OnConnectionClosed. Engines
// never reconnect on their own.
//
// Package wsfeed provides the WebSocket implementation. Package
// feedtest provides a scripted in-memory engine for tests.
package feed
