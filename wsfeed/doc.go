// Package wsfeed implements feed.Engine over WebSocket.
//
// The wire protocol is one JSON frame per text message. On connect the
// engine sends a subscribe frame carrying every registered subscription
// and a start frame, then reads until the connection ends:
//
//	→ {"type":"subscribe","subscriptions":[...]}
//	→ {"type":"start"}
//	← {"type":"metadata","metadata":{...}}
//	← {"type":"record","kind":"trade","record":{...}}
//	← {"type":"error","message":"..."}
//
// Authentication is a bearer token on the handshake request, resolved
// from the environment variable named in Config.APIKeyEnv. The engine
// never reconnects; connection loss is reported to the handler and the
// engine is done.
package wsfeed
