// Package feedbridge bridges a push-driven native market-data feed to Go
// consumers through both callback observers and a pull-based record stream.
//
// # Architecture
//
// A feed engine (the transport and decoding layer, out of scope here) delivers
// decoded records, errors, and stream metadata on its own delivery goroutine.
// The live client owns the lifecycle of a single upstream connection and fans
// those events out safely:
//
//	┌─────────────────────────────────────┐
//	│           feed.Engine               │  transport + decoding
//	│  (wsfeed, feedtest, custom impls)   │  one delivery goroutine
//	└─────────────────────────────────────┘
//	           ↓ pushes records/errors/metadata
//	┌─────────────────────────────────────┐
//	│         live.Client                 │  lifecycle state machine
//	│  (subscribe → start → stream)       │  delivery bridge + policy
//	└─────────────────────────────────────┘
//	           ↓ fans out to
//	┌──────────────────┬──────────────────┐
//	│ callback         │ bounded queue    │
//	│ observers        │ + pull stream    │
//	└──────────────────┴──────────────────┘
//
// # Packages
//
//   - live: the streaming client — subscription registry, lifecycle
//     controller, delivery bridge, exception policy, pull stream
//   - market: domain data model — schemas, record variants, stream metadata,
//     fixed-point prices, symbol maps
//   - feed: the engine boundary — interfaces implemented by transports
//   - wsfeed: a WebSocket feed.Engine speaking a JSON frame protocol
//   - relay: republishes received records to NATS subjects
//   - errors: classified error handling shared across packages
//   - metric: Prometheus metrics registry
//   - pkg/buffer: bounded circular buffers with overflow policies
//
// # Quick start
//
//	engine, _ := wsfeed.New(wsfeed.Config{URL: "wss://feed.example.com/v1", APIKeyEnv: "FEED_API_KEY"})
//	client, _ := live.New(engine)
//	_ = client.Subscribe(market.Subscription{
//		Dataset: "GLBX.MDP3",
//		Schema:  market.SchemaTrades,
//		Symbols: []string{"ESM6"},
//	})
//
//	md, err := client.Start(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	log.Printf("resolved %d symbols", len(md.Symbols))
//	defer client.Close()
//
//	stream, _ := client.Stream()
//	for {
//		rec, err := stream.Next(ctx)
//		if errors.Is(err, fberrors.ErrStreamEnd) {
//			break
//		}
//		if err != nil {
//			log.Fatal(err)
//		}
//		handle(rec)
//	}
//
// One client instance runs one connection, once. There is no automatic
// reconnection: transient failures are surfaced to the caller, who constructs
// a new client to retry.
package feedbridge
