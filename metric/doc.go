// Package metric provides Prometheus metrics registration and exposure for
// feedbridge clients.
//
// # Overview
//
// The package wraps a private prometheus.Registry so multiple client instances
// can coexist in one process without collector collisions. Core platform
// metrics (stream state, records received/delivered/pulled, errors,
// backpressure, feed connectivity) are always registered; components add their
// own collectors through the MetricsRegistrar interface.
//
// # Quick Start
//
//	registry := metric.NewMetricsRegistry()
//	client, _ := live.New(engine, live.WithMetrics(registry))
//
//	srv := metric.NewServer(9090, "/metrics", registry)
//	go srv.Start()
//	defer srv.Stop()
//
// Components label their metrics with the client name, so one scrape endpoint
// serves any number of live clients.
package metric
