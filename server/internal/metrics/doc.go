// Package metrics exposes the server's Prometheus metrics on /metrics.
//
//	growthlab_recomputations_total        views recomputed
//	growthlab_recompute_seconds           recompute latency histogram
//	growthlab_filtered_samples            filtered count of the last view
//	growthlab_slider_updates_total{source} slider changes by source (api|ws)
//	growthlab_stream_clients              connected WebSocket clients
//	growthlab_dataset_regenerations_total dataset regenerations
//
// Each Metrics value owns its own registry so tests never collide.
package metrics
