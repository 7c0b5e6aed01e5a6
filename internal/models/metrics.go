package models

import "time"

// SystemMetrics is a point-in-time snapshot of runtime counters exposed
// through the admin status endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	GraphBuildCount             uint64  `json:"graph_build_count"`
	AverageGraphBuildDurationMs float64 `json:"average_graph_build_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
