// internal/metrics/types.go
package metrics

import (
	"time"

	"github.com/mwiater/routerbench/internal/aggregate"
)

// OperationMetrics is the aggregated timing document for one backend operation.
type OperationMetrics struct {
	Operation      string          `json:"operation"`
	LastUpdatedUTC time.Time       `json:"last_updated_utc"`
	OverallStats   TimingStats     `json:"overall_stats"`
	LatencyBuckets []LatencyBucket `json:"latency_buckets"`
}

// LatencyBucket holds stats for calls whose response time fell in one band.
type LatencyBucket struct {
	Bucket string      `json:"bucket"`
	Stats  TimingStats `json:"stats"`
}

// TimingStats stores running response and network times in milliseconds.
type TimingStats struct {
	TotalRequests int64                 `json:"total_requests"`
	ResponseMs    aggregate.RunningStat `json:"response_ms"`
	NetworkMs     aggregate.RunningStat `json:"network_ms"`
}
