// internal/metrics/aggregator.go
package metrics

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mwiater/routerbench/internal/logging"
)

// Aggregator collects client-side timings per backend operation.
type Aggregator struct {
	mutex    sync.Mutex
	metrics  map[string]*OperationMetrics
	filePath string
	now      func() time.Time
}

// NewAggregator creates an Aggregator persisted at filePath and loads any
// previously saved timings. An empty path keeps the timings in memory only.
func NewAggregator(filePath string) *Aggregator {
	agg := &Aggregator{
		metrics:  make(map[string]*OperationMetrics),
		filePath: filePath,
		now:      time.Now,
	}
	agg.load()
	return agg
}

// load reads metrics from the JSON file into memory.
func (a *Aggregator) load() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.filePath == "" {
		return
	}
	data, err := os.ReadFile(a.filePath)
	if err != nil {
		return
	}

	var metricsSlice []*OperationMetrics
	if err := json.Unmarshal(data, &metricsSlice); err != nil {
		logging.LogWarn("[METRICS] ignoring unreadable %s: %v", a.filePath, err)
		return
	}

	for _, m := range metricsSlice {
		a.metrics[m.Operation] = m
	}
}

// Save writes the current metrics to the JSON file.
func (a *Aggregator) Save() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.filePath == "" {
		return nil
	}
	logging.LogEvent("[METRICS] Saving metrics to %s", a.filePath)

	data, err := json.MarshalIndent(a.snapshotLocked(), "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(a.filePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(a.filePath, data, 0o644)
}

// Record folds one call's timings into the operation's statistics.
// Its signature matches api.Recorder.
func (a *Aggregator) Record(op string, responseMs, networkMs float64) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	m, exists := a.metrics[op]
	if !exists {
		m = &OperationMetrics{Operation: op}
		a.metrics[op] = m
	}
	m.LastUpdatedUTC = a.now().UTC()

	updateStats(&m.OverallStats, responseMs, networkMs)

	bucket := getBucket(responseMs)
	for i := range m.LatencyBuckets {
		if m.LatencyBuckets[i].Bucket == bucket {
			updateStats(&m.LatencyBuckets[i].Stats, responseMs, networkMs)
			return
		}
	}
	newBucket := LatencyBucket{Bucket: bucket}
	updateStats(&newBucket.Stats, responseMs, networkMs)
	m.LatencyBuckets = append(m.LatencyBuckets, newBucket)
	sort.Slice(m.LatencyBuckets, func(i, j int) bool {
		return bucketOrder[m.LatencyBuckets[i].Bucket] < bucketOrder[m.LatencyBuckets[j].Bucket]
	})
}

// Snapshot returns a copy of all operation metrics sorted by name.
func (a *Aggregator) Snapshot() []OperationMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() []OperationMetrics {
	out := make([]OperationMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		cp := *m
		cp.LatencyBuckets = append([]LatencyBucket(nil), m.LatencyBuckets...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operation < out[j].Operation })
	return out
}

// Reset drops all metrics and removes the backing file.
func (a *Aggregator) Reset() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.metrics = make(map[string]*OperationMetrics)
	if a.filePath == "" {
		return nil
	}
	if err := os.Remove(a.filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func updateStats(stats *TimingStats, responseMs, networkMs float64) {
	stats.TotalRequests++
	stats.ResponseMs.Add(responseMs)
	stats.NetworkMs.Add(networkMs)
}

var bucketOrder = map[string]int{"0-1s": 0, "1-5s": 1, "5-30s": 2, "30-120s": 3, "120s+": 4}

// getBucket names the response-time band for ms.
func getBucket(ms float64) string {
	switch {
	case ms < 1000:
		return "0-1s"
	case ms < 5000:
		return "1-5s"
	case ms < 30000:
		return "5-30s"
	case ms < 120000:
		return "30-120s"
	default:
		return "120s+"
	}
}
