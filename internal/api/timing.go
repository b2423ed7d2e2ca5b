package api

import "time"

// NetworkMs is the client-observed time not accounted for by the server.
// Clock skew or rounding can make server time exceed wall time; the result is clamped at zero.
func NetworkMs(responseMs, serverMs float64) float64 {
	if d := responseMs - serverMs; d > 0 {
		return d
	}
	return 0
}

// Measure runs fn and returns its wall time in milliseconds. time.Since uses
// the monotonic clock, so wall clock adjustments do not skew the result.
func Measure(fn func() error) (float64, error) {
	start := time.Now()
	err := fn()
	return sinceMs(start), err
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// stamp fills the client-side timing fields of a model response.
func stamp(resp *ModelResponse, responseMs float64) {
	rt := responseMs
	net := NetworkMs(rt, resp.ServerMs())
	resp.ResponseTimeMs = &rt
	resp.NetworkMs = &net
}
