package aggregate

import "math"

// RunningStat accumulates count, min, max, mean and variance using Welford's
// online algorithm.
type RunningStat struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	M2    float64 `json:"m2"`
}

// Add folds value into the statistic.
func (rs *RunningStat) Add(value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

// Variance returns the sample variance, or 0 with fewer than two values.
func (rs RunningStat) Variance() float64 {
	if rs.Count < 2 {
		return 0
	}
	return rs.M2 / float64(rs.Count-1)
}

// StdDev returns the sample standard deviation.
func (rs RunningStat) StdDev() float64 {
	return math.Sqrt(rs.Variance())
}
