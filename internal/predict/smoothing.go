package predict

import (
	"math"
	"time"
)

// intervalsBetween computes the consecutive purchase intervals in whole
// days from date-ascending purchase dates. Non-positive intervals are data
// errors (duplicate or out-of-order dates) and are discarded.
func intervalsBetween(dates []time.Time) []float64 {
	var intervals []float64
	for i := 1; i < len(dates); i++ {
		days := math.Round(dates[i].Sub(dates[i-1]).Hours() / 24)
		if days > 0 {
			intervals = append(intervals, days)
		}
	}
	return intervals
}

// removeOutliers drops intervals that score as outliers at the given Z
// threshold. Each interval is scored against the mean and standard
// deviation of the remaining intervals; scoring against a set that
// includes the point itself can never exceed (n-1)/sqrt(n) on the small
// sets seen here, which would make the threshold unreachable. Removal is
// only attempted with at least 3 intervals, and if it would eliminate
// every interval the original set is kept.
func removeOutliers(intervals []float64, threshold float64) (cleaned []float64, removed int) {
	if len(intervals) < 3 {
		return intervals, 0
	}

	kept := make([]float64, 0, len(intervals))
	for i, v := range intervals {
		rest := make([]float64, 0, len(intervals)-1)
		rest = append(rest, intervals[:i]...)
		rest = append(rest, intervals[i+1:]...)

		mean, stdDev := meanStdDev(rest)
		switch {
		case stdDev == 0:
			if v == mean {
				kept = append(kept, v)
			}
		case math.Abs(v-mean)/stdDev <= threshold:
			kept = append(kept, v)
		}
	}

	if len(kept) == 0 {
		return intervals, 0
	}

	return kept, len(intervals) - len(kept)
}

// applyExponentialSmoothing smooths an interval sequence with factor
// alpha, weighting recent intervals more heavily. A single-element
// sequence smooths to itself.
func applyExponentialSmoothing(intervals []float64, alpha float64) float64 {
	if len(intervals) == 0 {
		return 0
	}

	smoothed := intervals[0]
	for _, v := range intervals[1:] {
		smoothed = alpha*v + (1-alpha)*smoothed
	}
	return smoothed
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(xs []float64) (mean, stdDev float64) {
	if len(xs) == 0 {
		return 0, 0
	}

	for _, v := range xs {
		mean += v
	}
	mean /= float64(len(xs))

	var variance float64
	for _, v := range xs {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(xs))

	return mean, math.Sqrt(variance)
}

// coefficientOfVariation returns stdDev/mean as a percentage; zero when
// the mean is zero.
func coefficientOfVariation(xs []float64) float64 {
	mean, stdDev := meanStdDev(xs)
	if mean == 0 {
		return 0
	}
	return stdDev / mean * 100
}
