// Package analytics computes dashboard summary metrics from collection
// snapshots. Everything here is pure; callers pass slices and get numbers.
package analytics

import (
	"math"

	"leadgps/internal/domain"
)

// DefaultWindow is the trailing window used for period-over-period deltas.
const DefaultWindow = 3

// CompletionProgress returns the percentage of completed items in [0,100].
// An empty collection reports 0 rather than NaN.
func CompletionProgress(items []domain.ActionItem) float64 {
	if len(items) == 0 {
		return 0
	}
	completed := 0
	for _, it := range items {
		if it.Completed {
			completed++
		}
	}
	return 100 * float64(completed) / float64(len(items))
}

// CompletionCounts returns completed and total item counts.
func CompletionCounts(items []domain.ActionItem) (completed, total int) {
	for _, it := range items {
		if it.Completed {
			completed++
		}
	}
	return completed, len(items)
}

// PendingCount returns the number of open items.
func PendingCount(items []domain.ActionItem) int {
	completed, total := CompletionCounts(items)
	return total - completed
}

// AverageTrend is the arithmetic mean of the series, rounded half-up to
// one decimal place. Empty input yields 0.
func AverageTrend(points []domain.TrendPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += p.Value
	}
	return round1(sum / float64(len(points)))
}

// TrendDelta is last minus first, one decimal, sign preserved.
// Fewer than two points yield 0.
func TrendDelta(points []domain.TrendPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	return round1(points[len(points)-1].Value - points[0].Value)
}

// TrendDirection classifies a delta as up, down or stable.
func TrendDirection(delta float64) string {
	switch {
	case delta > 0:
		return "up"
	case delta < 0:
		return "down"
	default:
		return "stable"
	}
}

// PeriodDelta reports the change of one trailing point against the point
// window positions earlier. HasPrior is false when the series is too
// short for the comparison to exist.
type PeriodDelta struct {
	Month    string  `json:"month"`
	Value    float64 `json:"value"`
	Delta    float64 `json:"delta"`
	HasPrior bool    `json:"has_prior"`
}

// PeriodDeltas computes deltas for the last window points against their
// window-earlier counterparts. Boundary points without a prior are kept
// in the output with HasPrior unset, so callers can still render them.
func PeriodDeltas(points []domain.TrendPoint, window int) []PeriodDelta {
	if window <= 0 {
		window = DefaultWindow
	}
	start := len(points) - window
	if start < 0 {
		start = 0
	}
	var out []PeriodDelta
	for i := start; i < len(points); i++ {
		d := PeriodDelta{Month: points[i].Month, Value: points[i].Value}
		if prior := i - window; prior >= 0 {
			d.Delta = round1(points[i].Value - points[prior].Value)
			d.HasPrior = true
		}
		out = append(out, d)
	}
	return out
}

// MaxValue returns the largest value in the series, 0 for an empty one.
func MaxValue(points []domain.TrendPoint) float64 {
	max := 0.0
	for _, p := range points {
		if p.Value > max {
			max = p.Value
		}
	}
	return max
}

// NormalizedHeights maps each value to value/max in [0,1] for bar
// rendering. When every value is 0 the heights are all 0.
func NormalizedHeights(points []domain.TrendPoint) []float64 {
	max := MaxValue(points)
	heights := make([]float64, len(points))
	if max == 0 {
		return heights
	}
	for i, p := range points {
		heights[i] = p.Value / max
	}
	return heights
}

// round1 rounds half away from zero to one decimal place, matching how
// the dashboard displays scores.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
