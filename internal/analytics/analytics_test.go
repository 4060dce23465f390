package analytics_test

import (
	"testing"

	"leadgps/internal/analytics"
	"leadgps/internal/domain"
)

var series = []domain.TrendPoint{
	{Month: "Jan", Value: 7.2},
	{Month: "Feb", Value: 7.8},
	{Month: "Mar", Value: 8.1},
	{Month: "Apr", Value: 7.9},
	{Month: "May", Value: 8.2},
	{Month: "Jun", Value: 8.5},
}

func TestCompletionProgress(t *testing.T) {
	cases := []struct {
		name  string
		items []domain.ActionItem
		want  float64
	}{
		{"empty", nil, 0},
		{"none done", []domain.ActionItem{{}, {}}, 0},
		{"half done", []domain.ActionItem{{Completed: true}, {}}, 50},
		{"all done", []domain.ActionItem{{Completed: true}, {Completed: true}}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := analytics.CompletionProgress(tc.items); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAverageTrend(t *testing.T) {
	if got := analytics.AverageTrend(series); got != 8.0 {
		t.Fatalf("got %v, want 8.0", got)
	}
	if got := analytics.AverageTrend(nil); got != 0 {
		t.Fatalf("empty series: got %v", got)
	}
	// 7.95 rounds up, not to even.
	half := []domain.TrendPoint{{Value: 7.9}, {Value: 8.0}}
	if got := analytics.AverageTrend(half); got != 8.0 {
		t.Fatalf("half-up rounding: got %v", got)
	}
}

func TestTrendDelta(t *testing.T) {
	if got := analytics.TrendDelta(series); got != 1.3 {
		t.Fatalf("got %v, want 1.3", got)
	}
	down := []domain.TrendPoint{{Value: 8.5}, {Value: 7.2}}
	if got := analytics.TrendDelta(down); got != -1.3 {
		t.Fatalf("negative delta: got %v", got)
	}
	if got := analytics.TrendDelta(series[:1]); got != 0 {
		t.Fatalf("single point: got %v", got)
	}
	if got := analytics.TrendDelta(nil); got != 0 {
		t.Fatalf("empty: got %v", got)
	}
}

func TestTrendDirection(t *testing.T) {
	if analytics.TrendDirection(1.3) != "up" {
		t.Fatal("positive should be up")
	}
	if analytics.TrendDirection(-0.1) != "down" {
		t.Fatal("negative should be down")
	}
	if analytics.TrendDirection(0) != "stable" {
		t.Fatal("zero should be stable")
	}
}

func TestPeriodDeltas(t *testing.T) {
	out := analytics.PeriodDeltas(series, 3)
	if len(out) != 3 {
		t.Fatalf("got %d periods, want 3", len(out))
	}
	// Apr vs Jan, May vs Feb, Jun vs Mar.
	want := []struct {
		month string
		delta float64
	}{
		{"Apr", 0.7},
		{"May", 0.4},
		{"Jun", 0.4},
	}
	for i, w := range want {
		if out[i].Month != w.month || out[i].Delta != w.delta || !out[i].HasPrior {
			t.Fatalf("period %d: got %+v, want %s %+v", i, out[i], w.month, w.delta)
		}
	}
}

func TestPeriodDeltasShortSeries(t *testing.T) {
	out := analytics.PeriodDeltas(series[:2], 3)
	if len(out) != 2 {
		t.Fatalf("got %d periods, want 2", len(out))
	}
	for _, p := range out {
		if p.HasPrior {
			t.Fatalf("no prior exists for %s", p.Month)
		}
		if p.Delta != 0 {
			t.Fatalf("boundary delta must stay 0, got %v", p.Delta)
		}
	}
	if out := analytics.PeriodDeltas(nil, 3); len(out) != 0 {
		t.Fatalf("empty series: got %d", len(out))
	}
}

func TestMaxValueAndHeights(t *testing.T) {
	if got := analytics.MaxValue(series); got != 8.5 {
		t.Fatalf("max: got %v", got)
	}
	if got := analytics.MaxValue(nil); got != 0 {
		t.Fatalf("empty max: got %v", got)
	}
	heights := analytics.NormalizedHeights(series)
	if len(heights) != len(series) {
		t.Fatalf("heights length: got %d", len(heights))
	}
	if heights[len(heights)-1] != 1 {
		t.Fatalf("max point should normalize to 1, got %v", heights[len(heights)-1])
	}
	zeros := analytics.NormalizedHeights([]domain.TrendPoint{{Value: 0}, {Value: 0}})
	for _, h := range zeros {
		if h != 0 {
			t.Fatalf("all-zero series must not divide by zero, got %v", h)
		}
	}
}
