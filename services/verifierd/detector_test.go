package verifierd

import (
	"testing"
	"time"
)

func newFixedClockDetector(t *testing.T, at time.Time) *Detector {
	t.Helper()
	detector, err := NewDetector(DefaultWeights(), 0)
	if err != nil {
		t.Fatalf("new detector: %v", err)
	}
	detector.SetNowFunc(func() time.Time { return at })
	return detector
}

func fetchScenario(t *testing.T, scenario string, at time.Time) PostData {
	t.Helper()
	fetcher := NewFetcher()
	fetcher.SetNowFunc(func() time.Time { return at })
	post, err := fetcher.Fetch("https://example.com/post/1", scenario)
	if err != nil {
		t.Fatalf("fetch %s: %v", scenario, err)
	}
	return post
}

func TestWeightsValidation(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
	bad := Weights{FollowerAuthenticity: 0.5, EngagementQuality: 0.5, Velocity: 0.5}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := NewDetector(bad, 0); err == nil {
		t.Fatalf("expected constructor to reject bad weights")
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	detector := newFixedClockDetector(t, at)

	first := detector.Detect(fetchScenario(t, ScenarioLegitimate, at))
	second := detector.Detect(fetchScenario(t, ScenarioLegitimate, at))
	if first.OverallScore != second.OverallScore {
		t.Fatalf("scores diverge: %v vs %v", first.OverallScore, second.OverallScore)
	}
	if first.Recommendation != second.Recommendation {
		t.Fatalf("recommendations diverge: %s vs %s", first.Recommendation, second.Recommendation)
	}
}

func TestFraudScenarioFailsHard(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	detector := newFixedClockDetector(t, at)

	report := detector.Detect(fetchScenario(t, ScenarioBotFraud, at))
	if report.Passed {
		t.Fatalf("bot fraud scenario passed at %v", report.OverallScore)
	}
	if report.OverallScore >= 60 {
		t.Fatalf("expected score below 60, got %v", report.OverallScore)
	}
	if report.Recommendation != RecommendationRejectFraud {
		t.Fatalf("expected reject recommendation, got %s", report.Recommendation)
	}
	if len(report.FraudFlags) == 0 {
		t.Fatalf("expected fraud flags")
	}
}

func TestLegitimateOutscoresFraud(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	detector := newFixedClockDetector(t, at)

	legit := detector.Detect(fetchScenario(t, ScenarioLegitimate, at))
	mixed := detector.Detect(fetchScenario(t, ScenarioMixedQuality, at))
	fraud := detector.Detect(fetchScenario(t, ScenarioBotFraud, at))

	if legit.OverallScore <= fraud.OverallScore {
		t.Fatalf("legitimate %v did not outscore fraud %v", legit.OverallScore, fraud.OverallScore)
	}
	if legit.OverallScore <= mixed.OverallScore {
		t.Fatalf("legitimate %v did not outscore mixed %v", legit.OverallScore, mixed.OverallScore)
	}
	if mixed.OverallScore <= fraud.OverallScore {
		t.Fatalf("mixed %v did not outscore fraud %v", mixed.OverallScore, fraud.OverallScore)
	}
}

func TestBreakdownContributionsSumToOverall(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	detector := newFixedClockDetector(t, at)
	report := detector.Detect(fetchScenario(t, ScenarioMixedQuality, at))

	sum := 0.0
	for _, part := range report.Breakdown {
		sum += part.WeightedContribution
	}
	diff := report.OverallScore - sum
	if diff < -0.1 || diff > 0.1 {
		t.Fatalf("breakdown sum %v does not match overall %v", sum, report.OverallScore)
	}
}

func TestReportScoreClamps(t *testing.T) {
	cases := []struct {
		overall float64
		want    uint8
	}{
		{overall: -3, want: 0},
		{overall: 0, want: 0},
		{overall: 42.9, want: 42},
		{overall: 99.99, want: 99},
		{overall: 100, want: 100},
		{overall: 250, want: 100},
	}
	for _, tc := range cases {
		report := Report{OverallScore: tc.overall}
		if got := report.Score(); got != tc.want {
			t.Fatalf("overall %v: expected %d, got %d", tc.overall, tc.want, got)
		}
	}
}

func TestFetcherRejectsUnknownScenario(t *testing.T) {
	if _, err := NewFetcher().Fetch("https://example.com/x", "nonsense"); err == nil {
		t.Fatalf("expected error for unknown scenario")
	}
}

func TestConfidenceBands(t *testing.T) {
	if got := confidence(90, 92, 91, 93); got != "HIGH" {
		t.Fatalf("expected HIGH, got %s", got)
	}
	if got := confidence(100, 100, 40, 40); got != "LOW" {
		t.Fatalf("expected LOW, got %s", got)
	}
}
