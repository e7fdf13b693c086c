package verifierd

import (
	"fmt"
	"math"
	"time"
)

// DefaultPassThreshold is the composite score a campaign must reach
// before the detector recommends releasing payment.
const DefaultPassThreshold = 95.0

// Weights distributes the composite score across the four checks.
// The fields must sum to 1.
type Weights struct {
	FollowerAuthenticity float64 `yaml:"follower_authenticity" json:"followerAuthenticity"`
	EngagementQuality    float64 `yaml:"engagement_quality" json:"engagementQuality"`
	Velocity             float64 `yaml:"velocity" json:"velocity"`
	GeoAlignment         float64 `yaml:"geo_alignment" json:"geoAlignment"`
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		FollowerAuthenticity: 0.30,
		EngagementQuality:    0.35,
		Velocity:             0.20,
		GeoAlignment:         0.15,
	}
}

// Validate checks the weights sum to 1 within floating point tolerance.
func (w Weights) Validate() error {
	sum := w.FollowerAuthenticity + w.EngagementQuality + w.Velocity + w.GeoAlignment
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("weights must sum to 1.0, got %.3f", sum)
	}
	return nil
}

// Recommendation bands returned alongside the composite score.
const (
	RecommendationApproved         = "APPROVED_FOR_PAYMENT"
	RecommendationApprovedConcerns = "APPROVED_WITH_MINOR_CONCERNS"
	RecommendationApprovedMonitor  = "APPROVED_BUT_MONITOR"
	RecommendationManualReview     = "MANUAL_REVIEW_RECOMMENDED"
	RecommendationHoldPayment      = "HOLD_PAYMENT_PENDING_REVIEW"
	RecommendationRejectFraud      = "REJECT_PAYMENT_FRAUD_DETECTED"
)

// CheckBreakdown pairs an individual check score with its contribution
// to the composite.
type CheckBreakdown struct {
	Score                float64 `json:"score"`
	Weight               float64 `json:"weight"`
	WeightedContribution float64 `json:"weightedContribution"`
}

// Report is the full output of one detection run.
type Report struct {
	OverallScore   float64                   `json:"overallScore"`
	PassThreshold  float64                   `json:"passThreshold"`
	Passed         bool                      `json:"passed"`
	Recommendation string                    `json:"recommendation"`
	Confidence     string                    `json:"confidence"`
	Breakdown      map[string]CheckBreakdown `json:"breakdown"`
	Followers      FollowerResult            `json:"followers"`
	Engagement     EngagementResult          `json:"engagement"`
	Velocity       VelocityResult            `json:"velocity"`
	Geo            GeoResult                 `json:"geo"`
	FraudFlags     []string                  `json:"fraudFlags"`
	Summary        string                    `json:"summary"`
}

// Detector runs all fraud checks and folds them into a single verdict.
type Detector struct {
	weights       Weights
	passThreshold float64
	nowFn         func() time.Time
}

// NewDetector builds a detector with the supplied weights and pass
// threshold. Zero threshold selects the default.
func NewDetector(weights Weights, passThreshold float64) (*Detector, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if passThreshold <= 0 {
		passThreshold = DefaultPassThreshold
	}
	if passThreshold > 100 {
		return nil, fmt.Errorf("pass threshold %0.f exceeds maximum score", passThreshold)
	}
	return &Detector{weights: weights, passThreshold: passThreshold, nowFn: time.Now}, nil
}

// SetNowFunc overrides the clock. Tests use this for deterministic
// velocity windows.
func (d *Detector) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		d.nowFn = fn
	}
}

// PassThreshold returns the configured minimum passing score.
func (d *Detector) PassThreshold() float64 { return d.passThreshold }

// Weights returns the configured check weighting.
func (d *Detector) Weights() Weights { return d.weights }

// Detect runs every check against the post and produces the composite
// report.
func (d *Detector) Detect(post PostData) Report {
	followers := AnalyzeFollowers(post.Followers)
	engagement := AnalyzeEngagement(post.Engagement)
	velocity := AnalyzeVelocity(post.Engagement, post.HistoricalAvgEngagement, post.PostTimestamp, d.nowFn())
	geo := AnalyzeGeo(post.Followers, post.Engagement, post.InfluencerLocation)

	overall := followers.Score*d.weights.FollowerAuthenticity +
		engagement.Score*d.weights.EngagementQuality +
		velocity.Score*d.weights.Velocity +
		geo.Score*d.weights.GeoAlignment
	overall = round2(overall)

	var flags []string
	flags = append(flags, followers.Flags...)
	flags = append(flags, engagement.Flags...)
	flags = append(flags, velocity.Flags...)
	flags = append(flags, geo.Flags...)

	return Report{
		OverallScore:   overall,
		PassThreshold:  d.passThreshold,
		Passed:         overall >= d.passThreshold,
		Recommendation: d.recommend(overall, flags),
		Confidence:     confidence(followers.Score, engagement.Score, velocity.Score, geo.Score),
		Breakdown: map[string]CheckBreakdown{
			"followerAuthenticity": {Score: followers.Score, Weight: d.weights.FollowerAuthenticity, WeightedContribution: round2(followers.Score * d.weights.FollowerAuthenticity)},
			"engagementQuality":    {Score: engagement.Score, Weight: d.weights.EngagementQuality, WeightedContribution: round2(engagement.Score * d.weights.EngagementQuality)},
			"velocity":             {Score: velocity.Score, Weight: d.weights.Velocity, WeightedContribution: round2(velocity.Score * d.weights.Velocity)},
			"geoAlignment":         {Score: geo.Score, Weight: d.weights.GeoAlignment, WeightedContribution: round2(geo.Score * d.weights.GeoAlignment)},
		},
		Followers:  followers,
		Engagement: engagement,
		Velocity:   velocity,
		Geo:        geo,
		FraudFlags: flags,
		Summary:    summarize(overall, followers, engagement),
	}
}

// Score converts the composite into the 0-100 integer submitted on
// chain, truncating the fractional part.
func (r Report) Score() uint8 {
	if r.OverallScore <= 0 {
		return 0
	}
	if r.OverallScore >= 100 {
		return 100
	}
	return uint8(r.OverallScore)
}

func (d *Detector) recommend(score float64, flags []string) string {
	switch {
	case score >= d.passThreshold:
		switch {
		case len(flags) == 0:
			return RecommendationApproved
		case len(flags) <= 2:
			return RecommendationApprovedConcerns
		default:
			return RecommendationApprovedMonitor
		}
	case score >= 80:
		return RecommendationManualReview
	case score >= 60:
		return RecommendationHoldPayment
	default:
		return RecommendationRejectFraud
	}
}

// confidence grades agreement between the checks: low variance means
// the checks corroborate each other.
func confidence(scores ...float64) string {
	avg := 0.0
	for _, s := range scores {
		avg += s
	}
	avg /= float64(len(scores))
	variance := 0.0
	for _, s := range scores {
		variance += (s - avg) * (s - avg)
	}
	variance /= float64(len(scores))
	stdDev := math.Sqrt(variance)
	switch {
	case stdDev < 10:
		return "HIGH"
	case stdDev < 20:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func summarize(overall float64, followers FollowerResult, engagement EngagementResult) string {
	switch {
	case overall >= 95:
		return fmt.Sprintf("Excellent authenticity score (%.1f/100). Campaign shows %d genuine followers with %d authentic interactions.",
			overall, followers.RealCount, engagement.AuthenticCount)
	case overall >= 80:
		return fmt.Sprintf("Good authenticity score (%.1f/100). Some quality concerns detected; manual review recommended before release.", overall)
	case overall >= 60:
		return fmt.Sprintf("Moderate authenticity score (%.1f/100). Detected %d potential bot followers and %d spam comments.",
			overall, followers.BotCount, engagement.SpamCount)
	default:
		return fmt.Sprintf("Low authenticity score (%.1f/100). Strong fraud indicators: %d bot followers, %d spam comments. Escrow should be refunded to the brand.",
			overall, followers.BotCount, engagement.SpamCount)
	}
}
