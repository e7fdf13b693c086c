package verifierd

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

var botUsernamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[a-z]+\d{4,}$`),
	regexp.MustCompile(`^\d+[a-z]+\d+$`),
	regexp.MustCompile(`^user\d{6,}$`),
}

var botCommenterPattern = regexp.MustCompile(`^user\d{5,}$`)

var spamKeywords = []string{
	"check my bio", "follow me", "dm me", "link in bio",
	"click here", "visit my", "free followers",
}

var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(nice|cool|awesome|great|amazing|love it|perfect)!*$`),
	regexp.MustCompile(`^(this is|so) (nice|cool|awesome|great|amazing)!*$`),
	regexp.MustCompile(`^love (this|it)!*$`),
}

var suspiciousLocations = map[string]bool{
	"Unknown":  true,
	"Bot Farm": true,
	"Multiple": true,
}

// expectedRegions maps an influencer's home market to the audience
// locations that would not raise a geo flag.
var expectedRegions = map[string][]string{
	"United States":  {"United States", "Canada", "UK", "Australia"},
	"United Kingdom": {"UK", "United States", "Europe", "Australia"},
	"Canada":         {"Canada", "United States", "UK"},
	"Australia":      {"Australia", "UK", "United States", "New Zealand"},
	"Europe":         {"UK", "Germany", "France", "Spain", "Italy"},
}

// FollowerResult is the outcome of the follower authenticity check.
type FollowerResult struct {
	Score           float64  `json:"score"`
	RealCount       int      `json:"realCount"`
	BotCount        int      `json:"botCount"`
	SuspiciousCount int      `json:"suspiciousCount"`
	TotalAnalyzed   int      `json:"totalAnalyzed"`
	AuthenticityPct float64  `json:"authenticityPercentage"`
	Flags           []string `json:"flags"`
}

// AnalyzeFollowers classifies each sampled follower as real, suspicious
// or bot and scores the audience. Real followers count full weight,
// suspicious half, bots nothing.
func AnalyzeFollowers(followers []Follower) FollowerResult {
	if len(followers) == 0 {
		return FollowerResult{Flags: []string{"no followers to analyze"}}
	}

	total := len(followers)
	botCount := 0
	suspiciousCount := 0
	for i := range followers {
		definiteBot, suspicious := classifyFollower(&followers[i])
		switch {
		case definiteBot:
			botCount++
		case suspicious:
			suspiciousCount++
		}
	}

	realCount := total - botCount - suspiciousCount
	weighted := (float64(realCount) + float64(suspiciousCount)*0.5) / float64(total) * 100

	var flags []string
	if float64(botCount) > float64(total)*0.3 {
		flags = append(flags, fmt.Sprintf("high bot presence: %d bots (%.1f%%)", botCount, float64(botCount)/float64(total)*100))
	}
	if float64(suspiciousCount) > float64(total)*0.2 {
		flags = append(flags, fmt.Sprintf("many suspicious accounts: %d (%.1f%%)", suspiciousCount, float64(suspiciousCount)/float64(total)*100))
	}

	return FollowerResult{
		Score:           round2(weighted),
		RealCount:       realCount,
		BotCount:        botCount,
		SuspiciousCount: suspiciousCount,
		TotalAnalyzed:   total,
		AuthenticityPct: round2(float64(realCount) / float64(total) * 100),
		Flags:           flags,
	}
}

func classifyFollower(f *Follower) (definiteBot, suspicious bool) {
	signals := 0

	username := strings.ToLower(f.Username)
	for _, p := range botUsernamePatterns {
		if p.MatchString(username) {
			definiteBot = true
			signals++
			break
		}
	}
	if !f.HasProfilePic {
		suspicious = true
		signals++
	}
	if f.PostCount == 0 {
		definiteBot = true
		signals++
	}
	if f.FollowingCount > 0 && f.FollowerCount > 0 && float64(f.FollowingCount)/float64(f.FollowerCount) > 10 {
		suspicious = true
		signals++
	}
	if f.AccountAgeDays < 30 && f.FollowingCount > 1000 {
		suspicious = true
		signals++
	}
	if f.BioLength == 0 {
		suspicious = true
		signals++
	}
	if suspiciousLocations[f.Location] {
		definiteBot = true
		signals++
	}
	// Enough independent signals upgrades a suspicious account to a bot.
	if signals >= 3 {
		definiteBot = true
	}
	return definiteBot, suspicious
}

// EngagementResult is the outcome of the engagement quality check.
type EngagementResult struct {
	Score          float64  `json:"score"`
	AuthenticCount int      `json:"authenticCount"`
	SpamCount      int      `json:"spamCount"`
	GenericCount   int      `json:"genericCount"`
	DuplicateCount int      `json:"duplicateCount"`
	TotalAnalyzed  int      `json:"totalAnalyzed"`
	QualityPct     float64  `json:"qualityPercentage"`
	Flags          []string `json:"flags"`
}

// AnalyzeEngagement scores comment quality. Authentic comments count
// full weight, generic 40%, spam nothing; heavy duplication draws a
// penalty on top.
func AnalyzeEngagement(engagement Engagement) EngagementResult {
	comments := engagement.Comments
	if len(comments) == 0 {
		// Neutral when there is nothing to judge.
		return EngagementResult{Score: 50, Flags: []string{"no comments to analyze"}}
	}

	total := len(comments)
	spamCount := 0
	genericCount := 0
	seen := make(map[string]int, total)
	duplicateCount := 0

	for _, c := range comments {
		text := strings.ToLower(strings.TrimSpace(c.Text))
		if seen[text] > 0 {
			duplicateCount++
		}
		seen[text]++
		switch {
		case isSpamComment(text):
			spamCount++
		case isGenericComment(text):
			genericCount++
		}
	}

	authenticCount := total - spamCount - genericCount
	weighted := (float64(authenticCount) + float64(genericCount)*0.4) / float64(total) * 100

	var flags []string
	if float64(duplicateCount) > float64(total)*0.1 {
		penalty := math.Min(20, float64(duplicateCount)/float64(total)*50)
		weighted -= penalty
		flags = append(flags, fmt.Sprintf("high duplicate comments: %d (%.1f%%)", duplicateCount, float64(duplicateCount)/float64(total)*100))
	}
	if float64(spamCount) > float64(total)*0.3 {
		flags = append(flags, fmt.Sprintf("high spam presence: %d comments (%.1f%%)", spamCount, float64(spamCount)/float64(total)*100))
	}
	if float64(genericCount) > float64(total)*0.4 {
		flags = append(flags, fmt.Sprintf("many generic comments: %d (%.1f%%)", genericCount, float64(genericCount)/float64(total)*100))
	}
	flags = append(flags, commenterPatternFlags(comments)...)

	weighted = clampScore(weighted)

	return EngagementResult{
		Score:          round2(weighted),
		AuthenticCount: authenticCount,
		SpamCount:      spamCount,
		GenericCount:   genericCount,
		DuplicateCount: duplicateCount,
		TotalAnalyzed:  total,
		QualityPct:     round2(float64(authenticCount) / float64(total) * 100),
		Flags:          flags,
	}
}

func isSpamComment(text string) bool {
	for _, keyword := range spamKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	// Emoji-only comments: strip everything that is not a word
	// character and see whether any text survives.
	stripped := strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' || (r >= '0' && r <= '9') ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, text)
	if len(strings.TrimSpace(stripped)) < 3 && len(text) > 3 {
		return true
	}
	return false
}

func isGenericComment(text string) bool {
	if len(text) < 10 {
		return true
	}
	if len(strings.Fields(text)) <= 2 {
		return true
	}
	for _, p := range genericPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func commenterPatternFlags(comments []Comment) []string {
	var flags []string

	perUser := make(map[string]int)
	for _, c := range comments {
		perUser[c.Username]++
	}
	multi := 0
	for _, n := range perUser {
		if n > 2 {
			multi++
		}
	}
	if float64(multi) > float64(len(perUser))*0.1 {
		flags = append(flags, fmt.Sprintf("%d users posted multiple comments", multi))
	}

	botCommenters := 0
	for _, c := range comments {
		if botCommenterPattern.MatchString(strings.ToLower(c.Username)) {
			botCommenters++
		}
	}
	if float64(botCommenters) > float64(len(comments))*0.2 {
		flags = append(flags, fmt.Sprintf("%d comments from bot-like usernames", botCommenters))
	}

	if len(comments) > 20 {
		stamps := make([]time.Time, 0, len(comments))
		for _, c := range comments {
			if !c.Timestamp.IsZero() {
				stamps = append(stamps, c.Timestamp)
			}
		}
		if len(stamps) >= 10 {
			sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
			span := stamps[len(stamps)-1].Sub(stamps[0])
			if span < 5*time.Minute {
				flags = append(flags, fmt.Sprintf("suspicious timing: %d comments in %.1f minutes", len(comments), span.Minutes()))
			}
		}
	}
	return flags
}

// VelocityResult is the outcome of the engagement velocity check.
type VelocityResult struct {
	Score              float64  `json:"score"`
	CurrentVelocity    float64  `json:"currentVelocity"`
	HistoricalAverage  float64  `json:"historicalAverage"`
	VelocityRatio      float64  `json:"velocityRatio"`
	StandardDeviations float64  `json:"standardDeviations"`
	HoursSincePost     float64  `json:"hoursSincePost"`
	Anomalous          bool     `json:"anomalous"`
	Flags              []string `json:"flags"`
}

// AnalyzeVelocity compares the post's hourly engagement rate against the
// account's historical baseline, flagging spikes consistent with bought
// engagement.
func AnalyzeVelocity(engagement Engagement, historicalAvg float64, postedAt, now time.Time) VelocityResult {
	current := weightedEngagement(engagement)
	hours := now.Sub(postedAt).Hours()
	if hours < 1 {
		hours = 1
	}
	velocity := current / hours

	if historicalAvg == 0 {
		historicalAvg = 1
	}
	ratio := velocity / historicalAvg

	// Treat 30% of the baseline as one standard deviation.
	stdDev := historicalAvg * 0.3
	deviation := 0.0
	if stdDev > 0 {
		deviation = math.Abs(velocity-historicalAvg) / stdDev
	}

	var flags []string
	anomalous := deviation > 2.5
	if anomalous {
		if velocity > historicalAvg {
			flags = append(flags, fmt.Sprintf("engagement spike %.1f standard deviations above normal", deviation))
		} else {
			flags = append(flags, fmt.Sprintf("engagement %.1f standard deviations below normal", deviation))
		}
	}
	if hours < 2 && velocity > historicalAvg*2 {
		flags = append(flags, "instant spike pattern shortly after posting")
	}

	var score float64
	switch {
	case deviation <= 1:
		score = 100
	case deviation <= 2:
		score = 80
	case deviation <= 3:
		score = 60
	default:
		score = 40
	}
	if hours > 6 && !anomalous {
		score = math.Min(100, score+10)
	}

	return VelocityResult{
		Score:              round2(score),
		CurrentVelocity:    round2(velocity),
		HistoricalAverage:  round2(historicalAvg),
		VelocityRatio:      round2(ratio),
		StandardDeviations: round2(deviation),
		HoursSincePost:     round2(hours),
		Anomalous:          anomalous,
		Flags:              flags,
	}
}

// weightedEngagement folds interactions into a single number. Comments
// and shares signal more effort than likes so they carry more weight.
func weightedEngagement(e Engagement) float64 {
	return float64(e.Likes) + float64(len(e.Comments))*3 + float64(e.Shares)*5 + float64(e.Saves)*2
}

// GeoResult is the outcome of the geographic alignment check.
type GeoResult struct {
	Score              float64        `json:"score"`
	FollowerAlignedPct float64        `json:"followerAlignedPercentage"`
	EngageAlignedPct   float64        `json:"engagementAlignedPercentage"`
	BotFarmFollowers   int            `json:"botFarmFollowers"`
	BotFarmEngagement  int            `json:"botFarmEngagement"`
	TopFollowerCountry string         `json:"topFollowerCountry"`
	ExpectedRegions    []string       `json:"expectedRegions"`
	FollowerCountries  map[string]int `json:"followerCountries"`
	Flags              []string       `json:"flags"`
}

// AnalyzeGeo checks whether the audience and its engagement come from
// the regions a brand would expect for the influencer's home market.
func AnalyzeGeo(followers []Follower, engagement Engagement, influencerLocation string) GeoResult {
	expected := expectedRegions[influencerLocation]
	if len(expected) == 0 {
		expected = []string{influencerLocation}
	}
	expectedSet := make(map[string]bool, len(expected))
	for _, region := range expected {
		expectedSet[region] = true
	}

	followerCounts := make(map[string]int)
	for _, f := range followers {
		loc := f.Location
		if loc == "" {
			loc = "Unknown"
		}
		followerCounts[loc]++
	}
	engageCounts := make(map[string]int)
	for _, c := range engagement.Comments {
		loc := c.Location
		if loc == "" {
			loc = "Unknown"
		}
		engageCounts[loc]++
	}

	followerScore, followerPct := alignmentScore(followerCounts, expectedSet, len(followers))
	engageScore, engagePct := alignmentScore(engageCounts, expectedSet, len(engagement.Comments))

	botFarmFollowers := 0
	for loc, n := range followerCounts {
		if suspiciousLocations[loc] {
			botFarmFollowers += n
		}
	}
	botFarmEngagement := 0
	for loc, n := range engageCounts {
		if suspiciousLocations[loc] {
			botFarmEngagement += n
		}
	}

	var flags []string
	if len(followers) > 0 && float64(botFarmFollowers) > float64(len(followers))*0.2 {
		flags = append(flags, fmt.Sprintf("high bot farm follower presence: %.1f%%", float64(botFarmFollowers)/float64(len(followers))*100))
	}
	if len(engagement.Comments) > 0 && float64(botFarmEngagement) > float64(len(engagement.Comments))*0.2 {
		flags = append(flags, fmt.Sprintf("high bot farm engagement: %.1f%%", float64(botFarmEngagement)/float64(len(engagement.Comments))*100))
	}
	if len(followers) > 0 && followerPct < 50 {
		flags = append(flags, fmt.Sprintf("poor follower location alignment: %.1f%% from target regions", followerPct))
	}
	if len(engagement.Comments) > 0 && engagePct < 50 {
		flags = append(flags, fmt.Sprintf("poor engagement location alignment: %.1f%% from target regions", engagePct))
	}

	topCountry, topCount := "", 0
	for loc, n := range followerCounts {
		if n > topCount || (n == topCount && loc < topCountry) {
			topCountry, topCount = loc, n
		}
	}
	if topCountry != "" && !expectedSet[topCountry] && float64(topCount) > float64(len(followers))*0.5 {
		flags = append(flags, fmt.Sprintf("suspicious concentration: %d followers (%.1f%%) from %s", topCount, float64(topCount)/float64(len(followers))*100, topCountry))
	}

	overall := followerScore*0.6 + engageScore*0.4
	denom := len(followers) + len(engagement.Comments)
	if denom > 0 {
		penalty := math.Min(30, float64(botFarmFollowers+botFarmEngagement)/float64(denom)*100)
		overall = math.Max(0, overall-penalty)
	}

	return GeoResult{
		Score:              round2(overall),
		FollowerAlignedPct: round2(followerPct),
		EngageAlignedPct:   round2(engagePct),
		BotFarmFollowers:   botFarmFollowers,
		BotFarmEngagement:  botFarmEngagement,
		TopFollowerCountry: topCountry,
		ExpectedRegions:    expected,
		FollowerCountries:  followerCounts,
		Flags:              flags,
	}
}

func alignmentScore(counts map[string]int, expected map[string]bool, total int) (score, percentage float64) {
	if total == 0 {
		return 50, 0
	}
	aligned := 0
	for loc, n := range counts {
		if expected[loc] {
			aligned += n
		}
	}
	percentage = float64(aligned) / float64(total) * 100
	switch {
	case percentage >= 80:
		score = 100
	case percentage >= 60:
		score = 90
	case percentage >= 40:
		score = 70
	case percentage >= 20:
		score = 50
	default:
		score = 30
	}
	return score, percentage
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
