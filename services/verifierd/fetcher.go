package verifierd

import (
	"fmt"
	"math/rand"
	"time"
)

// Scenario names accepted by the fetcher.
const (
	ScenarioLegitimate   = "legitimate"
	ScenarioBotFraud     = "bot_fraud"
	ScenarioMixedQuality = "mixed_quality"
)

// Scenarios lists the supported sample scenarios.
func Scenarios() []string {
	return []string{ScenarioLegitimate, ScenarioBotFraud, ScenarioMixedQuality}
}

// Fetcher produces campaign data for a post. Platform APIs are not
// wired in this build so it synthesizes deterministic samples per
// scenario; the RNG is seeded from the scenario name so repeated runs
// agree.
type Fetcher struct {
	nowFn func() time.Time
}

// NewFetcher builds a fetcher using the wall clock.
func NewFetcher() *Fetcher {
	return &Fetcher{nowFn: time.Now}
}

// SetNowFunc overrides the clock for tests.
func (f *Fetcher) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		f.nowFn = fn
	}
}

// Fetch returns the post data for the named scenario.
func (f *Fetcher) Fetch(postURL, scenario string) (PostData, error) {
	now := f.nowFn()
	rng := rand.New(rand.NewSource(seedFor(scenario)))
	switch scenario {
	case ScenarioLegitimate:
		return PostData{
			PostURL:                 postURL,
			Followers:               legitimateFollowers(rng, 1000),
			Engagement:              legitimateEngagement(rng, 100, now),
			HistoricalAvgEngagement: 8.5,
			PostTimestamp:           now.Add(-12 * time.Hour),
			InfluencerLocation:      "United States",
		}, nil
	case ScenarioBotFraud:
		return PostData{
			PostURL:                 postURL,
			Followers:               botFollowers(rng, 1000),
			Engagement:              botEngagement(rng, 200, now),
			HistoricalAvgEngagement: 2.1,
			PostTimestamp:           now.Add(-2 * time.Hour),
			InfluencerLocation:      "United States",
		}, nil
	case ScenarioMixedQuality:
		followers := legitimateFollowers(rng, 600)
		followers = append(followers, botFollowers(rng, 400)...)
		rng.Shuffle(len(followers), func(i, j int) {
			followers[i], followers[j] = followers[j], followers[i]
		})
		return PostData{
			PostURL:                 postURL,
			Followers:               followers,
			Engagement:              mixedEngagement(rng, 150, now),
			HistoricalAvgEngagement: 6.2,
			PostTimestamp:           now.Add(-8 * time.Hour),
			InfluencerLocation:      "United Kingdom",
		}, nil
	default:
		return PostData{}, fmt.Errorf("unknown scenario %q", scenario)
	}
}

func seedFor(scenario string) int64 {
	var seed int64 = 1469598103934665603
	for _, r := range scenario {
		seed ^= int64(r)
		seed *= 1099511628211
	}
	return seed
}

var realUsernameParts = struct {
	adjectives []string
	nouns      []string
}{
	adjectives: []string{"sunny", "quiet", "urban", "wild", "cozy", "brave", "salty", "misty"},
	nouns:      []string{"baker", "runner", "painter", "gardener", "climber", "reader", "surfer", "hiker"},
}

func realUsername(rng *rand.Rand) string {
	adj := realUsernameParts.adjectives[rng.Intn(len(realUsernameParts.adjectives))]
	noun := realUsernameParts.nouns[rng.Intn(len(realUsernameParts.nouns))]
	return fmt.Sprintf("%s_%s%d", adj, noun, rng.Intn(999))
}

func legitimateFollowers(rng *rand.Rand, count int) []Follower {
	locations := []string{"United States", "Canada", "UK", "Australia"}
	followers := make([]Follower, 0, count)
	for i := 0; i < count; i++ {
		followers = append(followers, Follower{
			Username:       realUsername(rng),
			HasProfilePic:  rng.Float64() > 0.05,
			PostCount:      10 + rng.Intn(491),
			FollowingCount: 100 + rng.Intn(901),
			FollowerCount:  50 + rng.Intn(4951),
			BioLength:      20 + rng.Intn(131),
			AccountAgeDays: 180 + rng.Intn(1821),
			Verified:       rng.Float64() > 0.95,
			Location:       locations[rng.Intn(len(locations))],
		})
	}
	return followers
}

func botFollowers(rng *rand.Rand, count int) []Follower {
	botLocations := []string{"Unknown", "Bot Farm", "Multiple"}
	farmLocations := []string{"India", "Bangladesh", "Philippines"}
	followers := make([]Follower, 0, count)
	for i := 0; i < count; i++ {
		if rng.Float64() > 0.3 {
			followers = append(followers, Follower{
				Username:       fmt.Sprintf("user%d", 100000+rng.Intn(900000)),
				HasProfilePic:  false,
				PostCount:      0,
				FollowingCount: 2000 + rng.Intn(3001),
				FollowerCount:  rng.Intn(51),
				BioLength:      0,
				AccountAgeDays: 1 + rng.Intn(30),
				Location:       botLocations[rng.Intn(len(botLocations))],
			})
			continue
		}
		followers = append(followers, Follower{
			Username:       realUsername(rng),
			HasProfilePic:  true,
			PostCount:      10 + rng.Intn(191),
			FollowingCount: 200 + rng.Intn(1301),
			FollowerCount:  100 + rng.Intn(1901),
			BioLength:      30 + rng.Intn(71),
			AccountAgeDays: 90 + rng.Intn(911),
			Location:       farmLocations[rng.Intn(len(farmLocations))],
		})
	}
	return followers
}

var authenticComments = []string{
	"This is exactly what I needed to see today! Your perspective is refreshing.",
	"I've been following your journey and this post really resonates with me.",
	"The way you explain complex topics is incredible. Thank you!",
	"This reminds me of my own experience with this. Great insights!",
	"How did you get started with this?",
	"What tools do you recommend for beginners?",
	"Could you make a tutorial on this topic?",
	"You always deliver amazing posts, this is why I follow you.",
}

var spamComments = []string{
	"great post",
	"nice",
	"awesome",
	"check my bio for free followers",
	"follow me back",
	"dm me for collab",
}

func legitimateEngagement(rng *rand.Rand, commentCount int, now time.Time) Engagement {
	locations := []string{"United States", "Canada", "UK", "Australia"}
	comments := make([]Comment, 0, commentCount)
	for i := 0; i < commentCount; i++ {
		comments = append(comments, Comment{
			Text:      authenticComments[rng.Intn(len(authenticComments))],
			Username:  realUsername(rng),
			Timestamp: now.Add(-time.Duration(1+rng.Intn(12)) * time.Hour),
			Location:  locations[rng.Intn(len(locations))],
		})
	}
	return Engagement{
		Likes:    800 + rng.Intn(401),
		Comments: comments,
		Shares:   50 + rng.Intn(101),
		Saves:    100 + rng.Intn(201),
	}
}

func botEngagement(rng *rand.Rand, commentCount int, now time.Time) Engagement {
	botLocations := []string{"Unknown", "Bot Farm", "Multiple"}
	comments := make([]Comment, 0, commentCount)
	burstStart := now.Add(-90 * time.Minute)
	for i := 0; i < commentCount; i++ {
		comments = append(comments, Comment{
			Text:      spamComments[rng.Intn(len(spamComments))],
			Username:  fmt.Sprintf("user%d", 10000+rng.Intn(90000)),
			Timestamp: burstStart.Add(time.Duration(rng.Intn(180)) * time.Second),
			Location:  botLocations[rng.Intn(len(botLocations))],
		})
	}
	return Engagement{
		Likes:    5000 + rng.Intn(3001),
		Comments: comments,
		Shares:   rng.Intn(10),
		Saves:    rng.Intn(20),
	}
}

func mixedEngagement(rng *rand.Rand, commentCount int, now time.Time) Engagement {
	locations := []string{"UK", "United States", "India", "Unknown"}
	comments := make([]Comment, 0, commentCount)
	for i := 0; i < commentCount; i++ {
		text := authenticComments[rng.Intn(len(authenticComments))]
		if rng.Float64() < 0.4 {
			text = spamComments[rng.Intn(len(spamComments))]
		}
		comments = append(comments, Comment{
			Text:      text,
			Username:  realUsername(rng),
			Timestamp: now.Add(-time.Duration(1+rng.Intn(8)) * time.Hour),
			Location:  locations[rng.Intn(len(locations))],
		})
	}
	return Engagement{
		Likes:    1500 + rng.Intn(1001),
		Comments: comments,
		Shares:   20 + rng.Intn(61),
		Saves:    40 + rng.Intn(81),
	}
}
