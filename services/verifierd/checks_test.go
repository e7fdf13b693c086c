package verifierd

import (
	"fmt"
	"testing"
	"time"
)

func genuineFollower(i int) Follower {
	return Follower{
		Username:       fmt.Sprintf("sunny_baker%d", i%100),
		HasProfilePic:  true,
		PostCount:      120,
		FollowingCount: 400,
		FollowerCount:  900,
		BioLength:      60,
		AccountAgeDays: 700,
		Location:       "United States",
	}
}

func botFollower(i int) Follower {
	return Follower{
		Username:       fmt.Sprintf("user%06d", 100000+i),
		HasProfilePic:  false,
		PostCount:      0,
		FollowingCount: 3000,
		FollowerCount:  10,
		BioLength:      0,
		AccountAgeDays: 5,
		Location:       "Bot Farm",
	}
}

func TestAnalyzeFollowersEmpty(t *testing.T) {
	result := AnalyzeFollowers(nil)
	if result.Score != 0 {
		t.Fatalf("expected zero score, got %v", result.Score)
	}
	if len(result.Flags) == 0 {
		t.Fatalf("expected a flag for empty input")
	}
}

func TestAnalyzeFollowersAllGenuine(t *testing.T) {
	followers := make([]Follower, 0, 50)
	for i := 0; i < 50; i++ {
		followers = append(followers, genuineFollower(i))
	}
	result := AnalyzeFollowers(followers)
	if result.Score != 100 {
		t.Fatalf("expected 100, got %v", result.Score)
	}
	if result.BotCount != 0 || result.SuspiciousCount != 0 {
		t.Fatalf("false positives: bots=%d suspicious=%d", result.BotCount, result.SuspiciousCount)
	}
}

func TestAnalyzeFollowersFlagsBots(t *testing.T) {
	followers := make([]Follower, 0, 100)
	for i := 0; i < 60; i++ {
		followers = append(followers, botFollower(i))
	}
	for i := 0; i < 40; i++ {
		followers = append(followers, genuineFollower(i))
	}
	result := AnalyzeFollowers(followers)
	if result.BotCount != 60 {
		t.Fatalf("expected 60 bots, got %d", result.BotCount)
	}
	if result.Score != 40 {
		t.Fatalf("expected 40, got %v", result.Score)
	}
	if len(result.Flags) == 0 {
		t.Fatalf("expected high-bot-presence flag")
	}
}

func TestSuspiciousSignalsUpgradeToBot(t *testing.T) {
	// Three independent suspicious signals, none individually definite.
	follower := Follower{
		Username:       "misty_reader",
		HasProfilePic:  false,
		PostCount:      5,
		FollowingCount: 2000,
		FollowerCount:  100,
		BioLength:      0,
		AccountAgeDays: 500,
		Location:       "United States",
	}
	definiteBot, _ := classifyFollower(&follower)
	if !definiteBot {
		t.Fatalf("expected upgrade to definite bot")
	}
}

func TestAnalyzeEngagementEmptyIsNeutral(t *testing.T) {
	result := AnalyzeEngagement(Engagement{})
	if result.Score != 50 {
		t.Fatalf("expected neutral 50, got %v", result.Score)
	}
}

func TestAnalyzeEngagementClassifiesComments(t *testing.T) {
	now := time.Now()
	comments := []Comment{
		{Text: "The way you explain complex topics is incredible, thank you!", Username: "a", Timestamp: now},
		{Text: "This reminds me of my own experience, great insights overall.", Username: "b", Timestamp: now.Add(-time.Hour)},
		{Text: "nice", Username: "c", Timestamp: now.Add(-2 * time.Hour)},
		{Text: "check my bio for free followers today", Username: "d", Timestamp: now.Add(-3 * time.Hour)},
	}
	result := AnalyzeEngagement(Engagement{Comments: comments})
	if result.AuthenticCount != 2 || result.GenericCount != 1 || result.SpamCount != 1 {
		t.Fatalf("unexpected classification: authentic=%d generic=%d spam=%d",
			result.AuthenticCount, result.GenericCount, result.SpamCount)
	}
	// (2 + 1*0.4) / 4 * 100
	if result.Score != 60 {
		t.Fatalf("expected 60, got %v", result.Score)
	}
}

func TestAnalyzeEngagementPenalizesDuplicates(t *testing.T) {
	now := time.Now()
	comments := make([]Comment, 0, 10)
	for i := 0; i < 10; i++ {
		comments = append(comments, Comment{
			Text:      "This reminds me of my own experience, great insights overall.",
			Username:  fmt.Sprintf("c%d", i),
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
		})
	}
	result := AnalyzeEngagement(Engagement{Comments: comments})
	if result.DuplicateCount != 9 {
		t.Fatalf("expected 9 duplicates, got %d", result.DuplicateCount)
	}
	if result.Score >= 100 {
		t.Fatalf("expected duplicate penalty, got %v", result.Score)
	}
}

func TestAnalyzeVelocityNormal(t *testing.T) {
	now := time.Now()
	engagement := Engagement{Likes: 100} // weighted 100
	result := AnalyzeVelocity(engagement, 10, now.Add(-10*time.Hour), now)
	if result.Score != 100 {
		t.Fatalf("expected 100, got %v", result.Score)
	}
	if result.Anomalous {
		t.Fatalf("baseline velocity flagged as anomalous")
	}
}

func TestAnalyzeVelocitySpike(t *testing.T) {
	now := time.Now()
	engagement := Engagement{Likes: 5000}
	result := AnalyzeVelocity(engagement, 2, now.Add(-90*time.Minute), now)
	if result.Score != 40 {
		t.Fatalf("expected 40 for extreme spike, got %v", result.Score)
	}
	if !result.Anomalous {
		t.Fatalf("expected anomaly flag")
	}
	if len(result.Flags) == 0 {
		t.Fatalf("expected spike flags")
	}
}

func TestAnalyzeGeoAlignment(t *testing.T) {
	followers := make([]Follower, 0, 10)
	for i := 0; i < 10; i++ {
		followers = append(followers, genuineFollower(i))
	}
	result := AnalyzeGeo(followers, Engagement{}, "United States")
	// Followers fully aligned (100), no comments (neutral 50):
	// 100*0.6 + 50*0.4
	if result.Score != 80 {
		t.Fatalf("expected 80, got %v", result.Score)
	}
	if result.FollowerAlignedPct != 100 {
		t.Fatalf("expected full alignment, got %v", result.FollowerAlignedPct)
	}
}

func TestAnalyzeGeoBotFarmPenalty(t *testing.T) {
	followers := make([]Follower, 0, 10)
	for i := 0; i < 10; i++ {
		followers = append(followers, botFollower(i))
	}
	result := AnalyzeGeo(followers, Engagement{}, "United States")
	if result.Score > 30 {
		t.Fatalf("expected heavy penalty, got %v", result.Score)
	}
	if result.BotFarmFollowers != 10 {
		t.Fatalf("expected 10 bot farm followers, got %d", result.BotFarmFollowers)
	}
	if len(result.Flags) == 0 {
		t.Fatalf("expected geo flags")
	}
}
