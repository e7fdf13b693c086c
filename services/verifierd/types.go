package verifierd

import "time"

// Follower is a single audience profile sampled from the platform.
type Follower struct {
	Username       string    `json:"username"`
	HasProfilePic  bool      `json:"hasProfilePic"`
	PostCount      int       `json:"postCount"`
	FollowingCount int       `json:"followingCount"`
	FollowerCount  int       `json:"followerCount"`
	BioLength      int       `json:"bioLength"`
	AccountAgeDays int       `json:"accountAgeDays"`
	Verified       bool      `json:"verified"`
	Location       string    `json:"location"`
	SampledAt      time.Time `json:"sampledAt,omitempty"`
}

// Comment is one interaction left on the sponsored post.
type Comment struct {
	Text      string    `json:"text"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location"`
}

// Engagement aggregates interactions on the sponsored post.
type Engagement struct {
	Likes    int       `json:"likes"`
	Comments []Comment `json:"comments"`
	Shares   int       `json:"shares"`
	Saves    int       `json:"saves"`
}

// PostData is everything the detector needs about one campaign post.
type PostData struct {
	PostURL                 string     `json:"postUrl"`
	Followers               []Follower `json:"followers"`
	Engagement              Engagement `json:"engagement"`
	HistoricalAvgEngagement float64    `json:"historicalAvgEngagement"`
	PostTimestamp           time.Time  `json:"postTimestamp"`
	InfluencerLocation      string     `json:"influencerLocation"`
}
