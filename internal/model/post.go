package model

import "time"

// Post is one collected social-media post. The platform-assigned ID is the
// identity key for deduplication and persistence; a Post is immutable after
// collection except for RankScore and RankReason, which the ranker sets.
type Post struct {
	ID             string
	Author         string
	AuthorFullname string
	Content        string
	CreatedAt      time.Time // zero value means unknown
	URL            string
	Platform       string
	Likes          int
	Retweets       int
	Replies        int
	Quotes         int
	ReferencedURLs []string
	MediaURLs      []string
	LinkExcerpt    string // readable excerpt of the first referenced URL, if expanded

	RankScore  *float64 // nil until scored
	RankReason string   // empty until scored
}

// Score returns the rank score, treating unscored posts as 0.
func (p *Post) Score() float64 {
	if p.RankScore == nil {
		return 0
	}
	return *p.RankScore
}
