package rank

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"xdigest/internal/config"
	"xdigest/internal/model"
)

// decayRate is the recency decay constant, per hour of post age.
const decayRate = 0.01

// topSample is how many of the best-ranked posts the auto-learning step
// inspects when adjusting weights.
const topSample = 10

var defaultWeights = map[string]float64{
	"likes":          0.3,
	"retweets":       0.4,
	"replies":        0.1,
	"quotes":         0.2,
	"recency":        0.5,
	"user_influence": 0.6,
	"keywords_match": 0.7,
}

// Ranker scores posts with a weighted multi-component heuristic and sorts
// them best first. It owns its weight table exclusively; when auto-learning
// is on, Rank mutates the weights in place, so a Ranker must not be shared
// across goroutines without external synchronization.
type Ranker struct {
	weights       map[string]float64
	keywords      []string
	autoLearning  bool
	learningRate  float64
	minEngagement float64

	now func() time.Time // injectable for deterministic scoring
}

// New builds a ranker from configuration. Weight keys missing from the
// config keep their built-in defaults. Negative weights or a negative
// learning rate are configuration errors.
func New(cfg config.Ranking) (*Ranker, error) {
	weights := make(map[string]float64, len(defaultWeights))
	for k, v := range defaultWeights {
		weights[k] = v
	}
	for k, v := range cfg.Weights {
		if v < 0 {
			return nil, fmt.Errorf("ranking weight %q is negative: %v", k, v)
		}
		weights[k] = v
	}
	if cfg.LearningRate < 0 {
		return nil, fmt.Errorf("learning_rate is negative: %v", cfg.LearningRate)
	}

	learningRate := cfg.LearningRate
	if learningRate == 0 {
		learningRate = 0.01
	}

	return &Ranker{
		weights:       weights,
		keywords:      cfg.Keywords,
		autoLearning:  cfg.AutoLearning,
		learningRate:  learningRate,
		minEngagement: cfg.MinEngagementThreshold,
		now:           time.Now,
	}, nil
}

// Rank scores every post, sorts descending by score, and, when
// auto-learning is enabled on a batch of more than 5 posts, adjusts the
// weights from the top-ranked sample. The sort is stable: equal scores keep
// their input order. Unscored posts sort as score 0.
func (r *Ranker) Rank(posts []*model.Post) []*model.Post {
	log.Printf("Ranking %d posts", len(posts))

	now := r.now().UTC()
	for _, p := range posts {
		score, reason := r.score(p, now)
		p.RankScore = &score
		p.RankReason = reason
	}

	ranked := make([]*model.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})

	if len(ranked) > 0 {
		log.Printf("Ranking complete, top score: %.2f", ranked[0].Score())
	}

	if r.autoLearning && len(posts) > 5 {
		top := ranked
		if len(top) > topSample {
			top = top[:topSample]
		}
		r.adjustWeights(top)
	}

	return ranked
}

// score computes a post's total score and the per-component breakdown
// string, in fixed component order for auditability.
func (r *Ranker) score(p *model.Post, now time.Time) (float64, string) {
	engagement := r.weights["likes"]*float64(p.Likes) +
		r.weights["retweets"]*float64(p.Retweets) +
		r.weights["replies"]*float64(p.Replies) +
		r.weights["quotes"]*float64(p.Quotes)

	var recency float64
	if !p.CreatedAt.IsZero() {
		ageHours := now.Sub(p.CreatedAt.UTC()).Hours()
		recency = r.weights["recency"] * math.Exp(-decayRate*ageHours)
	}

	// Flat per-post contribution; stands in for a future per-author
	// authority model.
	influence := r.weights["user_influence"]

	var keywords float64
	if len(r.keywords) > 0 {
		content := strings.ToLower(p.Content)
		perMatch := r.weights["keywords_match"] / float64(len(r.keywords))
		for _, kw := range r.keywords {
			if strings.Contains(content, strings.ToLower(kw)) {
				keywords += perMatch
			}
		}
	}

	total := engagement + recency + influence + keywords
	reason := fmt.Sprintf("engagement: %.2f, recency: %.2f, influence: %.2f, keywords: %.2f",
		engagement, recency, influence, keywords)
	return total, reason
}

// adjustWeights bumps the weight of each engagement metric whose mean over
// the top-ranked posts exceeds the engagement threshold, then renormalizes
// all weights to sum to 1. A fixed additive step, not a gradient.
func (r *Ranker) adjustWeights(top []*model.Post) {
	if len(top) == 0 {
		return
	}

	n := float64(len(top))
	var likes, retweets, replies, quotes float64
	for _, p := range top {
		likes += float64(p.Likes)
		retweets += float64(p.Retweets)
		replies += float64(p.Replies)
		quotes += float64(p.Quotes)
	}

	if likes/n > r.minEngagement {
		r.weights["likes"] += r.learningRate
	}
	if retweets/n > r.minEngagement {
		r.weights["retweets"] += r.learningRate
	}
	if replies/n > r.minEngagement {
		r.weights["replies"] += r.learningRate
	}
	if quotes/n > r.minEngagement {
		r.weights["quotes"] += r.learningRate
	}

	var total float64
	for _, v := range r.weights {
		total += v
	}
	// All-zero weights would divide by zero; leave them untouched.
	if total > 0 {
		for k := range r.weights {
			r.weights[k] /= total
		}
	}

	log.Printf("Adjusted weights: %s", formatWeights(r.weights))
}

// Weights returns a copy of the current weight table, for persistence or
// inspection.
func (r *Ranker) Weights() map[string]float64 {
	out := make(map[string]float64, len(r.weights))
	for k, v := range r.weights {
		out[k] = v
	}
	return out
}

func formatWeights(weights map[string]float64) string {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%.2f", k, weights[k]))
	}
	return strings.Join(parts, ", ")
}
