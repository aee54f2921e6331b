package dedup

import (
	"log"
	"strings"

	"xdigest/internal/model"
)

// Oracle answers whether a post ID exists in persisted history. Lookups for
// IDs never seen must return false.
type Oracle interface {
	IsDuplicate(id string) (bool, error)
}

// Deduplicator removes posts already seen in the current batch or, when an
// oracle is configured, in persisted history. It never writes anywhere.
type Deduplicator struct {
	oracle Oracle
}

// New creates a deduplicator. A nil oracle degrades to batch-local
// deduplication only.
func New(oracle Oracle) *Deduplicator {
	return &Deduplicator{oracle: oracle}
}

// Deduplicate returns the posts with only the first occurrence of each ID
// retained, preserving input order among survivors. Oracle lookup errors
// keep the post: history dedup degrades rather than dropping data.
func (d *Deduplicator) Deduplicate(posts []*model.Post) []*model.Post {
	if len(posts) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(posts))
	unique := make([]*model.Post, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}

		if d.oracle != nil {
			if dup, err := d.oracle.IsDuplicate(p.ID); err == nil && dup {
				continue
			}
		}

		unique = append(unique, p)
	}

	if removed := len(posts) - len(unique); removed > 0 {
		log.Printf("Dedup removed %d of %d posts", removed, len(posts))
	}
	return unique
}

// FilterUpdates returns the subsequence of posts whose ID is in knownIDs:
// posts that already exist but may carry fresh engagement numbers. It is a
// pure ID filter, not a content diff.
func (d *Deduplicator) FilterUpdates(posts []*model.Post, knownIDs map[string]struct{}) []*model.Post {
	var updates []*model.Post
	for _, p := range posts {
		if _, ok := knownIDs[p.ID]; ok {
			updates = append(updates, p)
		}
	}
	return updates
}

// Similarity computes the Jaccard word-overlap similarity of two texts,
// in [0, 1].
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	wordsA := wordSet(a)
	wordsB := wordSet(b)

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}
