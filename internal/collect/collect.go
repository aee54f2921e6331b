package collect

import (
	"context"
	"log"

	"xdigest/internal/config"
	"xdigest/internal/model"
)

// Source produces raw posts from one upstream. Implementations adapt
// whatever the upstream returns into the fixed Post schema at the boundary;
// missing engagement counts stay zero.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]*model.Post, error)
}

// Collector aggregates posts from all configured sources.
type Collector struct {
	sources []Source
}

// NewCollector wires sources from configuration: RSS account mirrors, and
// the timeline API when enabled.
func NewCollector(cfg config.Collection) *Collector {
	c := &Collector{}

	if len(cfg.Feeds) > 0 {
		c.sources = append(c.sources, NewFeedSource(cfg.Feeds))
	}

	if cfg.API.Enabled {
		api := NewAPISource(cfg.API)
		if api.IsConfigured() {
			c.sources = append(c.sources, api)
		} else {
			log.Println("Timeline API enabled but no token set, skipping")
		}
	}

	return c
}

// Collect fetches from every source. A failing source is logged and
// skipped; collection may legitimately return nothing.
func (c *Collector) Collect(ctx context.Context) []*model.Post {
	var all []*model.Post
	for _, src := range c.sources {
		posts, err := src.Fetch(ctx)
		if err != nil {
			log.Printf("Source %s failed: %v", src.Name(), err)
			continue
		}
		log.Printf("Source %s produced %d posts", src.Name(), len(posts))
		all = append(all, posts...)
	}
	return all
}
