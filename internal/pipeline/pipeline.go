package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"xdigest/internal/analyze"
	"xdigest/internal/collect"
	"xdigest/internal/config"
	"xdigest/internal/dedup"
	"xdigest/internal/deliver"
	"xdigest/internal/expand"
	"xdigest/internal/model"
	"xdigest/internal/rank"
	"xdigest/internal/report"
	"xdigest/internal/store"
)

// PostCollector produces the raw post batch for a run.
type PostCollector interface {
	Collect(ctx context.Context) []*model.Post
}

// ReportSender delivers an assembled report.
type ReportSender interface {
	IsConfigured() bool
	Send(ctx context.Context, r *model.Report) error
}

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	ReportID string
	Steps    []StepResult
}

// Pipeline orchestrates one digest run: collect, dedup, rank, expand,
// analyze, persist, deliver. Strictly sequential; one bounded batch per run.
type Pipeline struct {
	cfg       *config.Config
	store     *store.Store
	collector PostCollector
	ranker    *rank.Ranker
	analyzer  *analyze.Analyzer
	expander  *expand.Expander
	sender    ReportSender
}

// New creates a pipeline over the given store. The ranker keeps its
// (possibly auto-learned) weights for the pipeline's lifetime, so repeated
// Run calls within one process carry adjusted weights forward.
func New(cfg *config.Config, st *store.Store) (*Pipeline, error) {
	ranker, err := rank.New(cfg.Ranking)
	if err != nil {
		return nil, fmt.Errorf("building ranker: %w", err)
	}

	var provider analyze.Provider
	if cfg.Analyzer.Enabled {
		provider = analyze.CreateProvider(cfg.Analyzer)
	}

	return &Pipeline{
		cfg:       cfg,
		store:     st,
		collector: collect.NewCollector(cfg.Collection),
		ranker:    ranker,
		analyzer:  analyze.NewAnalyzer(provider, cfg.Analyzer.MaxTokens),
		expander:  expand.NewExpander(15 * time.Second),
		sender:    deliver.NewEmailSender(cfg.Email),
	}, nil
}

// Run executes the full pipeline and returns per-step results. Analyzer
// and delivery failures never abort persistence of the ranked posts.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{}

	log.Println("Collecting posts...")
	posts := p.collector.Collect(ctx)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("Collected %d posts", len(posts)),
	})

	log.Println("Deduplicating...")
	unique := dedup.New(p.store).Deduplicate(posts)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Dedup",
		Summary: fmt.Sprintf("%d unique posts (%d duplicates removed)", len(unique), len(posts)-len(unique)),
	})

	log.Println("Ranking...")
	ranked := p.ranker.Rank(unique)
	top := ranked
	if k := p.cfg.Report.DailyPostCount; k > 0 && len(top) > k {
		top = top[:k]
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Rank",
		Summary: fmt.Sprintf("Ranked %d posts, selected top %d", len(ranked), len(top)),
	})

	if len(top) == 0 {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Report",
			Summary: "No new posts; skipping report",
		})
		return r
	}

	if p.cfg.Report.ExpandLinks {
		log.Println("Expanding links...")
		res := p.expander.ExpandLinks(ctx, top)
		r.Steps = append(r.Steps, StepResult{
			Name:    "Expand",
			Summary: fmt.Sprintf("Expanded %d linked pages", res.Expanded),
		})
	}

	log.Println("Analyzing...")
	var analysis string
	if p.cfg.Analyzer.Enabled {
		analysis = p.analyzer.Analyze(ctx, top)
		r.Steps = append(r.Steps, StepResult{
			Name:    "Analyze",
			Summary: fmt.Sprintf("Analysis generated (%d chars)", len(analysis)),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{Name: "Analyze", Summary: "Analyzer disabled"})
	}

	log.Println("Persisting and delivering...")
	rpt := report.Assemble(p.cfg.Report.Title, top, analysis)
	if err := p.store.SavePosts(top, rpt.ID); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Persist", Err: err})
		return r
	}
	if err := p.store.SaveReport(rpt); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Persist", Err: err})
		return r
	}
	r.ReportID = rpt.ID
	r.Steps = append(r.Steps, StepResult{
		Name:    "Persist",
		Summary: fmt.Sprintf("Saved %d posts and report %s", len(top), rpt.ID),
	})

	if p.sender != nil && p.sender.IsConfigured() {
		if err := p.sender.Send(ctx, rpt); err != nil {
			r.Steps = append(r.Steps, StepResult{Name: "Deliver", Err: err})
		} else {
			r.Steps = append(r.Steps, StepResult{Name: "Deliver", Summary: "Report emailed"})
		}
	} else {
		r.Steps = append(r.Steps, StepResult{Name: "Deliver", Summary: "Email not configured, skipped"})
	}

	return r
}
