package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"xdigest/internal/config"
	"xdigest/internal/model"
	"xdigest/internal/store"
)

type stubCollector struct {
	posts []*model.Post
}

func (s *stubCollector) Collect(ctx context.Context) []*model.Post {
	// Fresh copies per run; the pipeline mutates posts while scoring.
	var out []*model.Post
	for _, p := range s.posts {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

type stubSender struct {
	sent []*model.Report
	err  error
}

func (s *stubSender) IsConfigured() bool { return true }

func (s *stubSender) Send(ctx context.Context, r *model.Report) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, r)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Ranking: config.Ranking{LearningRate: 0.01},
		Report:  config.Report{DailyPostCount: 2, Title: "Test Digest"},
	}
}

func testPosts() []*model.Post {
	now := time.Now().UTC()
	return []*model.Post{
		{ID: "low", Author: "a", Content: "minor note", CreatedAt: now, Likes: 1},
		{ID: "high", Author: "b", Content: "big release", CreatedAt: now, Likes: 500, Retweets: 100},
		{ID: "mid", Author: "c", Content: "middling take", CreatedAt: now, Likes: 50},
	}
}

func newTestPipeline(t *testing.T, cfg *config.Config, posts []*model.Post) (*Pipeline, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	pipe, err := New(cfg, st)
	if err != nil {
		t.Fatalf("building pipeline: %v", err)
	}
	pipe.collector = &stubCollector{posts: posts}
	return pipe, st
}

func TestRunEndToEnd(t *testing.T) {
	pipe, st := newTestPipeline(t, testConfig(), testPosts())

	result := pipe.Run(context.Background())
	for _, step := range result.Steps {
		if step.Err != nil {
			t.Fatalf("step %s failed: %v", step.Name, step.Err)
		}
	}
	if result.ReportID == "" {
		t.Fatal("expected a persisted report")
	}

	rpt, err := st.GetReport(result.ReportID)
	if err != nil {
		t.Fatalf("loading report: %v", err)
	}
	if rpt == nil {
		t.Fatal("report not found in store")
	}
	if rpt.Title != "Test Digest" {
		t.Errorf("title = %q", rpt.Title)
	}

	// DailyPostCount caps the report at 2 posts, best score first.
	if len(rpt.Posts) != 2 {
		t.Fatalf("expected 2 posts in report, got %d", len(rpt.Posts))
	}
	if rpt.Posts[0].ID != "high" || rpt.Posts[1].ID != "mid" {
		t.Errorf("wrong selection: %s, %s", rpt.Posts[0].ID, rpt.Posts[1].ID)
	}
	if rpt.Posts[0].RankScore == nil || rpt.Posts[0].RankReason == "" {
		t.Error("persisted post missing score breakdown")
	}
}

func TestRunNoPosts(t *testing.T) {
	pipe, st := newTestPipeline(t, testConfig(), nil)

	result := pipe.Run(context.Background())
	if result.ReportID != "" {
		t.Errorf("report generated from empty collection: %s", result.ReportID)
	}

	stats, err := st.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reports != 0 {
		t.Errorf("expected no reports, got %d", stats.Reports)
	}
}

func TestRunSecondRunDeduplicates(t *testing.T) {
	// Cap above the batch size so every post lands in history.
	cfg := testConfig()
	cfg.Report.DailyPostCount = 10
	pipe, st := newTestPipeline(t, cfg, testPosts())

	first := pipe.Run(context.Background())
	if first.ReportID == "" {
		t.Fatal("first run produced no report")
	}

	// Same batch again: every post is already in history.
	second := pipe.Run(context.Background())
	if second.ReportID != "" {
		t.Errorf("second run produced report %s from known posts", second.ReportID)
	}

	stats, err := st.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reports != 1 {
		t.Errorf("expected 1 report, got %d", stats.Reports)
	}
}

func TestRunDeliversWhenConfigured(t *testing.T) {
	pipe, _ := newTestPipeline(t, testConfig(), testPosts())
	sender := &stubSender{}
	pipe.sender = sender

	result := pipe.Run(context.Background())
	if result.ReportID == "" {
		t.Fatal("expected report")
	}
	if len(sender.sent) != 1 || sender.sent[0].ID != result.ReportID {
		t.Errorf("report not delivered: %v", sender.sent)
	}
}

func TestRunDeliveryFailureKeepsReport(t *testing.T) {
	pipe, st := newTestPipeline(t, testConfig(), testPosts())
	pipe.sender = &stubSender{err: fmt.Errorf("smtp down")}

	result := pipe.Run(context.Background())
	if result.ReportID == "" {
		t.Fatal("delivery failure aborted persistence")
	}

	rpt, err := st.GetReport(result.ReportID)
	if err != nil || rpt == nil {
		t.Fatalf("report not persisted: %v", err)
	}

	var deliverErr error
	for _, step := range result.Steps {
		if step.Name == "Deliver" {
			deliverErr = step.Err
		}
	}
	if deliverErr == nil {
		t.Error("delivery failure not reported in steps")
	}
}
