package store

import (
	"path/filepath"
	"testing"
	"time"

	"xdigest/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func fptr(f float64) *float64 { return &f }

func samplePost(id string) *model.Post {
	return &model.Post{
		ID:             id,
		Author:         "karpathy",
		AuthorFullname: "Andrej Karpathy",
		Content:        "post " + id,
		CreatedAt:      time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
		URL:            "https://x.com/karpathy/status/" + id,
		Platform:       "X",
		Likes:          10,
		Retweets:       2,
		ReferencedURLs: []string{"https://example.com/paper"},
	}
}

func TestSaveAndLoadPosts(t *testing.T) {
	st := openTestStore(t)

	p := samplePost("111")
	p.RankScore = fptr(4.2)
	p.RankReason = "engagement: 3.80, recency: 0.40, influence: 0.00, keywords: 0.00"
	if err := st.SavePosts([]*model.Post{p}, "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := st.GetPostsForReport("r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 post, got %d", len(got))
	}
	loaded := got[0]
	if loaded.ID != "111" || loaded.Author != "karpathy" || loaded.Likes != 10 {
		t.Errorf("post fields lost: %+v", loaded)
	}
	if !loaded.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("created_at = %v, want %v", loaded.CreatedAt, p.CreatedAt)
	}
	if loaded.RankScore == nil || *loaded.RankScore != 4.2 {
		t.Errorf("rank score lost: %v", loaded.RankScore)
	}
	if len(loaded.ReferencedURLs) != 1 || loaded.ReferencedURLs[0] != "https://example.com/paper" {
		t.Errorf("referenced URLs lost: %v", loaded.ReferencedURLs)
	}
}

func TestSavePostsUpsertRefreshesEngagement(t *testing.T) {
	st := openTestStore(t)

	p := samplePost("222")
	if err := st.SavePosts([]*model.Post{p}, "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same ID with fresh engagement counts and a score.
	updated := samplePost("222")
	updated.Likes = 500
	updated.Retweets = 80
	updated.RankScore = fptr(9.9)
	if err := st.SavePosts([]*model.Post{updated}, "r2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := st.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalPosts != 1 {
		t.Errorf("upsert created a second row: %d posts", stats.TotalPosts)
	}

	got, err := st.GetPostsForReport("r2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 post under new report, got %d", len(got))
	}
	if got[0].Likes != 500 || got[0].Retweets != 80 {
		t.Errorf("engagement not refreshed: likes=%d retweets=%d", got[0].Likes, got[0].Retweets)
	}
	if got[0].RankScore == nil || *got[0].RankScore != 9.9 {
		t.Errorf("score not refreshed: %v", got[0].RankScore)
	}
}

func TestSavePostsEmpty(t *testing.T) {
	st := openTestStore(t)
	if err := st.SavePosts(nil, ""); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIsDuplicate(t *testing.T) {
	st := openTestStore(t)
	if err := st.SavePosts([]*model.Post{samplePost("known")}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup, err := st.IsDuplicate("known")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dup {
		t.Error("expected known ID to be a duplicate")
	}

	dup, err = st.IsDuplicate("never-seen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Error("expected unknown ID to not be a duplicate")
	}
}

func TestSaveAndGetReport(t *testing.T) {
	st := openTestStore(t)

	p := samplePost("333")
	p.RankScore = fptr(1.5)
	r := &model.Report{
		ID:       "rep-1",
		Date:     time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC),
		Title:    "AI Daily Digest",
		Posts:    []*model.Post{p},
		Analysis: "## Trends\n\nAgents everywhere.",
		Trends:   []string{"agents", "evals"},
	}
	if err := st.SavePosts(r.Posts, r.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.SaveReport(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := st.GetReport("rep-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected report, got nil")
	}
	if got.Title != "AI Daily Digest" || got.Analysis != r.Analysis {
		t.Errorf("report fields lost: %+v", got)
	}
	if len(got.Posts) != 1 || got.Posts[0].ID != "333" {
		t.Errorf("report posts lost: %v", got.Posts)
	}
	if len(got.Trends) != 2 || got.Trends[0] != "agents" {
		t.Errorf("trends lost: %v", got.Trends)
	}
}

func TestGetReportNotFound(t *testing.T) {
	st := openTestStore(t)
	got, err := st.GetReport("missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing report, got %+v", got)
	}
}

func TestGetRecentReports(t *testing.T) {
	st := openTestStore(t)

	for i, date := range []string{"2026-08-18", "2026-08-19", "2026-08-20"} {
		d, _ := time.Parse("2006-01-02", date)
		r := &model.Report{ID: string(rune('a' + i)), Date: d, Title: "Digest " + date}
		if err := st.SaveReport(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := st.GetRecentReports(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("wrong order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestGetStats(t *testing.T) {
	st := openTestStore(t)

	scored := samplePost("s1")
	scored.RankScore = fptr(2.0)
	if err := st.SavePosts([]*model.Post{scored, samplePost("s2")}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.SaveReport(&model.Report{ID: "r", Date: time.Now(), Title: "T"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := st.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalPosts != 2 || stats.ScoredPosts != 1 || stats.Reports != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.LastReport == "" {
		t.Error("expected a last report date")
	}
}
