package report

import (
	"strings"
	"testing"
	"time"

	"xdigest/internal/model"
)

func fptr(f float64) *float64 { return &f }

func testReport() *model.Report {
	return &model.Report{
		ID:    "rep-1",
		Date:  time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC),
		Title: "AI Daily Digest",
		Posts: []*model.Post{
			{
				ID:             "1",
				Author:         "karpathy",
				AuthorFullname: "Andrej Karpathy",
				Content:        "Thoughts on agents",
				CreatedAt:      time.Date(2026, 8, 19, 15, 0, 0, 0, time.UTC),
				URL:            "https://x.com/karpathy/status/1",
				Likes:          1200,
				Retweets:       300,
				RankScore:      fptr(4.56),
			},
			{
				ID:      "2",
				Author:  "ylecun",
				Content: "New paper out",
				URL:     "https://x.com/ylecun/status/2",
			},
		},
		Analysis: "## Overview\n\nAgents dominated today.",
		Trends:   []string{"agents"},
	}
}

func TestAssemble(t *testing.T) {
	posts := []*model.Post{{ID: "1", Content: "x"}}
	r := Assemble("AI Daily Digest", posts, "analysis text")

	if r.ID == "" {
		t.Error("expected generated report ID")
	}
	if r.Date.IsZero() {
		t.Error("expected report date")
	}
	if r.Title != "AI Daily Digest" || r.Analysis != "analysis text" {
		t.Errorf("report fields wrong: %+v", r)
	}
	if len(r.Posts) != 1 {
		t.Errorf("expected 1 post, got %d", len(r.Posts))
	}
}

func TestAssembleUniqueIDs(t *testing.T) {
	a := Assemble("t", nil, "")
	b := Assemble("t", nil, "")
	if a.ID == b.ID {
		t.Errorf("two reports share ID %s", a.ID)
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(testReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"AI Daily Digest",
		"Andrej Karpathy (@karpathy)",
		"Thoughts on agents",
		"https://x.com/karpathy/status/1",
		"score 4.56",
		"<h2>Overview</h2>", // analysis markdown rendered
		"agents",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderHTMLUnscoredPost(t *testing.T) {
	html, err := RenderHTML(testReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "score -") {
		t.Error("expected dash for unscored post")
	}
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	r := testReport()
	r.Posts[0].Content = `<script>alert("x")</script>`

	html, err := RenderHTML(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("post content not escaped")
	}
}

func TestRenderHTMLNoAnalysis(t *testing.T) {
	r := testReport()
	r.Analysis = ""
	r.Trends = nil

	html, err := RenderHTML(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(html, "<h2>Analysis</h2>") {
		t.Error("analysis section rendered without analysis")
	}
	if strings.Contains(html, "<h2>Trends</h2>") {
		t.Error("trends section rendered without trends")
	}
}
