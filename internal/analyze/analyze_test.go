package analyze

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"xdigest/internal/model"
)

type mockProvider struct {
	response string
	err      error
	prompt   string
}

func (m *mockProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func testPosts() []*model.Post {
	return []*model.Post{
		{
			ID:             "1",
			Author:         "karpathy",
			AuthorFullname: "Andrej Karpathy",
			Content:        "Agents are eating the world",
			CreatedAt:      time.Date(2026, 8, 19, 10, 0, 0, 0, time.UTC),
			URL:            "https://x.com/karpathy/status/1",
		},
		{
			ID:      "2",
			Author:  "ylecun",
			Content: "JEPA update",
			URL:     "https://x.com/ylecun/status/2",
		},
	}
}

func TestAnalyzeUsesProvider(t *testing.T) {
	mock := &mockProvider{response: "## Report\n\nAgents trending."}
	a := NewAnalyzer(mock, 0)

	got := a.Analyze(context.Background(), testPosts())
	if got != "## Report\n\nAgents trending." {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(mock.prompt, "Agents are eating the world") {
		t.Error("prompt missing post content")
	}
	if !strings.Contains(mock.prompt, "@karpathy") {
		t.Error("prompt missing author handle")
	}
}

func TestAnalyzeProviderErrorFallsBack(t *testing.T) {
	mock := &mockProvider{err: fmt.Errorf("api down")}
	a := NewAnalyzer(mock, 0)

	got := a.Analyze(context.Background(), testPosts())
	if got == "" {
		t.Fatal("expected fallback analysis")
	}
	if !strings.Contains(got, "@karpathy") {
		t.Errorf("fallback missing author handle: %q", got)
	}
}

func TestAnalyzeEmptyProviderResponseFallsBack(t *testing.T) {
	mock := &mockProvider{response: "   \n"}
	a := NewAnalyzer(mock, 0)

	got := a.Analyze(context.Background(), testPosts())
	if !strings.Contains(got, "2 posts") {
		t.Errorf("expected fallback mentioning post count, got %q", got)
	}
}

func TestAnalyzeNilProvider(t *testing.T) {
	a := NewAnalyzer(nil, 0)
	got := a.Analyze(context.Background(), testPosts())
	if !strings.Contains(got, "No LLM provider") {
		t.Errorf("expected offline notice, got %q", got)
	}
}

func TestAnalyzeNoPosts(t *testing.T) {
	a := NewAnalyzer(&mockProvider{response: "should not be called"}, 0)
	got := a.Analyze(context.Background(), nil)
	if got != "No posts available for analysis." {
		t.Errorf("got %q", got)
	}
}

func TestFormatPostsIncludesExcerpt(t *testing.T) {
	posts := testPosts()
	posts[0].LinkExcerpt = "The paper introduces a new training recipe."

	got := formatPosts(posts)
	if !strings.Contains(got, "Linked page excerpt: The paper introduces") {
		t.Error("excerpt missing from formatted posts")
	}
	if !strings.Contains(got, "Post 1:") || !strings.Contains(got, "Post 2:") {
		t.Error("posts not numbered")
	}
	if !strings.Contains(got, "Date: unknown date") {
		t.Error("missing timestamp not labeled")
	}
}
