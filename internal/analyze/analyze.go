package analyze

import (
	"context"
	"fmt"
	"log"
	"strings"

	"xdigest/internal/model"
)

const analysisPrompt = `You are a professional AI technology analyst. Analyze the following posts from well-known AI researchers and practitioners and write a concise technical report.

Cover:
1. Overview: the themes and developments these posts reflect
2. Technical trends: emerging techniques and notable breakthroughs
3. Research directions: what the field is focusing on
4. Industry impact: likely effect on products and practice
5. Expert takes: distinctive opinions worth highlighting

Posts to analyze:

%s

Write a structured report in Markdown, under 1000 words. Do not comment on each post individually; synthesize across them.`

// Analyzer turns the ranked top posts into a free-text analysis report via
// an LLM provider.
type Analyzer struct {
	provider  Provider
	maxTokens int
}

// NewAnalyzer creates an analyzer. A nil provider means every Analyze call
// returns the offline fallback report.
func NewAnalyzer(provider Provider, maxTokens int) *Analyzer {
	if maxTokens == 0 {
		maxTokens = 8000
	}
	return &Analyzer{provider: provider, maxTokens: maxTokens}
}

// Analyze generates the analysis for a ranked post slice. It never fails:
// provider errors degrade to the offline fallback so the pipeline can still
// deliver a report.
func (a *Analyzer) Analyze(ctx context.Context, posts []*model.Post) string {
	if len(posts) == 0 {
		return "No posts available for analysis."
	}

	if a.provider == nil {
		return offlineAnalysis(posts)
	}

	log.Printf("Analyzing %d posts", len(posts))
	prompt := fmt.Sprintf(analysisPrompt, formatPosts(posts))

	response, err := a.provider.Generate(ctx, prompt, a.maxTokens)
	if err != nil || strings.TrimSpace(response) == "" {
		log.Printf("Analysis failed, using offline fallback: %v", err)
		return offlineAnalysis(posts)
	}

	return strings.TrimSpace(response)
}

func formatPosts(posts []*model.Post) string {
	var parts []string
	for i, p := range posts {
		date := "unknown date"
		if !p.CreatedAt.IsZero() {
			date = p.CreatedAt.Format("2006-01-02")
		}
		entry := fmt.Sprintf("Post %d:\nAuthor: %s (@%s)\nDate: %s\nContent: %s\nURL: %s",
			i+1, p.AuthorFullname, p.Author, date, p.Content, p.URL)
		if p.LinkExcerpt != "" {
			entry += "\nLinked page excerpt: " + p.LinkExcerpt
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, "\n\n")
}

// offlineAnalysis is the canned report used when no provider is reachable,
// so a run without API access still produces a deliverable digest.
func offlineAnalysis(posts []*model.Post) string {
	authors := make(map[string]int)
	for _, p := range posts {
		authors[p.Author]++
	}
	var handles []string
	for a := range authors {
		handles = append(handles, "@"+a)
	}

	return fmt.Sprintf(`## Digest summary

No LLM provider was configured for this run, so this is a mechanical summary.

Today's digest covers %d posts from %s. The posts are ranked by engagement,
recency, and keyword relevance; see each post's score breakdown in the
report for why it was selected. Configure the analyzer (DeepSeek API key or
a local Ollama instance) to get a synthesized trend analysis here.`,
		len(posts), strings.Join(handles, ", "))
}
