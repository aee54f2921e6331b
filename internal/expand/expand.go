package expand

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"xdigest/internal/model"
)

// excerptLen caps how much linked-page text is attached to a post.
const excerptLen = 600

// Result holds the results of a link-expansion run.
type Result struct {
	Expanded int
	Skipped  int
}

// Expander enriches posts with a readable excerpt of their first referenced
// URL, for the analyzer's benefit. Failures are silent: expansion is an
// optional enrichment, never a gate.
type Expander struct {
	client *http.Client
}

// NewExpander creates a link expander.
func NewExpander(timeout time.Duration) *Expander {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Expander{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// ExpandLinks fetches the first referenced URL of each post that has one
// and stores a readable excerpt on the post. A domain that fails once is
// not retried within the run.
func (e *Expander) ExpandLinks(ctx context.Context, posts []*model.Post) *Result {
	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, p := range posts {
		if len(p.ReferencedURLs) == 0 || p.LinkExcerpt != "" {
			result.Skipped++
			continue
		}

		target := p.ReferencedURLs[0]
		u, _ := url.Parse(target)
		domain := ""
		if u != nil {
			domain = strings.ToLower(u.Host)
		}
		if _, failed := failedDomains[domain]; failed {
			result.Skipped++
			continue
		}

		excerpt, err := e.fetchExcerpt(ctx, target)
		if err != nil || excerpt == "" {
			result.Skipped++
			if domain != "" && err != nil {
				failedDomains[domain] = struct{}{}
			}
			continue
		}

		p.LinkExcerpt = excerpt
		result.Expanded++
	}

	if result.Expanded > 0 {
		log.Printf("Link expansion: %d expanded, %d skipped", result.Expanded, result.Skipped)
	}
	return result
}

func (e *Expander) fetchExcerpt(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "xdigest/1.0 (daily digest)")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) < 100 {
		return "", nil
	}
	if len(text) > excerptLen {
		text = text[:excerptLen] + "..."
	}
	return text, nil
}
