package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"xdigest/internal/config"
	"xdigest/internal/model"
)

const maxPerAccount = 50

// APISource collects posts from a Twitter-API-v2-compatible endpoint, one
// recent-search query per account. This is the only source that yields real
// engagement counts (public_metrics).
type APISource struct {
	baseURL  string
	token    string
	accounts []string
	client   *http.Client
}

// NewAPISource creates an API source; the bearer token comes from the
// configured environment variable.
func NewAPISource(cfg config.APIConfig) *APISource {
	return &APISource{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		token:    os.Getenv(cfg.TokenEnv),
		accounts: cfg.Accounts,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the source in logs.
func (a *APISource) Name() string {
	return "timeline-api"
}

// IsConfigured returns whether the bearer token is available.
func (a *APISource) IsConfigured() bool {
	return a.token != ""
}

// Fetch queries recent posts for every configured account. Per-account
// failures are logged and skipped.
func (a *APISource) Fetch(ctx context.Context) ([]*model.Post, error) {
	if a.token == "" {
		return nil, fmt.Errorf("timeline API token not configured")
	}

	var all []*model.Post
	for _, account := range a.accounts {
		posts, err := a.fetchAccount(ctx, account)
		if err != nil {
			log.Printf("Timeline fetch for @%s failed: %v", account, err)
			continue
		}
		all = append(all, posts...)
	}
	return all, nil
}

func (a *APISource) fetchAccount(ctx context.Context, account string) ([]*model.Post, error) {
	params := url.Values{
		"query":        {"from:" + account + " -is:retweet"},
		"max_results":  {fmt.Sprintf("%d", maxPerAccount)},
		"tweet.fields": {"created_at,public_metrics,entities"},
		"expansions":   {"author_id"},
		"user.fields":  {"name,username"},
	}

	endpoint := a.baseURL + "/tweets/search/recent?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timeline request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("timeline API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		Data []struct {
			ID            string `json:"id"`
			Text          string `json:"text"`
			CreatedAt     string `json:"created_at"`
			AuthorID      string `json:"author_id"`
			PublicMetrics struct {
				RetweetCount int `json:"retweet_count"`
				ReplyCount   int `json:"reply_count"`
				LikeCount    int `json:"like_count"`
				QuoteCount   int `json:"quote_count"`
			} `json:"public_metrics"`
			Entities struct {
				URLs []struct {
					ExpandedURL string `json:"expanded_url"`
				} `json:"urls"`
			} `json:"entities"`
		} `json:"data"`
		Includes struct {
			Users []struct {
				ID       string `json:"id"`
				Name     string `json:"name"`
				Username string `json:"username"`
			} `json:"users"`
		} `json:"includes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding timeline response: %w", err)
	}

	names := make(map[string]string, len(result.Includes.Users))
	for _, u := range result.Includes.Users {
		names[u.ID] = u.Name
	}

	var posts []*model.Post
	for _, t := range result.Data {
		if t.ID == "" || t.Text == "" {
			continue
		}

		post := &model.Post{
			ID:             t.ID,
			Author:         account,
			AuthorFullname: names[t.AuthorID],
			Content:        t.Text,
			URL:            fmt.Sprintf("https://x.com/%s/status/%s", account, t.ID),
			Platform:       "X",
			Likes:          t.PublicMetrics.LikeCount,
			Retweets:       t.PublicMetrics.RetweetCount,
			Replies:        t.PublicMetrics.ReplyCount,
			Quotes:         t.PublicMetrics.QuoteCount,
		}
		if post.AuthorFullname == "" {
			post.AuthorFullname = account
		}
		if t.CreatedAt != "" {
			if ts, err := time.Parse(time.RFC3339, t.CreatedAt); err == nil {
				post.CreatedAt = ts.UTC()
			}
		}
		for _, u := range t.Entities.URLs {
			if u.ExpandedURL != "" {
				post.ReferencedURLs = append(post.ReferencedURLs, u.ExpandedURL)
			}
		}
		posts = append(posts, post)
	}

	return posts, nil
}
