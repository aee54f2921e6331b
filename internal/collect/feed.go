package collect

import (
	"context"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"xdigest/internal/config"
	"xdigest/internal/model"
)

const maxPerFeed = 50

var urlExpr = regexp.MustCompile(`https?://[^\s<>"']+`)

// FeedSource collects posts from RSS/Atom mirrors of curated accounts
// (Nitter-style timeline feeds). Feeds carry no engagement counts; those
// stay zero and the ranker absorbs them.
type FeedSource struct {
	feeds  []config.Feed
	parser *gofeed.Parser
}

// NewFeedSource creates a feed source over the configured account mirrors.
func NewFeedSource(feeds []config.Feed) *FeedSource {
	return &FeedSource{feeds: feeds, parser: gofeed.NewParser()}
}

// Name identifies the source in logs.
func (f *FeedSource) Name() string {
	return "feeds"
}

// Fetch parses every configured feed and maps its entries into posts.
// A single broken feed does not fail the whole fetch.
func (f *FeedSource) Fetch(ctx context.Context) ([]*model.Post, error) {
	var all []*model.Post
	for _, fc := range f.feeds {
		feed, err := f.parser.ParseURLWithContext(fc.URL, ctx)
		if err != nil {
			continue
		}

		count := 0
		for _, item := range feed.Items {
			if count >= maxPerFeed {
				break
			}
			post := mapFeedItem(item, fc.Account)
			if post == nil {
				continue
			}
			all = append(all, post)
			count++
		}
	}
	return all, nil
}

// mapFeedItem adapts one feed entry into the Post schema. Entries without
// a usable identity are dropped; everything else gets neutral defaults.
func mapFeedItem(item *gofeed.Item, account string) *model.Post {
	id := item.GUID
	if id == "" {
		id = item.Link
	}
	if id == "" {
		return nil
	}

	content := stripHTML(item.Description)
	if content == "" {
		content = strings.TrimSpace(item.Title)
	}
	if content == "" {
		return nil
	}

	fullname := account
	if item.Author != nil && item.Author.Name != "" {
		fullname = strings.TrimPrefix(item.Author.Name, "@")
	}

	post := &model.Post{
		ID:             id,
		Author:         account,
		AuthorFullname: fullname,
		Content:        content,
		URL:            item.Link,
		Platform:       "X",
		ReferencedURLs: referencedURLs(content, item.Link),
	}
	if item.PublishedParsed != nil {
		post.CreatedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		post.CreatedAt = item.UpdatedParsed.UTC()
	}
	return post
}

// referencedURLs extracts outbound links from the post text, excluding the
// post's own permalink.
func referencedURLs(content, selfURL string) []string {
	var urls []string
	seen := make(map[string]struct{})
	for _, u := range urlExpr.FindAllString(content, -1) {
		u = strings.TrimRight(u, ".,)!?")
		if u == selfURL {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
