package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"xdigest/internal/model"
)

// SavePosts upserts scored posts keyed by their platform ID. Existing rows
// get fresh engagement counts, scores, and metadata; new rows are inserted
// whole. reportID may be empty for posts saved outside a report run.
func (s *Store) SavePosts(posts []*model.Post, reportID string) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}

	for _, p := range posts {
		refs, _ := json.Marshal(p.ReferencedURLs)
		media, _ := json.Marshal(p.MediaURLs)

		var createdAt any
		if !p.CreatedAt.IsZero() {
			createdAt = p.CreatedAt.UTC().Format(time.RFC3339)
		}

		_, err := tx.Exec(`
INSERT INTO posts (id, author, author_fullname, content, created_at, url, platform,
    likes, retweets, replies, quotes, referenced_urls, media_urls, link_excerpt,
    rank_score, rank_reason, report_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    likes = excluded.likes,
    retweets = excluded.retweets,
    replies = excluded.replies,
    quotes = excluded.quotes,
    link_excerpt = excluded.link_excerpt,
    rank_score = excluded.rank_score,
    rank_reason = excluded.rank_reason,
    report_id = excluded.report_id,
    collected_at = datetime('now')`,
			p.ID, p.Author, p.AuthorFullname, p.Content, createdAt, p.URL, p.Platform,
			p.Likes, p.Retweets, p.Replies, p.Quotes, string(refs), string(media),
			p.LinkExcerpt, p.RankScore, p.RankReason, nullable(reportID),
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// IsDuplicate reports whether a post with this ID is already persisted.
// Safe to call for IDs never seen; those return false.
func (s *Store) IsDuplicate(id string) (bool, error) {
	var found string
	err := s.conn.QueryRow("SELECT id FROM posts WHERE id = ?", id).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetPostsForReport returns the posts attached to a report, best score first.
func (s *Store) GetPostsForReport(reportID string) ([]*model.Post, error) {
	rows, err := s.conn.Query(`
SELECT id, author, author_fullname, content, created_at, url, platform,
    likes, retweets, replies, quotes, referenced_urls, media_urls, link_excerpt,
    rank_score, rank_reason
FROM posts WHERE report_id = ? ORDER BY rank_score DESC`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]*model.Post, error) {
	var posts []*model.Post
	for rows.Next() {
		var (
			p          model.Post
			fullname   sql.NullString
			createdAt  sql.NullString
			url        sql.NullString
			refs       sql.NullString
			media      sql.NullString
			excerpt    sql.NullString
			rankReason sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Author, &fullname, &p.Content, &createdAt,
			&url, &p.Platform, &p.Likes, &p.Retweets, &p.Replies, &p.Quotes,
			&refs, &media, &excerpt, &p.RankScore, &rankReason); err != nil {
			return nil, err
		}
		p.AuthorFullname = fullname.String
		p.URL = url.String
		p.LinkExcerpt = excerpt.String
		p.RankReason = rankReason.String
		if createdAt.Valid {
			if t, err := time.Parse(time.RFC3339, createdAt.String); err == nil {
				p.CreatedAt = t
			}
		}
		if refs.Valid {
			json.Unmarshal([]byte(refs.String), &p.ReferencedURLs)
		}
		if media.Valid {
			json.Unmarshal([]byte(media.String), &p.MediaURLs)
		}
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
