package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"xdigest/internal/model"
)

// ReportSummary is a row in the report listing.
type ReportSummary struct {
	ID        string
	Date      string
	Title     string
	PostCount int
}

// SaveReport persists a generated report blob. The report's posts are saved
// separately via SavePosts with the report's ID.
func (s *Store) SaveReport(r *model.Report) error {
	trends, _ := json.Marshal(r.Trends)
	_, err := s.conn.Exec(`
INSERT INTO reports (id, date, title, analysis, summary, trends, post_count)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Date.UTC().Format(time.RFC3339), r.Title, r.Analysis, r.Summary,
		string(trends), len(r.Posts),
	)
	return err
}

// GetReport returns one report with its posts, or nil if not found.
func (s *Store) GetReport(id string) (*model.Report, error) {
	var (
		r      model.Report
		date   string
		title  sql.NullString
		trends sql.NullString
	)
	err := s.conn.QueryRow(
		"SELECT id, date, title, analysis, summary, trends FROM reports WHERE id = ?", id,
	).Scan(&r.ID, &date, &title, &r.Analysis, &r.Summary, &trends)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.Title = title.String
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		r.Date = t
	}
	if trends.Valid {
		json.Unmarshal([]byte(trends.String), &r.Trends)
	}

	posts, err := s.GetPostsForReport(id)
	if err != nil {
		return nil, err
	}
	r.Posts = posts
	return &r, nil
}

// GetRecentReports returns the newest reports, most recent first.
func (s *Store) GetRecentReports(limit int) ([]ReportSummary, error) {
	rows, err := s.conn.Query(
		"SELECT id, date, title, post_count FROM reports ORDER BY date DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []ReportSummary
	for rows.Next() {
		var (
			r     ReportSummary
			title sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Date, &title, &r.PostCount); err != nil {
			return nil, err
		}
		r.Title = title.String
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
