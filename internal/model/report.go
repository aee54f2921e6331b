package model

import "time"

// Report is one generated daily digest: the ranked top posts plus the
// analyzer's free-text output.
type Report struct {
	ID       string
	Date     time.Time
	Title    string
	Posts    []*Post
	Analysis string
	Summary  string
	Trends   []string
}
