package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"xdigest/internal/model"
)

var md = goldmark.New()

// Assemble builds a report from the ranked top posts and the analyzer
// output. Posts are expected to arrive scored and in final sorted order.
func Assemble(title string, posts []*model.Post, analysis string) *model.Report {
	return &model.Report{
		ID:       uuid.NewString(),
		Date:     time.Now().UTC(),
		Title:    title,
		Posts:    posts,
		Analysis: analysis,
	}
}

var emailTmpl = template.Must(template.New("email").Funcs(template.FuncMap{
	"markdown": renderMarkdown,
	"inc":      func(i int) int { return i + 1 },
	"score": func(p *model.Post) string {
		if p.RankScore == nil {
			return "-"
		}
		return fmt.Sprintf("%.2f", *p.RankScore)
	},
	"postDate": func(p *model.Post) string {
		if p.CreatedAt.IsZero() {
			return ""
		}
		return p.CreatedAt.Format("2006-01-02 15:04")
	},
}).Parse(emailHTML))

// RenderHTML renders the report as a self-contained HTML document suitable
// for the email body and the web view.
func RenderHTML(r *model.Report) (string, error) {
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, map[string]any{
		"Report": r,
		"Date":   r.Date.Format("January 2, 2006"),
	}); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return buf.String(), nil
}

// renderMarkdown converts the analyzer's markdown to HTML.
func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

const emailHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
  h1 { color: #1da1f2; }
  h2 { color: #14171a; margin-top: 30px; }
  .post { border: 1px solid #e1e8ed; border-radius: 5px; padding: 15px; margin-bottom: 15px; }
  .post-header { display: flex; justify-content: space-between; margin-bottom: 10px; }
  .post-author { font-weight: bold; }
  .post-date { color: #657786; }
  .post-content { margin-bottom: 10px; }
  .post-metrics { color: #657786; font-size: 0.9em; }
  .post-link { text-decoration: none; color: #1da1f2; }
  .analysis { background-color: #f5f8fa; padding: 15px; border-radius: 5px; margin: 20px 0; }
  .trends { margin-top: 30px; }
</style>
</head>
<body>
  <h1>{{.Report.Title}} - {{.Date}}</h1>
{{if .Report.Summary}}
  <div class="summary">
    <h2>Overview</h2>
    <p>{{.Report.Summary}}</p>
  </div>
{{end}}
  <h2>Top posts</h2>
{{range $i, $p := .Report.Posts}}
  <div class="post">
    <div class="post-header">
      <span class="post-author">{{inc $i}}. {{$p.AuthorFullname}} (@{{$p.Author}})</span>
      <span class="post-date">{{postDate $p}}</span>
    </div>
    <div class="post-content">{{$p.Content}}</div>
    <div class="post-metrics">&#10084; {{$p.Likes}} | &#128257; {{$p.Retweets}} | &#128172; {{$p.Replies}} | &#128221; {{$p.Quotes}} | score {{score $p}}</div>
    <div><a href="{{$p.URL}}" class="post-link">View original</a></div>
  </div>
{{end}}
{{if .Report.Analysis}}
  <div class="analysis">
    <h2>Analysis</h2>
    {{markdown .Report.Analysis}}
  </div>
{{end}}
{{if .Report.Trends}}
  <div class="trends">
    <h2>Trends</h2>
    <ul>
{{range .Report.Trends}}      <li>{{.}}</li>
{{end}}    </ul>
  </div>
{{end}}
</body>
</html>
`
