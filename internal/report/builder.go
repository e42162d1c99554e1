// Package report renders run summaries for email.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ibeckermayer/apply4me/internal/types"
)

// Builder creates summary emails from run results
type Builder struct {
	template *template.Template
	location *time.Location
}

// New creates a new report builder rendering times in loc
func New(loc *time.Location) (*Builder, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(defaultTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}

	return &Builder{template: tmpl, location: loc}, nil
}

// Report represents a compiled summary ready for sending
type Report struct {
	Subject   string
	HTMLBody  string
	PlainBody string
	CreatedAt time.Time
}

// ReportData is the template data structure
type ReportData struct {
	Title     string
	Date      string
	Attempts  []AttemptData
	Submitted int
	Failed    int
	Error     string
	Duration  string
}

// AttemptData represents one application in the report template
type AttemptData struct {
	Listing  string
	URL      string
	Status   string
	OK       bool
	Answered []string
	Skipped  []string
	Error    string
}

// Build creates a report from a finished run
func (b *Builder) Build(r *types.RunResult) (*Report, error) {
	if r == nil {
		return nil, fmt.Errorf("no run to report")
	}

	started := r.StartedAt.In(b.location)
	data := ReportData{
		Title:     "Application run summary",
		Date:      started.Format("Monday, January 2 15:04"),
		Attempts:  make([]AttemptData, len(r.Attempts)),
		Submitted: r.Submitted(),
		Failed:    r.Failed(),
		Error:     r.Error,
		Duration:  r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
	}
	for i, a := range r.Attempts {
		data.Attempts[i] = AttemptData{
			Listing:  truncate(a.Listing, 120),
			URL:      a.URL,
			Status:   string(a.Status),
			OK:       a.Status == types.StatusSubmitted,
			Answered: a.Answered,
			Skipped:  a.Skipped,
			Error:    a.Error,
		}
	}

	// Render HTML
	var htmlBuf bytes.Buffer
	if err := b.template.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}

	return &Report{
		Subject:   subject(data, started),
		HTMLBody:  htmlBuf.String(),
		PlainBody: buildPlainText(data),
		CreatedAt: time.Now(),
	}, nil
}

func subject(data ReportData, started time.Time) string {
	date := started.Format("Jan 2")
	switch {
	case data.Error != "" && data.Submitted == 0:
		return fmt.Sprintf("apply4me - run failed, %s", date)
	case data.Submitted == 1:
		return fmt.Sprintf("apply4me - 1 application submitted, %s", date)
	default:
		return fmt.Sprintf("apply4me - %d applications submitted, %s", data.Submitted, date)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func buildPlainText(data ReportData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s\n%s\n\n", data.Title, data.Date))
	buf.WriteString(fmt.Sprintf("Submitted: %d  Failed: %d  Took: %s\n", data.Submitted, data.Failed, data.Duration))
	if data.Error != "" {
		buf.WriteString(fmt.Sprintf("Error: %s\n", data.Error))
	}
	buf.WriteString("\n")

	for i, a := range data.Attempts {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, a.Status, a.Listing))
		if a.URL != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", a.URL))
		}
		if len(a.Answered) > 0 {
			buf.WriteString(fmt.Sprintf("   Answered: %s\n", strings.Join(a.Answered, "; ")))
		}
		if a.Error != "" {
			buf.WriteString(fmt.Sprintf("   Error: %s\n", a.Error))
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

const defaultTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .container { background: white; border-radius: 8px; padding: 20px; }
        h1 { color: #008bdc; margin-bottom: 5px; }
        .date { color: #666; margin-bottom: 20px; }
        .stats { margin-bottom: 15px; }
        .error { color: #c0392b; }
        .attempt { border-bottom: 1px solid #eee; padding: 15px 0; }
        .attempt:last-child { border-bottom: none; }
        .listing { font-weight: bold; color: #333; }
        .status { padding: 2px 8px; border-radius: 12px; font-size: 12px; margin-left: 5px; }
        .ok { background: #e8f8ee; color: #1e8449; }
        .failed { background: #fdecea; color: #c0392b; }
        .answers { color: #666; font-size: 13px; margin: 5px 0; }
        .link { color: #008bdc; text-decoration: none; }
        .footer { margin-top: 20px; padding-top: 15px; border-top: 1px solid #eee; color: #999; font-size: 12px; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <div class="date">{{.Date}}</div>
        <div class="stats">{{.Submitted}} submitted · {{.Failed}} failed · took {{.Duration}}</div>
        {{if .Error}}<div class="error">{{.Error}}</div>{{end}}

        {{range .Attempts}}
        <div class="attempt">
            <div class="listing">{{.Listing}}<span class="status {{if .OK}}ok{{else}}failed{{end}}">{{.Status}}</span></div>
            {{if .Answered}}<div class="answers">Answered: {{join .Answered "; "}}</div>{{end}}
            {{if .Skipped}}<div class="answers">Skipped: {{join .Skipped "; "}}</div>{{end}}
            {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
            {{if .URL}}<a href="{{.URL}}" class="link">View listing →</a>{{end}}
        </div>
        {{end}}

        <div class="footer">
            Generated by apply4me
        </div>
    </div>
</body>
</html>`
