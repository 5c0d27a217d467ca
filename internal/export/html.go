package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"lexdraft/internal/redline/engine"
)

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Georgia, serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .body { white-space: pre-wrap; }
    ins { color: #14632e; background: #e6f4ea; text-decoration: underline; }
    del { color: #8b1a1a; background: #fdecea; text-decoration: line-through; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="meta">{{.Subtitle}} | exported {{.ExportedAt.Format "Jan 2, 2006 15:04 MST"}}</div>
  <div class="body">{{.Body}}</div>
</body>
</html>`))

type templateData struct {
	Title      string
	Subtitle   string
	ExportedAt time.Time
	Body       template.HTML
}

// annotate turns diff segments into markup. Text is escaped before the
// ins/del tags wrap it, so document content can never inject HTML.
func annotate(segments []engine.Segment) template.HTML {
	var sb strings.Builder
	for _, seg := range segments {
		escaped := template.HTMLEscapeString(seg.Text)
		switch seg.Op {
		case engine.OpInsert:
			sb.WriteString("<ins>" + escaped + "</ins>")
		case engine.OpDelete:
			sb.WriteString("<del>" + escaped + "</del>")
		default:
			sb.WriteString(escaped)
		}
	}
	return template.HTML(sb.String())
}

func renderHTML(title, subtitle string, segments []engine.Segment, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, templateData{
		Title:      title,
		Subtitle:   subtitle,
		ExportedAt: now,
		Body:       annotate(segments),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
