package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"mediareport/pkg/models"
)

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Media Coverage Report</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 40px; line-height: 1.6; }
    h1, h2, h3, h4 { color: #333; }
    .report-coverage { text-align: center; }
    .screenshots-section { margin-top: 30px; }
    .screenshots-section h3 { font-weight: 600; color: #374151; margin-bottom: 15px; margin-top: 20px; }
    .shot { margin-bottom: 20px; page-break-inside: avoid; }
    .shot img { width: 100%; max-width: 600px; border: 1px solid #ddd; border-radius: 4px; }
    .shot p { font-size: 12px; color: #666; margin-top: 5px; }
  </style>
</head>
<body>
  <div class="report-coverage">
    {{.Narrative}}
  </div>
  <div class="screenshots-section">
    <h3>Coverage Screenshots</h3>
    <div>
    {{- range .Shots}}
      <div class="shot">
        <img src="{{.Src}}" />
        <p>{{.Caption}}</p>
      </div>
    {{- end}}
    </div>
  </div>
</body>
</html>
`))

type shot struct {
	Src     template.URL
	Caption string
}

// Document renders the printable report. Sources whose screenshot is nil
// or empty are left out of the screenshots section.
func Document(narrativeHTML string, sources []models.SourceItem, screenshots []*models.Screenshot) (string, error) {
	if len(screenshots) != len(sources) {
		return "", fmt.Errorf("screenshots (%d) not aligned with sources (%d)", len(screenshots), len(sources))
	}

	shots := make([]shot, 0, len(sources))
	for i, src := range sources {
		s := screenshots[i]
		if s == nil || len(s.Data) == 0 {
			continue
		}
		mime := s.MimeType
		if mime == "" {
			mime = "image/png"
		}
		shots = append(shots, shot{
			Src:     template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(s.Data)),
			Caption: src.Domain() + " - " + src.Title,
		})
	}

	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, struct {
		Narrative template.HTML
		Shots     []shot
	}{
		Narrative: template.HTML(narrativeHTML),
		Shots:     shots,
	})
	if err != nil {
		return "", fmt.Errorf("render report document: %w", err)
	}
	return buf.String(), nil
}

// FileName is pr-report-<RFC 3339 UTC millis with ':' and '.' replaced by '-'>.pdf.
func FileName(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return "pr-report-" + strings.NewReplacer(":", "-", ".", "-").Replace(ts) + ".pdf"
}
