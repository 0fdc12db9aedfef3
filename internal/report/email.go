package report

import (
	"bytes"
	"html/template"
)

const acknowledgmentBody = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="UTF-8">
    <title>Media Coverage Report</title>
  </head>
  <body>
    <div>
      Generating media coverage...
    </div>
  </body>
</html>`

var finalTemplate = template.Must(template.New("final").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="UTF-8">
    <title>Media Coverage Report</title>
  </head>
  <body>
    <div>
      <h3>Generated media coverage report completed!</h3>
      <p>Please find the attached PDF report with screenshots and detailed coverage analysis.</p>
      {{- if .Table}}
      <h4>Media source analytics</h4>
      {{.Table}}
      {{- end}}
      <p>The complete report with screenshots and media coverage analysis is attached as a PDF.</p>
    </div>
  </body>
</html>`))

func AcknowledgmentBody() string {
	return acknowledgmentBody
}

// FinalBody is the completion email. analyticsTable is trusted HTML from
// AnalyticsTable and is omitted when empty.
func FinalBody(analyticsTable string) (string, error) {
	var buf bytes.Buffer
	if err := finalTemplate.Execute(&buf, struct{ Table template.HTML }{template.HTML(analyticsTable)}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
