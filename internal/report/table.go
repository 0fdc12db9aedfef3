package report

import (
	"bytes"
	"html/template"
	"strconv"

	"mediareport/pkg/models"
)

const noAnalytics = "<p>No analytics data available.</p>"

var tableTemplate = template.Must(template.New("table").Parse(`<table style="border-collapse: collapse; width: 100%; margin: 10px 0; font-family: Arial, sans-serif;">
  <thead>
    <tr style="background-color: #f5f5f5;">
      <th style="border: 1px solid #ddd; padding: 8px; text-align: left;">Media Source</th>
      <th style="border: 1px solid #ddd; padding: 8px; text-align: left;">Global Rank</th>
      <th style="border: 1px solid #ddd; padding: 8px; text-align: left;">Monthly Visits</th>
      <th style="border: 1px solid #ddd; padding: 8px; text-align: left;">Avg Time (sec)</th>
      <th style="border: 1px solid #ddd; padding: 8px; text-align: left;">Bounce Rate</th>
    </tr>
  </thead>
  <tbody>
  {{- range .}}
    <tr>
      <td style="border: 1px solid #ddd; padding: 8px;">{{.Name}}</td>
      <td style="border: 1px solid #ddd; padding: 8px;">{{.Rank}}</td>
      <td style="border: 1px solid #ddd; padding: 8px;">{{.Visits}}</td>
      <td style="border: 1px solid #ddd; padding: 8px;">{{.TimeOnSite}}</td>
      <td style="border: 1px solid #ddd; padding: 8px;">{{.BounceRate}}</td>
    </tr>
  {{- end}}
  </tbody>
</table>`))

type tableRow struct {
	Name       string
	Rank       string
	Visits     string
	TimeOnSite string
	BounceRate string
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// AnalyticsTable renders one row per entry; unknown values show as N/A.
func AnalyticsTable(stats []models.DomainStats) string {
	if len(stats) == 0 {
		return noAnalytics
	}

	rows := make([]tableRow, 0, len(stats))
	for _, s := range stats {
		name := s.SiteName
		if name == "" {
			name = s.Domain
		}
		rank := ""
		if s.GlobalRank != nil && *s.GlobalRank > 0 {
			rank = "#" + strconv.FormatInt(*s.GlobalRank, 10)
		}
		rows = append(rows, tableRow{
			Name:       orNA(name),
			Rank:       orNA(rank),
			Visits:     orNA(s.MonthlyVisits),
			TimeOnSite: orNA(s.TimeOnSite),
			BounceRate: orNA(s.BounceRate),
		})
	}

	var buf bytes.Buffer
	if err := tableTemplate.Execute(&buf, rows); err != nil {
		return noAnalytics
	}
	return buf.String()
}
