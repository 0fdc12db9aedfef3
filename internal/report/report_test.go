package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediareport/pkg/models"
)

func sources() []models.SourceItem {
	return []models.SourceItem{
		{URL: "https://news.example.com/a", Title: "Acme ships - Example News"},
		{URL: "https://daily.example.org/b", Title: "Acme again - Daily"},
		{URL: "https://www.tribune.example/c?x=1", Title: "Third <take>"},
	}
}

func TestDocumentSkipsPlaceholders(t *testing.T) {
	shots := []*models.Screenshot{
		{Data: []byte("png-a"), MimeType: "image/png"},
		nil,
		{Data: []byte("png-c")},
	}

	html, err := Document("<h1>Acme PR Coverage Report</h1>", sources(), shots)
	require.NoError(t, err)

	assert.Contains(t, html, `<div class="report-coverage">`)
	assert.Contains(t, html, "<h1>Acme PR Coverage Report</h1>")
	assert.Contains(t, html, "Coverage Screenshots")
	assert.Equal(t, 2, strings.Count(html, "<img "))
	assert.Contains(t, html, "data:image/png;base64,")
	assert.Contains(t, html, "news.example.com - Acme ships - Example News")
	assert.NotContains(t, html, "daily.example.org")
	assert.Contains(t, html, "www.tribune.example - Third &lt;take&gt;")
}

func TestDocumentRequiresAlignment(t *testing.T) {
	_, err := Document("", sources(), []*models.Screenshot{nil})
	assert.Error(t, err)
}

func TestDocumentNoScreenshots(t *testing.T) {
	html, err := Document("<p>x</p>", sources()[:1], []*models.Screenshot{{}})
	require.NoError(t, err)
	assert.NotContains(t, html, "<img ")
	assert.Contains(t, html, "Coverage Screenshots")
}

func TestFileName(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("x", 3600))
	assert.Equal(t, "pr-report-2026-03-04T04-06-07-890Z.pdf", FileName(ts))
}

func TestBodies(t *testing.T) {
	assert.Contains(t, AcknowledgmentBody(), "Generating media coverage...")

	body, err := FinalBody("")
	require.NoError(t, err)
	assert.Contains(t, body, "Generated media coverage report completed!")
	assert.NotContains(t, body, "Media source analytics")

	body, err = FinalBody("<table><tr><td>x</td></tr></table>")
	require.NoError(t, err)
	assert.Contains(t, body, "<table><tr><td>x</td></tr></table>")
}

func TestAnalyticsTable(t *testing.T) {
	rank := int64(42)
	zero := int64(0)

	tests := []struct {
		name     string
		stats    []models.DomainStats
		contains []string
		absent   []string
	}{
		{
			name:     "empty",
			stats:    nil,
			contains: []string{"<p>No analytics data available.</p>"},
			absent:   []string{"<table"},
		},
		{
			name: "full row",
			stats: []models.DomainStats{{
				Domain: "news.example.com", SiteName: "example.com", GlobalRank: &rank,
				MonthlyVisits: "1.2M", TimeOnSite: "95s", BounceRate: "0.55",
			}},
			contains: []string{"Media Source", "Global Rank", "Avg Time (sec)", "example.com", "#42", "1.2M", "95s", "0.55"},
			absent:   []string{"N/A"},
		},
		{
			name:     "placeholder row",
			stats:    []models.DomainStats{models.PlaceholderStats("daily.example.org")},
			contains: []string{"daily.example.org", "N/A"},
		},
		{
			name:     "zero rank is unknown",
			stats:    []models.DomainStats{{Domain: "d", GlobalRank: &zero}},
			contains: []string{"N/A"},
			absent:   []string{"#0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := AnalyticsTable(tt.stats)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}
