package models

import (
	"net/url"
	"strings"
)

type SourceItem struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	PublishedDate string  `json:"published_date,omitempty"`
	Content       string  `json:"content,omitempty"`
	Score         float64 `json:"score,omitempty"`
}

// Domain is the host of the source URL, or "" when it cannot be parsed.
func (s SourceItem) Domain() string {
	u, err := url.Parse(strings.TrimSpace(s.URL))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Screenshot is a captured PNG. A nil *Screenshot at index i marks a
// source whose capture failed.
type Screenshot struct {
	Data     []byte
	MimeType string
}

type TrafficSources struct {
	Social *float64 `json:"social,omitempty"`
	Search *float64 `json:"search,omitempty"`
	Direct *float64 `json:"direct,omitempty"`
}

// DomainStats is one analytics row. Nil fields are unknown.
type DomainStats struct {
	Domain         string         `json:"domain"`
	SiteName       string         `json:"siteName,omitempty"`
	GlobalRank     *int64         `json:"globalRank,omitempty"`
	MonthlyVisits  string         `json:"monthlyVisits,omitempty"`
	TimeOnSite     string         `json:"timeOnSite,omitempty"`
	BounceRate     string         `json:"bounceRate,omitempty"`
	PagePerVisit   string         `json:"pagePerVisit,omitempty"`
	TrafficSources TrafficSources `json:"trafficSources"`
	Placeholder    bool           `json:"placeholder,omitempty"`
}

func PlaceholderStats(domain string) DomainStats {
	return DomainStats{Domain: domain, SiteName: domain, Placeholder: true}
}
