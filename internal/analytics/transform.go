package analytics

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"mediareport/pkg/models"
)

// flexFloat accepts a JSON number or a numeric string. Empty or
// unparsable values stay nil.
type flexFloat struct {
	v *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	f.v = &v
	return nil
}

// rawData is the subset of the SimilarWeb public data response we read.
// "Engagments" is the provider's spelling.
type rawData struct {
	SiteName   string `json:"SiteName"`
	GlobalRank struct {
		Rank *int64 `json:"Rank"`
	} `json:"GlobalRank"`
	Engagements struct {
		BounceRate   flexFloat `json:"BounceRate"`
		TimeOnSite   flexFloat `json:"TimeOnSite"`
		PagePerVisit flexFloat `json:"PagePerVisit"`
	} `json:"Engagments"`
	EstimatedMonthlyVisits map[string]float64 `json:"EstimatedMonthlyVisits"`
	TrafficSources         struct {
		Social flexFloat `json:"Social"`
		Search flexFloat `json:"Search"`
		Direct flexFloat `json:"Direct"`
	} `json:"TrafficSources"`
}

// Transform maps a raw response onto a table row for domain.
func Transform(domain string, raw rawData) models.DomainStats {
	stats := models.DomainStats{
		Domain:     domain,
		SiteName:   raw.SiteName,
		GlobalRank: raw.GlobalRank.Rank,
		TrafficSources: models.TrafficSources{
			Social: raw.TrafficSources.Social.v,
			Search: raw.TrafficSources.Search.v,
			Direct: raw.TrafficSources.Direct.v,
		},
	}
	if stats.SiteName == "" {
		stats.SiteName = domain
	}

	if v := raw.Engagements.BounceRate.v; v != nil {
		stats.BounceRate = strconv.FormatFloat(*v, 'f', 2, 64)
	}
	if v := raw.Engagements.TimeOnSite.v; v != nil && *v != 0 {
		stats.TimeOnSite = strconv.FormatFloat(math.Round(*v), 'f', 0, 64) + "s"
	}
	if v := raw.Engagements.PagePerVisit.v; v != nil {
		stats.PagePerVisit = strconv.FormatFloat(*v, 'f', 1, 64)
	}
	if v, ok := latestMonth(raw.EstimatedMonthlyVisits); ok && v != 0 {
		stats.MonthlyVisits = FormatNumber(v)
	}
	return stats
}

// latestMonth picks the value of the greatest key. Keys are YYYY-MM-DD so
// lexical order is chronological.
func latestMonth(visits map[string]float64) (float64, bool) {
	if len(visits) == 0 {
		return 0, false
	}
	keys := make([]string, 0, len(visits))
	for k := range visits {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return visits[keys[0]], true
}

// FormatNumber abbreviates n with B, M or K and one decimal, dropping a
// trailing ".0".
func FormatNumber(n float64) string {
	switch {
	case n >= 1e9:
		return abbreviate(n/1e9) + "B"
	case n >= 1e6:
		return abbreviate(n/1e6) + "M"
	case n >= 1e3:
		return abbreviate(n/1e3) + "K"
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

func abbreviate(v float64) string {
	return strings.TrimSuffix(strconv.FormatFloat(v, 'f', 1, 64), ".0")
}
