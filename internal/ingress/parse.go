package ingress

import (
	"regexp"
	"strconv"
	"strings"

	"mediareport/pkg/models"
)

const TriggerPhrase = "media coverage report request"

var (
	windowDaysPattern = regexp.MustCompile(`(?i)media coverage report request[:\s]*(\d+)`)
	maxResultsPattern = regexp.MustCompile(`,\s*(\d+)`)
	bracketedAddress  = regexp.MustCompile(`<([^>]+)>`)
)

// IsReportRequest reports whether the subject carries the trigger phrase,
// case-insensitively.
func IsReportRequest(subject string) bool {
	return strings.Contains(strings.ToLower(subject), TriggerPhrase)
}

// ParseParameters extracts the window and result count from a subject.
// Missing or unparsable numbers keep their defaults.
func ParseParameters(subject string) models.RequestParameters {
	params := models.DefaultRequestParameters()
	lower := strings.ToLower(subject)

	if n, ok := firstNumber(windowDaysPattern, lower); ok {
		params.WindowDays = n
	}
	if n, ok := firstNumber(maxResultsPattern, lower); ok {
		params.MaxResults = n
	}
	return params
}

func firstNumber(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SenderAddress returns the bracketed address of "Name <addr>" or the raw
// sender when there are no brackets.
func SenderAddress(sender string) string {
	if m := bracketedAddress.FindStringSubmatch(sender); len(m) == 2 {
		return m[1]
	}
	return sender
}
