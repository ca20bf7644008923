package dataset

import (
	"regexp"
	"strconv"
	"strings"

	"switching-insights-go/internal/types"
)

type directionRule struct {
	dir   types.PriceDirection
	match func(s string) bool
}

func contains(subs ...string) func(string) bool {
	return func(s string) bool {
		for _, sub := range subs {
			if strings.Contains(s, sub) {
				return true
			}
		}
		return false
	}
}

// directionRules are checked in order; the first match wins.
var directionRules = []directionRule{
	{types.PriceUp, func(s string) bool { return strings.Contains(s, "higher") || s == "up" }},
	{types.PriceDown, func(s string) bool { return strings.Contains(s, "lower") || s == "down" }},
	{types.PriceUnchanged, contains("unchanged")},
	{types.PriceNew, contains("didn't have", "new", "purchase")},
}

// PriceDirectionOf normalises a renewal premium change answer. Unrecognised
// or blank answers return the empty direction.
func PriceDirectionOf(raw string) types.PriceDirection {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	for _, r := range directionRules {
		if r.match(s) {
			return r.dir
		}
	}
	return ""
}

// JourneySegment names the shopper × switcher cell, or "" for combinations
// outside the funnel taxonomy.
func JourneySegment(r types.Respondent) string {
	switch {
	case r.IsNewToMarket():
		return "New to Market"
	case r.IsShopper() && r.IsSwitcher():
		return "Shopped & Switched"
	case r.IsShopper() && r.IsNonSwitcher():
		return "Shopped & Stayed"
	case r.Shopper == types.NonShopper && r.IsNonSwitcher():
		return "Did Not Shop & Stayed"
	}
	return ""
}

// NPSCategory buckets a 0-10 recommendation score.
func NPSCategory(raw string) string {
	n, ok := leadingInt(raw)
	if !ok {
		return ""
	}
	switch {
	case n >= 9:
		return "Promoter"
	case n >= 7:
		return "Passive"
	default:
		return "Detractor"
	}
}

type tenureRule struct {
	band  string
	match func(s string) bool
}

// tenureRules are checked in order; the first match wins.
var tenureRules = []tenureRule{
	{"1yr", func(s string) bool {
		return strings.Contains(s, "1 year") && !strings.Contains(s, "2") && !strings.Contains(s, "3")
	}},
	{"2-3yr", contains("2 year", "3 year")},
	{"4-5yr", contains("4 year", "5 year")},
	{"6+yr", contains("6", "7", "8", "9", "more")},
}

var yearsPattern = regexp.MustCompile(`(\d+)\s*year`)

// TenureBand buckets a free-text tenure answer into 1yr, 2-3yr, 4-5yr or
// 6+yr. Unparseable answers return "".
func TenureBand(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	for _, r := range tenureRules {
		if r.match(s) {
			return r.band
		}
	}
	m := yearsPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	years, _ := strconv.Atoi(m[1])
	switch {
	case years <= 1:
		return "1yr"
	case years <= 3:
		return "2-3yr"
	case years <= 5:
		return "4-5yr"
	default:
		return "6+yr"
	}
}

// leadingInt parses an integer prefix the way survey exports write numbers,
// e.g. "9", "9 - Extremely likely".
func leadingInt(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && s[end] == '-') {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseFloat(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
