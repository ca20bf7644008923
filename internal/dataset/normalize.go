package dataset

import (
	"regexp"
	"strings"
)

var columnPrefixes = []string{"MainData_Motor[", "MainData[", "RespondentProfile["}

var repeatedSpace = regexp.MustCompile(`\s{2,}`)

// NormalizeColumn strips export decoration from a header cell:
// "MainData[Renewal  premium change]" becomes "Renewal premium change".
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\uFEFF")
	name = strings.TrimSpace(name)
	for _, p := range columnPrefixes {
		if strings.HasPrefix(name, p) {
			name = name[len(p):]
			break
		}
	}
	name = strings.TrimSuffix(name, "]")
	name = repeatedSpace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// header maps normalised column names to their first index.
type header map[string]int

func newHeader(cells []string) header {
	h := header{}
	for i, c := range cells {
		name := NormalizeColumn(c)
		if name == "" {
			continue
		}
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

// value returns the trimmed cell for the first present column in names.
func (h header) value(row []string, names ...string) string {
	for _, n := range names {
		i, ok := h[n]
		if !ok || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return ""
}
