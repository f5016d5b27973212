package availability

import "github.com/warp/shift-roster/schedule"

// Mode is how a sheet encodes availability.
type Mode string

const (
	// ModePerDay: one column per weekday, each cell lists shifts.
	ModePerDay Mode = "per_day"
	// ModeList: one column of "day + shift" descriptors.
	ModeList Mode = "list"
	// ModeNone: no availability column was recognized.
	ModeNone Mode = "none"
)

// Layout is the column assignment detected from a header row. Missing
// columns are -1.
type Layout struct {
	NameCol   int
	ReasonCol int
	DayCols   map[schedule.Day]int
	ListCol   int
	Mode      Mode
}

// DetectLayout interprets a header row. Each concept takes the first
// header that matches it. The name and reason columns are never reused
// as day or list columns, and the list column is consulted only when no
// per-day column matched.
func DetectLayout(header []string) Layout {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = fold(h)
	}

	l := Layout{
		NameCol:   firstMatch(folded, nameKeywords, nil),
		ReasonCol: -1,
		DayCols:   make(map[schedule.Day]int),
		ListCol:   -1,
		Mode:      ModeNone,
	}
	taken := map[int]bool{}
	if l.NameCol >= 0 {
		taken[l.NameCol] = true
	}
	l.ReasonCol = firstMatch(folded, reasonKeywords, taken)
	if l.ReasonCol >= 0 {
		taken[l.ReasonCol] = true
	}

	for _, dk := range dayKeywords {
		if idx := firstMatch(folded, dk.Keywords, taken); idx >= 0 {
			l.DayCols[dk.Day] = idx
		}
	}
	if len(l.DayCols) > 0 {
		l.Mode = ModePerDay
		return l
	}

	l.ListCol = firstMatch(folded, listKeywords, taken)
	if l.ListCol >= 0 {
		l.Mode = ModeList
	}
	return l
}

func firstMatch(headers []string, keywords []string, skip map[int]bool) int {
	for i, h := range headers {
		if skip[i] {
			continue
		}
		if containsAny(h, keywords) {
			return i
		}
	}
	return -1
}
