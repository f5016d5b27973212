package availability

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/warp/shift-roster/schedule"
)

// =============================================================================
// KEYWORDS - Vietnamese and English vocabulary found in sheet exports
// =============================================================================

var (
	nameKeywords   = []string{"tên", "name"}
	reasonKeywords = []string{"lý do", "reason", "note"}
	listKeywords   = []string{"ca", "lịch", "đăng ký", "shift", "schedule", "registration", "availability"}
)

// dayKeywords per day: Vietnamese full name, short code, English code and
// English full name.
var dayKeywords = []struct {
	Day      schedule.Day
	Keywords []string
}{
	{schedule.Monday, []string{"thứ 2", "t2", "mon", "monday"}},
	{schedule.Tuesday, []string{"thứ 3", "t3", "tue", "tuesday"}},
	{schedule.Wednesday, []string{"thứ 4", "t4", "wed", "wednesday"}},
	{schedule.Thursday, []string{"thứ 5", "t5", "thu", "thursday"}},
	{schedule.Friday, []string{"thứ 6", "t6", "fri", "friday"}},
	{schedule.Saturday, []string{"thứ 7", "t7", "sat", "saturday"}},
	{schedule.Sunday, []string{"chủ nhật", "cn", "sun", "sunday"}},
}

var shiftKeywords = []struct {
	Shift    schedule.Shift
	Keywords []string
}{
	{schedule.Shift1, []string{"ca 1", "shift 1", "sáng", "morning"}},
	{schedule.Shift2, []string{"ca 2", "shift 2", "chiều", "afternoon"}},
	{schedule.Shift3, []string{"ca 3", "shift 3", "tối", "evening"}},
}

// fold prepares text for keyword matching: NFC, lower-cased with
// Vietnamese rules, trimmed.
func fold(s string) string {
	return strings.TrimSpace(cases.Lower(language.Vietnamese).String(norm.NFC.String(s)))
}

// containsAny reports whether s contains any keyword as a substring.
func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// containsToken reports whether keyword occurs in s with no letter or
// digit directly before or after it, so "t2" does not match "shift2".
func containsToken(s, keyword string) bool {
	for from := 0; from <= len(s)-len(keyword); {
		i := strings.Index(s[from:], keyword)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(keyword)
		if boundaryBefore(s, start) && boundaryAfter(s, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func containsAnyToken(s string, keywords []string) bool {
	for _, k := range keywords {
		if containsToken(s, k) {
			return true
		}
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
