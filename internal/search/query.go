// Package search provides the high-level search and indexing service:
// natural-language query parsing, combined keyword and semantic search,
// and the directory indexing pipeline.
package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"lumina/internal/index"
)

// Parsed is the structured form of a user query: full-text terms plus the
// filters extracted from operators and natural-language phrases.
type Parsed struct {
	Terms       []string
	Filters     index.Filters
	DateLabel   string
	DateStart   time.Time
	DateEnd     time.Time
	TypeFilter  string
	Extensions  []string
	Corrections []string
}

// HasDate reports whether the query carried a date constraint.
func (p Parsed) HasDate() bool {
	return !p.DateStart.IsZero() || !p.DateEnd.IsZero()
}

// DateOnly reports whether the query is a pure date filter with no text.
func (p Parsed) DateOnly() bool {
	return len(p.Terms) == 0 && p.HasDate()
}

// simpleDatePatterns map natural-language phrases to relative ranges.
// Order matters: multi-word phrases must win over their substrings.
var simpleDatePatterns = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`\btoday\b|\bthis day\b`), "today"},
	{regexp.MustCompile(`\byesterday\b`), "yesterday"},
	{regexp.MustCompile(`\bthis week\b`), "this_week"},
	{regexp.MustCompile(`\b(?:last|past|previous) week\b|\b(?:past|last|within) 7 days\b`), "last_week"},
	{regexp.MustCompile(`\bthis month\b`), "this_month"},
	{regexp.MustCompile(`\b(?:last|past|previous) month\b|\b(?:past|last|within) 30 days\b`), "last_month"},
	{regexp.MustCompile(`\bthis year\b`), "this_year"},
	{regexp.MustCompile(`\blast year\b`), "last_year"},
	{regexp.MustCompile(`\b(?:the )?previous year\b`), "previous_year"},
	{regexp.MustCompile(`\brecently\b|\brecent\b`), "last_week"},
}

// typePatterns map type words to canonical type filters.
var typePatterns = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`\bimages?\b|\bphotos?\b|\bpictures?\b|\bscreenshots?\b|\bthumbnails?\b|\bjpe?gs?\b|\bpngs?\b|\bgifs?\b|\bwebps?\b`), "images"},
	{regexp.MustCompile(`\bpdfs?\b`), "pdfs"},
	{regexp.MustCompile(`\bdocuments?\b|\bdocs?\b|\bword\b|\bdocx\b|\btexts?\b|\btxt\b`), "documents"},
	{regexp.MustCompile(`\bvideos?\b|\bmovies?\b|\bmp4s?\b|\bmkvs?\b|\bavis?\b`), "videos"},
	{regexp.MustCompile(`\baudios?\b|\bmusic\b|\bsongs?\b|\bmp3s?\b|\bwavs?\b`), "audio"},
	{regexp.MustCompile(`\bspreadsheets?\b|\bxlsx?\b|\bexcel\b|\bcsvs?\b`), "spreadsheets"},
	{regexp.MustCompile(`\bcode\b|\bscripts?\b|\bpython\b|\bjavascript\b|\bhtml\b|\bcss\b`), "code"},
}

// typeExtensions expands a type filter into the extensions it covers.
var typeExtensions = map[string][]string{
	"images":       {".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".ico", ".svg", ".heic", ".heif", ".avif", ".raw", ".cr2", ".nef", ".arw"},
	"documents":    {".doc", ".docx", ".txt", ".rtf", ".odt", ".md", ".tex"},
	"pdfs":         {".pdf"},
	"videos":       {".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm", ".m4v"},
	"audio":        {".mp3", ".wav", ".flac", ".aac", ".ogg", ".wma", ".m4a"},
	"spreadsheets": {".xls", ".xlsx", ".csv", ".ods", ".numbers"},
	"code":         {".py", ".js", ".ts", ".html", ".css", ".java", ".cpp", ".c", ".h", ".cs", ".go", ".rs", ".rb", ".php", ".swift", ".kt"},
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const monthAlt = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var (
	reDayModifier  = regexp.MustCompile(`\b(last|previous|this|next)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	reDayAlone     = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	reAgo          = regexp.MustCompile(`\b(\d+)\s+(day|week|month|year)s?\s+ago\b`)
	reRange        = regexp.MustCompile(`\b(past|last|within)\s+(\d+)\s+(day|week|month)s?\b`)
	reMonthMod     = regexp.MustCompile(`\b(last|this|previous)\s+(` + monthAlt + `)\b`)
	reMonthYear    = regexp.MustCompile(`\b(` + monthAlt + `)\s+(20\d{2})\b`)
	reMonthAlone   = regexp.MustCompile(`\b(` + monthAlt + `)\b`)
	reMonthWithDay = regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)?(?:\s+of)?\s+(` + monthAlt + `)\b|\b(` + monthAlt + `)\s+\d{1,2}(?:st|nd|rd|th)?\b`)
	reYear         = regexp.MustCompile(`\b(20\d{2})\b`)
	reNumericDate  = regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
)

// fillerWords carry no search value and are stripped from the terms.
var fillerWords = regexp.MustCompile(`\b(i|the|a|an|my|from|created|made|that|which|were|was|in|on|all|show|get|find|me|for|with|files|file)\b`)

// keywordVocabulary is the fuzzy-correction target set: date and type
// words a typo is most likely aiming for.
var keywordVocabulary = []string{
	"today", "yesterday", "week", "month", "year", "recent",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"january", "february", "march", "april", "june",
	"july", "august", "september", "october", "november", "december",
	"last", "this", "previous", "next", "past", "ago", "days",
	"image", "images", "photo", "photos", "picture", "pictures",
	"screenshot", "screenshots", "thumbnail", "thumbnails",
	"document", "documents", "pdf", "pdfs", "video", "videos",
	"audio", "music", "code", "spreadsheet", "spreadsheets",
}

// correctKeyword fixes a likely typo by edit distance against the keyword
// vocabulary. Short words and exact keywords pass through untouched.
func correctKeyword(word string) string {
	if len(word) < 4 {
		return word
	}
	lower := strings.ToLower(word)
	for _, kw := range keywordVocabulary {
		if lower == kw {
			return word
		}
	}

	maxDist := 1
	if len(lower) >= 6 {
		maxDist = 2
	}
	best := word
	bestDist := maxDist + 1
	for _, kw := range keywordVocabulary {
		d := levenshtein.ComputeDistance(lower, kw)
		if d < bestDist {
			best = kw
			bestDist = d
		}
	}
	return best
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(s) > 0
}

// ParseQuery parses a natural-language query relative to the current time.
func ParseQuery(query string, fuzzy bool) Parsed {
	return parseQueryAt(query, fuzzy, time.Now())
}

func parseQueryAt(query string, fuzzy bool, now time.Time) Parsed {
	var p Parsed

	words := strings.Fields(query)

	// Operator tokens come out first so fuzzy correction and date parsing
	// never touch them.
	var rest []string
	for _, w := range words {
		lower := strings.ToLower(w)
		switch {
		case strings.HasPrefix(lower, "type:") || strings.HasPrefix(lower, "label:"):
			p.Filters.Label = w[strings.Index(w, ":")+1:]
		case strings.HasPrefix(lower, "tag:"):
			p.Filters.Tags = append(p.Filters.Tags, w[4:])
		case lower == "has:ocr":
			p.Filters.HasOCR = true
		case lower == "has:ai" || lower == "has:vision":
			p.Filters.HasAI = true
		default:
			if fuzzy && isAlpha(w) {
				corrected := correctKeyword(w)
				if corrected != w {
					p.Corrections = append(p.Corrections, fmt.Sprintf("%s -> %s", w, corrected))
					w = corrected
				}
			}
			rest = append(rest, w)
		}
	}

	clean := strings.ToLower(strings.Join(rest, " "))

	// Simple relative phrases first, then complex expressions.
	for _, dp := range simpleDatePatterns {
		if dp.re.MatchString(clean) {
			p.DateLabel = dp.label
			p.DateStart, p.DateEnd = dateRange(dp.label, now)
			clean = dp.re.ReplaceAllString(clean, "")
			break
		}
	}
	if p.DateLabel == "" {
		label, start, end, matched := parseComplexDate(clean, now)
		if label != "" {
			p.DateLabel = label
			p.DateStart, p.DateEnd = start, end
			clean = strings.Replace(clean, matched, "", 1)
		}
	}

	// Type words become extension filters, but a type word that is the
	// whole query stays as a search term too.
	for _, tp := range typePatterns {
		if tp.re.MatchString(clean) {
			p.TypeFilter = tp.label
			p.Extensions = typeExtensions[tp.label]
			stripped := strings.TrimSpace(tp.re.ReplaceAllString(clean, ""))
			if stripped != "" {
				clean = stripped
			}
			break
		}
	}

	clean = fillerWords.ReplaceAllString(clean, "")
	p.Terms = strings.Fields(clean)

	// Nothing extracted at all: fall back to the raw words.
	if len(p.Terms) == 0 && p.DateLabel == "" && p.TypeFilter == "" &&
		p.Filters.Label == "" && len(p.Filters.Tags) == 0 && !p.Filters.HasOCR && !p.Filters.HasAI {
		p.Terms = rest
	}
	return p
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dateRange(label string, now time.Time) (time.Time, time.Time) {
	day := startOfDay(now)
	switch label {
	case "today":
		return day, now
	case "yesterday":
		return day.AddDate(0, 0, -1), day
	case "this_week":
		// Week starts on Monday.
		offset := (int(now.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset), now
	case "last_week":
		return day.AddDate(0, 0, -7), now
	case "this_month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), now
	case "last_month":
		return day.AddDate(0, 0, -30), now
	case "this_year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), now
	case "last_year":
		// Rolling 365 days.
		return day.AddDate(0, 0, -365), now
	case "previous_year":
		return time.Date(now.Year()-1, 1, 1, 0, 0, 0, 0, now.Location()),
			time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	}
	return time.Time{}, time.Time{}
}

func dayRange(t time.Time) (time.Time, time.Time) {
	start := startOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

func monthRange(m time.Month, year int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, m, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// weekdayBefore returns the most recent occurrence of target strictly
// before today for "last", this week's occurrence for "this", and the
// next upcoming one for "next".
func weekdayDate(modifier string, target time.Weekday, now time.Time) time.Time {
	current := now.Weekday()
	switch modifier {
	case "last", "previous":
		back := (int(current) - int(target) + 7) % 7
		if back == 0 {
			back = 7
		}
		return startOfDay(now.AddDate(0, 0, -back))
	case "this":
		return startOfDay(now.AddDate(0, 0, int(target)-int(current)))
	case "next":
		forward := (int(target) - int(current) + 7) % 7
		if forward == 0 {
			forward = 7
		}
		return startOfDay(now.AddDate(0, 0, forward))
	}
	return time.Time{}
}

// parseComplexDate handles day names, "N units ago", explicit ranges,
// month and year expressions, and numeric dates. Returns the filter
// label, the range, and the matched text to strip from the query.
func parseComplexDate(q string, now time.Time) (label string, start, end time.Time, matched string) {
	if m := reDayModifier.FindStringSubmatch(q); m != nil {
		d := weekdayDate(m[1], weekdays[m[2]], now)
		start, end = dayRange(d)
		return "specific_date:" + d.Format("2006-01-02"), start, end, m[0]
	}

	if m := reDayAlone.FindStringSubmatch(q); m != nil {
		d := weekdayDate("last", weekdays[m[1]], now)
		start, end = dayRange(d)
		return "specific_date:" + d.Format("2006-01-02"), start, end, m[0]
	}

	if m := reAgo.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[1])
		var d time.Time
		switch m[2] {
		case "day":
			d = now.AddDate(0, 0, -n)
		case "week":
			d = now.AddDate(0, 0, -7*n)
		case "month":
			d = now.AddDate(0, 0, -30*n)
		case "year":
			d = now.AddDate(0, 0, -365*n)
		}
		start, end = dayRange(d)
		return "specific_date:" + startOfDay(d).Format("2006-01-02"), start, end, m[0]
	}

	if m := reRange.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[2])
		days := n
		switch m[3] {
		case "week":
			days = 7 * n
		case "month":
			days = 30 * n
		}
		return fmt.Sprintf("range:%d_%s", n, m[3]), startOfDay(now.AddDate(0, 0, -days)), now, m[0]
	}

	if m := reMonthMod.FindStringSubmatch(q); m != nil {
		month := months[m[2]]
		year := now.Year()
		if (m[1] == "last" || m[1] == "previous") && month >= now.Month() {
			year--
		}
		start, end = monthRange(month, year, now.Location())
		return fmt.Sprintf("month:%s_%d", m[2], year), start, end, m[0]
	}

	if m := reMonthYear.FindStringSubmatch(q); m != nil {
		year, _ := strconv.Atoi(m[2])
		start, end = monthRange(months[m[1]], year, now.Location())
		return fmt.Sprintf("month:%s_%d", m[1], year), start, end, m[0]
	}

	if m := reNumericDate.FindStringSubmatch(q); m != nil {
		year, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		dy, _ := strconv.Atoi(m[3])
		if mo >= 1 && mo <= 12 && dy >= 1 && dy <= 31 {
			d := time.Date(year, time.Month(mo), dy, 0, 0, 0, 0, now.Location())
			start, end = dayRange(d)
			return "specific_date:" + d.Format("2006-01-02"), start, end, m[0]
		}
	}

	// Standalone month, unless a day number sits next to it (a specific
	// date the numeric pattern above could not parse).
	if m := reMonthAlone.FindStringSubmatch(q); m != nil && !reMonthWithDay.MatchString(q) {
		month := months[m[1]]
		year := now.Year()
		if month > now.Month() {
			year--
		}
		start, end = monthRange(month, year, now.Location())
		return fmt.Sprintf("month:%s_%d", m[1], year), start, end, m[0]
	}

	if m := reYear.FindStringSubmatch(q); m != nil {
		year, _ := strconv.Atoi(m[1])
		if year >= now.Year()-10 && year <= now.Year()+1 {
			start = time.Date(year, 1, 1, 0, 0, 0, 0, now.Location())
			return fmt.Sprintf("year:%d", year), start, start.AddDate(1, 0, 0), m[0]
		}
	}

	return "", time.Time{}, time.Time{}, ""
}
