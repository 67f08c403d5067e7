package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-08-25 is a Tuesday.
var testNow = time.Date(2026, time.August, 25, 15, 30, 0, 0, time.UTC)

func TestParseQuery_Operators(t *testing.T) {
	p := parseQueryAt("type:invoice tag:beach has:ocr quarterly report", false, testNow)

	assert.Equal(t, "invoice", p.Filters.Label)
	assert.Equal(t, []string{"beach"}, p.Filters.Tags)
	assert.True(t, p.Filters.HasOCR)
	assert.Equal(t, []string{"quarterly", "report"}, p.Terms)
	assert.False(t, p.HasDate())
}

func TestParseQuery_HasAI(t *testing.T) {
	p := parseQueryAt("has:ai sunset", false, testNow)
	assert.True(t, p.Filters.HasAI)
	assert.Equal(t, []string{"sunset"}, p.Terms)
}

func TestParseQuery_SimpleDates(t *testing.T) {
	day := time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		query     string
		label     string
		wantStart time.Time
	}{
		{"files from today", "today", day},
		{"yesterday screenshots", "yesterday", day.AddDate(0, 0, -1)},
		{"this week", "this_week", day.AddDate(0, 0, -1)}, // Monday Aug 24
		{"last week invoices", "last_week", day.AddDate(0, 0, -7)},
		{"past 7 days", "last_week", day.AddDate(0, 0, -7)},
		{"this month", "this_month", time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)},
		{"last 30 days", "last_month", day.AddDate(0, 0, -30)},
		{"this year", "this_year", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"recent documents", "last_week", day.AddDate(0, 0, -7)},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := parseQueryAt(tt.query, false, testNow)
			assert.Equal(t, tt.label, p.DateLabel)
			assert.Equal(t, tt.wantStart, p.DateStart)
			assert.True(t, p.HasDate())
		})
	}
}

func TestParseQuery_PreviousYear(t *testing.T) {
	p := parseQueryAt("reports from the previous year", false, testNow)
	assert.Equal(t, "previous_year", p.DateLabel)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p.DateStart)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p.DateEnd)
}

func TestParseQuery_DayNames(t *testing.T) {
	t.Run("last thursday", func(t *testing.T) {
		p := parseQueryAt("photos from last thursday", false, testNow)
		assert.Equal(t, "specific_date:2026-08-20", p.DateLabel)
		assert.Equal(t, time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC), p.DateStart)
		assert.Equal(t, time.Date(2026, time.August, 21, 0, 0, 0, 0, time.UTC), p.DateEnd)
	})

	t.Run("standalone day is the most recent past one", func(t *testing.T) {
		p := parseQueryAt("notes from monday", false, testNow)
		assert.Equal(t, "specific_date:2026-08-24", p.DateLabel)
	})

	t.Run("same weekday goes back a full week", func(t *testing.T) {
		p := parseQueryAt("last tuesday", false, testNow)
		assert.Equal(t, "specific_date:2026-08-18", p.DateLabel)
	})
}

func TestParseQuery_Ago(t *testing.T) {
	p := parseQueryAt("receipts 3 days ago", false, testNow)
	assert.Equal(t, "specific_date:2026-08-22", p.DateLabel)
	assert.Equal(t, []string{"receipts"}, p.Terms)
}

func TestParseQuery_ExplicitRange(t *testing.T) {
	p := parseQueryAt("invoices within 14 days", false, testNow)
	assert.Equal(t, "range:14_day", p.DateLabel)
	assert.Equal(t, time.Date(2026, time.August, 11, 0, 0, 0, 0, time.UTC), p.DateStart)
}

func TestParseQuery_Months(t *testing.T) {
	t.Run("month with year", func(t *testing.T) {
		p := parseQueryAt("taxes december 2024", false, testNow)
		assert.Equal(t, "month:december_2024", p.DateLabel)
		assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), p.DateStart)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p.DateEnd)
	})

	t.Run("last december is the previous occurrence", func(t *testing.T) {
		p := parseQueryAt("last december", false, testNow)
		assert.Equal(t, "month:december_2025", p.DateLabel)
	})

	t.Run("standalone future month rolls back a year", func(t *testing.T) {
		p := parseQueryAt("pics from november", false, testNow)
		assert.Equal(t, "month:november_2025", p.DateLabel)
	})

	t.Run("standalone past month stays this year", func(t *testing.T) {
		p := parseQueryAt("pics from march", false, testNow)
		assert.Equal(t, "month:march_2026", p.DateLabel)
	})
}

func TestParseQuery_Year(t *testing.T) {
	p := parseQueryAt("everything from 2025", false, testNow)
	assert.Equal(t, "year:2025", p.DateLabel)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p.DateStart)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p.DateEnd)
}

func TestParseQuery_NumericDate(t *testing.T) {
	p := parseQueryAt("backup 2026-03-15", false, testNow)
	assert.Equal(t, "specific_date:2026-03-15", p.DateLabel)
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), p.DateStart)
}

func TestParseQuery_Types(t *testing.T) {
	t.Run("type word with other terms is stripped", func(t *testing.T) {
		p := parseQueryAt("beach photos", false, testNow)
		assert.Equal(t, "images", p.TypeFilter)
		assert.Contains(t, p.Extensions, ".jpg")
		assert.Equal(t, []string{"beach"}, p.Terms)
	})

	t.Run("type word alone stays a search term", func(t *testing.T) {
		p := parseQueryAt("screenshots", false, testNow)
		assert.Equal(t, "images", p.TypeFilter)
		assert.Equal(t, []string{"screenshots"}, p.Terms)
	})

	t.Run("pdf beats document alternation", func(t *testing.T) {
		p := parseQueryAt("tax pdfs", false, testNow)
		assert.Equal(t, "pdfs", p.TypeFilter)
		assert.Equal(t, []string{".pdf"}, p.Extensions)
	})

	t.Run("spreadsheets", func(t *testing.T) {
		p := parseQueryAt("budget spreadsheets", false, testNow)
		assert.Equal(t, "spreadsheets", p.TypeFilter)
		assert.Contains(t, p.Extensions, ".csv")
	})
}

func TestParseQuery_DateOnly(t *testing.T) {
	p := parseQueryAt("files from yesterday", false, testNow)
	assert.True(t, p.DateOnly(), "terms=%v", p.Terms)
}

func TestParseQuery_Fillers(t *testing.T) {
	p := parseQueryAt("show me all the invoices from acme", false, testNow)
	assert.Equal(t, []string{"invoices", "acme"}, p.Terms)
}

func TestParseQuery_PlainFallback(t *testing.T) {
	// No filters extracted: the raw words survive filler stripping.
	p := parseQueryAt("the in on", false, testNow)
	assert.Equal(t, []string{"the", "in", "on"}, p.Terms)
}

func TestParseQuery_FuzzyCorrection(t *testing.T) {
	t.Run("off by default behavior", func(t *testing.T) {
		p := parseQueryAt("yesturday", false, testNow)
		assert.Empty(t, p.DateLabel)
	})

	t.Run("corrects date typo", func(t *testing.T) {
		p := parseQueryAt("yesturday", true, testNow)
		assert.Equal(t, "yesterday", p.DateLabel)
		require.Len(t, p.Corrections, 1)
		assert.Contains(t, p.Corrections[0], "yesterday")
	})

	t.Run("corrects type typo", func(t *testing.T) {
		p := parseQueryAt("documnets report", true, testNow)
		assert.Equal(t, "documents", p.TypeFilter)
	})

	t.Run("leaves distant words alone", func(t *testing.T) {
		p := parseQueryAt("zebra", true, testNow)
		assert.Equal(t, []string{"zebra"}, p.Terms)
		assert.Empty(t, p.Corrections)
	})
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0 B", FormatSize(0))
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "2.0 MB", FormatSize(2<<20))
}
