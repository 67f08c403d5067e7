// Package metadata extracts original creation dates from file metadata.
// The original date reflects when content was created (photo taken,
// document authored), unlike filesystem timestamps which change on copy.
package metadata

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// OriginalDate extracts the original creation date from path's metadata.
// Returns the zero time when no date is available.
func OriginalDate(path string) time.Time {
	if _, err := os.Stat(path); err != nil {
		return time.Time{}
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".tiff", ".tif", ".heic", ".heif", ".webp":
		if t := exifDate(path); !t.IsZero() {
			return t
		}
	case ".docx", ".xlsx", ".pptx":
		if t := officeDate(path); !t.IsZero() {
			return t
		}
	case ".pdf":
		if t := pdfDate(path); !t.IsZero() {
			return t
		}
	}
	// Screenshots and camera exports often carry the date in the name.
	return FilenameDate(filepath.Base(path))
}

// exifDate reads DateTimeOriginal (falling back to DateTime) from EXIF.
func exifDate(path string) time.Time {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}
	}
	t, err := x.DateTime()
	if err != nil {
		return time.Time{}
	}
	return t
}

// coreProperties is the docProps/core.xml fragment carrying dcterms:created.
type coreProperties struct {
	Created string `xml:"created"`
}

// officeDate reads dcterms:created from an Office document's core
// properties. Office files are ZIP archives with XML metadata inside.
func officeDate(path string) time.Time {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return time.Time{}
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "docProps/core.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return time.Time{}
		}
		data, err := io.ReadAll(io.LimitReader(rc, 1<<20))
		rc.Close()
		if err != nil {
			return time.Time{}
		}
		var props coreProperties
		if err := xml.Unmarshal(data, &props); err != nil {
			return time.Time{}
		}
		return ParseISODate(props.Created)
	}
	return time.Time{}
}

var pdfCreationDate = regexp.MustCompile(`/CreationDate\s*\(D:(\d{8,14})`)

// pdfDate scans the PDF for a /CreationDate entry in D:YYYYMMDDHHMMSS form.
func pdfDate(path string) time.Time {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}
	}
	defer f.Close()

	// Metadata usually sits near the start or end; 1MB covers typical docs.
	data, err := io.ReadAll(io.LimitReader(f, 1<<20))
	if err != nil {
		return time.Time{}
	}
	m := pdfCreationDate.FindSubmatch(data)
	if m == nil {
		return time.Time{}
	}
	s := string(m[1])
	if len(s) >= 14 {
		if t, err := time.ParseInLocation("20060102150405", s[:14], time.Local); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation("20060102", s[:8], time.Local); err == nil {
		return t
	}
	return time.Time{}
}

var filenameDatePatterns = []*regexp.Regexp{
	// 2024-12-29 or 2024_12_29
	regexp.MustCompile(`(\d{4})[-_](\d{2})[-_](\d{2})`),
	// 20241229 inside IMG_20241229_143022 style names
	regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`),
}

// FilenameDate extracts a date from patterns common in screenshots and
// camera exports, e.g. "Screenshot 2024-12-29 143022.png" or
// "IMG_20241229_143022.jpg". Returns the zero time when nothing matches.
func FilenameDate(name string) time.Time {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, pat := range filenameDatePatterns {
		m := pat.FindStringSubmatch(stem)
		if m == nil {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", m[1]+"-"+m[2]+"-"+m[3], time.Local)
		if err != nil {
			continue
		}
		if t.Year() >= 1990 && t.Year() <= 2100 {
			return t
		}
	}
	return time.Time{}
}

// ParseISODate parses common ISO-8601 shapes, dropping timezone suffixes.
func ParseISODate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	s = strings.TrimSuffix(s, "Z")
	if i := strings.IndexByte(s, '+'); i > 0 {
		s = s[:i]
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.999999",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
