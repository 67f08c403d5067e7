package extract

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"strings"
)

// ocrImageExtensions are image types handed to tesseract.
var ocrImageExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".bmp": {}, ".tiff": {}, ".tif": {},
	".gif": {}, ".webp": {}, ".avif": {}, ".heic": {}, ".heif": {}, ".ico": {},
	".raw": {}, ".cr2": {}, ".nef": {}, ".arw": {},
}

// OCRAvailable reports whether the tesseract binary is on PATH.
func OCRAvailable() bool {
	_, err := exec.LookPath("tesseract")
	return err == nil
}

// ImageText runs tesseract on an image and returns the recognized text,
// or "" on error or empty output.
func ImageText(path string) string {
	out, err := exec.Command("tesseract", path, "stdout", "--psm", "3").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// PDFText extracts text from a PDF using pdftotext when available,
// reading only the first few pages.
func PDFText(path string) string {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ""
	}
	var out bytes.Buffer
	cmd := exec.Command("pdftotext", "-l", "5", "-q", path, "-")
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}
	text := strings.Join(strings.Fields(out.String()), " ")
	if len(text) > MaxChars {
		text = text[:MaxChars] + "..."
	}
	if len(text) < 20 {
		return ""
	}
	return text
}

// OCRText dispatches OCR by file type. PDFs go through pdftotext, images
// through tesseract. Other types are not supported.
func OCRText(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return PDFText(path)
	}
	if _, ok := ocrImageExtensions[ext]; ok {
		return ImageText(path)
	}
	return ""
}

// OCRSupported reports whether path's type can be OCRed.
func OCRSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return true
	}
	_, ok := ocrImageExtensions[ext]
	return ok
}
