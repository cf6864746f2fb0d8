package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadSize is the largest document accepted, 10 MB.
const MaxUploadSize = 10 * 1024 * 1024

// ValidateUpload checks that path names an acceptable document: it must
// exist, be a PDF and stay under MaxUploadSize.
func ValidateUpload(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("only PDF files are allowed")
	}
	if info.Size() > MaxUploadSize {
		return fmt.Errorf("file size exceeds 10MB limit")
	}
	return nil
}

// UploadMessage is the system message injected into the conversation after a
// document upload.
func UploadMessage(filename string) string {
	return fmt.Sprintf("PDF document %q has been uploaded and processed. You can now ask questions about its content.", filepath.Base(filename))
}

// FormatFileSize renders a byte count the way the upload dialog did.
func FormatFileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d bytes", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
