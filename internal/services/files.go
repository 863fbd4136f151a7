// Package services – upload validation.
package services

import (
	"io"
	"strings"
)

// Default upload size caps.
const (
	DefaultMaxPDFBytes = 50 << 20
	DefaultMaxZipBytes = 20 << 20
)

// FileUpload is one multipart file part. Reader streams the part body;
// it is consumed at most once, by the blob upload.
type FileUpload struct {
	Filename    string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// present reports whether a non-empty file was actually uploaded.
func (f *FileUpload) present() bool { return f != nil && f.Size > 0 }

// validatePDF enforces type and size for a manuscript upload. Non-browser
// clients often send application/octet-stream, so a .pdf filename is
// accepted in place of the content type.
func validatePDF(f *FileUpload, maxBytes int64) error {
	if !strings.Contains(f.ContentType, "pdf") && !strings.HasSuffix(f.Filename, ".pdf") {
		return validationf("pdf", "file must be a PDF")
	}
	if f.Size > maxBytes {
		return validationf("pdf", "PDF must be smaller than %dMB", maxBytes>>20)
	}
	return nil
}

// validateZip enforces type and size for a code archive upload. A
// missing content type is tolerated when the filename ends in .zip,
// since browsers are inconsistent about archive MIME types.
func validateZip(f *FileUpload, maxBytes int64) error {
	if !strings.Contains(f.ContentType, "zip") && !strings.HasSuffix(f.Filename, ".zip") {
		return validationf("code", "code file must be a ZIP archive")
	}
	if f.Size > maxBytes {
		return validationf("code", "code archive must be smaller than %dMB", maxBytes>>20)
	}
	return nil
}
