package storage

import "fmt"

// Blob key layout. All uploads live under submissions/; the suffix
// encodes the file's role. Version keys are append-only, so historical
// PDFs survive new-version uploads.

// PDFKey is the key of a submission's original manuscript.
func PDFKey(id string) string { return "submissions/" + id + ".pdf" }

// CodeKey is the key of a submission's optional code archive.
func CodeKey(id string) string { return "submissions/" + id + "-code.zip" }

// VersionPDFKey is the key of the manuscript uploaded as version n.
func VersionPDFKey(id string, n int) string {
	return fmt.Sprintf("submissions/%s-v%d.pdf", id, n)
}

// AppealPDFKey is the key of the revised manuscript attached to an
// appeal.
func AppealPDFKey(id string) string { return "submissions/" + id + "-appeal.pdf" }

// AppealCodeKey is the key of the revised code archive attached to an
// appeal.
func AppealCodeKey(id string) string { return "submissions/" + id + "-appeal-code.zip" }
