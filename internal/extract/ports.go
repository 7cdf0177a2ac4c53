// Package extract turns binary attachments into plain text for the
// answer pipeline: PDF documents through their text layer, images through
// optical character recognition.
package extract

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedKind is returned for attachments that are neither PDF nor image.
	ErrUnsupportedKind = errors.New("extract: unsupported attachment kind")
	ErrTooLarge        = errors.New("extract: attachment too large")
)

// UnsupportedText is the user-facing reply for ErrUnsupportedKind.
const UnsupportedText = "Unsupported file type."

type Kind string

const (
	KindPDF     Kind = "pdf"
	KindImage   Kind = "image"
	KindUnknown Kind = "unknown"
)

type Attachment struct {
	Kind Kind
	MIME string
	Name string
	Data []byte
}

// Recognizer is an OCR engine.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mime string) (string, error)
}

var imageExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
	".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// KindOf classifies an attachment by declared MIME type, falling back to
// the file extension when the type is missing or generic.
func KindOf(mime, filename string) Kind {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	switch {
	case mime == "application/pdf":
		return KindPDF
	case strings.HasPrefix(mime, "image/"):
		return KindImage
	}

	if mime != "" && mime != "application/octet-stream" {
		return KindUnknown
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return KindPDF
	case imageExt[ext]:
		return KindImage
	}
	return KindUnknown
}
