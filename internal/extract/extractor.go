package extract

import (
	"context"
	"fmt"
	"log"
	"strings"
)

const DefaultMaxBytes = 20 << 20

type Extractor struct {
	ocr      Recognizer
	maxBytes int
	openPDF  func(data []byte) (pageSource, error)
}

func NewExtractor(ocr Recognizer, maxBytes int) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Extractor{
		ocr:      ocr,
		maxBytes: maxBytes,
		openPDF:  openPDF,
	}
}

// MaxBytes is the largest attachment Extract accepts.
func (e *Extractor) MaxBytes() int { return e.maxBytes }

// Extract returns the plain text of att. An empty string with a nil error
// means the attachment was readable but carried no text.
func (e *Extractor) Extract(ctx context.Context, att Attachment) (string, error) {
	kind := att.Kind
	if kind == "" {
		kind = KindOf(att.MIME, att.Name)
	}
	if kind == KindUnknown {
		return "", fmt.Errorf("%w: mime=%q name=%q", ErrUnsupportedKind, att.MIME, att.Name)
	}
	if len(att.Data) > e.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(att.Data), e.maxBytes)
	}

	switch kind {
	case KindPDF:
		return e.extractPDF(att.Data)
	case KindImage:
		return e.extractImage(ctx, att)
	}
	return "", fmt.Errorf("%w: kind=%q", ErrUnsupportedKind, kind)
}

func (e *Extractor) extractPDF(data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("read pdf: %v", rec)
		}
	}()

	doc, err := e.openPDF(data)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	n, err := doc.NumPage()
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, doc.PageText(i))
	}
	log.Printf("[extract] pdf pages=%d bytes=%d", n, len(data))
	return joinPages(pages), nil
}

func (e *Extractor) extractImage(ctx context.Context, att Attachment) (string, error) {
	if e.ocr == nil {
		return "", fmt.Errorf("%w: no OCR engine configured", ErrUnsupportedKind)
	}
	text, err := e.ocr.Recognize(ctx, att.Data, att.MIME)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// joinPages keeps one slot per page, so pages without a text layer show
// up as blank lines.
func joinPages(pages []string) string {
	return strings.Join(pages, "\n")
}
