package extract

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"rsc.io/pdf"
)

type pageSource interface {
	NumPage() (int, error)
	// PageText returns the text layer of page i (1-based), "" when absent.
	PageText(i int) string
}

type rscDoc struct {
	r *pdf.Reader
}

func openPDF(data []byte) (doc pageSource, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &rscDoc{r: r}, nil
}

// NumPage resolves the page tree, which is where a broken xref first
// surfaces as a panic.
func (d *rscDoc) NumPage() (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			n, err = 0, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return d.r.NumPage(), nil
}

func (d *rscDoc) PageText(i int) (text string) {
	// rsc.io/pdf panics on malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[extract] pdf page %d unreadable: %v", i, rec)
			text = ""
		}
	}()

	p := d.r.Page(i)
	if p.V.IsNull() {
		return ""
	}

	var b strings.Builder
	var lastY float64
	for n, t := range p.Content().Text {
		if n > 0 && t.Y != lastY {
			b.WriteByte('\n')
		}
		b.WriteString(t.S)
		lastY = t.Y
	}
	return strings.TrimSpace(b.String())
}
