package pdf

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Inspector reads document facts used for reporting, never for classification
type Inspector struct{}

// NewInspector creates a new PDF inspector
func NewInspector() *Inspector {
	return &Inspector{}
}

// PageCount returns the number of pages declared by the document's page tree
func (i *Inspector) PageCount(content []byte) (pages int, err error) {
	// ledongthuc/pdf panics on some malformed objects
	defer func() {
		if r := recover(); r != nil {
			pages = 0
			err = fmt.Errorf("failed to read page tree: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	return r.NumPage(), nil
}
