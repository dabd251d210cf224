package testutil

import (
	"bytes"
	"testing"

	"github.com/ledongthuc/pdf"
)

// PageWidths returns each page's MediaBox width in points, in page order
func PageWidths(t testing.TB, content []byte) []float64 {
	t.Helper()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("open PDF: %v", err)
	}

	widths := make([]float64, 0, r.NumPage())
	for n := 1; n <= r.NumPage(); n++ {
		node := r.Page(n).V
		box := node.Key("MediaBox")
		// MediaBox is inheritable from the page tree
		for box.IsNull() && !node.Key("Parent").IsNull() {
			node = node.Key("Parent")
			box = node.Key("MediaBox")
		}
		if box.Len() != 4 {
			t.Fatalf("page %d has no MediaBox", n)
		}
		widths = append(widths, box.Index(2).Float64()-box.Index(0).Float64())
	}
	return widths
}
