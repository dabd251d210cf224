package pipeline

import (
	"github.com/a3tai/goodnotes-pdf/internal/attachment"
)

// MergedName is the file name of the combined document
const MergedName = "merged.pdf"

// Output is one downloadable PDF produced by a run
type Output struct {
	Name   string `json:"name" yaml:"name"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Pages  int    `json:"pages" yaml:"pages"`
	Size   int64  `json:"size" yaml:"size"`

	Content []byte `json:"-" yaml:"-"`
}

// EntryReport describes one candidate entry under the attachments folder
type EntryReport struct {
	Path  string `json:"path" yaml:"path"`
	Size  int64  `json:"size" yaml:"size"`
	IsPDF bool   `json:"is_pdf" yaml:"is_pdf"`
}

// Result is everything one extraction run produced
type Result struct {
	RunID       string                 `json:"run_id" yaml:"run_id"`
	Entries     []EntryReport          `json:"entries" yaml:"entries"`
	Outputs     []Output               `json:"outputs" yaml:"outputs"`
	Merged      *Output                `json:"merged,omitempty" yaml:"merged,omitempty"`
	OrderSource attachment.OrderSource `json:"order_source" yaml:"order_source"`
	IndexPaths  int                    `json:"index_paths" yaml:"index_paths"`
	Skipped     []string               `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Unmatched   []string               `json:"unmatched,omitempty" yaml:"unmatched,omitempty"`
	Unindexed   []string               `json:"unindexed,omitempty" yaml:"unindexed,omitempty"`

	// MergeError is set when the combined document could not be built.
	// Outputs remain valid.
	MergeError error `json:"-" yaml:"-"`
}

// Names returns the output file names in presentation order, merged last
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Outputs)+1)
	for _, o := range r.Outputs {
		names = append(names, o.Name)
	}
	if r.Merged != nil {
		names = append(names, r.Merged.Name)
	}
	return names
}
