package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/a3tai/goodnotes-pdf/internal/extract"
	"github.com/a3tai/goodnotes-pdf/internal/pipeline"
)

const barWidth = 20

// progressPrinter renders pipeline progress as one line per phase change
// or per 10% step
type progressPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	theme Theme
	phase pipeline.Phase
	step  int
	wrote bool
}

func newProgressPrinter(w io.Writer, theme Theme) *progressPrinter {
	return &progressPrinter{w: w, theme: theme, step: -1}
}

func (p *progressPrinter) Update(pr pipeline.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	step := int(pr.Percent) / 10
	if pr.Phase == p.phase && step == p.step {
		return
	}
	p.phase = pr.Phase
	p.step = step
	p.wrote = true
	fmt.Fprintln(p.w, renderProgress(p.theme, pr))
}

// Finish ends the progress output with a blank line if anything was printed
func (p *progressPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.wrote {
		fmt.Fprintln(p.w)
	}
}

func renderProgress(theme Theme, pr pipeline.Progress) string {
	filled := int(pr.Percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	line := fmt.Sprintf("%s %s %3.0f%%", theme.Label.Render(string(pr.Phase)), theme.Bar.Render(bar), pr.Percent)
	if pr.Total > 0 {
		line += theme.Subtle.Render(fmt.Sprintf("  %d/%d", pr.Done, pr.Total))
	}
	return line
}

func renderReport(theme Theme, report *extract.Report) string {
	result := report.Result

	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Extracted %d PDF(s)", len(result.Outputs))))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", theme.Label.Render("archive"), report.Archive)
	fmt.Fprintf(&b, "%s %s\n", theme.Label.Render("output"), report.Written.Directory)
	fmt.Fprintf(&b, "%s %s\n", theme.Label.Render("order"), result.OrderSource)

	var files strings.Builder
	for i, o := range result.Outputs {
		if i > 0 {
			files.WriteString("\n")
		}
		fmt.Fprintf(&files, "%s  %s", o.Name, theme.Subtle.Render(fmt.Sprintf("%d pages", o.Pages)))
	}
	if result.Merged != nil {
		fmt.Fprintf(&files, "\n%s  %s", theme.Success.Render(result.Merged.Name),
			theme.Subtle.Render(fmt.Sprintf("%d pages", result.Merged.Pages)))
	}
	b.WriteString(theme.Card.Render(files.String()))
	b.WriteString("\n")

	if result.MergeError != nil {
		b.WriteString(theme.Warning.Render(fmt.Sprintf("merge failed: %v", result.MergeError)))
		b.WriteString("\n")
	}
	if len(result.Skipped) > 0 {
		b.WriteString(theme.Subtle.Render(fmt.Sprintf("skipped %d non-PDF attachment(s)", len(result.Skipped))))
		b.WriteString("\n")
	}
	if len(result.Unmatched) > 0 {
		b.WriteString(theme.Warning.Render("index entries without a PDF: " + strings.Join(result.Unmatched, ", ")))
		b.WriteString("\n")
	}
	if len(result.Unindexed) > 0 {
		b.WriteString(theme.Warning.Render("PDFs missing from the index, placed last: " + strings.Join(result.Unindexed, ", ")))
		b.WriteString("\n")
	}
	if report.Written.Manifest != "" {
		fmt.Fprintf(&b, "%s %s\n", theme.Label.Render("manifest"), report.Written.Manifest)
	}
	return b.String()
}
