package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/goodnotes-pdf/internal/attachment"
	"github.com/a3tai/goodnotes-pdf/internal/extract"
	"github.com/a3tai/goodnotes-pdf/internal/output"
	"github.com/a3tai/goodnotes-pdf/internal/pipeline"
	"github.com/a3tai/goodnotes-pdf/internal/testutil"
)

var testBuild = BuildInfo{Version: "1.2.3", BuildTime: "2026-01-01", GitCommit: "abc123"}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd(testBuild)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeNotebook(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "Physics.goodnotes")
	data := testutil.BuildArchive(t,
		testutil.Entry{Name: "attachments/doc1", Body: testutil.PDF(200, 1)},
		testutil.Entry{Name: "attachments/doc2", Body: testutil.PDF(300, 1)},
		testutil.Entry{Name: "attachments/img1", Body: []byte("GIF89a")},
		testutil.Entry{Name: attachment.IndexPath, Body: []byte("attachments/doc2X\nattachments/doc1X\n")},
	)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeNotebook(t, dir)

	stdout, stderr, err := execute(t, "", "extract", path, "--workers", "2", "--loglevel", "error")
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, "Extracted 2 PDF(s)")
	assert.Contains(t, stdout, "index")
	assert.Contains(t, stdout, "merged.pdf")
	assert.Contains(t, stdout, "skipped 1 non-PDF attachment(s)")
	assert.Contains(t, stderr, "100%")

	for _, name := range []string{"doc1.pdf", "doc2.pdf", "merged.pdf"} {
		assert.FileExists(t, filepath.Join(dir, "Physics", name))
	}
}

func TestExtractCommand_Flags(t *testing.T) {
	dir := t.TempDir()
	path := writeNotebook(t, dir)
	out := filepath.Join(dir, "exports")

	stdout, stderr, err := execute(t, "", "extract", path, "-o", out, "--no-merge", "--manifest", "--loglevel", "error")
	require.NoError(t, err, stderr)

	assert.NotContains(t, stdout, "merged.pdf")
	assert.Contains(t, stdout, output.ManifestName)
	assert.FileExists(t, filepath.Join(out, "doc2.pdf"))
	assert.FileExists(t, filepath.Join(out, output.ManifestName))
	assert.NoFileExists(t, filepath.Join(out, pipeline.MergedName))

	// a second run refuses to replace the files unless asked to
	_, _, err = execute(t, "", "extract", path, "-o", out, "--no-merge", "--manifest", "--loglevel", "error")
	require.Error(t, err)

	_, stderr, err = execute(t, "", "extract", path, "-o", out, "--no-merge", "--manifest", "--overwrite", "--loglevel", "error")
	require.NoError(t, err, stderr)
}

func TestExtractCommand_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := execute(t, "", "extract")
	assert.Error(t, err)

	_, _, err = execute(t, "", "extract", filepath.Join(dir, "missing.goodnotes"), "--loglevel", "error")
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.goodnotes")
	require.NoError(t, os.WriteFile(broken, []byte("not a zip"), 0o644))
	_, stderr, err := execute(t, "", "extract", broken, "--loglevel", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ARCHIVE_CORRUPT")
	assert.Contains(t, stderr, "hint: check that the file is a complete .goodnotes export")

	_, _, err = execute(t, "", "extract", broken, "--loglevel", "verbose")
	assert.Error(t, err)
}

func TestMCPCommand(t *testing.T) {
	dir := t.TempDir()
	stdin := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"

	stdout, stderr, err := execute(t, stdin, "mcp", "--dir", dir, "--loglevel", "error")
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, `"version":"1.2.3"`)
	assert.Contains(t, stdout, "goodnotes_extract_pdfs")
	assert.Contains(t, stdout, "goodnotes_list_attachments")
	assert.Contains(t, stdout, "goodnotes_server_info")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "", "version")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Version: 1.2.3")
	assert.Contains(t, stdout, "Build Time: 2026-01-01")
	assert.Contains(t, stdout, "Git Commit: abc123")
}

func TestRenderProgress(t *testing.T) {
	line := renderProgress(DefaultTheme(), pipeline.Progress{Phase: pipeline.PhaseExtract, Percent: 50, Done: 2, Total: 4})
	assert.Contains(t, line, "extract")
	assert.Contains(t, line, " 50%")
	assert.Contains(t, line, "2/4")
	assert.Equal(t, barWidth/2, strings.Count(line, "█"))
}

func TestProgressPrinter_Throttles(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf, DefaultTheme())

	for i := 0; i <= 10; i++ {
		p.Update(pipeline.Progress{Phase: pipeline.PhaseExtract, Percent: float64(i) * 0.5})
	}
	p.Update(pipeline.Progress{Phase: pipeline.PhaseOutputs, Percent: 75})
	p.Update(pipeline.Progress{Phase: pipeline.PhaseDone, Percent: 100})
	p.Finish()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
}

func TestRenderReport_MergeFailure(t *testing.T) {
	report := &extract.Report{
		Archive: "/notes/Physics.goodnotes",
		Result: &pipeline.Result{
			Outputs:     []pipeline.Output{{Name: "doc1.pdf", Pages: 1}, {Name: "doc2.pdf", Pages: 2}},
			OrderSource: attachment.OrderFallback,
			Unmatched:   []string{"attachments/doc9"},
			MergeError:  errors.New("[MERGE_FAILURE] cannot load document"),
		},
		Written: &output.Written{Directory: "/notes/Physics"},
	}

	text := renderReport(DefaultTheme(), report)
	assert.Contains(t, text, "Extracted 2 PDF(s)")
	assert.Contains(t, text, "fallback")
	assert.Contains(t, text, "merge failed: [MERGE_FAILURE] cannot load document")
	assert.Contains(t, text, "attachments/doc9")
	assert.NotContains(t, text, "merged.pdf")
}

func TestRenderReport_Unindexed(t *testing.T) {
	report := &extract.Report{
		Archive: "/notes/Physics.goodnotes",
		Result: &pipeline.Result{
			Outputs:     []pipeline.Output{{Name: "doc2.pdf", Pages: 1}, {Name: "doc1.pdf", Pages: 1}},
			Merged:      &pipeline.Output{Name: pipeline.MergedName, Pages: 2},
			OrderSource: attachment.OrderFromIndex,
			Unindexed:   []string{"attachments/doc1"},
		},
		Written: &output.Written{Directory: "/notes/Physics"},
	}

	text := renderReport(DefaultTheme(), report)
	assert.Contains(t, text, "PDFs missing from the index, placed last: attachments/doc1")
	assert.NotContains(t, text, "index entries without a PDF")
}
