package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/a3tai/goodnotes-pdf/internal/errors"
	"github.com/a3tai/goodnotes-pdf/internal/testutil"
)

func newTestMerger(t *testing.T) *Merger {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return NewMerger(2, logger)
}

func TestMerger_MergeKeepsOrder(t *testing.T) {
	merger := newTestMerger(t)
	docs := []Document{
		{Name: "attachments/doc2", Content: testutil.PDF(300, 2)},
		{Name: "attachments/doc1", Content: testutil.PDF(200, 1)},
		{Name: "attachments/doc3", Content: testutil.PDF(400, 1)},
	}

	var progress [][2]int
	merged, err := merger.Merge(context.Background(), docs, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	require.NoError(t, err)
	require.NotEmpty(t, merged)

	assert.Equal(t, []float64{300, 300, 200, 400}, testutil.PageWidths(t, merged))
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)

	pages, err := NewInspector().PageCount(merged)
	require.NoError(t, err)
	assert.Equal(t, 4, pages)
}

func TestMerger_ManyDocumentsSingleOutput(t *testing.T) {
	merger := newTestMerger(t)

	var docs []Document
	var want []float64
	for i := 0; i < 8; i++ {
		width := 100 + 10*i
		content := testutil.PDF(width, 1)
		docs = append(docs, Document{Name: fmt.Sprintf("attachments/doc%d", i), Content: content})
		want = append(want, float64(width))
	}
	originals := make([][]byte, len(docs))
	for i, d := range docs {
		originals[i] = bytes.Clone(d.Content)
	}

	merged, err := merger.Merge(context.Background(), docs, nil)
	require.NoError(t, err)
	assert.Equal(t, want, testutil.PageWidths(t, merged))
	assert.Equal(t, 1, bytes.Count(merged, []byte("%%EOF")), "a single revision")

	for i, d := range docs {
		assert.Equal(t, originals[i], d.Content, "source %d is left untouched", i)
	}

	// the output is itself a valid merge source
	again, err := merger.Merge(context.Background(), []Document{
		{Name: "merged", Content: merged},
		{Name: "attachments/doc8", Content: testutil.PDF(500, 1)},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, append(want, 500), testutil.PageWidths(t, again))
}

func TestMerger_RequiresTwoDocuments(t *testing.T) {
	merger := newTestMerger(t)

	_, err := merger.Merge(context.Background(), []Document{{Name: "a", Content: testutil.PDF(200, 1)}}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMergeFailure))

	_, err = merger.Merge(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestMerger_UnparsableSource(t *testing.T) {
	merger := newTestMerger(t)
	docs := []Document{
		{Name: "attachments/good", Content: testutil.PDF(200, 1)},
		{Name: "attachments/broken", Content: testutil.BrokenPDF()},
	}

	merged, err := merger.Merge(context.Background(), docs, nil)
	assert.Nil(t, merged)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMergeFailure))
	assert.Contains(t, err.Error(), "attachments/broken")
}

func TestMerger_Cancelled(t *testing.T) {
	merger := newTestMerger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs := []Document{
		{Name: "a", Content: testutil.PDF(200, 1)},
		{Name: "b", Content: testutil.PDF(300, 1)},
	}
	_, err := merger.Merge(ctx, docs, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMergeFailure))
}

func TestInspector_PageCount(t *testing.T) {
	inspector := NewInspector()

	pages, err := inspector.PageCount(testutil.PDF(200, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, pages)

	_, err = inspector.PageCount(testutil.BrokenPDF())
	assert.Error(t, err)

	_, err = inspector.PageCount([]byte("%PDF-"))
	assert.Error(t, err)
}
