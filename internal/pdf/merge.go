package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	apperrors "github.com/a3tai/goodnotes-pdf/internal/errors"
)

// Document is one source document for a merge
type Document struct {
	Name    string
	Content []byte
}

// MergeProgressFunc is called after each document's pages are appended
type MergeProgressFunc func(done, total int)

// Merger concatenates the pages of several PDF documents using pdfcpu
type Merger struct {
	workers int
	logger  logrus.FieldLogger
}

// NewMerger creates a merger that loads up to workers documents concurrently
func NewMerger(workers int, logger logrus.FieldLogger) *Merger {
	// pdfcpu would otherwise create and read a per-user config directory
	api.DisableConfigDir()

	if workers < 1 {
		workers = 1
	}
	return &Merger{
		workers: workers,
		logger:  logger,
	}
}

// configuration returns a fresh relaxed pdfcpu configuration per call.
// Bookmarks are not generated for merged documents.
func (m *Merger) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.MERGECREATE
	conf.ValidationMode = model.ValidationRelaxed
	conf.CreateBookmarks = false
	return conf
}

// Merge appends the pages of docs, in order, into one document.
//
// Every source is parsed once, concurrently, so a malformed document fails
// the merge before any pages are moved. The sources are then folded into the
// first one and the result is serialized once.
func (m *Merger) Merge(ctx context.Context, docs []Document, onMerged MergeProgressFunc) ([]byte, error) {
	if len(docs) < 2 {
		return nil, apperrors.New(apperrors.ErrorTypeMergeFailure,
			fmt.Sprintf("merge needs at least 2 documents, got %d", len(docs)))
	}
	if onMerged == nil {
		onMerged = func(int, int) {}
	}

	sources, err := m.load(ctx, docs)
	if err != nil {
		return nil, err
	}

	total := len(docs)
	dest := sources[0]
	dest.EnsureVersionForWriting()
	onMerged(1, total)

	for i := 1; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrorTypeMergeFailure, err, "merge cancelled")
		}

		src := sources[i]
		if dest.XRefTable.Version() < model.V20 && src.XRefTable.Version() == model.V20 {
			return nil, apperrors.Wrap(apperrors.ErrorTypeMergeFailure, pdfcpu.ErrUnsupportedVersion,
				"cannot append document").WithPath(docs[i].Name)
		}
		if err := pdfcpu.MergeXRefTables(docs[i].Name, src, dest, false, false); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrorTypeMergeFailure, err, "cannot append document").
				WithPath(docs[i].Name)
		}
		// src now shares objects with dest and must not be reused
		sources[i] = nil

		m.logger.WithFields(logrus.Fields{
			"document": docs[i].Name,
			"merged":   i + 1,
			"total":    total,
		}).Debug("Appended document pages")
		onMerged(i+1, total)
	}

	var out bytes.Buffer
	if err := api.WriteContext(dest, &out); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeMergeFailure, err, "cannot write merged document")
	}
	return out.Bytes(), nil
}

// load parses and validates every document. Slot i of the result holds the
// context of docs[i].
func (m *Merger) load(ctx context.Context, docs []Document) ([]*model.Context, error) {
	sources := make([]*model.Context, len(docs))

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError().WithMaxGoroutines(m.workers)
	for i, doc := range docs {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return apperrors.Wrap(apperrors.ErrorTypeMergeFailure, err, "merge cancelled")
			}
			pdfCtx, err := api.ReadAndValidate(bytes.NewReader(doc.Content), m.configuration())
			if err != nil {
				return apperrors.Wrap(apperrors.ErrorTypeMergeFailure, err, "cannot load document").WithPath(doc.Name)
			}
			if err := pdfCtx.EnsurePageCount(); err != nil {
				return apperrors.Wrap(apperrors.ErrorTypeMergeFailure, err, "cannot count pages").WithPath(doc.Name)
			}
			sources[i] = pdfCtx
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}
