// Package pipeline runs one GoodNotes attachment extraction end to end.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/a3tai/goodnotes-pdf/internal/archive"
	"github.com/a3tai/goodnotes-pdf/internal/attachment"
	apperrors "github.com/a3tai/goodnotes-pdf/internal/errors"
	"github.com/a3tai/goodnotes-pdf/internal/pdf"
)

// Options configures a Pipeline
type Options struct {
	Workers      int   // concurrent entry reads and document loads
	MaxEntrySize int64 // largest attachment that will be decompressed
	Merge        bool  // build merged.pdf when two or more PDFs exist
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() Options {
	return Options{
		Workers:      runtime.NumCPU(),
		MaxEntrySize: archive.DefaultMaxEntrySize,
		Merge:        true,
	}
}

// RunOption overrides Options for a single run
type RunOption func(*Options)

// WithMerge enables or disables building the combined document for one run
func WithMerge(enabled bool) RunOption {
	return func(o *Options) {
		o.Merge = enabled
	}
}

// Pipeline extracts, orders and merges PDF attachments. It holds no per-run
// state, so one Pipeline may serve runs from several goroutines.
type Pipeline struct {
	opts      Options
	merger    *pdf.Merger
	inspector *pdf.Inspector
	logger    *logrus.Logger
}

// New creates a pipeline
func New(opts Options, logger *logrus.Logger) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxEntrySize <= 0 {
		opts.MaxEntrySize = archive.DefaultMaxEntrySize
	}
	return &Pipeline{
		opts:      opts,
		merger:    pdf.NewMerger(opts.Workers, logger),
		inspector: pdf.NewInspector(),
		logger:    logger,
	}
}

// Run processes one archive.
//
// ArchiveCorrupt, NoAttachmentsFound and NoPdfAttachmentsFound abort the run
// with no result. A merge failure does not: it is recorded in
// Result.MergeError and the individual outputs are returned.
func (p *Pipeline) Run(ctx context.Context, data []byte, progress ProgressFunc, runOpts ...RunOption) (result *Result, err error) {
	opts := p.opts
	for _, o := range runOpts {
		o(&opts)
	}

	runID := uuid.NewString()
	log := p.logger.WithField("run_id", runID)
	tracker := newProgressTracker(progress)

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Extraction run failed unexpectedly")
			result = nil
			err = apperrors.New(apperrors.ErrorTypeExtractionFailed, fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	arc, err := archive.Open(data, archive.WithMaxEntrySize(opts.MaxEntrySize))
	if err != nil {
		log.WithError(err).Warn("Failed to open archive")
		return nil, err
	}

	entries := arc.List(attachment.Prefix)
	if len(entries) == 0 {
		return nil, apperrors.New(apperrors.ErrorTypeNoAttachmentsFound, "")
	}
	log.WithField("entries", len(entries)).Debug("Listed attachment entries")
	tracker.report(PhaseExtract, 0, 0, len(entries))

	// The index record is independent of the attachments and is parsed alongside them.
	indexCh := make(chan []string, 1)
	go func() {
		indexCh <- p.readIndex(arc, log)
	}()

	classified, err := p.classify(ctx, entries, opts.Workers, tracker)
	ordered := <-indexCh
	if err != nil {
		return nil, err
	}

	result = &Result{RunID: runID, IndexPaths: len(ordered)}
	set := attachment.NewSet()
	for i, entry := range entries {
		content := classified[i]
		isPDF := attachment.IsPDF(content)
		result.Entries = append(result.Entries, EntryReport{Path: entry.Path, Size: int64(len(content)), IsPDF: isPDF})
		if !isPDF {
			result.Skipped = append(result.Skipped, entry.Path)
			continue
		}
		set.Add(attachment.Attachment{Path: entry.Path, Content: content})
	}
	if len(result.Skipped) > 0 {
		log.WithField("skipped", result.Skipped).Debug("Skipped entries without a PDF signature")
	}
	if set.Len() == 0 {
		return nil, apperrors.New(apperrors.ErrorTypeNoPDFAttachmentsFound, "")
	}

	rec := attachment.Reconcile(set, ordered, log)
	result.OrderSource = rec.Source
	result.Unmatched = rec.Unmatched
	result.Unindexed = rec.Unindexed

	names := newNameSet(MergedName)
	for _, att := range rec.Order {
		o := p.output(att, log)
		o.Name = names.claim(o.Name)
		result.Outputs = append(result.Outputs, o)
	}
	tracker.report(PhaseOutputs, outputsEnd, len(result.Outputs), len(result.Outputs))

	log.WithFields(logrus.Fields{
		"pdfs":         len(result.Outputs),
		"order_source": result.OrderSource,
	}).Info("Extracted PDF attachments")

	if opts.Merge && len(result.Outputs) > 1 {
		p.merge(ctx, result, tracker, log)
	}

	tracker.report(PhaseDone, mergeEnd, len(result.Outputs), len(result.Outputs))
	return result, nil
}

// classify reads every entry concurrently. Each slot of the returned slice
// holds the content of the entry at the same index.
func (p *Pipeline) classify(ctx context.Context, entries []archive.Entry, workers int, tracker *progressTracker) ([][]byte, error) {
	contents := make([][]byte, len(entries))
	var done atomic.Int64

	wp := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError().WithMaxGoroutines(workers)
	for i, entry := range entries {
		wp.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return apperrors.Wrap(apperrors.ErrorTypeExtractionFailed, err, "extraction cancelled")
			}
			content, err := entry.Read()
			if errors.Is(err, apperrors.ErrEntryTooLarge) {
				return err
			}
			if err != nil {
				return apperrors.Wrap(apperrors.ErrorTypeExtractionFailed, err, "error reading attachment").WithPath(entry.Path)
			}
			contents[i] = content

			n := int(done.Add(1))
			tracker.report(PhaseExtract, span(0, extractEnd, n, len(entries)), n, len(entries))
			return nil
		})
	}
	if err := wp.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}

// readIndex recovers the ordered attachment paths. Any failure degrades to
// "no ordering information".
func (p *Pipeline) readIndex(arc *archive.Archive, log logrus.FieldLogger) (paths []string) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Warn("Failed to parse attachment index, using archive order")
			paths = nil
		}
	}()

	raw, ok, err := arc.ReadFile(attachment.IndexPath)
	if err != nil {
		log.WithError(err).Warn("Failed to read attachment index, using archive order")
		return nil
	}
	if !ok {
		log.Debug("Archive has no attachment index, using archive order")
		return nil
	}

	paths = attachment.ParseIndex(raw)
	if len(paths) == 0 {
		log.Debug("Attachment index lists no attachment paths, using archive order")
	}
	return paths
}

func (p *Pipeline) output(att attachment.Attachment, log logrus.FieldLogger) Output {
	pages, err := p.inspector.PageCount(att.Content)
	if err != nil {
		log.WithError(err).WithField("path", att.Path).Debug("Cannot count pages")
	}
	return Output{
		Name:    OutputName(att),
		Source:  att.Path,
		Pages:   pages,
		Size:    int64(len(att.Content)),
		Content: att.Content,
	}
}

func (p *Pipeline) merge(ctx context.Context, result *Result, tracker *progressTracker, log logrus.FieldLogger) {
	docs := make([]pdf.Document, 0, len(result.Outputs))
	for _, o := range result.Outputs {
		docs = append(docs, pdf.Document{Name: o.Source, Content: o.Content})
	}

	merged, err := p.merger.Merge(ctx, docs, func(done, total int) {
		tracker.report(PhaseMerge, span(outputsEnd, mergeEnd, done, total), done, total)
	})
	if err != nil {
		log.WithError(err).Warn("Failed to build merged PDF")
		result.MergeError = err
		return
	}

	pages, _ := p.inspector.PageCount(merged)
	result.Merged = &Output{
		Name:    MergedName,
		Pages:   pages,
		Size:    int64(len(merged)),
		Content: merged,
	}
}

// OutputName is the download name for an attachment: its path below the
// attachments folder with a .pdf extension. Nested folders are flattened.
// Names are made unique per run by the pipeline, not here.
func OutputName(att attachment.Attachment) string {
	return strings.ReplaceAll(att.Name(), "/", "_") + pdfExt
}

const pdfExt = ".pdf"

// nameSet hands out output names that are unique within a run, compared
// case-insensitively so they also stay distinct on such filesystems
type nameSet map[string]bool

func newNameSet(reserved ...string) nameSet {
	ns := make(nameSet)
	for _, name := range reserved {
		ns[strings.ToLower(name)] = true
	}
	return ns
}

// claim returns name, or name with a "-2", "-3", ... suffix before the
// extension when it is already taken
func (ns nameSet) claim(name string) string {
	base := strings.TrimSuffix(name, pdfExt)
	candidate := name
	for i := 2; ns[strings.ToLower(candidate)]; i++ {
		candidate = fmt.Sprintf("%s-%d%s", base, i, pdfExt)
	}
	ns[strings.ToLower(candidate)] = true
	return candidate
}
