// Package extract ties archive loading, the extraction pipeline and the
// output writer together for the command line and the MCP server.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/a3tai/goodnotes-pdf/internal/archive"
	"github.com/a3tai/goodnotes-pdf/internal/config"
	apperrors "github.com/a3tai/goodnotes-pdf/internal/errors"
	"github.com/a3tai/goodnotes-pdf/internal/output"
	"github.com/a3tai/goodnotes-pdf/internal/pipeline"
)

// Request describes one archive to extract
type Request struct {
	Archive   string // path of the .goodnotes export
	OutputDir string // empty selects DefaultOutputDir
	Merge     bool
}

// Report is the outcome of a successful extraction
type Report struct {
	Archive string
	Result  *pipeline.Result
	Written *output.Written
}

// Service extracts archives found on a filesystem
type Service struct {
	fs       afero.Fs
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	logger   *logrus.Logger
}

// NewService creates a service reading archives from and writing PDFs to fs
func NewService(fs afero.Fs, cfg *config.Config, logger *logrus.Logger) *Service {
	opts := pipeline.DefaultOptions()
	opts.Workers = cfg.Workers
	opts.MaxEntrySize = cfg.MaxEntrySize
	opts.Merge = cfg.Merge

	return &Service{
		fs:       fs,
		cfg:      cfg,
		pipeline: pipeline.New(opts, logger),
		logger:   logger,
	}
}

// Extract runs the pipeline on req.Archive and writes its outputs
func (s *Service) Extract(ctx context.Context, req Request, progress pipeline.ProgressFunc) (*Report, error) {
	if req.Archive == "" {
		return nil, apperrors.New(apperrors.ErrorTypeInvalidInput, "archive path cannot be empty")
	}

	data, err := archive.Load(s.fs, req.Archive, s.cfg.MaxArchiveSize)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Run(ctx, data, progress, pipeline.WithMerge(req.Merge))
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", req.Archive, err)
	}

	dir := req.OutputDir
	if dir == "" {
		dir = DefaultOutputDir(req.Archive)
	}

	writer := output.NewWriter(s.fs, output.Options{
		Overwrite: s.cfg.Overwrite,
		Manifest:  s.cfg.WriteManifest,
	}, s.logger.WithField("run_id", result.RunID))

	written, err := writer.Write(dir, req.Archive, result)
	if err != nil {
		return nil, fmt.Errorf("failed to write outputs: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":  result.RunID,
		"archive": req.Archive,
		"dir":     dir,
		"files":   len(written.Files),
	}).Info("Wrote extracted PDFs")

	return &Report{Archive: req.Archive, Result: result, Written: written}, nil
}

// Inspect classifies and orders the attachments of an archive without
// merging or writing anything
func (s *Service) Inspect(ctx context.Context, archivePath string) (*pipeline.Result, error) {
	if archivePath == "" {
		return nil, apperrors.New(apperrors.ErrorTypeInvalidInput, "archive path cannot be empty")
	}

	data, err := archive.Load(s.fs, archivePath, s.cfg.MaxArchiveSize)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Run(ctx, data, nil, pipeline.WithMerge(false))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", archivePath, err)
	}
	return result, nil
}

// DefaultOutputDir is a directory next to the archive named after it,
// e.g. notes/Physics.goodnotes -> notes/Physics
func DefaultOutputDir(archivePath string) string {
	base := filepath.Base(archivePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == base {
		name += "_pdfs"
	}
	return filepath.Join(filepath.Dir(archivePath), name)
}
