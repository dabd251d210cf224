// Package output writes the PDFs of an extraction run to a filesystem.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/a3tai/goodnotes-pdf/internal/pipeline"
)

const (
	// DefaultDirPerm is used when creating the output directory
	DefaultDirPerm = 0o750

	// DefaultFilePerm is used for written PDFs and the manifest
	DefaultFilePerm = 0o644
)

// Options configures a Writer
type Options struct {
	Overwrite bool // replace files that already exist
	Manifest  bool // also write manifest.yaml
}

// Writer stores run results below a directory of an afero filesystem
type Writer struct {
	fs     afero.Fs
	opts   Options
	logger logrus.FieldLogger
}

// Written lists the files a Write call produced, in presentation order
type Written struct {
	Directory string
	Files     []string
	Manifest  string
}

// NewWriter creates a writer on fs
func NewWriter(fs afero.Fs, opts Options, logger logrus.FieldLogger) *Writer {
	return &Writer{fs: fs, opts: opts, logger: logger}
}

// Write stores each output and the merged document in dir. source names
// the archive the result came from and is only recorded in the manifest.
func (w *Writer) Write(dir, source string, result *pipeline.Result) (*Written, error) {
	if result == nil {
		return nil, fmt.Errorf("result cannot be nil")
	}
	if dir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	if err := w.fs.MkdirAll(dir, DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("cannot create output directory %s: %w", dir, err)
	}

	outputs := append([]pipeline.Output{}, result.Outputs...)
	if result.Merged != nil {
		outputs = append(outputs, *result.Merged)
	}

	// Check everything first so a refused overwrite leaves the directory untouched.
	seen := make(map[string]bool, len(outputs))
	for _, o := range outputs {
		name, err := SafeName(o.Name)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate output name: %s", name)
		}
		seen[name] = true
		if err := w.checkTarget(filepath.Join(dir, name)); err != nil {
			return nil, err
		}
	}
	if w.opts.Manifest {
		if err := w.checkTarget(filepath.Join(dir, ManifestName)); err != nil {
			return nil, err
		}
	}

	written := &Written{Directory: dir}
	for _, o := range outputs {
		name, _ := SafeName(o.Name)
		path := filepath.Join(dir, name)
		if err := afero.WriteFile(w.fs, path, o.Content, DefaultFilePerm); err != nil {
			return written, fmt.Errorf("cannot write %s: %w", path, err)
		}
		written.Files = append(written.Files, path)
		w.logger.WithFields(logrus.Fields{"file": path, "size": len(o.Content)}).Debug("Wrote PDF")
	}

	if w.opts.Manifest {
		path := filepath.Join(dir, ManifestName)
		data, err := NewManifest(source, result).Marshal()
		if err != nil {
			return written, err
		}
		if err := afero.WriteFile(w.fs, path, data, DefaultFilePerm); err != nil {
			return written, fmt.Errorf("cannot write %s: %w", path, err)
		}
		written.Manifest = path
	}

	return written, nil
}

func (w *Writer) checkTarget(path string) error {
	if w.opts.Overwrite {
		return nil
	}
	exists, err := afero.Exists(w.fs, path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if exists {
		return fmt.Errorf("file already exists: %s (use overwrite to replace it)", path)
	}
	return nil
}

// SafeName reduces an output name to a single path element
func SafeName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))
	if name == "" || name == "." || name == ".." || name == string(os.PathSeparator) {
		return "", fmt.Errorf("invalid output name: %q", name)
	}
	return name, nil
}
