// Package archive lists and reads entries of a GoodNotes export container.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"

	apperrors "github.com/a3tai/goodnotes-pdf/internal/errors"
)

// DefaultMaxEntrySize bounds how much of a single entry is decompressed
const DefaultMaxEntrySize = int64(256 * 1024 * 1024)

// Archive is an opened, read-only export container
type Archive struct {
	reader       *zip.Reader
	files        map[string]*zip.File
	maxEntrySize int64
}

// Entry is one file inside the archive. Content is read lazily.
type Entry struct {
	Path string // full path including the listed prefix
	Name string // path relative to the listed prefix
	Size int64  // uncompressed size as declared by the archive

	file         *zip.File
	maxEntrySize int64
}

// Option configures an Archive
type Option func(*Archive)

// WithMaxEntrySize sets the largest entry that Read will return
func WithMaxEntrySize(n int64) Option {
	return func(a *Archive) {
		if n > 0 {
			a.maxEntrySize = n
		}
	}
}

// Open decodes data as an export container
func Open(data []byte, opts ...Option) (*Archive, error) {
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.ErrorTypeArchiveCorrupt, "archive is empty")
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeArchiveCorrupt, err, "")
	}

	a := &Archive{
		reader:       reader,
		files:        make(map[string]*zip.File, len(reader.File)),
		maxEntrySize: DefaultMaxEntrySize,
	}
	for _, opt := range opts {
		opt(a)
	}
	for _, f := range reader.File {
		a.files[f.Name] = f
	}
	return a, nil
}

// Load reads an archive file from fs, refusing files larger than maxSize
func Load(fs afero.Fs, path string, maxSize int64) ([]byte, error) {
	info, err := fs.Stat(path)
	if os.IsNotExist(err) {
		return nil, apperrors.New(apperrors.ErrorTypeInvalidInput, "file does not exist").WithPath(path)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeExtractionFailed, err, "cannot access file").WithPath(path)
	}
	if info.IsDir() {
		return nil, apperrors.New(apperrors.ErrorTypeInvalidInput, "path is a directory, not a file").WithPath(path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, apperrors.New(apperrors.ErrorTypeInvalidInput,
			fmt.Sprintf("file too large: %d bytes (max: %d bytes)", info.Size(), maxSize)).WithPath(path)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeExtractionFailed, err, "error reading file").WithPath(path)
	}
	return data, nil
}

// List returns the file entries under prefix in archive order.
// The prefix's own directory marker and nested directory markers are skipped.
// Archive order carries no meaning for attachment ordering.
func (a *Archive) List(prefix string) []Entry {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var entries []Entry
	for _, f := range a.reader.File {
		if !strings.HasPrefix(f.Name, prefix) || f.Name == prefix {
			continue
		}
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		entries = append(entries, Entry{
			Path:         f.Name,
			Name:         strings.TrimPrefix(f.Name, prefix),
			Size:         int64(f.UncompressedSize64),
			file:         f,
			maxEntrySize: a.maxEntrySize,
		})
	}
	return entries
}

// ReadFile reads a single entry by its full path. The boolean is false when no such entry exists.
func (a *Archive) ReadFile(path string) ([]byte, bool, error) {
	f, ok := a.files[path]
	if !ok {
		return nil, false, nil
	}
	data, err := readZipFile(f, a.maxEntrySize)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

// Read decompresses the entry's content
func (e Entry) Read() ([]byte, error) {
	if e.file == nil {
		return nil, apperrors.New(apperrors.ErrorTypeExtractionFailed, "entry is not backed by an archive").WithPath(e.Path)
	}
	return readZipFile(e.file, e.maxEntrySize)
}

func readZipFile(file *zip.File, limit int64) ([]byte, error) {
	if limit > 0 && file.UncompressedSize64 > uint64(limit) {
		return nil, apperrors.New(apperrors.ErrorTypeEntryTooLarge,
			fmt.Sprintf("entry declares %d bytes", file.UncompressedSize64)).
			WithPath(file.Name).WithContext(sizeLimit(limit))
	}

	reader, err := file.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeArchiveCorrupt, err, "cannot open entry").WithPath(file.Name)
	}
	defer func() {
		_ = reader.Close()
	}()

	var src io.Reader = reader
	if limit > 0 {
		src = io.LimitReader(reader, limit+1)
	}
	payload, err := io.ReadAll(src)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeArchiveCorrupt, err, "cannot decompress entry").WithPath(file.Name)
	}
	if limit > 0 && int64(len(payload)) > limit {
		return nil, apperrors.New(apperrors.ErrorTypeEntryTooLarge, "entry is larger than it declares").
			WithPath(file.Name).WithContext(sizeLimit(limit))
	}
	return payload, nil
}

func sizeLimit(limit int64) string {
	return fmt.Sprintf("limit is %d bytes", limit)
}
