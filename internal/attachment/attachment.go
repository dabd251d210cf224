// Package attachment classifies GoodNotes attachment entries and recovers
// their display order from the archive's attachment index record.
package attachment

import "strings"

const (
	// Prefix is the archive folder holding attachment blobs.
	Prefix = "attachments/"

	// IndexPath is the archive entry holding the attachment index record.
	IndexPath = "index.attachments.pb"
)

// Attachment is an archive entry that passed the PDF signature check
type Attachment struct {
	Path    string // full archive path, including Prefix
	Content []byte
}

// Name returns the entry path relative to the attachments folder
func (a Attachment) Name() string {
	return strings.TrimPrefix(a.Path, Prefix)
}

// Set holds validated attachments keyed by path, remembering listing order
type Set struct {
	order []string
	byKey map[string]Attachment
}

// NewSet creates an empty attachment set
func NewSet() *Set {
	return &Set{byKey: make(map[string]Attachment)}
}

// Add inserts an attachment. Re-adding a path replaces the content but keeps its position.
func (s *Set) Add(a Attachment) {
	if _, ok := s.byKey[a.Path]; !ok {
		s.order = append(s.order, a.Path)
	}
	s.byKey[a.Path] = a
}

// Get looks up an attachment by its full archive path
func (s *Set) Get(path string) (Attachment, bool) {
	a, ok := s.byKey[path]
	return a, ok
}

// Len returns the number of attachments in the set
func (s *Set) Len() int {
	return len(s.order)
}

// Ordered returns the attachments in listing order
func (s *Set) Ordered() []Attachment {
	out := make([]Attachment, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, s.byKey[p])
	}
	return out
}
