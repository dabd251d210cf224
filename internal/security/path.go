package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines archive and output paths to a root directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at root. The root does not need
// to exist yet.
func NewPathValidator(root string) (*PathValidator, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute root directory
func (v *PathValidator) Root() string {
	return v.root
}

// SanitizePath strips NUL bytes, resolves path against the root when it is
// relative and checks that the result stays inside the root
func (v *PathValidator) SanitizePath(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	path = filepath.Clean(path)

	if err := v.ValidatePath(path); err != nil {
		return "", err
	}
	return path, nil
}

// ValidatePath checks that path, after resolving symlinks, is inside the root
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	within, err := v.IsWithinRoot(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return fmt.Errorf("path is outside configured directory: %s", path)
	}
	return nil
}

// ValidateDirectory checks that dir is inside the root and, when it exists, is a directory
func (v *PathValidator) ValidateDirectory(dir string) error {
	if err := v.ValidatePath(dir); err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir)
	}
	return nil
}

// IsWithinRoot reports whether path is the root or below it. Both the literal
// and the symlink-resolved forms must stay within the root.
func (v *PathValidator) IsWithinRoot(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	abs = filepath.Clean(abs)

	realRoot := resolveExisting(v.root)
	realPath := resolveExisting(abs)

	literalOK := isBelow(abs, v.root) || isBelow(abs, realRoot)
	realOK := isBelow(realPath, v.root) || isBelow(realPath, realRoot)
	return literalOK && realOK, nil
}

// resolveExisting evaluates symlinks in the longest existing prefix of path
func resolveExisting(path string) string {
	rest := ""
	current := path
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path
		}
		rest = filepath.Join(filepath.Base(current), rest)
		current = parent
	}
}

func isBelow(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
