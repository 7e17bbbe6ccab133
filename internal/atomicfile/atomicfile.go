// Package atomicfile writes files and whole directories so that readers never
// observe a partial result.
package atomicfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrTargetExists is returned when a staged directory would replace an existing path.
var ErrTargetExists = errors.New("target already exists")

// WriteFile writes data to a temporary file next to path and renames it into
// place. A zero perm keeps the mode of an existing file, or uses 0644.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if perm == 0 {
		perm = 0o644
		if st, err := os.Stat(path); err == nil {
			perm = st.Mode().Perm()
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	done := false
	defer func() {
		if !done {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	_ = tmp.Chmod(perm)
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Windows refuses to rename over an existing file.
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename temp file: %w", err)
		}
	}
	done = true
	return nil
}

// Stage collects files in a hidden sibling directory of target and publishes
// them all at once with Promote. Until then target is untouched.
type Stage struct {
	target string
	dir    string
	closed bool
}

// NewStage prepares a staging directory for target, which must not exist yet.
// The parent of target is created if needed.
func NewStage(target string) (*Stage, error) {
	target = filepath.Clean(target)
	if _, err := os.Lstat(target); err == nil {
		return nil, fmt.Errorf("%s: %w", target, ErrTargetExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create parent directory: %w", err)
	}
	dir, err := os.MkdirTemp(parent, "."+filepath.Base(target)+".staging-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Stage{target: target, dir: dir}, nil
}

// Dir returns the staging directory.
func (s *Stage) Dir() string {
	return s.dir
}

// Target returns the final location.
func (s *Stage) Target() string {
	return s.target
}

// WriteFile writes rel (slash-separated, relative to the stage) with perm.
func (s *Stage) WriteFile(rel string, data []byte, perm os.FileMode) error {
	if s.closed {
		return errors.New("stage already closed")
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid staged path %q", rel)
	}
	path := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	return os.WriteFile(path, data, perm)
}

// Promote renames the staging directory to the target.
func (s *Stage) Promote() error {
	if s.closed {
		return errors.New("stage already closed")
	}
	if _, err := os.Lstat(s.target); err == nil {
		return fmt.Errorf("%s: %w", s.target, ErrTargetExists)
	}
	if err := os.Rename(s.dir, s.target); err != nil {
		return fmt.Errorf("promote staging directory: %w", err)
	}
	s.closed = true
	return nil
}

// Abort discards the staging directory. It is a no-op after Promote.
func (s *Stage) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return os.RemoveAll(s.dir)
}
