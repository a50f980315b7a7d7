package domain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Vovarama1992/transcriber/internal/models"
)

const workspacePattern = "transcribe-*"

// Workspace is a per-request temp directory. Everything a request downloads
// lives under Dir and goes away with Release.
type Workspace struct {
	Dir string

	removeAll func(path string) error
	remove    func(name string) error
	readDir   func(name string) ([]os.DirEntry, error)
}

// AcquireWorkspace creates a uniquely named directory under root
// (os.TempDir when root is empty).
func AcquireWorkspace(root string) (*Workspace, error) {
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace root: %w", err)
		}
	}

	dir, err := os.MkdirTemp(root, workspacePattern)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return &Workspace{
		Dir:       dir,
		removeAll: os.RemoveAll,
		remove:    os.Remove,
		readDir:   os.ReadDir,
	}, nil
}

// Release deletes the resolved file, any leftovers and then the directory.
// It keeps going after failures and returns all of them joined.
func (w *Workspace) Release(audio *models.ResolvedAudio) error {
	if w == nil || w.Dir == "" {
		return nil
	}

	var errs []error

	if audio != nil && audio.FilePath != "" {
		if err := w.remove(audio.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove audio: %w", err))
		}
	}

	entries, err := w.readDir(w.Dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("list workspace: %w", err))
	}
	for _, e := range entries {
		if err := w.removeAll(filepath.Join(w.Dir, e.Name())); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", e.Name(), err))
		}
	}

	if err := w.removeAll(w.Dir); err != nil {
		errs = append(errs, fmt.Errorf("remove workspace: %w", err))
	}

	return errors.Join(errs...)
}
