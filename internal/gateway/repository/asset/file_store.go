package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/zlecenia/c20scratch/internal/safeio"
)

// FileStore keeps assets as plain files in one directory.
type FileStore struct {
	root *safeio.SafeFS
}

func NewFileStore(root *safeio.SafeFS) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) Put(_ context.Context, filename string, content []byte) error {
	if s == nil || s.root == nil {
		return fmt.Errorf("store is nil")
	}
	if err := checkName(filename); err != nil {
		return err
	}
	return s.root.WriteFile(filename, content, 0o644)
}

func (s *FileStore) Get(_ context.Context, filename string) ([]byte, error) {
	if s == nil || s.root == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := checkName(filename); err != nil {
		return nil, ErrNotFound
	}
	data, err := s.root.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, safeio.ErrOutsideRoot) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	if s == nil || s.root == nil {
		return nil, fmt.Errorf("store is nil")
	}
	entries, err := s.root.ReadDir(".")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// checkName accepts only a single path element.
func checkName(filename string) error {
	filename = strings.TrimSpace(filename)
	if filename == "" || filename == "." || filename == ".." || strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("invalid asset name %q", filename)
	}
	return nil
}
