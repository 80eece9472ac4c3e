package projectstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/zlecenia/c20scratch/internal/safeio"
	"github.com/zlecenia/c20scratch/internal/sanitize"
)

// FileStore keeps each document as <name>.<kind> in one directory. Writes
// to the same name are serialized and land atomically, so the last save
// wins without torn files.
type FileStore struct {
	root  *safeio.SafeFS
	locks keyedMutex
}

var _ Store = (*FileStore)(nil)

func NewFileStore(root *safeio.SafeFS) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) Save(_ context.Context, kind Kind, name, body string) (string, error) {
	if s == nil || s.root == nil {
		return "", fmt.Errorf("store is nil")
	}
	safe, err := checkSave(kind, name, body)
	if err != nil {
		return "", err
	}
	filename := safe + kind.ext()
	unlock := s.locks.lock(filename)
	defer unlock()
	if err := s.root.WriteFile(filename, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	return safe, nil
}

func (s *FileStore) Get(_ context.Context, kind Kind, name string) (string, error) {
	if s == nil || s.root == nil {
		return "", fmt.Errorf("store is nil")
	}
	return readDocument(s.root, kind, name)
}

func (s *FileStore) List(_ context.Context) (Listing, error) {
	if s == nil || s.root == nil {
		return Listing{}, fmt.Errorf("store is nil")
	}
	return listDocuments(s.root)
}

// DemoStore serves read-only sample projects. The directory is resolved on
// every call; when it does not exist the namespace is simply empty.
type DemoStore struct {
	dir string
}

var _ Reader = (*DemoStore)(nil)

func NewDemoStore(dir string) *DemoStore {
	return &DemoStore{dir: dir}
}

func (s *DemoStore) Get(_ context.Context, kind Kind, name string) (string, error) {
	root, err := s.open()
	if err != nil {
		return "", err
	}
	if root == nil {
		return "", ErrNotFound
	}
	return readDocument(root, kind, name)
}

func (s *DemoStore) List(_ context.Context) (Listing, error) {
	root, err := s.open()
	if err != nil {
		return Listing{}, err
	}
	if root == nil {
		return newListing(), nil
	}
	return listDocuments(root)
}

func (s *DemoStore) open() (*safeio.SafeFS, error) {
	if s == nil || strings.TrimSpace(s.dir) == "" {
		return nil, nil
	}
	root, err := safeio.NewSafeFS(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open demos: %w", err)
	}
	return root, nil
}

func readDocument(root *safeio.SafeFS, kind Kind, name string) (string, error) {
	if !kind.valid() {
		return "", ErrInvalidKind
	}
	filename := sanitize.Name(name) + kind.ext()
	data, err := root.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, safeio.ErrOutsideRoot) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	return string(data), nil
}

func listDocuments(root *safeio.SafeFS) (Listing, error) {
	entries, err := root.ReadDir(".")
	if err != nil {
		return Listing{}, fmt.Errorf("list projects: %w", err)
	}
	out := newListing()
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if stem, kind, ok := kindOfFile(e.Name()); ok {
			out.add(kind, stem)
		}
	}
	out.sort()
	return out, nil
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
