// Package asset persists user-uploaded IDE assets (block XML, SVG icons).
package asset

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/zlecenia/c20scratch/internal/sanitize"
)

// Store defines operations for persisting uploaded assets keyed by their
// stored filename.
type Store interface {
	Put(ctx context.Context, filename string, content []byte) error
	Get(ctx context.Context, filename string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

var (
	ErrNotFound            = errors.New("asset not found")
	ErrNoFile              = errors.New("no file selected")
	ErrExtensionNotAllowed = errors.New("file type not allowed")
)

// AllowedExtensions lists accepted upload extensions in listing order.
var AllowedExtensions = []string{"xml", "svg"}

// StoredName maps an uploaded filename to the name it is stored under:
// the sanitized base plus the lowercased extension.
func StoredName(uploaded string) (string, error) {
	if uploaded == "" {
		return "", ErrNoFile
	}
	base, ext := sanitize.SplitFilename(uploaded)
	if !allowed(ext) {
		return "", fmt.Errorf("%w: %q", ErrExtensionNotAllowed, uploaded)
	}
	return sanitize.Name(base) + "." + ext, nil
}

// Upload validates the uploaded filename and stores content under its
// sanitized name, overwriting any existing asset with that name.
func Upload(ctx context.Context, s Store, uploaded string, content []byte) (string, error) {
	name, err := StoredName(uploaded)
	if err != nil {
		return "", err
	}
	if err := s.Put(ctx, name, content); err != nil {
		return "", fmt.Errorf("store asset %s: %w", name, err)
	}
	return name, nil
}

// Grouped partitions stored filenames by allowed extension. Every allowed
// extension has an entry, each sorted lexicographically.
func Grouped(ctx context.Context, s Store) (map[string][]string, error) {
	names, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(AllowedExtensions))
	for _, ext := range AllowedExtensions {
		out[ext] = []string{}
	}
	for _, name := range names {
		_, ext := sanitize.SplitFilename(name)
		if _, ok := out[ext]; ok {
			out[ext] = append(out[ext], name)
		}
	}
	for _, group := range out {
		sort.Strings(group)
	}
	return out, nil
}

func allowed(ext string) bool {
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}
