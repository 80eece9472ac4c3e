// Package modules exposes the palette module catalog: a fixed set of
// built-in modules plus custom packages uploaded as XML files.
package modules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/zlecenia/c20scratch/internal/safeio"
)

type Type string

const (
	TypeCore      Type = "core"
	TypePublicAPI Type = "public_api"
	TypeCustom    Type = "custom"
)

// PackageExt is the only extension accepted for custom packages.
const PackageExt = ".xml"

const defaultCustomDescription = "Custom module package"

var (
	ErrNotFound       = errors.New("module not found")
	ErrNoFile         = errors.New("no file selected")
	ErrInvalidPackage = errors.New("only .xml module packages are accepted")
)

type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        Type   `json:"type"`
	Description string `json:"description"`
}

type Param struct {
	Name string `json:"name"`
}

type Block struct {
	Method  string  `json:"method"`
	Path    string  `json:"path"`
	Summary string  `json:"summary"`
	Params  []Param `json:"params"`
}

// Spec describes a module's blocks. Built-ins carry BaseURL, Auth and
// Blocks; custom packages carry their raw XML in Content.
type Spec struct {
	ID      string           `json:"id"`
	Type    Type             `json:"type"`
	BaseURL string           `json:"base_url,omitempty"`
	Auth    bool             `json:"auth"`
	Blocks  map[string]Block `json:"blocks,omitempty"`
	Content string           `json:"content,omitempty"`
}

type Registry struct {
	packages *safeio.SafeFS
	logger   *slog.Logger
}

func NewRegistry(packages *safeio.SafeFS, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{packages: packages, logger: logger}
}

// List returns the built-in modules followed by one descriptor per package
// file, ordered by filename.
func (r *Registry) List(ctx context.Context) ([]Descriptor, error) {
	out := append([]Descriptor(nil), builtinModules...)
	files, err := r.packageFiles()
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := packageID(file)
		out = append(out, Descriptor{
			ID:          id,
			Name:        displayName(id),
			Type:        TypeCustom,
			Description: r.describe(file),
		})
	}
	return out, nil
}

// Spec returns the hardcoded spec of a built-in module, or the raw content
// of the custom package with the same id.
func (r *Registry) Spec(_ context.Context, id string) (Spec, error) {
	if spec, ok := builtinSpecs[id]; ok {
		spec.ID = id
		spec.Type = builtinType(id)
		return spec, nil
	}
	files, err := r.packageFiles()
	if err != nil {
		return Spec{}, err
	}
	for _, file := range files {
		if packageID(file) != id {
			continue
		}
		content, err := r.packages.ReadFile(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Spec{}, ErrNotFound
			}
			return Spec{}, fmt.Errorf("read package %s: %w", file, err)
		}
		return Spec{ID: id, Type: TypeCustom, Content: string(content)}, nil
	}
	return Spec{}, ErrNotFound
}

// Upload stores a custom package under its original filename. Unlike
// assets and projects the name is not sanitized, only confined to the
// packages directory.
func (r *Registry) Upload(_ context.Context, filename string, content []byte) (Descriptor, error) {
	if filename == "" {
		return Descriptor{}, ErrNoFile
	}
	if !strings.EqualFold(filepath.Ext(filename), PackageExt) {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidPackage, filename)
	}
	if strings.ContainsAny(filename, `/\`) || packageID(filename) == "" {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidPackage, filename)
	}
	if err := r.packages.WriteFile(filename, content, 0o644); err != nil {
		return Descriptor{}, fmt.Errorf("store package %s: %w", filename, err)
	}
	id := packageID(filename)
	r.logger.Info("module package uploaded", "id", id, "bytes", len(content))
	return Descriptor{ID: id, Name: displayName(id), Type: TypeCustom, Description: r.describe(filename)}, nil
}

func (r *Registry) packageFiles() ([]string, error) {
	entries, err := r.packages.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), PackageExt) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func builtinType(id string) Type {
	for _, d := range builtinModules {
		if d.ID == id {
			return d.Type
		}
	}
	return TypePublicAPI
}

func packageID(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// displayName replaces underscores with spaces and capitalizes the first
// letter of every run of letters.
func displayName(id string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range strings.ReplaceAll(id, "_", " ") {
		if unicode.IsLetter(r) {
			if prevLetter {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
