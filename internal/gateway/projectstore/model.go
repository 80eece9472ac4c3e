// Package projectstore persists IDE project documents. Every project name is
// sanitized, and each name may carry an independent structural (.xml) and
// rendered (.html) document.
package projectstore

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/zlecenia/c20scratch/internal/sanitize"
)

// Kind selects one of the two document flavors.
type Kind string

const (
	KindXML  Kind = "xml"
	KindHTML Kind = "html"
)

// Kinds lists every document kind in listing order.
var Kinds = []Kind{KindXML, KindHTML}

func (k Kind) valid() bool {
	return k == KindXML || k == KindHTML
}

func (k Kind) ext() string {
	return "." + string(k)
}

var (
	ErrNotFound    = errors.New("project not found")
	ErrEmptyBody   = errors.New("project document is empty")
	ErrInvalidKind = errors.New("unknown project document kind")
	ErrReadOnly    = errors.New("project namespace is read-only")
)

// Listing holds the sorted project names per kind. The two sets are
// independent.
type Listing struct {
	XML  []string `json:"xml"`
	HTML []string `json:"html"`
}

// Reader is the read side shared by writable and demo namespaces.
type Reader interface {
	Get(ctx context.Context, kind Kind, name string) (string, error)
	List(ctx context.Context) (Listing, error)
}

// Store is a writable project namespace. Save returns the sanitized name
// the document was stored under.
type Store interface {
	Reader
	Save(ctx context.Context, kind Kind, name, body string) (string, error)
}

func newListing() Listing {
	return Listing{XML: []string{}, HTML: []string{}}
}

func (l *Listing) add(kind Kind, name string) {
	switch kind {
	case KindXML:
		l.XML = append(l.XML, name)
	case KindHTML:
		l.HTML = append(l.HTML, name)
	}
}

func (l *Listing) sort() {
	sort.Strings(l.XML)
	sort.Strings(l.HTML)
}

// kindOfFile splits "name.xml" into ("name", KindXML).
func kindOfFile(filename string) (string, Kind, bool) {
	for _, k := range Kinds {
		if stem, ok := strings.CutSuffix(filename, k.ext()); ok && stem != "" {
			return stem, k, true
		}
	}
	return "", "", false
}

func checkSave(kind Kind, name, body string) (string, error) {
	if !kind.valid() {
		return "", ErrInvalidKind
	}
	if body == "" {
		return "", ErrEmptyBody
	}
	return sanitize.Name(name), nil
}
