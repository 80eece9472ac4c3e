package scripts

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/zlecenia/c20scratch/internal/safeio"
)

// Descriptor describes one callable function found in a script file.
type Descriptor struct {
	Script string   `json:"script"`
	Func   string   `json:"func"`
	Params []string `json:"params"`
}

// ShellParamMarker prefixes parameter declarations in shell scripts.
const ShellParamMarker = "# param:"

// pythonDefPattern is a heuristic, not a parser: it only sees signatures that
// close on the same line they open.
var pythonDefPattern = regexp.MustCompile(`def\s+(\w+)\s*\((.*?)\):`)

// Catalog scans the scripts directory. Nothing is cached; every Scan
// re-reads the directory.
type Catalog struct {
	root   *safeio.SafeFS
	logger *slog.Logger
}

func NewCatalog(root *safeio.SafeFS, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{root: root, logger: logger}
}

// Scan returns descriptors for every recognized script, ordered by filename
// and then by position in the file. Unreadable or malformed files contribute
// nothing; a failure to list the directory is returned.
func (c *Catalog) Scan(ctx context.Context) ([]Descriptor, error) {
	entries, err := c.root.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("read scripts dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	out := make([]Descriptor, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		spec, ok := kindTable[KindOf(entry.Name())]
		if !ok {
			continue
		}
		content, err := c.root.ReadFile(entry.Name())
		if err != nil {
			c.logger.Warn("skip unreadable script", "script", entry.Name(), "error", err)
			continue
		}
		out = append(out, spec.parse(entry.Name(), content)...)
	}
	return out, nil
}

func parsePython(filename string, content []byte) []Descriptor {
	matches := pythonDefPattern.FindAllSubmatch(content, -1)
	out := make([]Descriptor, 0, len(matches))
	for _, m := range matches {
		params := []string{}
		for _, raw := range strings.Split(string(m[2]), ",") {
			name, _, _ := strings.Cut(raw, "=")
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			params = append(params, name)
		}
		out = append(out, Descriptor{Script: filename, Func: string(m[1]), Params: params})
	}
	return out
}

func parseShell(filename string, content []byte) []Descriptor {
	params := []string{}
	for _, line := range strings.Split(string(content), "\n") {
		rest, ok := strings.CutPrefix(line, ShellParamMarker)
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		params = append(params, fields[0])
	}
	return []Descriptor{{Script: filename, Func: filepath.Base(filename), Params: params}}
}
