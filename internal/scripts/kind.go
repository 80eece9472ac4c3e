// Package scripts discovers runnable functions in the scripts directory and
// executes those scripts as child processes.
package scripts

import (
	"path/filepath"
	"strings"
)

// Kind tags a script file by the strategy used to parse and run it.
type Kind int

const (
	KindUnknown Kind = iota
	KindPython
	KindShell
)

func (k Kind) String() string {
	switch k {
	case KindPython:
		return "python"
	case KindShell:
		return "shell"
	default:
		return "unknown"
	}
}

// kindSpec binds a kind to its file extension and catalog parser.
type kindSpec struct {
	ext   string
	parse func(filename string, content []byte) []Descriptor
}

var kindTable = map[Kind]kindSpec{
	KindPython: {ext: ".py", parse: parsePython},
	KindShell:  {ext: ".sh", parse: parseShell},
}

// KindOf classifies a filename by extension. Matching is case-sensitive.
func KindOf(filename string) Kind {
	ext := filepath.Ext(filename)
	for kind, spec := range kindTable {
		if ext == spec.ext {
			return kind
		}
	}
	return KindUnknown
}

// DefaultInterpreters maps each kind to the command used to run it.
// Unknown kinds fall back to the shell entry.
func DefaultInterpreters() map[Kind]string {
	return map[Kind]string{
		KindPython: "python3",
		KindShell:  "bash",
	}
}

func interpreterFor(interpreters map[Kind]string, kind Kind) string {
	if bin := strings.TrimSpace(interpreters[kind]); bin != "" {
		return bin
	}
	if bin := strings.TrimSpace(interpreters[KindShell]); bin != "" {
		return bin
	}
	return DefaultInterpreters()[KindShell]
}
