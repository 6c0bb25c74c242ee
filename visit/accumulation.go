package visit

import (
	"os"

	"github.com/icase-intl/langkit/catalog"
)

// Accumulation collects the wrapped literals seen during a run. Diff mode
// reads the per-file lists; hash mode reads the run-wide checksum table.
// It is filled by a single visitation goroutine and needs no locking.
type Accumulation struct {
	// SkipEntries disables the run-wide table (see EditorSession).
	SkipEntries bool

	files   map[string][]string
	seen    map[string]map[string]bool
	order   []string
	entries *catalog.File
}

// NewAccumulation returns an empty accumulation.
func NewAccumulation() *Accumulation {
	return &Accumulation{
		files:   make(map[string][]string),
		seen:    make(map[string]map[string]bool),
		entries: catalog.New(),
	}
}

// Observe records literal for file. Each literal is kept once per file, at
// the position it was first seen, and once in the run-wide table under its
// checksum.
func (a *Accumulation) Observe(file, literal string) {
	seen, ok := a.seen[file]
	if !ok {
		seen = make(map[string]bool)
		a.seen[file] = seen
		a.order = append(a.order, file)
	}
	if !seen[literal] {
		seen[literal] = true
		a.files[file] = append(a.files[file], literal)
	}
	if !a.SkipEntries {
		a.entries.Add(catalog.Checksum(literal), literal)
	}
}

// Touch registers file without literals, so that a file whose literals
// all disappeared still gets finalized.
func (a *Accumulation) Touch(file string) {
	if _, ok := a.seen[file]; !ok {
		a.seen[file] = make(map[string]bool)
		a.order = append(a.order, file)
	}
}

// Literals returns the literals of file in first-seen order.
func (a *Accumulation) Literals(file string) []string {
	return a.files[file]
}

// Files returns the files observed, in visitation order.
func (a *Accumulation) Files() []string {
	return a.order
}

// Entries returns the run-wide checksum -> text table.
func (a *Accumulation) Entries() *catalog.File {
	return a.entries
}

// EditorSession reports whether the process runs inside a VS Code session.
func EditorSession() bool {
	return os.Getenv("VSCODE_PID") != ""
}
