// Package lockfile implements langkit.lock, the record of which wrapped
// literals each source file contained on the previous run. Diff-mode
// synchronization compares a file's current literals against this list
// to find catalog entries that disappeared.
//
// The lock file is stored alongside .langkit.yaml as langkit.lock.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "langkit.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the langkit.lock file structure.
type LockFile struct {
	Version int                 `yaml:"version"`
	Files   map[string][]string `yaml:"files"` // source file -> literals in order

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version: Version,
		Files:   make(map[string][]string),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Files == nil {
		lf.Files = make(map[string][]string)
	}
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported lock file version %d", path, lf.Version)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Per-file literal lists
// ---------------------------------------------------------------------------

// FileKey normalizes a source path for use as a lock file key.
func FileKey(filePath string) string {
	return filepath.ToSlash(filepath.Clean(filePath))
}

// Previous returns the literals recorded for file on the last run.
func (lf *LockFile) Previous(file string) []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	prev := lf.Files[FileKey(file)]
	return append([]string(nil), prev...)
}

// Update records the literals seen in file on this run. An empty list
// removes the file's entry.
func (lf *LockFile) Update(file string, literals []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	key := FileKey(file)
	if len(literals) == 0 {
		delete(lf.Files, key)
		return
	}
	lf.Files[key] = append([]string(nil), literals...)
}

// Clean removes entries for files that are no longer present in the
// current set of sources. This prevents stale entries from accumulating.
func (lf *LockFile) Clean(currentFiles []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	valid := make(map[string]bool, len(currentFiles))
	for _, f := range currentFiles {
		valid[FileKey(f)] = true
	}

	for k := range lf.Files {
		if !valid[k] {
			delete(lf.Files, k)
		}
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of files and total literals in the lock file.
func (lf *LockFile) Stats() (files, literals int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	files = len(lf.Files)
	for _, l := range lf.Files {
		literals += len(l)
	}
	return
}

// Sources returns the sorted list of recorded source files.
func (lf *LockFile) Sources() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	out := make([]string, 0, len(lf.Files))
	for f := range lf.Files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	files, literals := lf.Stats()
	if files == 0 {
		return "empty"
	}

	var parts []string
	for _, f := range lf.Sources() {
		parts = append(parts, fmt.Sprintf("%s: %d", f, len(lf.Files[f])))
	}
	return fmt.Sprintf("%d files, %d literals (%s)", files, literals, strings.Join(parts, ", "))
}
