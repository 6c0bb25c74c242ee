// Package merge keeps locale catalogs in step with the wrapped literals
// found in source files.
//
// In diff mode each file's literal list is compared with the list recorded
// on the previous run (see package lockfile). Literals that appear are
// added to every catalog; literals that vanished from a position are
// removed. Existing translations are never overwritten.
package merge

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/icase-intl/langkit/catalog"
	"github.com/icase-intl/langkit/lockfile"
	"github.com/rs/zerolog"
)

// Logger is the logger used by package merge.
var Logger = zerolog.Nop()

// Removal is a literal that was present at Index on the previous run and
// is now different or gone. New is "" when the list got shorter.
type Removal struct {
	Index int
	Old   string
	New   string
}

// Diff compares two literal lists position by position. Every non-empty
// previous entry that differs from the entry at the same index of current
// is reported.
func Diff(previous, current []string) []Removal {
	var out []Removal
	for i, old := range previous {
		if old == "" {
			continue
		}
		var cur string
		if i < len(current) {
			cur = current[i]
		}
		if old != cur {
			out = append(out, Removal{Index: i, Old: old, New: cur})
		}
	}
	return out
}

// Patch applies current and removals to f: each current literal is added
// under its checksum unless already present, then each removed literal's
// checksum is deleted. A removed literal that is still in current only
// moved and is kept. It returns the number of entries added and removed.
func Patch(f *catalog.File, current []string, removals []Removal) (added, removed int) {
	live := make(map[string]bool, len(current))
	for _, text := range current {
		live[text] = true
		if f.Add(catalog.Checksum(text), text) {
			added++
		}
	}
	for _, r := range removals {
		if live[r.Old] {
			continue
		}
		if f.Delete(catalog.Checksum(r.Old)) {
			removed++
		}
	}
	return added, removed
}

// ---------------------------------------------------------------------------
// Synchronizer
// ---------------------------------------------------------------------------

// Synchronizer writes diff-mode updates to one catalog per locale.
type Synchronizer struct {
	// Dir is the catalog directory.
	Dir string
	// Format is the catalog file extension ("json").
	Format string
	// Locales are the catalogs to keep in sync.
	Locales []string
	// State persists previous literal lists between runs. It may be nil,
	// in which case only lists observed in this process are compared.
	State *lockfile.LockFile

	previous map[string][]string
}

// Result summarizes one Finalize call.
type Result struct {
	File     string
	Added    int
	Removed  int
	Removals []Removal
	Written  []string
}

func (s *Synchronizer) lookup(file string) []string {
	if prev, ok := s.previous[lockfile.FileKey(file)]; ok {
		return prev
	}
	if s.State != nil {
		return s.State.Previous(file)
	}
	return nil
}

func (s *Synchronizer) remember(file string, current []string) {
	if s.previous == nil {
		s.previous = make(map[string][]string)
	}
	s.previous[lockfile.FileKey(file)] = append([]string(nil), current...)
	if s.State != nil {
		s.State.Update(file, current)
	}
}

// Finalize reconciles file's current literals with the catalogs. Catalogs
// are untouched when there is nothing to add and nothing was removed.
// Failures for individual locales are collected; the previous list is
// updated regardless so that a later run does not repeat removals.
func (s *Synchronizer) Finalize(file string, current []string) (Result, error) {
	res := Result{File: file}
	res.Removals = Diff(s.lookup(file), current)
	defer s.remember(file, current)

	if len(current) == 0 && len(res.Removals) == 0 {
		return res, nil
	}

	var errs *multierror.Error
	for _, locale := range s.Locales {
		path := catalog.Path(s.Dir, locale, s.Format)
		f := catalog.Load(path)
		added, removed := Patch(f, current, res.Removals)
		if added == 0 && removed == 0 {
			continue
		}
		if err := f.WriteFile(path); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", locale, err))
			continue
		}
		res.Added += added
		res.Removed += removed
		res.Written = append(res.Written, path)
		Logger.Debug().
			Str("file", file).
			Str("locale", locale).
			Int("added", added).
			Int("removed", removed).
			Msg("Catalog updated")
	}
	return res, errs.ErrorOrNil()
}
