package rewrite

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrOverlap is returned when two edits touch the same source bytes.
	ErrOverlap = errors.New("overlapping edits")
	// ErrRange is returned when an edit falls outside the source.
	ErrRange = errors.New("edit out of range")
)

// Edit replaces src[Start:End] with Text. Start == End is an insertion.
type Edit struct {
	Start int
	End   int
	Text  string
}

func (e Edit) String() string {
	return fmt.Sprintf("[%d,%d) -> %q", e.Start, e.End, e.Text)
}

// normalize drops exact duplicates and orders edits by position, with
// insertions ahead of replacements that start at the same offset.
func normalize(edits []Edit) []Edit {
	seen := make(map[Edit]bool, len(edits))
	out := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

func conflicts(a, b Edit) bool {
	if a == b {
		return false
	}
	if a.Start == a.End && b.Start == b.End {
		return a.Start == b.Start
	}
	return a.Start < b.End && b.Start < a.End
}

// Apply applies every edit to src, or none of them. Identical edits (the
// import insertion shared by several occurrences) are applied once.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	sorted := normalize(edits)
	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(src) {
			return nil, fmt.Errorf("%w: %s (source is %d bytes)", ErrRange, e, len(src))
		}
		for _, prev := range sorted[:i] {
			if conflicts(prev, e) {
				return nil, fmt.Errorf("%w: %s and %s", ErrOverlap, prev, e)
			}
		}
	}

	out := make([]byte, 0, len(src))
	pos := 0
	for _, e := range sorted {
		out = append(out, src[pos:e.Start]...)
		out = append(out, e.Text...)
		pos = e.End
	}
	return append(out, src[pos:]...), nil
}

// Combine merges per-occurrence plans in order, keeping each plan whole.
// A plan that conflicts with one already accepted is dropped; skipped
// counts them so the caller can run another pass.
func Combine(plans []Plan) (edits []Edit, skipped int) {
	for _, p := range plans {
		ok := true
		for _, e := range p {
			for _, acc := range edits {
				if conflicts(acc, e) {
					ok = false
					break
				}
			}
			if !ok {
				break
			}
		}
		if !ok {
			skipped++
			continue
		}
		edits = append(edits, p...)
	}
	return normalize(edits), skipped
}
