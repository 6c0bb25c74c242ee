package merge

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/icase-intl/langkit/catalog"
	"github.com/icase-intl/langkit/lockfile"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		prev, cur []string
		want      []Removal
	}{
		{"unchanged", []string{"A", "B"}, []string{"A", "B"}, nil},
		{"replaced", []string{"A", "B"}, []string{"A", "C"}, []Removal{{Index: 1, Old: "B", New: "C"}}},
		{"shrunk", []string{"A", "B"}, []string{"A"}, []Removal{{Index: 1, Old: "B"}}},
		{"grown", []string{"A"}, []string{"A", "B"}, nil},
		{"empty previous", []string{"", "B"}, []string{"X", "B"}, nil},
		{"shifted", []string{"A", "B"}, []string{"B"}, []Removal{{Index: 0, Old: "A", New: "B"}, {Index: 1, Old: "B"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Diff(tc.prev, tc.cur)); diff != "" {
				t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPatchKeepsExistingTranslations(t *testing.T) {
	f := catalog.New()
	f.Set(catalog.Checksum("你好"), "Hello")

	added, removed := Patch(f, []string{"你好", "再见"}, nil)
	if added != 1 || removed != 0 {
		t.Fatalf("Patch = (%d, %d), want (1, 0)", added, removed)
	}
	if v, _ := f.Get(catalog.Checksum("你好")); v != "Hello" {
		t.Fatalf("existing translation overwritten: %q", v)
	}
	if v, _ := f.Get(catalog.Checksum("再见")); v != "再见" {
		t.Fatalf("new entry = %q, want source text", v)
	}
}

func TestSynchronizerRemovesVanishedLiteral(t *testing.T) {
	dir := t.TempDir()
	s := &Synchronizer{Dir: dir, Format: catalog.FormatJSON, Locales: []string{"zh-CN", "en-US"}}

	if _, err := s.Finalize("a.js", []string{"A", "B"}); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	res, err := s.Finalize("a.js", []string{"A", "C"})
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	if diff := cmp.Diff([]Removal{{Index: 1, Old: "B", New: "C"}}, res.Removals); diff != "" {
		t.Fatalf("Removals mismatch (-want +got):\n%s", diff)
	}

	for _, locale := range s.Locales {
		f := catalog.Load(catalog.Path(dir, locale, catalog.FormatJSON))
		if _, ok := f.Get(catalog.Checksum("B")); ok {
			t.Errorf("%s: B should be removed", locale)
		}
		if _, ok := f.Get(catalog.Checksum("C")); !ok {
			t.Errorf("%s: C should be added", locale)
		}
		want := []string{catalog.Checksum("A"), catalog.Checksum("C")}
		if diff := cmp.Diff(want, f.Keys()); diff != "" {
			t.Errorf("%s keys mismatch (-want +got):\n%s", locale, diff)
		}
	}
}

func TestSynchronizerSkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	s := &Synchronizer{Dir: dir, Locales: []string{"zh-CN"}}
	res, err := s.Finalize("empty.js", nil)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(res.Written) != 0 {
		t.Fatalf("Written = %v, want none", res.Written)
	}
	if _, err := catalog.ParseFile(catalog.Path(dir, "zh-CN", "")); err == nil {
		t.Fatal("catalog should not be created")
	}
}

func TestSynchronizerUsesLockState(t *testing.T) {
	dir := t.TempDir()
	lf, err := lockfile.Load(dir)
	if err != nil {
		t.Fatalf("lockfile.Load: %v", err)
	}
	lf.Update(filepath.Join("src", "a.js"), []string{"旧"})

	locales := filepath.Join(dir, "locales")
	path := catalog.Path(locales, "zh-CN", "")
	seed := catalog.New()
	seed.Set(catalog.Checksum("旧"), "旧")
	if err := seed.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	s := &Synchronizer{Dir: locales, Locales: []string{"zh-CN"}, State: lf}
	res, err := s.Finalize(filepath.Join("src", "a.js"), []string{"新"})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.Added != 1 || res.Removed != 1 {
		t.Fatalf("Added/Removed = %d/%d, want 1/1", res.Added, res.Removed)
	}
	if diff := cmp.Diff([]string{"新"}, lf.Previous("src/a.js")); diff != "" {
		t.Fatalf("lock state mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchKeepsReorderedLiterals(t *testing.T) {
	f := catalog.New()
	f.Set(catalog.Checksum("A"), "a")
	f.Set(catalog.Checksum("B"), "b")
	f.Set(catalog.Checksum("C"), "c")

	prev, cur := []string{"A", "B", "C"}, []string{"B", "A"}
	removals := Diff(prev, cur)
	if len(removals) != 3 {
		t.Fatalf("Diff = %v, want three positional removals", removals)
	}

	added, removed := Patch(f, cur, removals)
	if added != 0 || removed != 1 {
		t.Fatalf("Patch = (%d, %d), want (0, 1)", added, removed)
	}
	want := []string{catalog.Checksum("A"), catalog.Checksum("B")}
	if diff := cmp.Diff(want, f.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}
