package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := map[string]string{
		"hello": "3610a686",
		"The quick brown fox jumps over the lazy dog": "414fa339",
		"": "0",
	}
	for in, want := range tests {
		if got := Checksum(in); got != want {
			t.Errorf("Checksum(%q) = %q, want %q", in, got, want)
		}
	}
	if Checksum("你好") == Checksum("您好") {
		t.Fatal("different text should not collide")
	}
}

func TestPath(t *testing.T) {
	if got := Path("src/locales", "zh-CN", ""); got != filepath.Join("src/locales", "zh-CN.json") {
		t.Fatalf("Path() = %q", got)
	}
}

func TestParsePreservesOrder(t *testing.T) {
	f, err := Parse([]byte(`{"b": "二", "a": "一", "c": ""}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := []string{"b", "a", "c"}; !reflect.DeepEqual(f.Keys(), want) {
		t.Fatalf("Keys() = %v, want %v", f.Keys(), want)
	}
	if got := f.UntranslatedKeys(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("UntranslatedKeys() = %v", got)
	}
}

func TestParseRejectsNested(t *testing.T) {
	if _, err := Parse([]byte(`{"a": {"b": "c"}}`)); err == nil {
		t.Fatal("nested object should be rejected")
	}
	if _, err := Parse([]byte(`[]`)); err == nil {
		t.Fatal("array root should be rejected")
	}
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse([]byte("  \n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", f.Len())
	}
}

func TestAddSetDelete(t *testing.T) {
	f := New()
	if !f.Add("k1", "一") {
		t.Fatal("Add on new key should succeed")
	}
	if f.Add("k1", "壹") {
		t.Fatal("Add on existing key should be a no-op")
	}
	if v, _ := f.Get("k1"); v != "一" {
		t.Fatalf("Get(k1) = %q, want first writer", v)
	}
	f.Set("k2", "二")
	f.Set("k1", "壹")
	if want := []string{"k1", "k2"}; !reflect.DeepEqual(f.Keys(), want) {
		t.Fatalf("Keys() = %v, want %v", f.Keys(), want)
	}
	if !f.Delete("k1") || f.Delete("k1") {
		t.Fatal("Delete should report presence once")
	}
	if want := []string{"k2"}; !reflect.DeepEqual(f.Keys(), want) {
		t.Fatalf("Keys() = %v, want %v", f.Keys(), want)
	}
}

func TestMergeLaterWins(t *testing.T) {
	a := New()
	a.Set("x", "1")
	b := New()
	b.Set("x", "2")
	b.Set("y", "3")
	a.Merge(b)
	if v, _ := a.Get("x"); v != "2" {
		t.Fatalf("x = %q, want 2", v)
	}
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locales")
	path := Path(dir, "zh-CN", FormatJSON)

	f := New()
	f.Set(Checksum("你好"), "你好")
	f.Set(Checksum("<b>"), "<b>")
	if err := f.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "{\n    \"" + Checksum("你好") + "\": \"你好\",\n    \"" + Checksum("<b>") + "\": \"<b>\"\n}\n"
	if string(data) != want {
		t.Fatalf("file content:\n%s\nwant:\n%s", data, want)
	}

	loaded := Load(path)
	if !reflect.DeepEqual(loaded.Keys(), f.Keys()) {
		t.Fatalf("Keys() = %v, want %v", loaded.Keys(), f.Keys())
	}
}

func TestLoadMissingOrCorrupt(t *testing.T) {
	dir := t.TempDir()
	if f := Load(filepath.Join(dir, "missing.json")); f.Len() != 0 {
		t.Fatal("missing catalog should load empty")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if f := Load(bad); f.Len() != 0 {
		t.Fatal("corrupt catalog should load empty")
	}
}
