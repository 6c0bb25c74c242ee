package extract

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindSources(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	for _, name := range []string{
		"src/main.js",
		"src/App.vue",
		"src/App.vue.ast.json",
		"src/views/Home.tsx",
		"src/styles.css",
		"src/node_modules/dep/index.js",
		"dist/bundle.js",
	} {
		write(t, filepath.Join(tmp, name), "")
	}

	got, err := FindSources([]string{filepath.Join(tmp, "src"), filepath.Join(tmp, "src", "main.js")})
	if err != nil {
		t.Fatalf("FindSources: %v", err)
	}
	want := []string{
		filepath.Join(tmp, "src", "App.vue"),
		filepath.Join(tmp, "src", "main.js"),
		filepath.Join(tmp, "src", "views", "Home.tsx"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindSources() = %v, want %v", got, want)
	}

	if _, err := FindSources([]string{filepath.Join(tmp, "missing")}); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestFilesByLanguageAndDescribeFiles(t *testing.T) {
	t.Parallel()

	files := []string{"a.js", "b.jsx", "c.ts", "d.vue", "readme.txt"}
	byLang := FilesByLanguage(files)

	if len(byLang["JavaScript"]) != 2 {
		t.Fatalf("unexpected JavaScript grouping: %#v", byLang["JavaScript"])
	}
	if _, ok := byLang["Text"]; ok {
		t.Fatalf("unexpected language bucket for text file: %#v", byLang)
	}

	desc := DescribeFiles(files)
	if desc != "2 JavaScript, 1 TypeScript, 1 Vue" {
		t.Fatalf("DescribeFiles() = %q", desc)
	}
}

func TestIsComponent(t *testing.T) {
	if !IsComponent("src/App.vue") || IsComponent("src/main.js") {
		t.Fatal("IsComponent misclassified")
	}
	if ASTPath("a.js") != "a.js.ast.json" {
		t.Fatalf("ASTPath() = %q", ASTPath("a.js"))
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	src := filepath.Join(tmp, "a.js")
	write(t, src, "f('你好')")
	write(t, ASTPath(src), `{"type":"Program","range":[0,7],"body":[
		{"type":"ExpressionStatement","range":[0,7],"expression":
			{"type":"CallExpression","range":[0,7],
			 "callee":{"type":"Identifier","name":"f","range":[0,1]},
			 "arguments":[{"type":"Literal","value":"你好","raw":"'你好'","range":[2,6]}]}}]}`)

	s, err := Load(src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Component {
		t.Fatal("plain script reported as component")
	}
	if got := s.Program.Range(); got.End != len(s.Text) {
		t.Fatalf("program range %v not rebased to %d bytes", got, len(s.Text))
	}
}

func TestLoadWithoutAST(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "a.js")
	write(t, src, "x")
	if _, err := Load(src); !errors.Is(err, ErrNoAST) {
		t.Fatalf("err = %v, want ErrNoAST", err)
	}
}

func TestLoadStaleAST(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "a.js")
	write(t, src, "x")
	write(t, ASTPath(src), `{"type":"Program","range":[0,1],"body":[]}`)

	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(ASTPath(src), old, old); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(src); !errors.Is(err, ErrStaleAST) {
		t.Fatalf("err = %v, want ErrStaleAST", err)
	}

	// A dump regenerated after the edit is accepted again.
	now := time.Now().Add(time.Hour)
	if err := os.Chtimes(ASTPath(src), now, now); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(src); err != nil {
		t.Fatalf("Load after regenerating: %v", err)
	}
}
