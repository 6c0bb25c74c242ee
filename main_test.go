package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/icase-intl/langkit/catalog"
	"github.com/icase-intl/langkit/config"
	"github.com/icase-intl/langkit/lockfile"
	"github.com/icase-intl/langkit/translate"
)

func TestProgressBar(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	tests := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{"clamps below zero", -10, 4, "░░░░   0%"},
		{"mid range", 50, 4, "██░░  50%"},
		{"clamps above hundred", 120, 4, "████ 100%"},
	}
	for _, tc := range tests {
		if got := progressBar(tc.percent, tc.width); got != tc.want {
			t.Fatalf("%s: progressBar() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestLangCell(t *testing.T) {
	if got := langColumnWidth([]string{"en", "pt-BR", "zh-Hant"}); got != len("zh-Hant") {
		t.Fatalf("langColumnWidth() = %d", got)
	}
	cell := langCell("pt-BR", 6)
	if !strings.Contains(cell, "🇧🇷") || !strings.HasSuffix(cell, "pt-BR ") {
		t.Fatalf("langCell() = %q", cell)
	}
}

func TestResolveProvider(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("LANGKIT_API_KEY", "")

	cfg, err := config.Parse([]byte("save_path: locales\nprovider:\n  id: groq\n"))
	if err != nil {
		t.Fatal(err)
	}
	prov := resolveProvider(cfg, "flag-key")
	if prov.ID != translate.ProviderGroq || prov.APIKey != "flag-key" || prov.Model == "" {
		t.Fatalf("resolveProvider() = %+v", prov)
	}

	cfg.Provider.ID = "http://localhost:8000/v1"
	prov = resolveProvider(cfg, "")
	if prov.ID != translate.ProviderCustomOpenAI || prov.BaseURL != "http://localhost:8000/v1" {
		t.Fatalf("unknown provider resolved to %+v", prov)
	}
	if err := validateProvider(prov); err == nil {
		t.Fatal("custom provider without model should be rejected")
	}
}

// project fixture: one plain script with a wrapped and an unwrapped literal.
const fixtureSource = "alert(lang('你好'), '世界')\n"

// fixtureAST is the parser dump of fixtureSource. Offsets are UTF-16 code
// units.
const fixtureAST = `{"type":"Program","range":[0,24],"body":[
	{"type":"ExpressionStatement","range":[0,23],"expression":
	  {"type":"CallExpression","range":[0,23],
	   "callee":{"type":"Identifier","name":"alert","range":[0,5]},
	   "arguments":[
	     {"type":"CallExpression","range":[6,16],
	      "callee":{"type":"Identifier","name":"lang","range":[6,10]},
	      "arguments":[{"type":"Literal","value":"你好","raw":"'你好'","range":[11,15]}]},
	     {"type":"Literal","value":"世界","raw":"'世界'","range":[18,22]}]}}]}`

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(".langkit.yaml", "save_path: locales\ntarget_locales: [zh-CN, en-US]\nsources: [src]\n")
	write("src/a.js", fixtureSource)
	write("src/a.js.ast.json", fixtureAST)
	return dir
}

func TestFixRewritesAndSyncs(t *testing.T) {
	dir := setupProject(t)
	rootDir = dir
	t.Cleanup(func() { rootDir = "." })

	p, err := loadProject()
	if err != nil {
		t.Fatalf("loadProject: %v", err)
	}
	files, full, err := p.sources(nil)
	if err != nil || !full || len(files) != 1 {
		t.Fatalf("sources() = %v, %v, %v", files, full, err)
	}

	if err := p.run(files, full, pass{write: true, diff: true}, ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "src", "a.js"))
	if err != nil {
		t.Fatal(err)
	}
	want := "import { lang } from '@/locales/index'\nalert(lang('你好'), lang('世界'))\n"
	if string(got) != want {
		t.Fatalf("rewritten source = %q, want %q", got, want)
	}

	for _, loc := range []string{"zh-CN", "en-US"} {
		f, err := catalog.ParseFile(catalog.Path(filepath.Join(dir, "locales"), loc, "json"))
		if err != nil {
			t.Fatalf("%s catalog: %v", loc, err)
		}
		for _, text := range []string{"你好", "世界"} {
			if v, ok := f.Get(catalog.Checksum(text)); !ok || v != text {
				t.Fatalf("%s: entry for %q = %q, %v", loc, text, v, ok)
			}
		}
	}

	lf, err := lockfile.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if prev := lf.Previous(files[0]); len(prev) != 2 || prev[0] != "你好" || prev[1] != "世界" {
		t.Fatalf("lock file previous = %v", prev)
	}
}

func TestCheckReportsWithoutWriting(t *testing.T) {
	dir := setupProject(t)
	rootDir = dir
	t.Cleanup(func() { rootDir = "." })

	p, err := loadProject()
	if err != nil {
		t.Fatal(err)
	}
	files, _, err := p.sources(nil)
	if err != nil {
		t.Fatal(err)
	}
	st, err := p.walk(files, pass{}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if st.occurrences != 1 || st.files != 1 {
		t.Fatalf("stats = %+v", st)
	}
	got, _ := os.ReadFile(filepath.Join(dir, "src", "a.js"))
	if string(got) != fixtureSource {
		t.Fatalf("check modified the source: %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "locales")); !os.IsNotExist(err) {
		t.Fatalf("check created catalogs: %v", err)
	}
}

func TestFixTwiceKeepsSource(t *testing.T) {
	dir := setupProject(t)
	rootDir = dir
	t.Cleanup(func() { rootDir = "." })

	p, err := loadProject()
	if err != nil {
		t.Fatal(err)
	}
	files, full, err := p.sources(nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "import { lang } from '@/locales/index'\nalert(lang('你好'), lang('世界'))\n"

	for i := 0; i < 2; i++ {
		if err := p.run(files, full, pass{write: true, diff: true}, ""); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
		got, err := os.ReadFile(filepath.Join(dir, "src", "a.js"))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != want {
			t.Fatalf("run %d: source = %q, want %q", i+1, got, want)
		}
	}

	// The skipped file keeps its previous literals and catalog entries.
	f, err := catalog.ParseFile(catalog.Path(filepath.Join(dir, "locales"), "en-US", "json"))
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 {
		t.Fatalf("catalog has %d entries after second run, want 2", f.Len())
	}
	lf, err := lockfile.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if prev := lf.Previous(files[0]); len(prev) != 2 {
		t.Fatalf("lock file previous = %v", prev)
	}
}
