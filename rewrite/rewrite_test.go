package rewrite

import (
	"errors"
	"strings"
	"testing"

	"github.com/icase-intl/langkit/classify"
	"github.com/icase-intl/langkit/keygen"
	"github.com/icase-intl/langkit/tree"
)

func rng(s, e int) tree.Range { return tree.Range{Start: s, End: e} }

// span locates sub in src by byte offsets.
func span(t *testing.T, src, sub string) tree.Range {
	t.Helper()
	i := strings.Index(src, sub)
	if i < 0 {
		t.Fatalf("%q not found in %q", sub, src)
	}
	return rng(i, i+len(sub))
}

func TestPrefix(t *testing.T) {
	var l Lookup
	tests := map[Context]string{
		PlainScript:     "lang",
		ComponentScript: "this.$lang",
		Template:        "$lang",
	}
	for ctx, want := range tests {
		if got := l.Prefix(ctx); got != want {
			t.Errorf("Prefix(%s) = %q, want %q", ctx, got, want)
		}
	}

	custom := Lookup{Name: "t", ComponentName: "$t"}
	if got := custom.Prefix(ComponentScript); got != "this.$t" {
		t.Errorf("custom Prefix = %q, want this.$t", got)
	}
}

func TestCall(t *testing.T) {
	var l Lookup
	if got := l.Call(PlainScript, "你好", nil); got != "lang('你好')" {
		t.Fatalf("Call() = %q", got)
	}
	bs := keygen.Bindings{{Name: "name", Path: "name"}, {Name: "count", Path: "list.count"}}
	if got := l.Call(Template, "{name}有{count}条", bs); got != "$lang('{name}有{count}条', {name, count: list.count})" {
		t.Fatalf("Call() = %q", got)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"你好", `'你好'`},
		{"it's", `'it\'s'`},
		{`a\b`, `'a\\b'`},
		{"第一行\n第二行", `'第一行\n第二行'`},
	}
	for _, tc := range tests {
		if got := Quote(tc.in); got != tc.want {
			t.Errorf("Quote(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

// End-to-end: a literal in a plain script gets wrapped and the import is
// inserted at the top of the file.
func TestPlainScriptLiteral(t *testing.T) {
	src := "alert('会话智能国际化插件')\n"
	lit := tree.NewLiteral(span(t, src, "'会话智能国际化插件'"), "会话智能国际化插件", "'会话智能国际化插件'")
	call := tree.NewCall(span(t, src, strings.TrimSpace(src)), tree.NewIdent(rng(0, 5), "alert"), lit)
	prog := tree.NewProgram(rng(0, len(src)), tree.NewGeneric("ExpressionStatement", call.Range(), call))
	tree.Link(prog)

	p := &Planner{Program: prog}
	plan := p.Literal(PlainScript, lit, "会话智能国际化插件")
	if len(plan) != 2 {
		t.Fatalf("plan = %v, want import + replacement", plan)
	}
	out, err := Apply([]byte(src), plan)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := "import { lang } from '@/locales/index'\nalert(lang('会话智能国际化插件'))\n"
	if string(out) != want {
		t.Fatalf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestImportAlreadyPresent(t *testing.T) {
	prog := tree.NewProgram(rng(0, 0), tree.NewImport(rng(0, 0), "@/locales/index", tree.ImportSpec{Imported: "lang", Local: "lang"}))
	p := &Planner{Program: prog}
	if _, ok := p.ImportEdit(); ok {
		t.Fatal("no import edit expected when lang is already imported")
	}

	comp := &Planner{Program: tree.NewProgram(rng(0, 0)), Component: true}
	if _, ok := comp.ImportEdit(); ok {
		t.Fatal("components never get an import")
	}
}

// End-to-end: <p>你好{{name}}</p> becomes <p>{{ $lang('你好{name}', {name}) }}</p>.
func TestMarkupRegion(t *testing.T) {
	src := "<p>你好{{name}}</p>"
	text := tree.NewText(span(t, src, "你好"), "你好")
	container := tree.NewExprContainer(span(t, src, "{{name}}"), tree.NewIdent(span(t, src, "name"), "name"))
	p := tree.NewElement(rng(0, len(src)), "p", false, text, container)
	tree.Link(p)

	res, ok := keygen.FromMarkup(classify.Default, p.Body)
	if !ok {
		t.Fatal("expected markup match")
	}
	plan := (&Planner{Component: true}).MarkupRegion(p, res)
	out, err := Apply([]byte(src), plan)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if want := "<p>{{ $lang('你好{name}', {name}) }}</p>"; string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestMarkupTextKeepsWhitespace(t *testing.T) {
	src := "<p>\n  你好\n</p>"
	text := tree.NewText(span(t, src, "\n  你好\n"), "\n  你好\n")
	tree.Link(tree.NewElement(rng(0, len(src)), "p", false, text))

	out, err := Apply([]byte(src), (&Planner{Component: true}).MarkupText(text))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if want := "<p>\n  {{ $lang('你好') }}\n</p>"; string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestAttribute(t *testing.T) {
	src := `<input placeholder="请输入">`
	attr := tree.NewAttribute(rng(7, len(src)-1), "placeholder", "请输入")
	out, err := Apply([]byte(src), (&Planner{Component: true}).Attribute(attr))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if want := `<input :placeholder="$lang('请输入')">`; string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestJSXLiteralGetsBraces(t *testing.T) {
	src := "<div>你好</div>"
	lit := tree.NewLiteral(span(t, src, "你好"), "你好", "你好")
	el := tree.NewElement(rng(0, len(src)), "div", true, lit)
	tree.Link(el)

	plan := (&Planner{Program: tree.NewProgram(rng(0, 0), tree.NewImport(rng(0, 0), "x", tree.ImportSpec{Imported: "lang", Local: "lang"}))}).Literal(PlainScript, lit, "你好")
	out, err := Apply([]byte(src), plan)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if want := "<div>{lang('你好')}</div>"; string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestApplyRejectsOverlap(t *testing.T) {
	_, err := Apply([]byte("abcdef"), []Edit{{Start: 0, End: 3, Text: "x"}, {Start: 2, End: 4, Text: "y"}})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("err = %v, want ErrOverlap", err)
	}
	_, err = Apply([]byte("abc"), []Edit{{Start: 1, End: 9, Text: "x"}})
	if !errors.Is(err, ErrRange) {
		t.Fatalf("err = %v, want ErrRange", err)
	}
}

func TestApplyDeduplicatesImport(t *testing.T) {
	imp := Edit{Start: 0, End: 0, Text: "import x\n"}
	out, err := Apply([]byte("a b"), []Edit{imp, {Start: 0, End: 1, Text: "A"}, imp, {Start: 2, End: 3, Text: "B"}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(out) != "import x\nA B" {
		t.Fatalf("got %q", out)
	}
}

func TestCombineSkipsConflictingPlans(t *testing.T) {
	plans := []Plan{
		{{Start: 0, End: 5, Text: "outer"}},
		{{Start: 2, End: 3, Text: "inner"}},
		{{Start: 6, End: 7, Text: "other"}},
	}
	edits, skipped := Combine(plans)
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if len(edits) != 2 {
		t.Fatalf("edits = %v, want 2", edits)
	}
}
