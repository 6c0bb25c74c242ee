// Package keygen reconstructs catalog keys from interpolated text.
//
// A template literal such as
//
//	`你好${user.name}，欢迎`
//
// becomes the key "你好{name}，欢迎" with the binding name -> user.name, and
// the diagnostic identifier "你好${user.name}，欢迎". Vue template text
// interleaved with {{ }} containers goes through the same reconstruction.
package keygen

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/icase-intl/langkit/classify"
	"github.com/icase-intl/langkit/tree"
	"golang.org/x/net/html"
)

// Binding maps a placeholder name to the access path passed for it.
type Binding struct {
	Name string
	Path string
}

// Bindings is an insertion-ordered binding list.
type Bindings []Binding

// Shorthand reports whether b can be written as {name}.
func (b Binding) Shorthand() bool {
	return b.Name == b.Path
}

// bind records name -> path and returns the placeholder to use. The same
// name bound to the same path reuses one entry; the same name bound to a
// different path is suffixed (name2, name3, ...).
func (bs *Bindings) bind(name, path string) string {
	candidate := name
	for i := 2; ; i++ {
		clash := false
		for _, b := range *bs {
			if b.Name != candidate {
				continue
			}
			if b.Path == path {
				return candidate
			}
			clash = true
			break
		}
		if !clash {
			*bs = append(*bs, Binding{Name: candidate, Path: path})
			return candidate
		}
		candidate = name + strconv.Itoa(i)
	}
}

// Result is a reconstructed key.
type Result struct {
	// Key is the catalog key with {placeholder} markers.
	Key string
	// Identifier shows the fragment with ${path} interpolation.
	Identifier string
	// Full shows markup fragments with {{ path }} interpolation.
	Full string
	// Bindings lists the placeholders in order of first appearance.
	Bindings Bindings
	// Unresolved holds expressions whose shape has no access path. A key
	// with unresolved expressions cannot be rewritten without losing them.
	Unresolved []tree.Node
}

// Resolved reports whether every expression produced a binding.
func (r Result) Resolved() bool {
	return len(r.Unresolved) == 0
}

var reHTMLTag = regexp.MustCompile(`<[^>]+>`)

// HasTag reports whether s contains raw markup tag syntax.
func HasTag(s string) bool {
	return reHTMLTag.MatchString(s)
}

// StripTags trims s and drops every markup tag, keeping text verbatim.
func StripTags(s string) string {
	z := html.NewTokenizer(strings.NewReader(strings.TrimSpace(s)))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}

// FromInterpolation builds a key from alternating chunks and expressions
// (len(chunks) == len(exprs)+1). ok is false when no chunk contains
// target-script text.
func FromInterpolation(c classify.Classifier, chunks []string, exprs []tree.Node) (Result, bool) {
	hasScript := false
	for _, ch := range chunks {
		if c.ContainsTargetScript(ch) {
			hasScript = true
			break
		}
	}
	if !hasScript {
		return Result{}, false
	}
	return build(chunks, exprs), true
}

func build(chunks []string, exprs []tree.Node) Result {
	var res Result
	var key, ident strings.Builder
	for i, chunk := range chunks {
		if HasTag(chunk) {
			chunk = StripTags(chunk)
		}
		key.WriteString(chunk)
		ident.WriteString(chunk)
		if i >= len(exprs) {
			continue
		}

		expr := exprs[i]
		path := Stringify(expr)
		name := PlaceholderName(expr)
		if path == "" || name == "" {
			res.Unresolved = append(res.Unresolved, expr)
			ident.WriteString("${}")
			continue
		}
		placeholder := res.Bindings.bind(name, path)
		key.WriteString("{" + placeholder + "}")
		ident.WriteString("${" + path + "}")
	}
	res.Key = key.String()
	res.Identifier = ident.String()
	return res
}

// FromMarkup builds a key from the children of a template element. Only
// text and expression-container children are accepted; ok is false for
// any other child, or when no text child contains target-script text.
// Outer whitespace is trimmed from the key.
func FromMarkup(c classify.Classifier, children []tree.Node) (Result, bool) {
	chunks := []string{""}
	var exprs []tree.Node
	var full strings.Builder
	hasScript := false

	for _, child := range children {
		switch n := child.(type) {
		case *tree.Text:
			chunks[len(chunks)-1] += n.Value
			full.WriteString(n.Value)
			if c.ContainsTargetScript(n.Value) {
				hasScript = true
			}
		case *tree.ExprContainer:
			exprs = append(exprs, n.Expression)
			chunks = append(chunks, "")
			full.WriteString("{{ " + Stringify(n.Expression) + " }}")
		default:
			return Result{}, false
		}
	}
	if !hasScript {
		return Result{}, false
	}

	chunks[0] = strings.TrimLeft(chunks[0], " \t\r\n")
	last := len(chunks) - 1
	chunks[last] = strings.TrimRight(chunks[last], " \t\r\n")

	res := build(chunks, exprs)
	res.Full = full.String()
	return res, true
}
