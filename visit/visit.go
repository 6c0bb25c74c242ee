// Package visit drives one pass over a file's syntax tree. It finds the
// occurrences of unwrapped target-script text, plans their rewrites, and
// records every already-wrapped literal into an Accumulation for catalog
// synchronization.
package visit

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/icase-intl/langkit/classify"
	"github.com/icase-intl/langkit/keygen"
	"github.com/icase-intl/langkit/rewrite"
	"github.com/icase-intl/langkit/tree"
	"github.com/rs/zerolog"
)

// Logger is the logger used by package visit.
var Logger = zerolog.Nop()

// MsgLatestParser is reported on a component whose tree carries no
// template body.
const MsgLatestParser = "Use the latest vue-eslint-parser. See also https://eslint.vuejs.org/user-guide/#what-is-the-use-the-latest-vue-eslint-parser-error."

// FileKind distinguishes single-file components from plain scripts.
type FileKind int

const (
	PlainScriptFile FileKind = iota
	MarkupComponent
)

func (k FileKind) String() string {
	if k == MarkupComponent {
		return "component"
	}
	return "script"
}

// SurfaceKind is the syntactic shape an occurrence was found in.
type SurfaceKind int

const (
	PlainLiteral SurfaceKind = iota
	Interpolated
	MarkupAttribute
	MarkupText
	MarkupExpressionRegion
	ObjectProperty
)

// String returns the node type name used in reports.
func (k SurfaceKind) String() string {
	switch k {
	case Interpolated:
		return "TemplateLiteral"
	case MarkupAttribute:
		return "VAttribute"
	case MarkupText:
		return "VText"
	case MarkupExpressionRegion:
		return "VExpressionContainer"
	case ObjectProperty:
		return "Property"
	default:
		return "Literal"
	}
}

// Occurrence is unwrapped target-script text found in the tree.
type Occurrence struct {
	Node     tree.Node
	Kind     SurfaceKind
	FileKind FileKind
	Context  rewrite.Context
	// Text is the catalog key.
	Text string
	// Identifier is the fragment as shown in reports.
	Identifier string
	// Plan is nil when the occurrence cannot be rewritten safely.
	Plan rewrite.Plan
}

// Message is the report line for the occurrence.
func (o Occurrence) Message() string {
	return fmt.Sprintf("Not Allow Using Chinese Literal in %s -> %s", o.Kind, o.Identifier)
}

// Fixable reports whether the occurrence has a rewrite.
func (o Occurrence) Fixable() bool {
	return len(o.Plan) > 0
}

// Diagnostic is a file-level problem that is not an occurrence.
type Diagnostic struct {
	Line    int
	Column  int
	Message string
}

// Options configures a visit.
type Options struct {
	Classifier classify.Classifier
	Lookup     rewrite.Lookup
	// CollectFixed records the key of every fixable occurrence as if its
	// rewrite were already in the source, in document order.
	CollectFixed bool
}

// Result is the outcome of visiting one file.
type Result struct {
	Path        string
	FileKind    FileKind
	Occurrences []Occurrence
	Diagnostics []Diagnostic
	// Collected lists the wrapped literals in first-seen order.
	Collected []string
}

// Plans returns the plans of every fixable occurrence in document order.
func (r *Result) Plans() []rewrite.Plan {
	var out []rewrite.Plan
	for _, o := range r.Occurrences {
		if o.Fixable() {
			out = append(out, o.Plan)
		}
	}
	return out
}

// Fix applies every non-conflicting plan to src. Plans that overlap an
// earlier one are skipped; the next run picks them up. If src no longer
// holds what the tree recorded, nothing is applied and ErrStaleTree is
// returned.
func (r *Result) Fix(src []byte) (out []byte, applied, skipped int, err error) {
	for _, o := range r.Occurrences {
		if o.Fixable() && !describes(o.Node, src) {
			return nil, 0, 0, fmt.Errorf("%s: %w", r.Path, ErrStaleTree)
		}
	}
	plans := r.Plans()
	edits, skipped := rewrite.Combine(plans)
	if len(edits) == 0 {
		return src, 0, skipped, nil
	}
	out, err = rewrite.Apply(src, edits)
	if err != nil {
		return nil, 0, 0, err
	}
	return out, len(plans) - skipped, skipped, nil
}

// ErrStaleTree is returned by Fix when the tree no longer describes the
// source it is applied to. No edit is made in that case.
var ErrStaleTree = errors.New("syntax tree does not match the source")

// describes reports whether src still holds, at n's range, the text the
// parser saw there.
func describes(n tree.Node, src []byte) bool {
	r := n.Range()
	if r.Start < 0 || r.Start > r.End || r.End > len(src) {
		return false
	}
	text := string(src[r.Start:r.End])
	switch n := n.(type) {
	case *tree.Literal:
		return n.Raw == "" || text == n.Raw
	case *tree.TemplateLiteral:
		if !strings.HasPrefix(text, "`") || !strings.HasSuffix(text, "`") {
			return false
		}
		for _, q := range n.Quasis {
			if !strings.Contains(text, q.Raw) {
				return false
			}
		}
		return true
	case *tree.Property:
		if n.Value != nil {
			return describes(n.Value, src)
		}
	case *tree.Text:
		// Entities are decoded in Value.
		return text == n.Value || strings.Contains(text, "&")
	case *tree.Attribute:
		return strings.HasPrefix(text, n.Name)
	}
	return true
}

// ---------------------------------------------------------------------------
// Driver
// ---------------------------------------------------------------------------

// scope is one level of the enclosing-region stack.
type scope struct {
	template bool
}

type visitor struct {
	path    string
	kind    FileKind
	cls     classify.Classifier
	planner *rewrite.Planner
	acc     *Accumulation
	res     *Result
	fixed   bool

	scopes  []scope
	handled map[tree.Node]bool
	seen    map[string]bool
}

// File visits prog, the tree of the file at path. component selects the
// single-file component rules. Wrapped literals are recorded into acc when
// it is non-nil.
func File(path string, prog *tree.Program, component bool, acc *Accumulation, opts Options) *Result {
	kind := PlainScriptFile
	if component {
		kind = MarkupComponent
	}
	res := &Result{Path: path, FileKind: kind}
	if acc != nil {
		acc.Touch(path)
	}
	if prog == nil {
		return res
	}

	if component && !prog.HasTemplateBody {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{Line: 1, Column: 0, Message: MsgLatestParser})
		return res
	}

	v := &visitor{
		path: path,
		kind: kind,
		cls:  opts.Classifier,
		planner: &rewrite.Planner{
			Lookup:    opts.Lookup,
			Program:   prog,
			Component: component,
		},
		acc:     acc,
		res:     res,
		fixed:   opts.CollectFixed,
		handled: make(map[tree.Node]bool),
		seen:    make(map[string]bool),
	}

	v.push(scope{})
	for _, n := range prog.Body {
		v.walk(n)
	}
	v.pop()

	if prog.Template != nil {
		v.push(scope{template: true})
		v.walk(prog.Template)
		v.pop()
	}
	return res
}

func (v *visitor) push(s scope) { v.scopes = append(v.scopes, s) }
func (v *visitor) pop()         { v.scopes = v.scopes[:len(v.scopes)-1] }

func (v *visitor) inTemplate() bool {
	return len(v.scopes) > 0 && v.scopes[len(v.scopes)-1].template
}

func (v *visitor) context() rewrite.Context {
	switch {
	case v.kind == PlainScriptFile:
		return rewrite.PlainScript
	case v.inTemplate():
		return rewrite.Template
	default:
		return rewrite.ComponentScript
	}
}

func (v *visitor) report(o Occurrence) {
	o.FileKind = v.kind
	o.Context = v.context()
	if o.Identifier == "" {
		o.Identifier = o.Text
	}
	if o.Plan == nil {
		Logger.Debug().Str("file", v.path).Str("type", o.Kind.String()).Str("text", o.Identifier).Msg("Occurrence has no safe rewrite")
	} else if v.fixed {
		v.collect(o.Text)
	}
	v.res.Occurrences = append(v.res.Occurrences, o)
}

func (v *visitor) collect(text string) {
	if !v.seen[text] {
		v.seen[text] = true
		v.res.Collected = append(v.res.Collected, text)
	}
	if v.acc != nil {
		v.acc.Observe(v.path, text)
	}
}

// skipKinds are generic nodes whose subtree holds no user-facing text.
var skipKinds = map[string]bool{
	"TaggedTemplateExpression": true,
	"ExportAllDeclaration":     true,
	"ImportExpression":         true,
	"TSImportType":             true,
	"TSLiteralType":            true,
}

func (v *visitor) walk(n tree.Node) {
	if n == nil || v.handled[n] {
		return
	}

	switch node := n.(type) {
	case *tree.ImportDecl:
		return
	case *tree.Generic:
		if skipKinds[node.Kind()] {
			return
		}
		if node.Kind() == "ExportNamedDeclaration" {
			for _, c := range node.Kids {
				if _, ok := c.(*tree.Literal); ok {
					v.handled[c] = true
				}
			}
		}
	case *tree.Literal:
		v.literal(node)
		return
	case *tree.TemplateLiteral:
		v.templateLiteral(node)
	case *tree.Property:
		v.property(node)
	case *tree.Element:
		v.element(node)
	case *tree.Text:
		v.text(node)
		return
	}

	for _, c := range n.Children() {
		v.walk(c)
	}
}

func (v *visitor) literal(lit *tree.Literal) {
	value, ok := lit.StringValue()
	if !ok || !classify.IsTextual(lit.Value) {
		return
	}
	if v.cls.IsAlreadyWrapped(lit) {
		v.collect(value)
		return
	}
	text := strings.TrimSpace(value)
	if !v.cls.ContainsTargetScript(text) {
		return
	}
	v.report(Occurrence{
		Node: lit,
		Kind: PlainLiteral,
		Text: text,
		Plan: v.planner.Literal(v.context(), lit, text),
	})
}

func (v *visitor) templateLiteral(n *tree.TemplateLiteral) {
	if v.cls.IsAlreadyWrapped(n) {
		return
	}
	res, ok := keygen.FromInterpolation(v.cls, n.Chunks(), n.Expressions)
	if !ok {
		return
	}
	v.report(Occurrence{
		Node:       n,
		Kind:       Interpolated,
		Text:       res.Key,
		Identifier: res.Identifier,
		Plan:       v.planner.Interpolated(v.context(), n, res),
	})
}

// property handles object literals inside template expressions, where the
// value is rewritten in place. Non-computed keys are never text.
func (v *visitor) property(p *tree.Property) {
	if !p.Computed && p.Key != nil {
		v.handled[p.Key] = true
	}
	if !v.inTemplate() {
		return
	}
	lit, ok := p.Value.(*tree.Literal)
	if !ok {
		return
	}
	value, ok := lit.StringValue()
	if !ok {
		return
	}
	text := strings.TrimSpace(value)
	if !v.cls.ContainsTargetScript(text) {
		return
	}
	v.handled[lit] = true
	v.report(Occurrence{
		Node: p,
		Kind: ObjectProperty,
		Text: text,
		Plan: v.planner.Property(p, text),
	})
}

func (v *visitor) element(el *tree.Element) {
	if el.Embedded || !v.inTemplate() {
		return
	}

	for _, attr := range el.Attributes {
		if attr.Directive || !attr.HasValue || !v.cls.ContainsTargetScript(attr.Value) {
			continue
		}
		v.report(Occurrence{
			Node: attr,
			Kind: MarkupAttribute,
			Text: attr.Value,
			Plan: v.planner.Attribute(attr),
		})
	}

	if !hasContainer(el.Body) {
		return
	}
	res, ok := keygen.FromMarkup(v.cls, el.Body)
	if !ok {
		// Mixed with child elements: each text node stands alone.
		return
	}
	for _, c := range el.Body {
		if t, ok := c.(*tree.Text); ok {
			v.handled[t] = true
		}
	}
	v.report(Occurrence{
		Node:       el,
		Kind:       MarkupExpressionRegion,
		Text:       res.Key,
		Identifier: res.Full,
		Plan:       v.planner.MarkupRegion(el, res),
	})
}

func hasContainer(children []tree.Node) bool {
	for _, c := range children {
		if _, ok := c.(*tree.ExprContainer); ok {
			return true
		}
	}
	return false
}

func (v *visitor) text(t *tree.Text) {
	if !v.inTemplate() || v.cls.IsAlreadyWrapped(t) {
		return
	}
	text := strings.TrimSpace(t.Value)
	if !v.cls.ContainsTargetScript(text) {
		return
	}
	v.report(Occurrence{
		Node: t,
		Kind: MarkupText,
		Text: text,
		Plan: v.planner.MarkupText(t),
	})
}

// ---------------------------------------------------------------------------
// Positions
// ---------------------------------------------------------------------------

// Position returns the 1-based line and 0-based column (in characters) of
// byte offset off in src.
func Position(src []byte, off int) (line, column int) {
	if off > len(src) {
		off = len(src)
	}
	if off < 0 {
		off = 0
	}
	before := src[:off]
	line = bytes.Count(before, []byte{'\n'}) + 1
	if i := bytes.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}
	return line, utf8.RuneCount(before)
}
