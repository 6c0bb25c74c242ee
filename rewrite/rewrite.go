// Package rewrite turns a detected occurrence into source edits.
//
// Every occurrence becomes a lookup call. The callee depends on where the
// text lives:
//
//	plain script (.js/.ts)          lang('...')       + import if missing
//	component script (.vue)         this.$lang('...')
//	component template              $lang('...')
//
// Edits produced for one occurrence form a Plan and are applied together
// by Apply, or not at all.
package rewrite

import (
	"strings"

	"github.com/icase-intl/langkit/keygen"
	"github.com/icase-intl/langkit/tree"
)

// Context is the syntactic region an occurrence sits in.
type Context int

const (
	// PlainScript is code in a non-component file.
	PlainScript Context = iota
	// ComponentScript is the script block of a single-file component.
	ComponentScript
	// Template is markup or template interpolation of a component.
	Template
)

func (c Context) String() string {
	switch c {
	case ComponentScript:
		return "component-script"
	case Template:
		return "template"
	default:
		return "script"
	}
}

// Default lookup names.
const (
	DefaultName          = "lang"
	DefaultComponentName = "$lang"
	DefaultImportSource  = "@/locales/index"
)

// Lookup names the lookup function in each context.
type Lookup struct {
	// Name is the plain-script function, imported explicitly.
	Name string
	// ComponentName is the instance method used in components.
	ComponentName string
	// ImportSource is the module Name is imported from.
	ImportSource string
}

func (l Lookup) name() string {
	if l.Name != "" {
		return l.Name
	}
	return DefaultName
}

func (l Lookup) componentName() string {
	if l.ComponentName != "" {
		return l.ComponentName
	}
	return DefaultComponentName
}

func (l Lookup) importSource() string {
	if l.ImportSource != "" {
		return l.ImportSource
	}
	return DefaultImportSource
}

// Prefix returns the callee for ctx.
func (l Lookup) Prefix(ctx Context) string {
	switch ctx {
	case ComponentScript:
		return "this." + l.componentName()
	case Template:
		return l.componentName()
	default:
		return l.name()
	}
}

// Call renders prefix('key') or prefix('key', {args}).
func (l Lookup) Call(ctx Context, key string, bindings keygen.Bindings) string {
	var b strings.Builder
	b.WriteString(l.Prefix(ctx))
	b.WriteByte('(')
	b.WriteString(Quote(key))
	if len(bindings) > 0 {
		b.WriteString(", ")
		b.WriteString(ArgumentObject(bindings))
	}
	b.WriteByte(')')
	return b.String()
}

// ArgumentObject renders bindings as an object literal, using shorthand
// {name} where the name equals the path.
func ArgumentObject(bindings keygen.Bindings) string {
	parts := make([]string, len(bindings))
	for i, bd := range bindings {
		if bd.Shorthand() {
			parts[i] = bd.Name
		} else {
			parts[i] = bd.Name + ": " + bd.Path
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

var quoteReplacer = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// Quote renders s as a single-quoted JavaScript string literal.
func Quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}

// attrEscape makes a JavaScript expression safe inside a double-quoted
// markup attribute.
var attrEscape = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;")

// ---------------------------------------------------------------------------
// Planner
// ---------------------------------------------------------------------------

// Plan is the set of edits for one occurrence.
type Plan []Edit

// Planner produces plans for the occurrences of one file.
type Planner struct {
	Lookup  Lookup
	Program *tree.Program
	// Component is set for single-file components.
	Component bool
}

// ImportEdit returns the import insertion for a plain script, unless an
// import already binds the lookup name.
func (p *Planner) ImportEdit() (Edit, bool) {
	if p.Component || p.Program == nil {
		return Edit{}, false
	}
	name := p.Lookup.name()
	for _, imp := range p.Program.Imports() {
		if imp.Binds(name) {
			return Edit{}, false
		}
	}
	text := "import { " + name + " } from " + Quote(p.Lookup.importSource()) + "\n"
	return Edit{Start: 0, End: 0, Text: text}, true
}

func (p *Planner) withImport(ctx Context, edits ...Edit) Plan {
	plan := Plan(edits)
	if ctx == PlainScript {
		if imp, ok := p.ImportEdit(); ok {
			plan = append(Plan{imp}, plan...)
		}
	}
	return plan
}

// needsBraces reports whether a call replacing n must be wrapped in {} to
// stay valid: JSX children and JSX attribute values.
func needsBraces(n tree.Node) bool {
	switch parent := n.Parent().(type) {
	case *tree.Element:
		return parent.Embedded
	case *tree.Generic:
		return parent.Kind() == "JSXAttribute"
	}
	return false
}

// Literal rewrites a string literal to a lookup call with key text.
func (p *Planner) Literal(ctx Context, lit *tree.Literal, text string) Plan {
	call := p.Lookup.Call(ctx, text, nil)
	rng := lit.Range()
	if needsBraces(lit) {
		if lit.Kind() == "JSXText" {
			return p.withImport(ctx, keepOuterSpace(rng, rawOf(lit), "{"+call+"}"))
		}
		call = "{" + call + "}"
	}
	return p.withImport(ctx, Edit{Start: rng.Start, End: rng.End, Text: call})
}

// Interpolated rewrites a template literal using its reconstructed key.
func (p *Planner) Interpolated(ctx Context, n *tree.TemplateLiteral, res keygen.Result) Plan {
	if !res.Resolved() {
		return nil
	}
	rng := n.Range()
	return p.withImport(ctx, Edit{Start: rng.Start, End: rng.End, Text: p.Lookup.Call(ctx, res.Key, res.Bindings)})
}

// Attribute turns a static template attribute into a bound one:
// title="文本" becomes :title="$lang('文本')".
func (p *Planner) Attribute(attr *tree.Attribute) Plan {
	call := p.Lookup.Call(Template, attr.Value, nil)
	rng := attr.Range()
	return Plan{{Start: rng.Start, End: rng.End, Text: ":" + attr.Name + `="` + attrEscape.Replace(call) + `"`}}
}

// Property replaces the value of an object property inside a template
// expression: {label: '文本'} becomes {label: $lang('文本')}.
func (p *Planner) Property(prop *tree.Property, text string) Plan {
	rng := prop.Value.Range()
	return Plan{{Start: rng.Start, End: rng.End, Text: p.Lookup.Call(Template, text, nil)}}
}

// MarkupText wraps a template text node: {{ $lang('文本') }}. Surrounding
// whitespace stays outside the interpolation.
func (p *Planner) MarkupText(n *tree.Text) Plan {
	text := strings.TrimSpace(n.Value)
	return Plan{keepOuterSpace(n.Range(), n.Value, "{{ "+p.Lookup.Call(Template, text, nil)+" }}")}
}

// MarkupRegion replaces every child of el, from the first to the last, with
// one interpolation built from the reconstructed key.
func (p *Planner) MarkupRegion(el *tree.Element, res keygen.Result) Plan {
	if !res.Resolved() || len(el.Body) == 0 {
		return nil
	}
	first, last := el.Body[0], el.Body[len(el.Body)-1]
	start, end := first.Range().Start, last.Range().End

	var lead, trail string
	if t, ok := first.(*tree.Text); ok {
		lead = t.Value[:len(t.Value)-len(strings.TrimLeft(t.Value, " \t\r\n"))]
	}
	if t, ok := last.(*tree.Text); ok {
		trail = t.Value[len(strings.TrimRight(t.Value, " \t\r\n")):]
	}
	call := "{{ " + p.Lookup.Call(Template, res.Key, res.Bindings) + " }}"
	return Plan{{Start: start, End: end, Text: lead + call + trail}}
}

// keepOuterSpace replaces rng with repl, carrying over the leading and
// trailing whitespace of the original text.
func keepOuterSpace(rng tree.Range, original, repl string) Edit {
	trimmedLeft := strings.TrimLeft(original, " \t\r\n")
	lead := original[:len(original)-len(trimmedLeft)]
	trail := trimmedLeft[len(strings.TrimRight(trimmedLeft, " \t\r\n")):]
	return Edit{Start: rng.Start, End: rng.End, Text: lead + repl + trail}
}

func rawOf(lit *tree.Literal) string {
	if lit.Raw != "" {
		return lit.Raw
	}
	s, _ := lit.StringValue()
	return s
}
