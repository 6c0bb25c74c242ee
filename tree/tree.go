// Package tree is the syntax-tree model langkit operates on.
//
// langkit never parses JavaScript or Vue itself. A host parser (espree,
// @babel/parser, vue-eslint-parser, ...) produces the tree and this package
// holds it as a small set of tagged node variants. Every node knows its
// parent and its source range, which is all the rewrite step needs to
// address text edits.
//
// Supported variants:
//
//	Program          root, with the Vue templateBody when present
//	ImportDecl       import declaration with its specifiers
//	Literal          string/number/boolean literal, also JSXText
//	TemplateLiteral  `chunk${expr}chunk`
//	Call             callee(args...)
//	Member           object.property, object?.property
//	Ident            identifier reference
//	This             the this keyword
//	Property         object literal property
//	Element          VElement or JSXElement (Embedded)
//	Text             VText
//	ExprContainer    VExpressionContainer / JSXExpressionContainer
//	Attribute        VAttribute
//	Generic          any other node; only its children are kept
//
// Anything the tree model does not recognise degrades to Generic, so a
// partially understood tree is still walkable.
package tree

// Range is a half-open byte offset span [Start, End) into the source text.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by r.
func (r Range) Len() int {
	return r.End - r.Start
}

// Node is implemented by every tree variant.
type Node interface {
	// Kind returns the host parser's node type name (e.g. "Literal").
	Kind() string
	// Parent returns the syntactic parent, or nil at the root.
	Parent() Node
	// Range returns the node's source span.
	Range() Range
	// Children returns the direct child nodes in source order.
	Children() []Node

	setParent(Node)
	setRange(Range)
}

type base struct {
	kind   string
	parent Node
	rng    Range
}

func (b *base) Kind() string { return b.kind }
func (b *base) Parent() Node { return b.parent }
func (b *base) Range() Range { return b.rng }
func (b *base) setParent(p Node) { b.parent = p }
func (b *base) setRange(r Range) { b.rng = r }
func (b *base) init(kind string, r Range) { b.kind, b.rng = kind, r }

// ---------------------------------------------------------------------------
// Script nodes
// ---------------------------------------------------------------------------

// Program is the root of a parsed file.
type Program struct {
	base
	Body []Node
	// Template is the Vue templateBody, nil for plain scripts.
	Template *Element
	// HasTemplateBody reports whether the parser provided template
	// services at all (vue-eslint-parser sets templateBody, even to null).
	HasTemplateBody bool
}

func (n *Program) Children() []Node {
	out := append([]Node(nil), n.Body...)
	if n.Template != nil {
		out = append(out, n.Template)
	}
	return out
}

// Imports returns the top-level import declarations.
func (n *Program) Imports() []*ImportDecl {
	var out []*ImportDecl
	for _, s := range n.Body {
		if d, ok := s.(*ImportDecl); ok {
			out = append(out, d)
		}
	}
	return out
}

// ImportSpec is one binding of an import declaration.
type ImportSpec struct {
	Imported string
	Local    string
}

// ImportDecl is an ES module import declaration.
type ImportDecl struct {
	base
	Source     string
	Specifiers []ImportSpec
}

func (n *ImportDecl) Children() []Node { return nil }

// Binds reports whether the declaration binds name, either as the
// imported or the local identifier.
func (n *ImportDecl) Binds(name string) bool {
	for _, s := range n.Specifiers {
		if s.Imported == name || s.Local == name {
			return true
		}
	}
	return false
}

// Literal is a primitive literal. Value holds a string, float64, bool or nil.
type Literal struct {
	base
	Value any
	Raw   string
}

func (n *Literal) Children() []Node { return nil }

// StringValue returns the literal's string payload.
func (n *Literal) StringValue() (string, bool) {
	s, ok := n.Value.(string)
	return s, ok
}

// Quasi is one literal chunk of a template literal.
type Quasi struct {
	Raw    string
	Cooked string
	Range  Range
}

// TemplateLiteral is a backtick string with embedded expressions.
// len(Quasis) == len(Expressions)+1.
type TemplateLiteral struct {
	base
	Quasis      []Quasi
	Expressions []Node
}

func (n *TemplateLiteral) Children() []Node { return n.Expressions }

// Chunks returns the cooked text of every quasi, falling back to the raw
// text where the parser left cooked empty.
func (n *TemplateLiteral) Chunks() []string {
	out := make([]string, len(n.Quasis))
	for i, q := range n.Quasis {
		out[i] = q.Cooked
		if out[i] == "" {
			out[i] = q.Raw
		}
	}
	return out
}

// Call is a call expression.
type Call struct {
	base
	Callee    Node
	Arguments []Node
	Optional  bool
}

func (n *Call) Children() []Node {
	return append([]Node{n.Callee}, n.Arguments...)
}

// Member is a (possibly optional) member access.
type Member struct {
	base
	Object   Node
	Property Node
	Computed bool
	Optional bool
}

func (n *Member) Children() []Node { return []Node{n.Object, n.Property} }

// PropertyName returns the accessed name for non-computed access, or ""
// when the property is computed or not an identifier.
func (n *Member) PropertyName() string {
	if n.Computed {
		return ""
	}
	if id, ok := n.Property.(*Ident); ok {
		return id.Name
	}
	return ""
}

// Ident is an identifier reference (also PrivateIdentifier, VIdentifier).
type Ident struct {
	base
	Name string
}

func (n *Ident) Children() []Node { return nil }

// This is the this keyword.
type This struct {
	base
}

func (n *This) Children() []Node { return nil }

// Property is a property of an object literal.
type Property struct {
	base
	Key       Node
	Value     Node
	Computed  bool
	Shorthand bool
}

func (n *Property) Children() []Node { return []Node{n.Key, n.Value} }

// KeyName returns the static name of the property key.
func (n *Property) KeyName() string {
	if n.Computed {
		return ""
	}
	switch k := n.Key.(type) {
	case *Ident:
		return k.Name
	case *Literal:
		if s, ok := k.StringValue(); ok {
			return s
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Markup nodes
// ---------------------------------------------------------------------------

// Element is a markup element: a Vue template VElement, or a JSXElement
// when Embedded is set.
type Element struct {
	base
	Name       string
	Attributes []*Attribute
	Body       []Node
	Embedded   bool
	// Opening holds the JSX opening element (and its JSXAttributes).
	Opening Node
}

func (n *Element) Children() []Node {
	out := make([]Node, 0, len(n.Attributes)+len(n.Body)+1)
	if n.Opening != nil {
		out = append(out, n.Opening)
	}
	for _, a := range n.Attributes {
		out = append(out, a)
	}
	return append(out, n.Body...)
}

// Text is a Vue template text node.
type Text struct {
	base
	Value string
}

func (n *Text) Children() []Node { return nil }

// ExprContainer wraps an expression embedded in markup: {{ expr }} in a Vue
// template, {expr} in JSX, or a directive value.
type ExprContainer struct {
	base
	Expression Node
}

func (n *ExprContainer) Children() []Node {
	if n.Expression == nil {
		return nil
	}
	return []Node{n.Expression}
}

// Attribute is a Vue template attribute. Plain attributes carry Value;
// directives (v-bind, :prop, @event) carry Expr.
type Attribute struct {
	base
	Name      string
	Directive bool
	Value     string
	HasValue  bool
	Expr      *ExprContainer
}

func (n *Attribute) Children() []Node {
	if n.Expr == nil {
		return nil
	}
	return []Node{n.Expr}
}

// Generic is any node kind the model does not give a dedicated variant.
type Generic struct {
	base
	Kids []Node
}

func (n *Generic) Children() []Node { return n.Kids }

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// Link sets the parent pointer of every child below root. Decode calls it;
// callers that build trees by hand must call it before visiting.
func Link(root Node) {
	for _, c := range root.Children() {
		if c == nil {
			continue
		}
		c.setParent(root)
		Link(c)
	}
}

// New helpers used by Decode and by tests that build trees by hand.

func NewProgram(r Range, body ...Node) *Program {
	n := &Program{Body: body}
	n.init("Program", r)
	return n
}

func NewImport(r Range, source string, specs ...ImportSpec) *ImportDecl {
	n := &ImportDecl{Source: source, Specifiers: specs}
	n.init("ImportDeclaration", r)
	return n
}

func NewLiteral(r Range, value any, raw string) *Literal {
	n := &Literal{Value: value, Raw: raw}
	n.init("Literal", r)
	return n
}

func NewTemplateLiteral(r Range, quasis []Quasi, exprs ...Node) *TemplateLiteral {
	n := &TemplateLiteral{Quasis: quasis, Expressions: exprs}
	n.init("TemplateLiteral", r)
	return n
}

func NewCall(r Range, callee Node, args ...Node) *Call {
	n := &Call{Callee: callee, Arguments: args}
	n.init("CallExpression", r)
	return n
}

func NewMember(r Range, object, property Node, optional bool) *Member {
	n := &Member{Object: object, Property: property, Optional: optional}
	n.init("MemberExpression", r)
	return n
}

func NewIdent(r Range, name string) *Ident {
	n := &Ident{Name: name}
	n.init("Identifier", r)
	return n
}

func NewThis(r Range) *This {
	n := &This{}
	n.init("ThisExpression", r)
	return n
}

func NewProperty(r Range, key, value Node) *Property {
	n := &Property{Key: key, Value: value}
	n.init("Property", r)
	return n
}

func NewElement(r Range, name string, embedded bool, body ...Node) *Element {
	n := &Element{Name: name, Embedded: embedded, Body: body}
	kind := "VElement"
	if embedded {
		kind = "JSXElement"
	}
	n.init(kind, r)
	return n
}

func NewText(r Range, value string) *Text {
	n := &Text{Value: value}
	n.init("VText", r)
	return n
}

func NewExprContainer(r Range, expr Node) *ExprContainer {
	n := &ExprContainer{Expression: expr}
	n.init("VExpressionContainer", r)
	return n
}

func NewAttribute(r Range, name, value string) *Attribute {
	n := &Attribute{Name: name, Value: value, HasValue: true}
	n.init("VAttribute", r)
	return n
}

func NewGeneric(kind string, r Range, kids ...Node) *Generic {
	n := &Generic{Kids: kids}
	n.init(kind, r)
	return n
}

// Walk calls fn for n and then for each descendant in document order.
// Returning false from fn skips the node's subtree.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
