package tree

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidJSON is returned when an AST dump is not valid JSON.
	ErrInvalidJSON = errors.New("invalid AST JSON")
	// ErrNotProgram is returned when the dump root is not a Program node.
	ErrNotProgram = errors.New("AST root is not a Program")
)

// skipFields are ESTree object members that never hold child nodes, or
// that Decode handles separately.
var skipFields = map[string]bool{
	"type":         true,
	"parent":       true,
	"loc":          true,
	"range":        true,
	"start":        true,
	"end":          true,
	"tokens":       true,
	"comments":     true,
	"errors":       true,
	"templateBody": true,
	"extra":        true,
}

// DecodeFile reads and decodes an AST dump from disk.
func DecodeFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	prog, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return prog, nil
}

// Decode builds a tree from an ESTree JSON dump, as written by espree,
// @babel/parser (estree plugin) or vue-eslint-parser. The root may be the
// Program itself or an object with an "ast" member holding it. Offsets are
// read from "range" when present, otherwise from "start"/"end".
func Decode(data []byte) (*Program, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	if t := root.Get("type").String(); t != "Program" {
		ast := root.Get("ast")
		if ast.Get("type").String() != "Program" {
			return nil, fmt.Errorf("%w: got %q", ErrNotProgram, t)
		}
		root = ast
	}

	prog := NewProgram(rangeOf(root), decodeList(root.Get("body"))...)
	if tb := root.Get("templateBody"); tb.Exists() {
		prog.HasTemplateBody = true
		if el, ok := decodeNode(tb).(*Element); ok {
			prog.Template = el
		}
	}
	Link(prog)
	return prog, nil
}

func rangeOf(v gjson.Result) Range {
	if r := v.Get("range"); r.IsArray() {
		a := r.Array()
		if len(a) == 2 {
			return Range{Start: int(a[0].Int()), End: int(a[1].Int())}
		}
	}
	return Range{Start: int(v.Get("start").Int()), End: int(v.Get("end").Int())}
}

func decodeList(v gjson.Result) []Node {
	var out []Node
	v.ForEach(func(_, item gjson.Result) bool {
		if n := decodeNode(item); n != nil {
			out = append(out, n)
		}
		return true
	})
	return out
}

func literalValue(v gjson.Result) any {
	switch v.Type {
	case gjson.String:
		return v.String()
	case gjson.Number:
		return v.Float()
	case gjson.True:
		return true
	case gjson.False:
		return false
	default:
		return nil
	}
}

func decodeNode(v gjson.Result) Node {
	if !v.IsObject() {
		return nil
	}
	kind := v.Get("type").String()
	r := rangeOf(v)

	switch kind {
	case "ChainExpression", "ParenthesizedExpression", "TSNonNullExpression":
		return decodeNode(v.Get("expression"))

	case "Literal", "StringLiteral", "NumericLiteral", "BooleanLiteral", "NullLiteral", "JSXText":
		raw := v.Get("raw").String()
		if raw == "" {
			raw = v.Get("extra.raw").String()
		}
		n := NewLiteral(r, literalValue(v.Get("value")), raw)
		n.kind = kind
		return n

	case "TemplateLiteral":
		var quasis []Quasi
		v.Get("quasis").ForEach(func(_, q gjson.Result) bool {
			quasis = append(quasis, Quasi{
				Raw:    q.Get("value.raw").String(),
				Cooked: q.Get("value.cooked").String(),
				Range:  rangeOf(q),
			})
			return true
		})
		return NewTemplateLiteral(r, quasis, decodeList(v.Get("expressions"))...)

	case "CallExpression", "OptionalCallExpression", "NewExpression":
		callee := decodeNode(v.Get("callee"))
		if callee == nil {
			callee = NewGeneric("Unknown", r)
		}
		n := NewCall(r, callee, decodeList(v.Get("arguments"))...)
		n.kind = kind
		n.Optional = v.Get("optional").Bool()
		return n

	case "MemberExpression", "OptionalMemberExpression":
		object := decodeNode(v.Get("object"))
		if object == nil {
			object = NewGeneric("Unknown", r)
		}
		property := decodeNode(v.Get("property"))
		if property == nil {
			property = NewGeneric("Unknown", r)
		}
		n := NewMember(r, object, property, v.Get("optional").Bool())
		n.kind = kind
		n.Computed = v.Get("computed").Bool()
		return n

	case "Identifier", "PrivateIdentifier", "JSXIdentifier", "VIdentifier":
		n := NewIdent(r, v.Get("name").String())
		n.kind = kind
		return n

	case "ThisExpression":
		return NewThis(r)

	case "Property", "ObjectProperty":
		key := decodeNode(v.Get("key"))
		if key == nil {
			key = NewGeneric("Unknown", r)
		}
		value := decodeNode(v.Get("value"))
		if value == nil {
			value = NewGeneric("Unknown", r)
		}
		n := NewProperty(r, key, value)
		n.kind = kind
		n.Computed = v.Get("computed").Bool()
		n.Shorthand = v.Get("shorthand").Bool()
		return n

	case "ImportDeclaration":
		var specs []ImportSpec
		v.Get("specifiers").ForEach(func(_, s gjson.Result) bool {
			imported := s.Get("imported.name").String()
			if imported == "" {
				imported = s.Get("imported.value").String()
			}
			specs = append(specs, ImportSpec{Imported: imported, Local: s.Get("local.name").String()})
			return true
		})
		return NewImport(r, v.Get("source.value").String(), specs...)

	case "VElement":
		name := v.Get("rawName").String()
		if name == "" {
			name = v.Get("name").String()
		}
		n := NewElement(r, name, false, decodeList(v.Get("children"))...)
		v.Get("startTag.attributes").ForEach(func(_, a gjson.Result) bool {
			if attr, ok := decodeNode(a).(*Attribute); ok {
				n.Attributes = append(n.Attributes, attr)
			}
			return true
		})
		return n

	case "JSXElement", "JSXFragment":
		opening := v.Get("openingElement")
		n := NewElement(r, opening.Get("name.name").String(), true, decodeList(v.Get("children"))...)
		n.kind = kind
		if opening.Exists() {
			n.Opening = NewGeneric("JSXOpeningElement", rangeOf(opening), decodeList(opening.Get("attributes"))...)
		}
		return n

	case "VText":
		return NewText(r, v.Get("value").String())

	case "VExpressionContainer", "JSXExpressionContainer":
		n := NewExprContainer(r, decodeNode(v.Get("expression")))
		n.kind = kind
		return n

	case "VAttribute":
		attr := &Attribute{Directive: v.Get("directive").Bool()}
		attr.init(kind, r)
		key := v.Get("key")
		if attr.Directive {
			attr.Name = key.Get("argument.name").String()
			if attr.Name == "" {
				attr.Name = key.Get("name.name").String()
			}
		} else {
			attr.Name = key.Get("rawName").String()
			if attr.Name == "" {
				attr.Name = key.Get("name").String()
			}
		}
		value := v.Get("value")
		switch value.Get("type").String() {
		case "VLiteral":
			attr.Value = value.Get("value").String()
			attr.HasValue = true
		case "VExpressionContainer":
			if c, ok := decodeNode(value).(*ExprContainer); ok {
				attr.Expr = c
			}
		}
		return attr
	}

	return NewGeneric(kind, r, genericChildren(v)...)
}

// genericChildren collects every nested node of an unknown node kind,
// ordered by source position.
func genericChildren(v gjson.Result) []Node {
	var out []Node
	v.ForEach(func(key, field gjson.Result) bool {
		if skipFields[key.String()] {
			return true
		}
		switch {
		case field.IsArray():
			out = append(out, decodeList(field)...)
		case field.IsObject() && field.Get("type").Exists():
			if n := decodeNode(field); n != nil {
				out = append(out, n)
			}
		}
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range().Start < out[j].Range().Start
	})
	return out
}
