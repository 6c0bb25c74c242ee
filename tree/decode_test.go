package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scriptDump = `{
  "type": "Program",
  "range": [0, 60],
  "body": [
    {
      "type": "ImportDeclaration",
      "range": [0, 38],
      "source": {"type": "Literal", "value": "@/locales/index", "raw": "'@/locales/index'", "range": [19, 37]},
      "specifiers": [
        {"type": "ImportSpecifier", "imported": {"type": "Identifier", "name": "lang"}, "local": {"type": "Identifier", "name": "t"}}
      ]
    },
    {
      "type": "ExpressionStatement",
      "range": [39, 60],
      "expression": {
        "type": "CallExpression",
        "range": [39, 59],
        "callee": {"type": "Identifier", "name": "alert", "range": [39, 44]},
        "arguments": [
          {"type": "Literal", "value": "你好", "raw": "'你好'", "range": [45, 53]},
          {"type": "ChainExpression", "range": [54, 58], "expression": {
            "type": "MemberExpression", "optional": true, "computed": false, "range": [54, 58],
            "object": {"type": "Identifier", "name": "a", "range": [54, 55]},
            "property": {"type": "Identifier", "name": "b", "range": [57, 58]}
          }}
        ]
      }
    }
  ]
}`

func TestDecodeScript(t *testing.T) {
	prog, err := Decode([]byte(scriptDump))
	require.NoError(t, err)

	assert.False(t, prog.HasTemplateBody)
	require.Len(t, prog.Imports(), 1)
	imp := prog.Imports()[0]
	assert.Equal(t, "@/locales/index", imp.Source)
	assert.True(t, imp.Binds("lang"))
	assert.True(t, imp.Binds("t"))
	assert.False(t, imp.Binds("other"))

	stmt, ok := prog.Body[1].(*Generic)
	require.True(t, ok)
	assert.Equal(t, "ExpressionStatement", stmt.Kind())

	call, ok := stmt.Kids[0].(*Call)
	require.True(t, ok)
	lit, ok := call.Arguments[0].(*Literal)
	require.True(t, ok)
	s, ok := lit.StringValue()
	require.True(t, ok)
	assert.Equal(t, "你好", s)
	assert.Equal(t, Range{Start: 45, End: 53}, lit.Range())
	assert.Same(t, call, lit.Parent())

	// ChainExpression is unwrapped.
	m, ok := call.Arguments[1].(*Member)
	require.True(t, ok)
	assert.True(t, m.Optional)
	assert.Equal(t, "b", m.PropertyName())
}

const vueDump = `{
  "type": "Program",
  "start": 0, "end": 0,
  "body": [],
  "templateBody": {
    "type": "VElement", "name": "template", "range": [0, 60],
    "startTag": {"attributes": []},
    "children": [
      {
        "type": "VElement", "rawName": "p", "range": [10, 48],
        "startTag": {"attributes": [
          {"type": "VAttribute", "directive": false, "range": [13, 25],
           "key": {"type": "VIdentifier", "name": "title", "rawName": "title"},
           "value": {"type": "VLiteral", "value": "标题"}},
          {"type": "VAttribute", "directive": true, "range": [26, 33],
           "key": {"type": "VDirectiveKey", "name": {"type": "VIdentifier", "name": "bind"}, "argument": {"type": "VIdentifier", "name": "id"}},
           "value": {"type": "VExpressionContainer", "range": [30, 33], "expression": {"type": "Identifier", "name": "x", "range": [31, 32]}}}
        ]},
        "children": [
          {"type": "VText", "value": "你好", "range": [34, 40]},
          {"type": "VExpressionContainer", "range": [40, 48], "expression": {"type": "Identifier", "name": "name", "range": [43, 47]}}
        ]
      }
    ]
  }
}`

func TestDecodeVueTemplate(t *testing.T) {
	prog, err := Decode([]byte(vueDump))
	require.NoError(t, err)
	require.True(t, prog.HasTemplateBody)
	require.NotNil(t, prog.Template)

	p, ok := prog.Template.Body[0].(*Element)
	require.True(t, ok)
	assert.Equal(t, "p", p.Name)
	assert.False(t, p.Embedded)
	require.Len(t, p.Attributes, 2)

	title := p.Attributes[0]
	assert.Equal(t, "title", title.Name)
	assert.Equal(t, "标题", title.Value)
	assert.False(t, title.Directive)

	bind := p.Attributes[1]
	assert.True(t, bind.Directive)
	assert.Equal(t, "id", bind.Name)
	require.NotNil(t, bind.Expr)

	text, ok := p.Body[0].(*Text)
	require.True(t, ok)
	assert.Equal(t, "你好", text.Value)
	assert.Same(t, p, text.Parent())

	c, ok := p.Body[1].(*ExprContainer)
	require.True(t, ok)
	id, ok := c.Expression.(*Ident)
	require.True(t, ok)
	assert.Equal(t, "name", id.Name)
	assert.Same(t, c, id.Parent())
}

func TestDecodeWrappedRoot(t *testing.T) {
	prog, err := Decode([]byte(`{"ast": {"type": "Program", "body": []}}`))
	require.NoError(t, err)
	assert.Empty(t, prog.Body)
}

func TestDecodeNewExpression(t *testing.T) {
	prog, err := Decode([]byte(`{"type": "Program", "range": [0, 17], "body": [
		{"type": "ExpressionStatement", "range": [0, 17], "expression": {
			"type": "NewExpression", "range": [0, 16],
			"callee": {"type": "Identifier", "name": "LangText", "range": [4, 12]},
			"arguments": [{"type": "Literal", "value": "你", "raw": "'你'", "range": [13, 16]}]
		}}
	]}`))
	require.NoError(t, err)
	require.Len(t, prog.Body, 1)

	stmt, ok := prog.Body[0].(*Generic)
	require.True(t, ok)
	call, ok := stmt.Kids[0].(*Call)
	require.True(t, ok, "got %T", stmt.Kids[0])
	assert.Equal(t, "NewExpression", call.Kind())
	assert.Equal(t, "LangText", call.Callee.(*Ident).Name)
	require.Len(t, call.Arguments, 1)
	assert.Same(t, call, call.Arguments[0].Parent())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = Decode([]byte(`{"type": "File"}`))
	assert.ErrorIs(t, err, ErrNotProgram)
}

func TestWalkSkipsSubtree(t *testing.T) {
	prog, err := Decode([]byte(scriptDump))
	require.NoError(t, err)

	var kinds []string
	Walk(prog, func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() != "CallExpression"
	})
	assert.Equal(t, []string{"Program", "ImportDeclaration", "ExpressionStatement", "CallExpression"}, kinds)
}
