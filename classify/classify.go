// Package classify decides whether literal text needs internationalizing.
//
// A literal needs work when it contains target-script characters (CJK
// Unified Ideographs by default) and is not already an argument of a
// lookup call such as lang('...'), $lang('...') or this.$lang('...').
package classify

import (
	"strings"
	"unicode"

	"github.com/icase-intl/langkit/tree"
)

// DefaultMarker is the substring that identifies a lookup function name.
const DefaultMarker = "lang"

// CJKUnified is the CJK Unified Ideographs block, U+4E00..U+9FFF.
var CJKUnified = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1},
	},
}

// Classifier holds the script and marker used for classification.
// The zero value uses CJKUnified and DefaultMarker.
type Classifier struct {
	Script *unicode.RangeTable
	Marker string
}

// Default is the classifier used by the package-level helpers.
var Default = Classifier{}

func (c Classifier) script() *unicode.RangeTable {
	if c.Script != nil {
		return c.Script
	}
	return CJKUnified
}

func (c Classifier) marker() string {
	if c.Marker != "" {
		return c.Marker
	}
	return DefaultMarker
}

// ContainsTargetScript reports whether text has at least one rune of the
// target script.
func (c Classifier) ContainsTargetScript(text string) bool {
	table := c.script()
	for _, r := range text {
		if unicode.Is(table, r) {
			return true
		}
	}
	return false
}

// IsTextual reports whether v is a string payload.
func IsTextual(v any) bool {
	_, ok := v.(string)
	return ok
}

// IsAlreadyWrapped inspects the immediate parent of n.
//
// For a call parent the callee must be an identifier or a member access
// whose name contains the marker. Inside an embedded markup region (a JSX
// element) the node's own text is searched for the marker instead.
func (c Classifier) IsAlreadyWrapped(n tree.Node) bool {
	if n == nil {
		return false
	}
	switch p := n.Parent().(type) {
	case *tree.Call:
		return c.isLookupCallee(p.Callee)
	case *tree.Element:
		if p.Embedded {
			return strings.Contains(textOf(n), c.marker())
		}
	}
	return false
}

// IsLookupCall reports whether call invokes a lookup function.
func (c Classifier) IsLookupCall(call *tree.Call) bool {
	return call != nil && c.isLookupCallee(call.Callee)
}

func (c Classifier) isLookupCallee(callee tree.Node) bool {
	switch fn := callee.(type) {
	case *tree.Ident:
		return strings.Contains(fn.Name, c.marker())
	case *tree.Member:
		return strings.Contains(fn.PropertyName(), c.marker())
	}
	return false
}

func textOf(n tree.Node) string {
	switch v := n.(type) {
	case *tree.Literal:
		if s, ok := v.StringValue(); ok {
			return s
		}
		return v.Raw
	case *tree.Text:
		return v.Value
	}
	return ""
}

// ContainsTargetScript uses the Default classifier.
func ContainsTargetScript(text string) bool { return Default.ContainsTargetScript(text) }

// IsAlreadyWrapped uses the Default classifier.
func IsAlreadyWrapped(n tree.Node) bool { return Default.IsAlreadyWrapped(n) }
