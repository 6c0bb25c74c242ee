package keygen

import "github.com/icase-intl/langkit/tree"

// Stringify renders a variable reference as its dotted access path:
// identifiers by name, this as "this", and member access recursively with
// "?." for optional links. Any other shape (calls, computed access,
// literals) yields "".
func Stringify(expr tree.Node) string {
	switch e := expr.(type) {
	case *tree.Ident:
		return e.Name
	case *tree.This:
		return "this"
	case *tree.Member:
		prop := e.PropertyName()
		if prop == "" {
			return ""
		}
		object := Stringify(e.Object)
		if object == "" {
			return ""
		}
		if e.Optional {
			return object + "?." + prop
		}
		return object + "." + prop
	}
	return ""
}

// PlaceholderName derives the placeholder for expr: the identifier's own
// name, or the trailing property name of a member access.
func PlaceholderName(expr tree.Node) string {
	switch e := expr.(type) {
	case *tree.Ident:
		return e.Name
	case *tree.Member:
		return e.PropertyName()
	}
	return ""
}
