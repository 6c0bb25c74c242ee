package tree

import (
	"unicode/utf16"
	"unicode/utf8"
)

// Offsets maps UTF-16 code unit offsets, which JavaScript parsers report,
// to byte offsets into the UTF-8 source.
type Offsets struct {
	bytes []int
}

// NewOffsets indexes src.
func NewOffsets(src []byte) *Offsets {
	o := &Offsets{bytes: make([]int, 0, len(src)+1)}
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRune(src[i:])
		units := 1
		if size > 1 {
			if n := utf16.RuneLen(r); n > 0 {
				units = n
			}
		}
		for u := 0; u < units; u++ {
			o.bytes = append(o.bytes, i)
		}
		i += size
	}
	o.bytes = append(o.bytes, len(src))
	return o
}

// Byte returns the byte offset of code unit u, clamped to the source.
func (o *Offsets) Byte(u int) int {
	switch {
	case u <= 0:
		return 0
	case u >= len(o.bytes):
		return o.bytes[len(o.bytes)-1]
	}
	return o.bytes[u]
}

// Rebase converts every range below root, template quasis included, from
// UTF-16 code units to byte offsets of src. Sources without multi-byte
// characters are left alone.
func Rebase(root Node, src []byte) {
	if root == nil || utf8.RuneCount(src) == len(src) {
		return
	}
	o := NewOffsets(src)
	conv := func(r Range) Range {
		return Range{Start: o.Byte(r.Start), End: o.Byte(r.End)}
	}
	Walk(root, func(n Node) bool {
		n.setRange(conv(n.Range()))
		if t, ok := n.(*TemplateLiteral); ok {
			for i := range t.Quasis {
				t.Quasis[i].Range = conv(t.Quasis[i].Range)
			}
		}
		return true
	})
}
