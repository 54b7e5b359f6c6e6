// Package render turns a block tree into deterministic, inert HTML.
// It is pure: no I/O, no clocks, and byte-identical output for the
// same input tree.
package render

import (
	"html"
	"strings"
)

// Attr is a single element attribute. Attributes serialize in
// insertion order so output stays deterministic.
type Attr struct {
	Key string
	Val string
}

// Node is one markup element or text leaf. A node with an empty Tag is
// a text leaf; its Text is HTML-escaped at serialization time, so the
// output can never carry active content.
type Node struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Node
	Void     bool
}

// Element creates an element node with the given children.
func Element(tag string, children ...*Node) *Node {
	return &Node{Tag: tag, Children: children}
}

// Text creates a text leaf.
func Text(s string) *Node {
	return &Node{Text: s}
}

// WithAttr appends an attribute and returns the node for chaining.
func (n *Node) WithAttr(key, val string) *Node {
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
	return n
}

// Append adds children and returns the node for chaining.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// HTML serializes the node tree.
func (n *Node) HTML() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n.Tag == "" {
		b.WriteString(html.EscapeString(n.Text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, attr := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(attr.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(attr.Val))
		b.WriteByte('"')
	}
	if n.Void {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	for _, child := range n.Children {
		child.write(b)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}
