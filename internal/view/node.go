// Package view is the headless rendering layer: a small element tree that
// controllers mutate in place and that serialises to HTML for the browser or
// to styled text for the terminal.
package view

import (
	"html"
	"io"
	"sort"
	"strings"
)

// Node is an element of the virtual tree.
type Node struct {
	Tag      string
	ID       string
	Classes  []string
	Attrs    map[string]string
	Text     string // escaped on output
	Raw      string // trusted markup, written as is after Text
	Children []*Node
}

// El creates an element with the given tag and classes.
func El(tag string, classes ...string) *Node {
	return &Node{Tag: tag, Classes: append([]string(nil), classes...)}
}

// WithID sets the element id.
func (n *Node) WithID(id string) *Node {
	n.ID = id
	return n
}

// WithText sets the text content.
func (n *Node) WithText(text string) *Node {
	n.Text = text
	return n
}

// Set sets an attribute.
func (n *Node) Set(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	return n
}

// Attr returns an attribute value.
func (n *Node) Attr(key string) string {
	return n.Attrs[key]
}

// Unset removes an attribute.
func (n *Node) Unset(key string) {
	delete(n.Attrs, key)
}

// On wires a browser event on this element to a dispatch route
// ("component:event"). The target travels with the event.
func (n *Node) On(event, route, target string) *Node {
	n.Set("data-on-"+event, route)
	if target != "" {
		n.Set("data-target", target)
	}
	return n
}

// Append adds children at the end.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Prepend adds a child at the front.
func (n *Node) Prepend(child *Node) *Node {
	if child == nil {
		return n
	}
	n.Children = append([]*Node{child}, n.Children...)
	return n
}

// Remove detaches child from n. It reports whether the child was found.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes all children and text.
func (n *Node) Clear() {
	n.Children = nil
	n.Text = ""
	n.Raw = ""
}

// HasClass reports whether the element carries class c.
func (n *Node) HasClass(c string) bool {
	for _, have := range n.Classes {
		if have == c {
			return true
		}
	}
	return false
}

// AddClass adds class c once.
func (n *Node) AddClass(c string) {
	if !n.HasClass(c) {
		n.Classes = append(n.Classes, c)
	}
}

// RemoveClass removes class c.
func (n *Node) RemoveClass(c string) {
	out := n.Classes[:0]
	for _, have := range n.Classes {
		if have != c {
			out = append(out, have)
		}
	}
	n.Classes = out
}

// Find returns the first descendant (or n itself) with the given id.
func (n *Node) Find(id string) *Node {
	return n.First(func(x *Node) bool { return x.ID == id })
}

// First returns the first node in depth-first order matching pred.
func (n *Node) First(pred func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	if pred(n) {
		return n
	}
	for _, c := range n.Children {
		if found := c.First(pred); found != nil {
			return found
		}
	}
	return nil
}

// All returns every node in depth-first order matching pred.
func (n *Node) All(pred func(*Node) bool) []*Node {
	var out []*Node
	n.walk(func(x *Node) {
		if pred(x) {
			out = append(out, x)
		}
	})
	return out
}

func (n *Node) walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// TextContent concatenates the text of n and its descendants.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.walk(func(x *Node) { b.WriteString(x.Text) })
	return b.String()
}

// voidTags never carry children or a closing tag.
var voidTags = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true, "meta": true, "link": true,
}

// WriteHTML serialises the tree. Attributes are written in sorted order so
// output is stable.
func (n *Node) WriteHTML(w io.Writer) error {
	var b strings.Builder
	n.writeHTML(&b)
	_, err := io.WriteString(w, b.String())
	return err
}

// HTML returns the serialised tree.
func (n *Node) HTML() string {
	var b strings.Builder
	n.writeHTML(&b)
	return b.String()
}

func (n *Node) writeHTML(b *strings.Builder) {
	if n == nil {
		return
	}
	if n.Tag == "" {
		b.WriteString(html.EscapeString(n.Text))
		b.WriteString(n.Raw)
		return
	}

	b.WriteByte('<')
	b.WriteString(n.Tag)
	if n.ID != "" {
		writeAttr(b, "id", n.ID)
	}
	if len(n.Classes) > 0 {
		writeAttr(b, "class", strings.Join(n.Classes, " "))
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeAttr(b, k, n.Attrs[k])
	}
	b.WriteByte('>')
	if voidTags[n.Tag] {
		return
	}

	b.WriteString(html.EscapeString(n.Text))
	b.WriteString(n.Raw)
	for _, c := range n.Children {
		c.writeHTML(b)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}

func writeAttr(b *strings.Builder, key, value string) {
	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteByte('"')
}
