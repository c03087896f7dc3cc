package tagtree

import (
	"strings"

	"golang.org/x/net/html"
)

// Inline style elements grouped by the marker they map to. b/strong and
// em/i are interchangeable within a group.
func styleGroup(tag string) string {
	switch tag {
	case "b", "strong":
		return "bold"
	case "em", "i":
		return "italic"
	default:
		return ""
	}
}

func isInlineStyle(tag string) bool {
	return styleGroup(tag) != ""
}

// cleanup repairs the sloppy markup the editors emit before the walker
// runs: empty style elements, whitespace-only style elements, directly
// nested duplicate styles and styled edge whitespace.
func cleanup(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanup(c)
		c = next
	}

	if n.Type != html.ElementNode || n.Parent == nil {
		return
	}
	if !isInlineStyle(n.Data) && n.Data != "a" {
		return
	}

	if only := soleElementChild(n); only != nil && styleGroup(only.Data) == styleGroup(n.Data) && isInlineStyle(n.Data) {
		unwrap(only)
	}

	if !hasMediaDescendant(n) {
		txt := textContent(n)
		if txt == "" {
			n.Parent.RemoveChild(n)
			return
		}
		if strings.TrimSpace(txt) == "" && isInlineStyle(n.Data) {
			ws := &html.Node{Type: html.TextNode, Data: txt}
			n.Parent.InsertBefore(ws, n)
			n.Parent.RemoveChild(n)
			return
		}
	}

	hoistEdgeWhitespace(n)
}

// hoistEdgeWhitespace moves leading and trailing whitespace of a styled
// element's own text children outside the element.
func hoistEdgeWhitespace(n *html.Node) {
	if first := n.FirstChild; first != nil && first.Type == html.TextNode {
		trimmed := strings.TrimLeft(first.Data, " \t\n\r")
		if lead := first.Data[:len(first.Data)-len(trimmed)]; lead != "" {
			n.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: lead}, n)
			first.Data = trimmed
		}
	}
	if last := n.LastChild; last != nil && last.Type == html.TextNode {
		trimmed := strings.TrimRight(last.Data, " \t\n\r")
		if trail := last.Data[len(trimmed):]; trail != "" {
			n.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: trail}, n.NextSibling)
			last.Data = trimmed
		}
	}
}

// soleElementChild returns the single element child when every other
// child is whitespace-only text.
func soleElementChild(n *html.Node) *html.Node {
	var elem *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if elem != nil {
				return nil
			}
			elem = c
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		}
	}
	return elem
}

// unwrap replaces an element with its own children.
func unwrap(n *html.Node) {
	p := n.Parent
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		p.InsertBefore(c, n)
		c = next
	}
	p.RemoveChild(n)
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func hasMediaDescendant(n *html.Node) bool {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "img", "iframe", "embed", "video", "audio":
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasMediaDescendant(c) {
			return true
		}
	}
	return false
}
