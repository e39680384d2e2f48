package render

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Mount point ids in a host document.
const (
	UpcomingRegionID = "upcoming-events"
	PastRegionID     = "past-events"
)

// Document is a parsed host page. Regions are looked up by element id; a
// page may carry both, one, or neither of the mount points.
type Document struct {
	root *html.Node
}

// ParseDocument parses a host page.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

// Region returns the element with the given id, or nil.
func (d *Document) Region(id string) *html.Node {
	if d == nil || d.root == nil {
		return nil
	}
	return findByID(d.root, id)
}

// RegionHTML serializes the children of a region. It returns "" when the
// region is absent.
func (d *Document) RegionHTML(id string) string {
	n := d.Region(id)
	if n == nil {
		return ""
	}
	return innerHTML(n)
}

// MarkReady sets data-ready="true" on <body>; page capture waits for it.
func (d *Document) MarkReady() {
	body := findElement(d.root, atom.Body)
	if body == nil {
		return
	}
	setAttr(body, "data-ready", "true")
}

// Bytes serializes the whole document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NodeHTML serializes a single node.
func NodeHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}

func innerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func clearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// element builds <tag class="class">text</tag>. Empty class or text are
// omitted.
func element(a atom.Atom, class, text string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return n
}
