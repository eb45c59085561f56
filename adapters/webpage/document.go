package webpage

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/pbxtools/pbxdoc/ports"
)

// Document is one parsed admin page. Implements ports.Page.
type Document struct {
	root *html.Node
}

// Parse builds a Document from raw markup.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{root: root}, nil
}

// Text returns the text content of the first element matching the location.
func (d *Document) Text(loc ports.PageLocation) (string, error) {
	node := findElement(d.root, loc)
	if node == nil {
		return "", fmt.Errorf("no element matches %s", loc)
	}
	return nodeText(node), nil
}

// TableAfter finds the heading with the given text and returns the cell
// texts of the rows following it in the enclosing table. The heading's own
// row and the column-header row beneath it are skipped.
func (d *Document) TableAfter(heading string) ([][]string, error) {
	h := findText(d.root, heading)
	if h == nil {
		return nil, fmt.Errorf("no heading with text %q", heading)
	}
	table := ancestorElement(h, "table")
	if table == nil {
		return nil, fmt.Errorf("heading %q is not inside a table", heading)
	}

	trs := collectElements(table, "tr")
	start := 0
	for i, tr := range trs {
		if contains(tr, h) {
			start = i + 2
			break
		}
	}
	if start > len(trs) {
		return nil, nil
	}

	var rows [][]string
	for _, tr := range trs[start:] {
		var cells []string
		for _, td := range collectElements(tr, "td") {
			cells = append(cells, strings.TrimSpace(nodeText(td)))
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows, nil
}

// findElement walks the tree depth-first for the first element with the
// given tag carrying attr=value.
func findElement(n *html.Node, loc ports.PageLocation) *html.Node {
	if n.Type == html.ElementNode && n.Data == loc.Tag {
		for _, a := range n.Attr {
			if a.Key == loc.Attr && a.Val == loc.Value {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, loc); found != nil {
			return found
		}
	}
	return nil
}

// findText finds the first element whose own text content equals want.
func findText(n *html.Node, want string) *html.Node {
	if n.Type == html.ElementNode && strings.TrimSpace(nodeText(n)) == want {
		// Prefer the innermost matching element.
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := findText(c, want); found != nil {
				return found
			}
		}
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findText(c, want); found != nil {
			return found
		}
	}
	return nil
}

func ancestorElement(n *html.Node, tag string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return p
		}
	}
	return nil
}

func collectElements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
			return // rows/cells don't nest in admin markup
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return out
}

func contains(root, target *html.Node) bool {
	for p := target; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// nodeText concatenates the text nodes under n.
func nodeText(n *html.Node) string {
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
