package extract

import (
	"strings"

	"github.com/ppiankov/vedcheck/internal/model"
	"golang.org/x/net/html"
)

// HTMLParser reads the result table from a parsed document tree
type HTMLParser struct{}

// NewHTMLParser creates a new HTML parser
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Name returns the parser name
func (p *HTMLParser) Name() string {
	return model.ParserHTML
}

// Cells extracts the text of every result cell of the first result table
func (p *HTMLParser) Cells(page string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	table := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "tbody" && hasClass(n, TableClass)
	})
	if table == nil {
		return nil, model.ErrNoResultTable
	}

	nodes := findAll(table, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "td" && hasClass(n, CellClass)
	})

	cells := make([]string, 0, len(nodes))
	for _, n := range nodes {
		cells = append(cells, textContent(n))
	}

	return cells, nil
}

// textContent joins the text below n, collapsing whitespace
func textContent(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			buf.WriteString(node.Data)
			buf.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// hasClass checks if a node has a specific CSS class
func hasClass(n *html.Node, className string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, class := range strings.Fields(attr.Val) {
				if class == className {
					return true
				}
			}
		}
	}
	return false
}

// findAll finds all nodes matching a predicate, in document order
func findAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if predicate(node) {
			results = append(results, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}

// findFirst finds the first node matching a predicate
func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}
