package parser

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Extractor pulls raw link targets out of a fetched document.
type Extractor interface {
	ExtractLinks(document string) []string
}

// HTML is an Extractor built on golang.org/x/net/html.
// The zero value is ready to use.
type HTML struct{}

// ExtractLinks returns the href values of every <a> element in document order.
// Malformed markup is tolerated the same way browsers tolerate it.
func (HTML) ExtractLinks(document string) []string {
	result, err := Parse(strings.NewReader(document))
	if err != nil {
		return nil
	}
	return result.Links
}

// Result contains the information extracted from one page.
type Result struct {
	// Links are raw href values of anchor elements, in document order.
	Links []string
}

// Parse reads an HTML document and extracts its anchor links.
func Parse(content io.Reader) (*Result, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &Result{Links: make([]string, 0)}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			// An anchor with an empty href still links to the current page.
			if href, ok := getAttr(n, "href"); ok {
				result.Links = append(result.Links, href)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
