package listing

import (
	"strings"

	"golang.org/x/net/html"
)

// metadataStrategy looks around a link element for the free text that
// usually carries its size and date. It returns the raw text and whether
// the layout was recognised.
type metadataStrategy func(link *html.Node) (string, bool)

// metadataStrategies are tried in order; the first recognised layout wins
// even when its text later turns out to hold nothing parseable.
var metadataStrategies = []metadataStrategy{
	siblingText,
	tableCells,
}

// findExtra runs the strategies against link.
func findExtra(link *html.Node) (string, bool) {
	for _, strategy := range metadataStrategies {
		if text, ok := strategy(link); ok {
			return text, true
		}
	}
	return "", false
}

// siblingText handles <pre> style listings, where the text right after the
// anchor holds date and size:
//
//	<a href="file.iso">file.iso</a>   14-Jun-2023 10:32   4.2K
func siblingText(link *html.Node) (string, bool) {
	next := link.NextSibling
	if next == nil || next.Type != html.TextNode || isBlank(next.Data) {
		return "", false
	}
	return next.Data, true
}

// tableCells handles table listings, where the anchor sits in a <td> and
// the next one or two cells hold date and size:
//
//	<td><a href="file.iso">file.iso</a></td><td>2023-06-14 10:32</td><td>4.2K</td>
func tableCells(link *html.Node) (string, bool) {
	cell := link.Parent
	if !isElement(cell, "td") {
		return "", false
	}

	first, ok := cellText(nextCell(cell))
	if !ok {
		return "", false
	}

	if second, ok := cellText(nextCell(nextCell(cell))); ok {
		return first + " " + second, true
	}
	return first, true
}

// nextCell returns the next <td> sibling of cell, skipping the whitespace
// text nodes the parser keeps between cells.
func nextCell(cell *html.Node) *html.Node {
	if cell == nil {
		return nil
	}
	for n := cell.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.TextNode && isBlank(n.Data) {
			continue
		}
		if isElement(n, "td") {
			return n
		}
		return nil
	}
	return nil
}

// cellText returns the text of a cell whose first child is a text node.
func cellText(cell *html.Node) (string, bool) {
	if cell == nil || cell.FirstChild == nil || cell.FirstChild.Type != html.TextNode {
		return "", false
	}
	return cell.FirstChild.Data, true
}

func isElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
