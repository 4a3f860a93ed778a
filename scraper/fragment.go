package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// segmentKind enumerates the node shapes a description fragment may contain.
type segmentKind int

const (
	segText segmentKind = iota
	segBreak
	segLink
	segMarkup
)

// segment is one flattened child of a description fragment, in document
// order.
type segment struct {
	kind segmentKind
	text string // text content, link text, or rendered markup
	href string // set for segLink
}

// CleanFragment rewrites a description-like fragment into plain text plus
// whatever anchor-free, line-break-free markup it carried.
//
// <br> elements collapse into a raw join of the surrounding text; the pages
// carry their own newlines inside text nodes, so no separator is inserted.
// Anchors must be citation-style links: ones whose href equals their visible
// text, or whose text mentions "vimscript", are replaced by their text;
// "vimtip" links are dropped together with their trailing text. Any other
// anchor fails with UnrecognizedLinkError instead of guessing.
func CleanFragment(sel *goquery.Selection) (string, error) {
	if len(sel.Nodes) == 0 {
		return "", StructureError{Landmark: "description fragment"}
	}
	segments, err := splitSegments(sel.Nodes[0])
	if err != nil {
		return "", err
	}
	return foldSegments(segments)
}

// splitSegments flattens the fragment's children into an ordered segment
// list, so the cleanup below never mutates a live node tree.
func splitSegments(fragment *html.Node) ([]segment, error) {
	var segments []segment
	for child := fragment.FirstChild; child != nil; child = child.NextSibling {
		switch {
		case child.Type == html.TextNode:
			segments = append(segments, segment{kind: segText, text: child.Data})
		case child.Type == html.ElementNode && child.Data == "br":
			segments = append(segments, segment{kind: segBreak})
		case child.Type == html.ElementNode && child.Data == "a":
			segments = append(segments, segment{
				kind: segLink,
				text: nodeText(child),
				href: attrValue(child, "href"),
			})
		case child.Type == html.ElementNode:
			rendered, err := renderNode(child)
			if err != nil {
				return nil, err
			}
			segments = append(segments, segment{kind: segMarkup, text: rendered})
		}
	}
	return segments, nil
}

func foldSegments(segments []segment) (string, error) {
	var out strings.Builder
	for i := 0; i < len(segments); i++ {
		seg := segments[i]
		switch seg.kind {
		case segText, segMarkup:
			out.WriteString(seg.text)
		case segBreak:
			// dropped; the trailing text joins the output on its own
		case segLink:
			switch {
			case seg.text == seg.href || strings.Contains(seg.text, "vimscript"):
				out.WriteString(seg.text)
			case strings.Contains(seg.text, "vimtip"):
				// rare documentation link; removed along with its tail
				if i+1 < len(segments) && segments[i+1].kind == segText {
					i++
				}
			default:
				return "", UnrecognizedLinkError{Href: seg.href, Text: seg.text}
			}
		}
	}
	return out.String(), nil
}

// nodeText returns the flattened text content of a node.
func nodeText(n *html.Node) string {
	var b strings.Builder
	collectText(n, &b)
	return b.String()
}

func collectText(n *html.Node, b *strings.Builder) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, b)
	}
}

// ownText returns only the direct text children of a node, skipping
// descendant elements.
func ownText(n *html.Node) string {
	var b strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func renderNode(n *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}
