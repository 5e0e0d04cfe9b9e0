// Package html converts a chapter's content region into a small render tree.
package html

import (
	"strings"

	"golang.org/x/net/html"
)

// Node represents a content node in the document.
type Node struct {
	Type     NodeType
	Text     string
	Children []*Node
}

// NodeType identifies the kind of content node.
type NodeType int

const (
	NodeDocument NodeType = iota
	NodeTitle
	NodeHeading
	NodeParagraph
	NodeBlockquote
	NodeList
	NodeListItem
	NodeText
	NodeStrong
	NodeEmphasis
)

// Options selects which element is the chapter title.
type Options struct {
	// TitleClass is the class attribute that marks the title element.
	TitleClass string
}

// DefaultOptions matches the Legado reader markup.
func DefaultOptions() Options {
	return Options{TitleClass: "title"}
}

// FromNode builds a render tree from the children of region. Loose text
// lines directly inside block containers become paragraphs, so markup that
// separates lines with <br> or newlines reads the same as <p> markup.
func FromNode(region *html.Node, opts Options) *Node {
	root := &Node{Type: NodeDocument}
	if region == nil {
		return root
	}
	b := &builder{opts: opts}
	b.blocks(region, root)
	b.flush(root)
	return root
}

type builder struct {
	opts Options
	loose strings.Builder
}

// flush turns pending loose text into paragraphs, one per line.
func (b *builder) flush(parent *Node) {
	text := b.loose.String()
	b.loose.Reset()
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parent.Children = append(parent.Children, &Node{
			Type:     NodeParagraph,
			Children: []*Node{{Type: NodeText, Text: line}},
		})
	}
}

func (b *builder) blocks(n *html.Node, parent *Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.loose.WriteString(c.Data)

		case html.ElementNode:
			switch c.Data {
			case "br":
				b.loose.WriteByte('\n')
				continue
			case "b", "strong", "i", "em", "span", "a", "font":
				b.loose.WriteString(TextContent(c))
				continue
			case "script", "style", "noscript", "button", "svg":
				continue
			}

			b.flush(parent)
			switch c.Data {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				parent.Children = append(parent.Children, &Node{Type: NodeHeading, Text: TextContent(c)})

			case "p":
				node := &Node{Type: NodeParagraph}
				inline(c, node)
				if strings.TrimSpace(node.PlainText()) != "" {
					parent.Children = append(parent.Children, node)
				}

			case "blockquote":
				node := &Node{Type: NodeBlockquote}
				b.blocks(c, node)
				b.flush(node)
				parent.Children = append(parent.Children, node)

			case "ul", "ol":
				node := &Node{Type: NodeList}
				list(c, node)
				parent.Children = append(parent.Children, node)

			default:
				if hasClass(c, b.opts.TitleClass) {
					parent.Children = append(parent.Children, &Node{Type: NodeTitle, Text: TextContent(c)})
					continue
				}
				b.blocks(c, parent)
				b.flush(parent)
			}
		}
	}
}

func list(n *html.Node, parent *Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "li" {
			item := &Node{Type: NodeListItem}
			inline(c, item)
			parent.Children = append(parent.Children, item)
		}
	}
}

func inline(n *html.Node, parent *Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if c.Data != "" {
				parent.Children = append(parent.Children, &Node{Type: NodeText, Text: c.Data})
			}

		case html.ElementNode:
			switch c.Data {
			case "strong", "b":
				node := &Node{Type: NodeStrong}
				inline(c, node)
				parent.Children = append(parent.Children, node)

			case "em", "i":
				node := &Node{Type: NodeEmphasis}
				inline(c, node)
				parent.Children = append(parent.Children, node)

			case "br":
				parent.Children = append(parent.Children, &Node{Type: NodeText, Text: " "})

			default:
				inline(c, parent)
			}
		}
	}
}

// TextContent returns the trimmed text of n and its descendants.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(sb.String())
}

func hasClass(n *html.Node, class string) bool {
	if class == "" {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// PlainText returns the plain text content of a node and its children.
func (n *Node) PlainText() string {
	var sb strings.Builder
	n.appendPlainText(&sb)
	return sb.String()
}

func (n *Node) appendPlainText(sb *strings.Builder) {
	if n.Text != "" {
		sb.WriteString(n.Text)
	}
	for _, child := range n.Children {
		child.appendPlainText(sb)
	}
}
