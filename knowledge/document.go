package knowledge

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// LocatorSeparator joins heading titles into a source locator.
const LocatorSeparator = " > "

// Block is one paragraph or list item of the document.
type Block struct {
	Text  string
	Label string // leading bold label, or the short prefix before a colon
}

// Section is a heading together with the blocks written under it.
type Section struct {
	Title    string
	Level    int
	Path     []string // heading titles from the outermost section down to this one
	Blocks   []Block
	Children []*Section
}

// Locator renders the heading path of the section.
func (s *Section) Locator() string {
	return strings.Join(s.Path, LocatorSeparator)
}

// IsLeaf reports whether the section has no subsections.
func (s *Section) IsLeaf() bool {
	return len(s.Children) == 0
}

// Walk visits the section and its descendants in document order.
func (s *Section) Walk(visit func(*Section)) {
	visit(s)
	for _, child := range s.Children {
		child.Walk(visit)
	}
}

// Outline is the parsed document: an optional title plus top level sections.
type Outline struct {
	Title    string
	Sections []*Section
}

// Walk visits every section in document order.
func (o *Outline) Walk(visit func(*Section)) {
	for _, s := range o.Sections {
		s.Walk(visit)
	}
}

// ParseOutline builds the section tree of a markdown document. A single
// leading level-one heading is treated as the document title and kept out
// of section paths. Text before the first section heading is ignored.
func ParseOutline(text string) *Outline {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := markdown.Parse([]byte(text), p)

	nodes := doc.GetChildren()
	outline := &Outline{}

	h1Count := 0
	for _, n := range nodes {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			h1Count++
		}
	}
	if len(nodes) > 0 && h1Count == 1 {
		if h, ok := nodes[0].(*ast.Heading); ok && h.Level == 1 {
			outline.Title = inlineText(h)
			nodes = nodes[1:]
		}
	}

	var stack []*Section
	for _, n := range nodes {
		if h, ok := n.(*ast.Heading); ok {
			title := inlineText(h)
			if title == "" {
				continue
			}
			for len(stack) > 0 && stack[len(stack)-1].Level >= h.Level {
				stack = stack[:len(stack)-1]
			}
			section := &Section{Title: title, Level: h.Level}
			if len(stack) == 0 {
				section.Path = []string{title}
				outline.Sections = append(outline.Sections, section)
			} else {
				parent := stack[len(stack)-1]
				section.Path = append(append([]string{}, parent.Path...), title)
				parent.Children = append(parent.Children, section)
			}
			stack = append(stack, section)
			continue
		}
		if len(stack) == 0 {
			continue
		}
		current := stack[len(stack)-1]
		current.Blocks = append(current.Blocks, collectBlocks(n)...)
	}
	return outline
}

// collectBlocks flattens a block node into paragraphs and list items.
// Nested list items become blocks of their own.
func collectBlocks(n ast.Node) []Block {
	switch node := n.(type) {
	case *ast.Paragraph:
		if b, ok := newBlock(node); ok {
			return []Block{b}
		}
	case *ast.List:
		var blocks []Block
		for _, child := range node.GetChildren() {
			item, ok := child.(*ast.ListItem)
			if !ok {
				continue
			}
			if b, ok := newBlock(item); ok {
				blocks = append(blocks, b)
			}
			for _, sub := range item.GetChildren() {
				if list, ok := sub.(*ast.List); ok {
					blocks = append(blocks, collectBlocks(list)...)
				}
			}
		}
		return blocks
	case *ast.BlockQuote:
		var blocks []Block
		for _, child := range node.GetChildren() {
			blocks = append(blocks, collectBlocks(child)...)
		}
		return blocks
	}
	return nil
}

func newBlock(n ast.Node) (Block, bool) {
	text := trimQuotes(inlineText(n))
	if text == "" {
		return Block{}, false
	}
	label := boldLabel(n)
	if label == "" {
		label = colonLabel(text)
	}
	return Block{Text: text, Label: label}, true
}

// boldLabel returns the text of a strong span opening the block.
func boldLabel(n ast.Node) string {
	for {
		children := n.GetChildren()
		if len(children) == 0 {
			return ""
		}
		first := children[0]
		if t, ok := first.(*ast.Text); ok && strings.TrimSpace(string(t.Literal)) == "" && len(children) > 1 {
			first = children[1]
		}
		switch node := first.(type) {
		case *ast.Strong:
			return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(inlineText(node)), ":"))
		case *ast.Paragraph:
			n = node
		default:
			return ""
		}
	}
}

// colonLabel returns a short "Name:" prefix such as "Vada Pav" in
// "Vada Pav: ₹15-25".
func colonLabel(text string) string {
	idx := strings.Index(text, ":")
	if idx <= 0 {
		return ""
	}
	prefix := strings.TrimSpace(text[:idx])
	if words := strings.Fields(prefix); len(words) == 0 || len(words) > 4 {
		return ""
	}
	if strings.ContainsAny(prefix, "0123456789") {
		return ""
	}
	return prefix
}

// inlineText concatenates the literal text under n, skipping nested lists.
func inlineText(n ast.Node) string {
	var sb strings.Builder
	writeInline(n, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func writeInline(n ast.Node, sb *strings.Builder) {
	switch node := n.(type) {
	case *ast.List:
		return
	case *ast.Text:
		sb.Write(node.Literal)
	case *ast.Code:
		sb.Write(node.Literal)
	case *ast.Softbreak, *ast.Hardbreak, *ast.NonBlockingSpace:
		sb.WriteByte(' ')
	case *ast.Paragraph:
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
	}
	for _, child := range n.GetChildren() {
		writeInline(child, sb)
	}
}

func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if len(s) >= 2 && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
		}
	}
	return s
}
