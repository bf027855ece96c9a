package document

import "strings"

// BlockKind classifies a line of product content
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading
	ListItem
)

func (k BlockKind) String() string {
	switch k {
	case Heading:
		return "heading"
	case ListItem:
		return "list_item"
	default:
		return "paragraph"
	}
}

// Block is one line of content with its markup marker removed
type Block struct {
	Kind BlockKind
	Text string
}

const (
	headingMarker  = "# "
	listItemMarker = "* "
)

// ParseContent splits content into blocks, one per non-blank line.
// "# " starts a heading, "* " a list item, anything else is a paragraph.
func ParseContent(content string) []Block {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var blocks []Block
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, headingMarker):
			blocks = append(blocks, Block{Kind: Heading, Text: strings.TrimSpace(line[len(headingMarker):])})
		case strings.HasPrefix(line, listItemMarker):
			blocks = append(blocks, Block{Kind: ListItem, Text: strings.TrimSpace(line[len(listItemMarker):])})
		default:
			blocks = append(blocks, Block{Kind: Paragraph, Text: strings.TrimSpace(line)})
		}
	}
	return blocks
}
