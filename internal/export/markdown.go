package export

import (
	"regexp"
	"strconv"
	"strings"
)

// BlockKind is the line-level Markdown construct a renderer has to draw.
type BlockKind int

const (
	BlockBlank BlockKind = iota
	BlockHeading
	BlockBullet
	BlockNumbered
	BlockAlert
	BlockImage
	BlockParagraph
)

// Block is one parsed line of note content.
type Block struct {
	Kind   BlockKind
	Level  int // heading level 1..3
	Number int // numbered list item
	Text   string
	Alt    string // image alt text
	Path   string // image path
}

var (
	reImageLine = regexp.MustCompile(`^!\[(.*?)\]\((.*?)\)\s*$`)
	reNumbered  = regexp.MustCompile(`^(\d+)[.)]\s+(.*)$`)
	reImageAny  = regexp.MustCompile(`!\[(.*?)\]\(.*?\)`)
	reEmphasis  = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	reCode      = regexp.MustCompile("`([^`]*)`")
)

// Parse splits content into blocks. Only the constructs notes use are
// recognised; anything else is a paragraph.
func Parse(content string) []Block {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			blocks = append(blocks, Block{Kind: BlockBlank})
		case reImageLine.MatchString(line):
			m := reImageLine.FindStringSubmatch(line)
			blocks = append(blocks, Block{Kind: BlockImage, Alt: m[1], Path: m[2]})
		case strings.HasPrefix(line, "### "):
			blocks = append(blocks, Block{Kind: BlockHeading, Level: 3, Text: Inline(line[4:])})
		case strings.HasPrefix(line, "## "):
			blocks = append(blocks, Block{Kind: BlockHeading, Level: 2, Text: Inline(line[3:])})
		case strings.HasPrefix(line, "# "):
			blocks = append(blocks, Block{Kind: BlockHeading, Level: 1, Text: Inline(line[2:])})
		case strings.HasPrefix(line, ">"):
			blocks = append(blocks, Block{Kind: BlockAlert, Text: Inline(strings.TrimSpace(strings.TrimPrefix(line, ">")))})
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			blocks = append(blocks, Block{Kind: BlockBullet, Text: Inline(line[2:])})
		case reNumbered.MatchString(line):
			m := reNumbered.FindStringSubmatch(line)
			n, _ := strconv.Atoi(m[1])
			blocks = append(blocks, Block{Kind: BlockNumbered, Number: n, Text: Inline(m[2])})
		default:
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: Inline(line)})
		}
	}
	return blocks
}

// Inline drops emphasis and code markup, keeping the text.
func Inline(s string) string {
	s = reEmphasis.ReplaceAllString(s, "$2")
	s = reCode.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}
