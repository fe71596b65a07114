package markdown

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/block"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,3}) (.*)$`)
	checkRe   = regexp.MustCompile(`^( *)- \[([ xX])\] (.*)$`)
	bulletRe  = regexp.MustCompile(`^( *)- (.*)$`)
	numberRe  = regexp.MustCompile(`^( *)(\d+)\. (.*)$`)
	quoteRe   = regexp.MustCompile(`^> ?(.*)$`)
	dividerRe = regexp.MustCompile(`^(?:-{3,}|\*{3,})$`)
	fenceRe   = regexp.MustCompile("^```(\\S*)\\s*$")
	imageRe   = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)]+)\)$`)
	tableRe   = regexp.MustCompile(`^\|.*\|$`)
	tDivRe    = regexp.MustCompile(`^\|(?:\s*:?-+:?\s*\|)+$`)
)

// Import parses already-complete markdown text (a paste or a file) into a
// document tree. The first leading H1 becomes the title; when none is
// present an empty title is synthesized so the tree always satisfies the
// root invariants. Lines no transformer matches stay plain paragraphs.
func Import(text string) *block.Node {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var children []*block.Node
	sawContent := false

	i := 0
	for i < len(lines) {
		line := lines[i]

		if strings.TrimSpace(line) == "" {
			i++
			continue
		}

		if m := fenceRe.FindStringSubmatch(line); m != nil {
			node, next := importFence(lines, i, m[1])
			children = append(children, node)
			i = next
			sawContent = true
			continue
		}

		if tableRe.MatchString(line) && i+1 < len(lines) && tDivRe.MatchString(strings.TrimSpace(lines[i+1])) {
			node, next := importTable(lines, i)
			children = append(children, node)
			i = next
			sawContent = true
			continue
		}

		if n := importLine(line, !sawContent); n != nil {
			children = append(children, n)
			sawContent = true
		}
		i++
	}

	root := block.NewRoot(children...)
	if len(root.Children) == 0 || root.Children[0].Type != block.TypeTitle {
		root.Children = append([]*block.Node{block.NewTitle()}, root.Children...)
	}
	return root
}

// importLine runs the single-line transformers in order. first marks the
// document's first content line, where a level-1 heading means the title.
func importLine(line string, first bool) *block.Node {
	if m := headingRe.FindStringSubmatch(line); m != nil {
		if first && len(m[1]) == 1 {
			return block.NewTitle(parseInline(m[2])...)
		}
		return block.NewHeading(len(m[1]), parseInline(m[2])...)
	}
	if m := checkRe.FindStringSubmatch(line); m != nil {
		it := block.NewListItem(block.ListCheck, len(m[1])/indentStep, parseInline(m[3])...)
		it.Checked = strings.EqualFold(m[2], "x")
		return it
	}
	if m := bulletRe.FindStringSubmatch(line); m != nil {
		return block.NewListItem(block.ListBullet, len(m[1])/indentStep, parseInline(m[2])...)
	}
	if m := numberRe.FindStringSubmatch(line); m != nil {
		// The written number is not semantically load-bearing.
		return block.NewListItem(block.ListNumber, len(m[1])/indentStep, parseInline(m[3])...)
	}
	if dividerRe.MatchString(strings.TrimSpace(line)) {
		return block.NewDivider()
	}
	if m := imageRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		media := block.NewMedia(block.MediaImage, m[2])
		media.Text = m[1]
		return media
	}
	if m := quoteRe.FindStringSubmatch(line); m != nil {
		return block.NewQuote(parseInline(m[1])...)
	}
	return block.NewParagraph(parseInline(line)...)
}

// importFence consumes a fenced code block starting at lines[start].
// A single leading and trailing blank line inside the fence is trimmed;
// everything else is kept verbatim. A missing closing fence swallows the
// rest of the input, matching paste-of-incomplete-snippet behavior.
func importFence(lines []string, start int, language string) (*block.Node, int) {
	var body []string
	i := start + 1
	for i < len(lines) {
		if fenceRe.MatchString(lines[i]) && strings.TrimSpace(lines[i]) == "```" {
			i++
			break
		}
		body = append(body, lines[i])
		i++
	}
	if len(body) > 0 && strings.TrimSpace(body[0]) == "" {
		body = body[1:]
	}
	if len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	return block.NewCode(strings.Join(body, "\n"), language), i
}

// importTable consumes a pipe-delimited table: header row, divider row
// (required syntactically, ignored semantically), then data rows.
func importTable(lines []string, start int) (*block.Node, int) {
	var rows []*block.Node
	i := start
	for i < len(lines) && tableRe.MatchString(strings.TrimSpace(lines[i])) {
		trimmed := strings.TrimSpace(lines[i])
		if i == start+1 && tDivRe.MatchString(trimmed) {
			i++
			continue
		}
		cells := splitRow(trimmed)
		nodes := make([]*block.Node, len(cells))
		for c, cell := range cells {
			nodes[c] = block.NewTableCell(block.NewParagraph(parseInline(cell)...))
		}
		rows = append(rows, block.NewTableRow(nodes...))
		i++
	}
	return block.NewTable(rows...), i
}

func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	raw := strings.Split(line, "|")
	out := make([]string, len(raw))
	for i, c := range raw {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
