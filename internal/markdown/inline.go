package markdown

import (
	"regexp"

	"github.com/starford/ansuz/internal/block"
)

// inlineRe matches one emphasis or link token. Order matters: the
// three-star form must win over two and one.
var inlineRe = regexp.MustCompile(
	`\*\*\*(.+?)\*\*\*` + // 1: bold-italic
		`|\*\*(.+?)\*\*` + // 2: bold
		`|\*(.+?)\*` + // 3: italic
		`|~~(.+?)~~` + // 4: strike
		"|`([^`]+)`" + // 5: inline code
		`|\[([^\]]*)\]\(([^)]+)\)`, // 6,7: link text, href
)

// parseInline recovers emphasis and links from a text run with a single
// sequential scan, alternating plain-text spans and matched-token spans
// in order. Text that matches nothing stays a plain span.
func parseInline(s string) []*block.Node {
	var out []*block.Node
	plain := func(text string) {
		if text != "" {
			out = append(out, block.NewText(text))
		}
	}

	pos := 0
	for _, m := range inlineRe.FindAllStringSubmatchIndex(s, -1) {
		plain(s[pos:m[0]])
		switch {
		case m[2] >= 0:
			out = append(out, block.NewStyledText(s[m[2]:m[3]], block.StyleBoldItalic))
		case m[4] >= 0:
			out = append(out, block.NewStyledText(s[m[4]:m[5]], block.StyleBold))
		case m[6] >= 0:
			out = append(out, block.NewStyledText(s[m[6]:m[7]], block.StyleItalic))
		case m[8] >= 0:
			out = append(out, block.NewStyledText(s[m[8]:m[9]], block.StyleStrike))
		case m[10] >= 0:
			out = append(out, block.NewStyledText(s[m[10]:m[11]], block.StyleCode))
		case m[14] >= 0:
			out = append(out, block.NewLink(s[m[12]:m[13]], s[m[14]:m[15]]))
		}
		pos = m[1]
	}
	plain(s[pos:])
	return out
}
