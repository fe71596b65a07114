// Package markdown converts document trees to plain-text markdown and
// back. Each block type has its own transformer; malformed input simply
// fails to match and stays plain paragraph text.
package markdown

import (
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/block"
	"github.com/starford/ansuz/internal/ordinal"
)

const indentStep = 4 // spaces per indent level

// Export renders a document tree as markdown. Block-level media nodes are
// handled here, by the container-level pass over the root's children; the
// inline image syntax on import is matched by a separate text-scanning
// transformer (see Import and TriggerImage).
func Export(root *block.Node) string {
	var b strings.Builder
	sibs := root.Children
	prevList := false
	for i, n := range sibs {
		line := exportBlock(sibs, i, n, 0)
		// Blank paragraphs have no markdown form and are dropped; the
		// round trip is lossy for them.
		if line == "" {
			continue
		}
		isList := n.Type == block.TypeListItem || n.Type == block.TypeList
		if b.Len() > 0 {
			if prevList && isList {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(line)
		prevList = isList
	}
	b.WriteString("\n")
	return b.String()
}

func exportBlock(sibs []*block.Node, i int, n *block.Node, depth int) string {
	switch n.Type {
	case block.TypeTitle:
		return "# " + exportInline(n.Children)
	case block.TypeHeading:
		return strings.Repeat("#", n.Level) + " " + exportInline(n.Children)
	case block.TypeParagraph:
		return exportInline(n.Children)
	case block.TypeQuote:
		return "> " + exportInline(n.Children)
	case block.TypeDivider:
		return "---"
	case block.TypeListItem:
		return exportItem(sibs, i, n, depth)
	case block.TypeList:
		return exportList(n, depth)
	case block.TypeCode:
		return "```" + n.Language + "\n" + n.Code + "\n```"
	case block.TypeMedia:
		return fmt.Sprintf("![%s](%s)", n.Text, n.RemoteID)
	case block.TypeTable:
		return exportTable(n)
	default:
		// Unknown or non-exportable nodes degrade to their plain text.
		return n.PlainText()
	}
}

func exportItem(sibs []*block.Node, i int, n *block.Node, depth int) string {
	pad := strings.Repeat(" ", (n.Indent+depth)*indentStep)
	var marker string
	switch n.ListType {
	case block.ListNumber:
		ord := n.Ordinal
		if ord == 0 {
			ord = ordinal.Of(sibs, i)
		}
		if ord == 0 {
			ord = 1
		}
		marker = fmt.Sprintf("%d. ", ord)
	case block.ListCheck:
		box := " "
		if n.Checked {
			box = "x"
		}
		marker = fmt.Sprintf("- [%s] ", box)
	default:
		marker = "- "
	}

	inline, subs := splitItemChildren(n)
	out := pad + marker + exportInline(inline)
	for _, sub := range subs {
		out += "\n" + exportList(sub, n.Indent+depth+1)
	}
	return out
}

// exportList flattens a nested-era list container back to indented lines.
// Containers can hold non-item blocks too (a collapsed item leaves a
// paragraph in place), so children dispatch by type; non-items render in
// their own block form, set off by blank lines so re-import does not fold
// them back into the list.
func exportList(list *block.Node, depth int) string {
	var b strings.Builder
	prevItem := false
	for i, c := range list.Children {
		isItem := c.Type == block.TypeListItem
		var line string
		if isItem {
			line = exportItem(list.Children, i, c, depth)
		} else {
			line = exportBlock(list.Children, i, c, depth)
		}
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			if prevItem && isItem {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(line)
		prevItem = isItem
	}
	return b.String()
}

// splitItemChildren separates an item's inline content from attached
// nested sub-lists.
func splitItemChildren(n *block.Node) (inline []*block.Node, subs []*block.Node) {
	for _, c := range n.Children {
		if c.Type == block.TypeList {
			subs = append(subs, c)
		} else {
			inline = append(inline, c)
		}
	}
	return inline, subs
}

func exportTable(tbl *block.Node) string {
	rows := make([]string, 0, len(tbl.Children)+1)
	for r, row := range tbl.Children {
		cells := make([]string, 0, len(row.Children))
		for _, cell := range row.Children {
			cells = append(cells, exportCell(cell))
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		if r == 0 {
			divs := make([]string, len(row.Children))
			for i := range divs {
				divs[i] = "---"
			}
			rows = append(rows, "| "+strings.Join(divs, " | ")+" |")
		}
	}
	return strings.Join(rows, "\n")
}

// exportCell renders a cell's block sub-tree as a single inline run.
func exportCell(cell *block.Node) string {
	parts := make([]string, 0, len(cell.Children))
	for _, c := range cell.Children {
		if c.IsInline() {
			parts = append(parts, exportInline([]*block.Node{c}))
		} else {
			parts = append(parts, exportInline(c.Children))
		}
	}
	return strings.Join(parts, " ")
}

// exportInline renders inline children with their emphasis tokens.
func exportInline(children []*block.Node) string {
	var b strings.Builder
	for _, c := range children {
		switch c.Type {
		case block.TypeLink:
			fmt.Fprintf(&b, "[%s](%s)", c.Text, c.Href)
		case block.TypeText:
			b.WriteString(styleToken(c.Style, c.Text))
		default:
			b.WriteString(c.PlainText())
		}
	}
	return b.String()
}

func styleToken(s block.Style, text string) string {
	switch s {
	case block.StyleBold:
		return "**" + text + "**"
	case block.StyleItalic:
		return "*" + text + "*"
	case block.StyleBoldItalic:
		return "***" + text + "***"
	case block.StyleCode:
		return "`" + text + "`"
	case block.StyleStrike:
		return "~~" + text + "~~"
	default:
		return text
	}
}
