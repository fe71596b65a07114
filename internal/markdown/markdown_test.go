package markdown

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/block"
	"github.com/starford/ansuz/internal/doc"
)

func TestExport_ListItems(t *testing.T) {
	chk := block.NewListItem(block.ListCheck, 0, block.NewText("done"))
	chk.Checked = true
	root := block.NewRoot(
		block.NewTitle(block.NewText("T")),
		block.NewListItem(block.ListBullet, 0, block.NewText("a")),
		block.NewListItem(block.ListBullet, 1, block.NewText("b")),
		block.NewListItem(block.ListNumber, 0, block.NewText("one")),
		block.NewListItem(block.ListNumber, 0, block.NewText("two")),
		chk,
		block.NewListItem(block.ListCheck, 0, block.NewText("todo")),
	)
	got := Export(root)
	want := "# T\n\n- a\n    - b\n1. one\n2. two\n- [x] done\n- [ ] todo\n"
	if got != want {
		t.Errorf("export = %q, want %q", got, want)
	}
}

func TestExport_DropsEmptyParagraphs(t *testing.T) {
	root := block.NewRoot(
		block.NewTitle(block.NewText("T")),
		block.NewParagraph(block.NewText("a")),
		block.NewParagraph(),
		block.NewParagraph(block.NewText("b")),
	)
	got := Export(root)
	want := "# T\n\na\n\nb\n"
	if got != want {
		t.Errorf("export = %q, want %q", got, want)
	}
}

func TestExport_ListContainerWithCollapsedItem(t *testing.T) {
	// Backspace at the start of a container item replaces it with a
	// paragraph in place; the paragraph must not regain a bullet marker.
	list := block.NewList(block.ListBullet,
		block.NewParagraph(block.NewText("alpha")),
		block.NewListItem(block.ListBullet, 0, block.NewText("beta")),
	)
	root := block.NewRoot(block.NewTitle(block.NewText("T")), list)

	got := Export(root)
	want := "# T\n\nalpha\n\n- beta\n"
	if got != want {
		t.Errorf("export = %q, want %q", got, want)
	}

	// Round trip: the collapsed paragraph stays a paragraph.
	back := Import(got)
	if back.Children[1].Type != block.TypeParagraph {
		t.Errorf("reimported type = %q, want paragraph", back.Children[1].Type)
	}
	if back.Children[2].Type != block.TypeListItem {
		t.Errorf("reimported type = %q, want list item", back.Children[2].Type)
	}
}

func TestImport_ListItems(t *testing.T) {
	root := Import("- a\n    - b\n1. one\n7. two\n- [X] done\n- [ ] todo\n")
	items := root.Children[1:]
	if len(items) != 6 {
		t.Fatalf("items = %d, want 6", len(items))
	}
	if items[0].ListType != block.ListBullet || items[0].Indent != 0 {
		t.Errorf("item 0 = %+v", items[0])
	}
	if items[1].Indent != 1 {
		t.Errorf("indent = %d, want 1", items[1].Indent)
	}
	if items[2].ListType != block.ListNumber || items[3].ListType != block.ListNumber {
		t.Error("number items expected")
	}
	// The written ordinal value is not load-bearing.
	if items[3].PlainText() != "two" {
		t.Errorf("item text = %q", items[3].PlainText())
	}
	if !items[4].Checked {
		t.Error("uppercase X must check the item")
	}
	if items[5].Checked {
		t.Error("empty box must stay unchecked")
	}
}

func TestImport_CodeFenceTrimsSingleBlankLines(t *testing.T) {
	root := Import("```go\n\nfmt.Println(1)\n\nfmt.Println(2)\n\n```\n")
	code := root.Children[1]
	if code.Type != block.TypeCode || code.Language != "go" {
		t.Fatalf("code block = %+v", code)
	}
	want := "fmt.Println(1)\n\nfmt.Println(2)"
	if code.Code != want {
		t.Errorf("code = %q, want %q", code.Code, want)
	}
}

func TestImport_UnclosedFenceSwallowsRest(t *testing.T) {
	root := Import("```\nline one\nline two\n")
	code := root.Children[1]
	if code.Type != block.TypeCode {
		t.Fatalf("type = %q, want code", code.Type)
	}
	if code.Code != "line one\nline two" {
		t.Errorf("code = %q", code.Code)
	}
}

func TestImport_Table(t *testing.T) {
	text := "| Name | Note |\n| --- | --- |\n| **bold** plain | a [l](https://x) b |\n"
	root := Import(text)
	tbl := root.Children[1]
	if tbl.Type != block.TypeTable || len(tbl.Children) != 2 {
		t.Fatalf("table = %+v", tbl)
	}
	header := tbl.Children[0]
	if header.Children[0].PlainText() != "Name" {
		t.Errorf("header cell = %q", header.Children[0].PlainText())
	}
	cell := tbl.Children[1].Children[0].Children[0] // paragraph in first data cell
	if len(cell.Children) != 2 {
		t.Fatalf("cell spans = %d, want 2", len(cell.Children))
	}
	if cell.Children[0].Style != block.StyleBold || cell.Children[0].Text != "bold" {
		t.Errorf("first span = %+v", cell.Children[0])
	}
	if cell.Children[1].Text != " plain" {
		t.Errorf("second span = %q", cell.Children[1].Text)
	}
	linkCell := tbl.Children[1].Children[1].Children[0]
	if linkCell.Children[1].Type != block.TypeLink || linkCell.Children[1].Href != "https://x" {
		t.Errorf("link span = %+v", linkCell.Children[1])
	}
}

func TestParseInline_AlternatesSpansInOrder(t *testing.T) {
	spans := parseInline("a ***bi*** b `c` ~~s~~ end")
	wantText := []string{"a ", "bi", " b ", "c", " ", "s", " end"}
	wantStyle := []block.Style{
		block.StyleNone, block.StyleBoldItalic, block.StyleNone,
		block.StyleCode, block.StyleNone, block.StyleStrike, block.StyleNone,
	}
	if len(spans) != len(wantText) {
		t.Fatalf("spans = %d, want %d", len(spans), len(wantText))
	}
	for i := range spans {
		if spans[i].Text != wantText[i] || spans[i].Style != wantStyle[i] {
			t.Errorf("span[%d] = %q/%q, want %q/%q",
				i, spans[i].Text, spans[i].Style, wantText[i], wantStyle[i])
		}
	}
}

func TestImport_MalformedStaysParagraph(t *testing.T) {
	root := Import("not *closed\n|not|a|table|\n")
	for _, n := range root.Children[1:] {
		if n.Type != block.TypeParagraph {
			t.Errorf("malformed line became %q, want paragraph", n.Type)
		}
	}
}

func TestImport_MediaLine(t *testing.T) {
	root := Import("![diagram](https://example.com/d.png)\n")
	m := root.Children[1]
	if m.Type != block.TypeMedia || m.MediaKind != block.MediaImage {
		t.Fatalf("media = %+v", m)
	}
	if m.RemoteID != "https://example.com/d.png" || m.Text != "diagram" {
		t.Errorf("media fields = %q %q", m.RemoteID, m.Text)
	}
	if m.LoadState != block.LoadLoading {
		t.Errorf("imported media must start loading, got %q", m.LoadState)
	}
}

func TestRoundTrip(t *testing.T) {
	chk := block.NewListItem(block.ListCheck, 0, block.NewText("task"))
	chk.Checked = true
	media := block.NewMedia(block.MediaImage, "https://example.com/pic.png")
	media.Text = "pic"
	tree := block.NewRoot(
		block.NewTitle(block.NewText("Round Trip")),
		block.NewHeading(2, block.NewText("Section")),
		block.NewParagraph(
			block.NewText("plain "),
			block.NewStyledText("bold", block.StyleBold),
			block.NewText(" and "),
			block.NewLink("a link", "https://example.com"),
		),
		block.NewQuote(block.NewText("quoted")),
		block.NewListItem(block.ListBullet, 0, block.NewText("a")),
		block.NewListItem(block.ListBullet, 1, block.NewText("b")),
		block.NewListItem(block.ListNumber, 1, block.NewText("n1")),
		block.NewListItem(block.ListNumber, 1, block.NewText("n2")),
		chk,
		block.NewCode("x := 1\ny := 2", "go"),
		media,
		block.NewDivider(),
		block.NewTable(
			block.NewTableRow(
				block.NewTableCell(block.NewParagraph(block.NewText("H1"))),
				block.NewTableCell(block.NewParagraph(block.NewText("H2"))),
			),
			block.NewTableRow(
				block.NewTableCell(block.NewParagraph(block.NewStyledText("v", block.StyleItalic))),
				block.NewTableCell(block.NewParagraph(block.NewText("w"))),
			),
		),
	)

	back := Import(Export(tree))
	if !block.Equivalent(tree, back) {
		t.Errorf("round trip mismatch:\nexport:\n%s", Export(tree))
	}
}

func TestTriggerCodeFence_LiveTyping(t *testing.T) {
	para := block.NewParagraph(block.NewText("```rust"))
	after := block.NewParagraph(block.NewText("below"))
	s, err := doc.NewStore(block.NewRoot(block.NewTitle(), para, after))
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Transact(func(d *doc.Draft) error {
		if !TriggerCodeFence(d, para.Key) {
			t.Error("fence trigger must fire")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	snap := s.Snapshot()
	code := snap.Children[1]
	if code.Type != block.TypeCode || code.Language != "rust" || code.Code != "" {
		t.Errorf("code block = %+v", code)
	}
	// The paragraph below the trigger survives in place.
	if snap.Children[2].PlainText() != "below" {
		t.Error("sibling paragraph must be preserved")
	}
}

func TestTriggerCodeFence_NoMatch(t *testing.T) {
	para := block.NewParagraph(block.NewText("just text"))
	s, err := doc.NewStore(block.NewRoot(block.NewTitle(), para))
	if err != nil {
		t.Fatal(err)
	}
	_, _ = s.Transact(func(d *doc.Draft) error {
		if TriggerCodeFence(d, para.Key) {
			t.Error("trigger must not fire on plain text")
		}
		return nil
	})
	if s.Snapshot().Children[1].Type != block.TypeParagraph {
		t.Error("no partial node may be created on a miss")
	}
}

func TestTriggerImage(t *testing.T) {
	para := block.NewParagraph(block.NewText("![alt](https://e.com/i.png)"))
	s, err := doc.NewStore(block.NewRoot(block.NewTitle(), para))
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Transact(func(d *doc.Draft) error {
		if !TriggerImage(d, para.Key) {
			t.Error("image trigger must fire")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	m := s.Snapshot().Children[1]
	if m.Type != block.TypeMedia || m.RemoteID != "https://e.com/i.png" || m.Text != "alt" {
		t.Errorf("media = %+v", m)
	}
}

func TestExport_OrdinalsFollowStructure(t *testing.T) {
	root := block.NewRoot(
		block.NewTitle(),
		block.NewListItem(block.ListNumber, 0, block.NewText("a")),
		block.NewListItem(block.ListNumber, 1, block.NewText("a1")),
		block.NewListItem(block.ListNumber, 0, block.NewText("b")),
	)
	got := Export(root)
	if !strings.Contains(got, "1. a\n    1. a1\n2. b") {
		t.Errorf("export = %q", got)
	}
}
