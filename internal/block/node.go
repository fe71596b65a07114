package block

import (
	"github.com/google/uuid"
)

// Node is the universal document unit. A single struct with a Type
// discriminant carries the fields of every variant; only the fields
// meaningful for the node's type are populated.
//
// Committed nodes are immutable: all mutation happens on copies made
// inside a document transaction.
type Node struct {
	Key      string
	Type     Type
	Children []*Node

	// Inline content (TypeText, TypeLink).
	Text  string
	Href  string
	Style Style

	// TypeHeading.
	Level int

	// TypeListItem and TypeList.
	ListType ListType
	Checked  bool
	Indent   int

	// Ordinal is the displayed number of a TypeListItem with ListNumber.
	// It is derived from tree structure, never serialized, and excluded
	// from structural equivalence.
	Ordinal int

	// TypeCode.
	Code     string
	Language string

	// TypeMedia.
	MediaKind MediaKind
	RemoteID  string
	LocalPath string
	Width     int
	Height    int
	Align     Alignment
	LoadState LoadState

	// RawType preserves the on-disk tag of a TypeUnknown node.
	RawType string
}

// NewKey returns a fresh stable node identity.
func NewKey() string { return uuid.NewString() }

func newNode(t Type, children ...*Node) *Node {
	return &Node{Key: NewKey(), Type: t, Children: children}
}

// NewRoot builds a document root around the given children.
func NewRoot(children ...*Node) *Node { return newNode(TypeRoot, children...) }

// NewTitle builds the singleton title block.
func NewTitle(children ...*Node) *Node { return newNode(TypeTitle, children...) }

// NewParagraph builds a paragraph holding inline children.
func NewParagraph(children ...*Node) *Node { return newNode(TypeParagraph, children...) }

// NewHeading builds a heading of the given level (clamped to 1..3).
func NewHeading(level int, children ...*Node) *Node {
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	n := newNode(TypeHeading, children...)
	n.Level = level
	return n
}

// NewQuote builds a quote block.
func NewQuote(children ...*Node) *Node { return newNode(TypeQuote, children...) }

// NewDivider builds a horizontal rule.
func NewDivider() *Node { return newNode(TypeDivider) }

// NewListItem builds a flat list item at the given indent.
func NewListItem(lt ListType, indent int, children ...*Node) *Node {
	if indent < 0 {
		indent = 0
	}
	n := newNode(TypeListItem, children...)
	n.ListType = lt
	n.Indent = indent
	return n
}

// NewList builds a nested-era list container.
func NewList(lt ListType, children ...*Node) *Node {
	n := newNode(TypeList, children...)
	n.ListType = lt
	return n
}

// NewCode builds a code block.
func NewCode(code, language string) *Node {
	n := newNode(TypeCode)
	n.Code = code
	n.Language = language
	return n
}

// NewMedia builds a media node in the loading state. remoteID is the
// external location (URL or media id) the resolver will fetch.
func NewMedia(kind MediaKind, remoteID string) *Node {
	n := newNode(TypeMedia)
	n.MediaKind = kind
	n.RemoteID = remoteID
	n.LoadState = LoadLoading
	n.Align = AlignLeft
	return n
}

// NewTable builds a table from rows of cells.
func NewTable(rows ...*Node) *Node { return newNode(TypeTable, rows...) }

// NewTableRow builds a table row from cells.
func NewTableRow(cells ...*Node) *Node { return newNode(TypeTableRow, cells...) }

// NewTableCell builds a table cell holding its own block sub-tree.
func NewTableCell(children ...*Node) *Node { return newNode(TypeTableCell, children...) }

// NewText builds a plain inline text span.
func NewText(text string) *Node {
	n := newNode(TypeText)
	n.Text = text
	return n
}

// NewStyledText builds an inline text span with emphasis.
func NewStyledText(text string, style Style) *Node {
	n := NewText(text)
	n.Style = style
	return n
}

// NewLink builds an inline hyperlink span.
func NewLink(text, href string) *Node {
	n := newNode(TypeLink)
	n.Text = text
	n.Href = href
	return n
}

// NewDefaultDocument builds the minimal valid document: a root whose
// first child is an empty title followed by one empty paragraph.
func NewDefaultDocument() *Node {
	return NewRoot(NewTitle(), NewParagraph())
}

// CloneShallow copies the node struct and its child slice; the children
// themselves stay shared. This is the copy-on-write building block.
func (n *Node) CloneShallow() *Node {
	c := *n
	c.Children = make([]*Node, len(n.Children))
	copy(c.Children, n.Children)
	return &c
}

// CloneDeep copies the node and its whole subtree with fresh identity keys.
// Used when duplicating content into a new tree position.
func (n *Node) CloneDeep() *Node {
	c := *n
	c.Key = NewKey()
	c.Children = make([]*Node, len(n.Children))
	for i, ch := range n.Children {
		c.Children[i] = ch.CloneDeep()
	}
	return &c
}

// IsContainer reports whether the node type carries block children.
func (n *Node) IsContainer() bool { return Specs[n.Type].Container }

// IsInline reports whether the node is inline content.
func (n *Node) IsInline() bool { return Specs[n.Type].Inline }

// Empty reports whether the node has no children.
func (n *Node) Empty() bool { return len(n.Children) == 0 }

// PlainText concatenates the text of the node's inline descendants.
func (n *Node) PlainText() string {
	if n.IsInline() {
		return n.Text
	}
	var out string
	for _, c := range n.Children {
		out += c.PlainText()
	}
	return out
}

// Walk visits n and every descendant in depth-first order. Returning
// false from fn stops the walk.
func Walk(n *Node, fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// FindByKey returns the node with the given key, its parent, and its
// index within the parent's children. The root has a nil parent.
func FindByKey(root *Node, key string) (node, parent *Node, index int) {
	if root.Key == key {
		return root, nil, -1
	}
	var find func(p *Node) (*Node, *Node, int)
	find = func(p *Node) (*Node, *Node, int) {
		for i, c := range p.Children {
			if c.Key == key {
				return c, p, i
			}
			if n, par, idx := find(c); n != nil {
				return n, par, idx
			}
		}
		return nil, nil, -1
	}
	return find(root)
}

// Equivalent reports structural equality of two trees, ignoring identity
// keys and derived fields (ordinals). This is the round-trip contract.
func Equivalent(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type ||
		a.Text != b.Text ||
		a.Href != b.Href ||
		a.Style != b.Style ||
		a.Level != b.Level ||
		a.ListType != b.ListType ||
		a.Checked != b.Checked ||
		a.Indent != b.Indent ||
		a.Code != b.Code ||
		a.Language != b.Language ||
		a.MediaKind != b.MediaKind ||
		a.RemoteID != b.RemoteID ||
		a.RawType != b.RawType {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equivalent(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// ValidateRoot checks the structural invariants every committed document
// must hold: at least one child, and a title at index 0.
func ValidateRoot(root *Node) error {
	if root == nil || root.Type != TypeRoot {
		return errNotRoot
	}
	if len(root.Children) == 0 {
		return errNoChildren
	}
	if root.Children[0].Type != TypeTitle {
		return errNoTitle
	}
	return nil
}
