// Package block defines the typed document node model: a closed set of
// tagged block and inline variants, a per-type dispatch table, and the
// JSON wire codec consumed by storage.
package block

// Type discriminates node variants. The set is closed: every tag maps to
// an entry in the Specs table, and tags absent from it are preserved as
// TypeUnknown nodes until migration rewrites them.
type Type string

const (
	TypeRoot      Type = "root"
	TypeTitle     Type = "title"
	TypeParagraph Type = "paragraph"
	TypeHeading   Type = "heading"
	TypeQuote     Type = "quote"
	TypeDivider   Type = "divider"
	TypeListItem  Type = "list-item"
	TypeList      Type = "list"
	TypeCode      Type = "code"
	TypeMedia     Type = "media"
	TypeTable     Type = "table"
	TypeTableRow  Type = "table-row"
	TypeTableCell Type = "table-cell"
	TypeText      Type = "text"
	TypeLink      Type = "link"

	// TypeUnknown tags a node whose on-disk type is not in the current set.
	// The original tag survives in Node.RawType.
	TypeUnknown Type = "unknown"
)

// Retired on-disk types stripped by migration.
const (
	RetiredInlineCode Type = "inline-code"
	RetiredExecutable Type = "executable"
)

// ListType selects the flavour of a list item.
type ListType string

const (
	ListBullet ListType = "bullet"
	ListNumber ListType = "number"
	ListCheck  ListType = "check"
)

// MediaKind selects the flavour of an async media node.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaBookmark MediaKind = "bookmark"
	MediaVideo    MediaKind = "video"
)

// LoadState tracks async media resolution. A node transitions
// loading -> ready or loading -> error exactly once.
type LoadState string

const (
	LoadLoading LoadState = "loading"
	LoadReady   LoadState = "ready"
	LoadError   LoadState = "error"
)

// Alignment positions a media node within its column.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Style marks inline emphasis on a text span.
type Style string

const (
	StyleNone       Style = ""
	StyleBold       Style = "bold"
	StyleItalic     Style = "italic"
	StyleBoldItalic Style = "bold-italic"
	StyleCode       Style = "code"
	StyleStrike     Style = "strike"
)

// Spec describes per-type behavior. Dispatch goes through this table
// instead of per-type methods so the variant set stays closed.
type Spec struct {
	// Container nodes carry block children; leaf nodes do not.
	Container bool
	// Inline nodes live inside block nodes as text content.
	Inline bool
	// SplitsToNewSibling marks inline nodes whose split primitive inserts
	// the trailing half as a separate new sibling item rather than keeping
	// it in the same child list (hyperlink spans do this).
	SplitsToNewSibling bool
}

// Specs is the dispatch table for the closed type set.
var Specs = map[Type]Spec{
	TypeRoot:      {Container: true},
	TypeTitle:     {Container: true},
	TypeParagraph: {Container: true},
	TypeHeading:   {Container: true},
	TypeQuote:     {Container: true},
	TypeDivider:   {},
	TypeListItem:  {Container: true},
	TypeList:      {Container: true},
	TypeCode:      {},
	TypeMedia:     {},
	TypeTable:     {Container: true},
	TypeTableRow:  {Container: true},
	TypeTableCell: {Container: true},
	TypeText:      {Inline: true},
	TypeLink:      {Inline: true, SplitsToNewSibling: true},
}

// Known reports whether t is part of the current type set.
func Known(t Type) bool {
	_, ok := Specs[t]
	return ok && t != TypeUnknown
}

// Retired reports whether t is a legacy type removed by migration.
func Retired(t Type) bool {
	return t == RetiredInlineCode || t == RetiredExecutable
}
