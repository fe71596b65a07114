package flatlist

import "github.com/starford/ansuz/internal/block"

// Pointer distinguishes input devices for hit-zone sizing.
type Pointer int

const (
	Mouse Pointer = iota
	Touch
)

// Checkbox hit-zone geometry: the glyph width plus a device-dependent
// padding. Touch gets the wider zone.
const (
	checkGlyphWidth = 18.0
	mousePadding    = 4.0
	touchPadding    = 12.0
)

// InCheckHitZone reports whether a pointer event at the given horizontal
// offset from the item's start falls inside the checkbox hit zone.
// Pointer-down inside the zone must not move the text caret; click inside
// it toggles the checkbox.
func InCheckHitZone(offsetX float64, p Pointer) bool {
	pad := mousePadding
	if p == Touch {
		pad = touchPadding
	}
	return offsetX >= 0 && offsetX <= checkGlyphWidth+pad
}

// PointerDown routes a pointer-down event on a list item. It returns
// whether the checkbox was toggled and whether caret placement must be
// suppressed. Only check items have a hit zone; other list types always
// place the caret and never toggle.
func (e *Engine) PointerDown(itemKey string, offsetX float64, p Pointer) (toggled, suppressCaret bool) {
	var isCheck bool
	e.store.Read(func(root *block.Node) {
		n, _, _ := block.FindByKey(root, itemKey)
		isCheck = n != nil && n.Type == block.TypeListItem && n.ListType == block.ListCheck
	})
	if !isCheck || !InCheckHitZone(offsetX, p) {
		return false, false
	}
	return e.ToggleCheck(itemKey), true
}
