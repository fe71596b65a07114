// Package flatlist implements the editing state machine for flat list
// items: split on enter, collapse on backspace, indent/outdent, and
// checkbox toggling. Every operation runs as one document transaction
// and triggers an ordinal resync for the affected run.
//
// Invariant-violating commands are refused by returning handled == false;
// they never error and never leave a partially-applied mutation.
package flatlist

import (
	"github.com/starford/ansuz/internal/block"
	"github.com/starford/ansuz/internal/doc"
	"github.com/starford/ansuz/internal/ordinal"
)

// Cursor addresses a split point inside an item: the child index and the
// rune offset within that child. Offset 0 splits before the child.
type Cursor struct {
	Child  int
	Offset int
}

// Engine applies flat-list commands to one document store.
type Engine struct {
	store *doc.Store
	last  doc.Changeset
}

// New creates an engine over the given store.
func New(store *doc.Store) *Engine {
	return &Engine{store: store}
}

// LastChanges returns the changeset of the most recent handled command.
func (e *Engine) LastChanges() doc.Changeset { return e.last }

// item fetches the draft node for key when it is a list item.
func item(d *doc.Draft, key string) *block.Node {
	n := d.Node(key)
	if n == nil || n.Type != block.TypeListItem {
		return nil
	}
	return n
}

// resync recomputes ordinals for the run around the item's position.
func resync(d *doc.Draft, parentKey string, index int) {
	ordinal.Resync(d, parentKey, index)
}

// Split handles Enter on a list item.
//
// An empty item first sheds indentation; at indent zero it is replaced
// by an empty paragraph at the same tree position. A non-empty item is
// split at the cursor into the original plus a new sibling of the same
// list type and indent, unchecked, holding the trailing children. The
// returned focus key is where the caret should land.
func (e *Engine) Split(itemKey string, at Cursor) (focusKey string, handled bool) {
	cs, err := e.store.Transact(func(d *doc.Draft) error {
		focusKey, handled = split(d, itemKey, at)
		return nil
	})
	if err != nil {
		return "", false
	}
	e.last = cs
	return focusKey, handled
}

func split(d *doc.Draft, itemKey string, at Cursor) (string, bool) {
	it := item(d, itemKey)
	if it == nil {
		return "", false
	}
	parent, idx := d.Parent(itemKey)
	if parent == nil {
		return "", false
	}

	if it.Empty() {
		if it.Indent > 0 {
			d.SetIndent(itemKey, it.Indent-1)
			resync(d, parent.Key, idx)
			return itemKey, true
		}
		p := block.NewParagraph()
		if !d.Replace(itemKey, p) {
			return "", false
		}
		resync(d, parent.Key, idx)
		return p.Key, true
	}

	groups := splitChildren(it.Children, at)
	d.SetChildren(itemKey, groups[0])

	// One new sibling per trailing group. The split primitive can hand
	// back more than one group when an inline node splits to a new
	// sibling on its own, so the count is not assumed to be one.
	created := make([]*block.Node, 0, len(groups)-1)
	after := itemKey
	for _, g := range groups[1:] {
		sib := block.NewListItem(it.ListType, it.Indent, g...)
		d.InsertAfter(after, sib)
		created = append(created, sib)
		after = sib.Key
	}
	focus := created[0]

	// Merge correction: when the split produced a run of more than one
	// new item between the original and its former next sibling, fold
	// every extra item back into the one the cursor landed in.
	if len(created) > 1 {
		merged := focus.Children
		for _, extra := range created[1:] {
			merged = append(merged, d.Node(extra.Key).Children...)
			d.Remove(extra.Key)
		}
		d.SetChildren(focus.Key, merged)
	}

	resync(d, parent.Key, idx)
	return focus.Key, true
}

// splitChildren divides an item's children at the cursor into two or
// more groups. The first group stays in the original item; each further
// group becomes a new sibling item. Splitting inside an inline node that
// inserts-new-after (a hyperlink span) yields an extra group.
func splitChildren(children []*block.Node, at Cursor) [][]*block.Node {
	k := at.Child
	if k < 0 {
		k = 0
	}
	if k >= len(children) {
		return [][]*block.Node{children, nil}
	}
	target := children[k]

	textLen := len([]rune(target.Text))
	switch {
	case at.Offset <= 0:
		return [][]*block.Node{children[:k], children[k:]}
	case at.Offset >= textLen:
		return [][]*block.Node{children[:k+1], children[k+1:]}
	}

	runes := []rune(target.Text)
	head := target.CloneShallow()
	head.Text = string(runes[:at.Offset])
	tail := target.CloneShallow()
	tail.Key = block.NewKey()
	tail.Text = string(runes[at.Offset:])

	first := append(append([]*block.Node{}, children[:k]...), head)
	rest := children[k+1:]

	if block.Specs[target.Type].SplitsToNewSibling {
		// The trailing half of the span lands in its own sibling, and
		// whatever followed the span becomes yet another one.
		return [][]*block.Node{first, {tail}, rest}
	}
	return [][]*block.Node{first, append([]*block.Node{tail}, rest...)}
}

// BackspaceAtStart handles backspace with the caret at an item's start.
// It must run before the host editor's generic merge-with-previous logic,
// otherwise the default cross-block merge fires first and the item never
// gets a chance to collapse.
func (e *Engine) BackspaceAtStart(itemKey string) (focusKey string, handled bool) {
	cs, err := e.store.Transact(func(d *doc.Draft) error {
		focusKey, handled = backspaceAtStart(d, itemKey)
		return nil
	})
	if err != nil {
		return "", false
	}
	e.last = cs
	return focusKey, handled
}

func backspaceAtStart(d *doc.Draft, itemKey string) (string, bool) {
	it := item(d, itemKey)
	if it == nil {
		return "", false
	}
	parent, idx := d.Parent(itemKey)
	if parent == nil {
		return "", false
	}

	if it.Indent > 0 {
		d.SetIndent(itemKey, it.Indent-1)
		resync(d, parent.Key, idx)
		return itemKey, true
	}

	p := block.NewParagraph(it.Children...)
	if !d.Replace(itemKey, p) {
		return "", false
	}
	resync(d, parent.Key, idx)
	return p.Key, true
}

// Indent increases the item's indent by one. Always permitted on a list
// item; no maximum is enforced at this layer.
func (e *Engine) Indent(itemKey string) bool {
	var handled bool
	cs, err := e.store.Transact(func(d *doc.Draft) error {
		it := item(d, itemKey)
		if it == nil {
			return nil
		}
		parent, idx := d.Parent(itemKey)
		handled = d.SetIndent(itemKey, it.Indent+1)
		if handled {
			resync(d, parent.Key, idx)
		}
		return nil
	})
	if err == nil && handled {
		e.last = cs
		return true
	}
	return false
}

// Outdent decreases the item's indent by one; refused at indent zero.
func (e *Engine) Outdent(itemKey string) bool {
	var handled bool
	cs, err := e.store.Transact(func(d *doc.Draft) error {
		it := item(d, itemKey)
		if it == nil || it.Indent == 0 {
			return nil
		}
		parent, idx := d.Parent(itemKey)
		handled = d.SetIndent(itemKey, it.Indent-1)
		if handled {
			resync(d, parent.Key, idx)
		}
		return nil
	})
	if err == nil && handled {
		e.last = cs
		return true
	}
	return false
}

// ToggleCheck flips the checked flag of a check list item.
func (e *Engine) ToggleCheck(itemKey string) bool {
	var handled bool
	cs, err := e.store.Transact(func(d *doc.Draft) error {
		it := item(d, itemKey)
		if it == nil || it.ListType != block.ListCheck {
			return nil
		}
		d.SetChecked(itemKey, !it.Checked)
		handled = true
		return nil
	})
	if err == nil && handled {
		e.last = cs
		return true
	}
	return false
}
