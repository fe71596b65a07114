package doc

import (
	"fmt"

	"github.com/starford/ansuz/internal/block"
)

// Draft is the writable view of a document inside one transaction.
//
// Mutators copy the root-to-node path on first touch and reuse every
// unchanged subtree. Calling a mutator after the transaction committed,
// or against a node that is not in the draft tree, is a programming
// error and panics.
type Draft struct {
	root    *block.Node
	cloned  map[string]struct{}
	changes Changeset
	done    bool
}

// Root returns the draft's current root.
func (d *Draft) Root() *block.Node { return d.root }

// Changes returns the changeset accumulated so far.
func (d *Draft) Changes() Changeset { return d.changes }

// Node returns the draft's current node for key, or nil when the key is
// not in the tree. The result must be treated as read-only; use the
// mutators to change it.
func (d *Draft) Node(key string) *block.Node {
	n, _, _ := block.FindByKey(d.root, key)
	return n
}

// Parent returns the parent of the node with the given key and the
// node's index within it. The root has a nil parent.
func (d *Draft) Parent(key string) (*block.Node, int) {
	_, p, i := block.FindByKey(d.root, key)
	return p, i
}

func (d *Draft) check() {
	if d.done {
		panic("doc: mutation outside a transaction")
	}
}

// path returns the chain of nodes from root to key, inclusive.
func (d *Draft) path(key string) []*block.Node {
	var out []*block.Node
	var walk func(n *block.Node) bool
	walk = func(n *block.Node) bool {
		out = append(out, n)
		if n.Key == key {
			return true
		}
		for _, c := range n.Children {
			if walk(c) {
				return true
			}
		}
		out = out[:len(out)-1]
		return false
	}
	if !walk(d.root) {
		return nil
	}
	return out
}

// mutable returns a writable copy of the node with the given key,
// cloning the root-to-node path as needed.
func (d *Draft) mutable(key string) *block.Node {
	d.check()
	chain := d.path(key)
	if chain == nil {
		panic(fmt.Sprintf("doc: mutate unknown or removed node %s", key))
	}
	for i, n := range chain {
		if _, ok := d.cloned[n.Key]; ok {
			continue
		}
		c := n.CloneShallow()
		d.cloned[c.Key] = struct{}{}
		if i == 0 {
			d.root = c
		} else {
			parent := chain[i-1]
			for j, ch := range parent.Children {
				if ch == n {
					parent.Children[j] = c
					break
				}
			}
		}
		chain[i] = c
	}
	target := chain[len(chain)-1]
	d.touch(target.Key, Updated)
	return target
}

func (d *Draft) touch(key string, kind ChangeKind) {
	if d.changes[key] == Created && kind == Updated {
		return
	}
	d.changes[key] = kind
}

// Update applies fn to a writable copy of the node. fn may change the
// node's own fields but must not touch Children; use the structural
// mutators for that.
func (d *Draft) Update(key string, fn func(n *block.Node)) {
	fn(d.mutable(key))
}

// SetChecked sets the checked flag of a check list item.
func (d *Draft) SetChecked(key string, checked bool) {
	n := d.mutable(key)
	if n.Type != block.TypeListItem || n.ListType != block.ListCheck {
		panic(fmt.Sprintf("doc: setChecked on %s node", n.Type))
	}
	n.Checked = checked
}

// SetIndent sets a list item's indent. Negative indents are refused and
// reported as not handled.
func (d *Draft) SetIndent(key string, indent int) bool {
	if indent < 0 {
		return false
	}
	n := d.mutable(key)
	if n.Type != block.TypeListItem {
		panic(fmt.Sprintf("doc: setIndent on %s node", n.Type))
	}
	n.Indent = indent
	return true
}

// SetText sets the text of an inline node.
func (d *Draft) SetText(key, text string) {
	n := d.mutable(key)
	if !n.IsInline() {
		panic(fmt.Sprintf("doc: setText on %s node", n.Type))
	}
	n.Text = text
}

// Append adds n as the last child of the parent node.
func (d *Draft) Append(parentKey string, n *block.Node) {
	p := d.mutable(parentKey)
	p.Children = append(p.Children, n)
	d.markCreated(n)
}

// InsertAt inserts n at index i within the parent's children.
func (d *Draft) InsertAt(parentKey string, i int, n *block.Node) {
	p := d.mutable(parentKey)
	if i < 0 || i > len(p.Children) {
		panic(fmt.Sprintf("doc: insert index %d out of range", i))
	}
	p.Children = append(p.Children, nil)
	copy(p.Children[i+1:], p.Children[i:])
	p.Children[i] = n
	d.markCreated(n)
}

// InsertAfter inserts n as the next sibling of the node with siblingKey.
func (d *Draft) InsertAfter(siblingKey string, n *block.Node) {
	p, i := d.Parent(siblingKey)
	if p == nil {
		panic(fmt.Sprintf("doc: insert after unknown node %s", siblingKey))
	}
	d.InsertAt(p.Key, i+1, n)
}

// Remove detaches the node with the given key from its parent. Removing
// the root or the title is an invariant violation and is refused.
func (d *Draft) Remove(key string) bool {
	d.check()
	n, p, i := block.FindByKey(d.root, key)
	if n == nil || p == nil {
		return false
	}
	if n.Type == block.TypeTitle {
		return false
	}
	mp := d.mutable(p.Key)
	mp.Children = append(mp.Children[:i], mp.Children[i+1:]...)
	d.touch(key, Removed)
	return true
}

// Replace swaps the node at key's tree position for repl. The old node is
// detached; the new node takes its place. Replacing the title with a
// different block type is refused.
func (d *Draft) Replace(key string, repl *block.Node) bool {
	d.check()
	n, p, i := block.FindByKey(d.root, key)
	if n == nil || p == nil {
		return false
	}
	if n.Type == block.TypeTitle && repl.Type != block.TypeTitle {
		return false
	}
	mp := d.mutable(p.Key)
	mp.Children[i] = repl
	d.touch(key, Removed)
	d.markCreated(repl)
	return true
}

// SetChildren replaces the whole child list of the node at key.
func (d *Draft) SetChildren(key string, children []*block.Node) {
	n := d.mutable(key)
	n.Children = children
}

func (d *Draft) markCreated(n *block.Node) {
	d.touch(n.Key, Created)
	d.cloned[n.Key] = struct{}{}
	for _, c := range n.Children {
		d.cloned[c.Key] = struct{}{}
	}
}
