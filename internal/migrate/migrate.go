// Package migrate reconciles historical on-disk document shapes with the
// current one. Two orthogonal passes run on load: flat-era list items are
// grouped into nested list containers, and retired or unknown node types
// are stripped or degraded to placeholders. Both passes are idempotent.
package migrate

import (
	"fmt"

	"github.com/starford/ansuz/internal/block"
)

// Run upgrades a decoded tree to the current shape. A document whose root
// ends up with zero usable children yields nil, the "no content" sentinel;
// callers substitute a fresh default document instead of failing.
//
// Run takes ownership of the input tree and may reuse its nodes; callers
// must not keep using the input afterwards.
func Run(root *block.Node) *block.Node {
	if root == nil {
		return nil
	}
	out := root.CloneShallow()
	out.Children = stripRetired(out.Children)
	replaceUnknown(out)
	out.Children = nestChildren(out.Children)
	if len(out.Children) == 0 {
		return nil
	}
	ensureTitle(out)
	return out
}

// stripRetired drops nodes of retired types recursively through the
// whole tree, keeping everything else in order.
func stripRetired(children []*block.Node) []*block.Node {
	out := make([]*block.Node, 0, len(children))
	for _, c := range children {
		if block.Retired(c.Type) {
			continue
		}
		if len(c.Children) > 0 {
			kept := stripRetired(c.Children)
			if len(kept) != len(c.Children) {
				c = c.CloneShallow()
				c.Children = kept
			}
		}
		out = append(out, c)
	}
	return out
}

// replaceUnknown rewrites every unknown-typed node into a paragraph
// holding its bracketed type name, so a document always opens even after
// a node type is retired. Sibling nodes are untouched.
func replaceUnknown(n *block.Node) {
	for i, c := range n.Children {
		if c.Type == block.TypeUnknown {
			n.Children[i] = block.NewParagraph(
				block.NewText(fmt.Sprintf("[%s]", c.RawType)),
			)
			continue
		}
		replaceUnknown(c)
	}
}

// nestChildren converts flat-era runs of consecutive list items into
// nested list containers, recursing through every container (table cells
// included). Input that already carries list containers passes through
// untouched, which is what makes the whole migration idempotent.
func nestChildren(children []*block.Node) []*block.Node {
	out := make([]*block.Node, 0, len(children))
	i := 0
	for i < len(children) {
		c := children[i]
		if c.Type == block.TypeList {
			// Already-nested input passes through untouched.
			out = append(out, c)
			i++
			continue
		}
		if c.Type != block.TypeListItem {
			if c.IsContainer() && len(c.Children) > 0 {
				nested := nestChildren(c.Children)
				cc := c.CloneShallow()
				cc.Children = nested
				c = cc
			}
			out = append(out, c)
			i++
			continue
		}
		j := i
		for j < len(children) && children[j].Type == block.TypeListItem {
			j++
		}
		out = append(out, buildLists(children[i:j], 0)...)
		i = j
	}
	return out
}

// buildLists groups a flat run of items into one synthetic list container
// per top-level list type. An item followed by a sub-run of strictly
// higher indent gets that sub-run rebuilt recursively (indents reduced by
// current+1) and attached as its only extra child.
func buildLists(run []*block.Node, current int) []*block.Node {
	var out []*block.Node
	var cur *block.Node

	k := 0
	for k < len(run) {
		it := run[k]
		m := k + 1
		for m < len(run) && run[m].Indent > it.Indent {
			m++
		}

		item := it.CloneShallow()
		item.Indent = 0
		if m > k+1 {
			sub := make([]*block.Node, 0, m-k-1)
			for _, s := range run[k+1 : m] {
				sc := s.CloneShallow()
				sc.Indent = s.Indent - (current + 1)
				if sc.Indent < 0 {
					sc.Indent = 0
				}
				sub = append(sub, sc)
			}
			item.Children = append(item.Children, buildLists(sub, 0)...)
		}

		if cur == nil || cur.ListType != it.ListType {
			cur = block.NewList(it.ListType)
			out = append(out, cur)
		}
		cur.Children = append(cur.Children, item)
		k = m
	}
	return out
}

// ensureTitle guarantees the first-child-is-title invariant on migrated
// documents: a missing title is synthesized, a misplaced one is moved up.
func ensureTitle(root *block.Node) {
	for i, c := range root.Children {
		if c.Type == block.TypeTitle {
			if i != 0 {
				copy(root.Children[1:i+1], root.Children[:i])
				root.Children[0] = c
			}
			return
		}
	}
	root.Children = append([]*block.Node{block.NewTitle()}, root.Children...)
}
