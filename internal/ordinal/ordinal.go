// Package ordinal derives display numbers for ordered-list runs. Ordinals
// are computed from tree structure; they are never a source of truth.
package ordinal

import (
	"github.com/starford/ansuz/internal/block"
	"github.com/starford/ansuz/internal/doc"
)

// numbered reports whether n participates in ordered numbering.
func numbered(n *block.Node) bool {
	return n.Type == block.TypeListItem && n.ListType == block.ListNumber
}

// Of returns the displayed ordinal of siblings[i]: one more than the
// count of immediately preceding number items at the same indent.
// Walking backward stops at the first sibling with a lower indent or a
// different type; higher-indent siblings are sub-items and are skipped.
// Returns 0 when siblings[i] is not a number item.
func Of(siblings []*block.Node, i int) int {
	cur := siblings[i]
	if !numbered(cur) {
		return 0
	}
	ord := 1
	for j := i - 1; j >= 0; j-- {
		prev := siblings[j]
		if indentOf(prev) > cur.Indent {
			// Sub-item of an earlier sibling; skip, do not count.
			continue
		}
		if !numbered(prev) || prev.Indent < cur.Indent {
			break
		}
		ord++
	}
	return ord
}

// Run returns the bounds [start, end) of the contiguous same-indent
// number run containing siblings[i]. The run breaks on a non-number
// sibling or one with a lower indent; higher-indent sub-items stay
// inside the run without being part of it.
func Run(siblings []*block.Node, i int) (start, end int) {
	cur := siblings[i]
	if !numbered(cur) {
		return i, i
	}
	start = i
	for start > 0 {
		prev := siblings[start-1]
		if indentOf(prev) > cur.Indent {
			start--
			continue
		}
		if !numbered(prev) || prev.Indent < cur.Indent {
			break
		}
		start--
	}
	end = i + 1
	for end < len(siblings) {
		next := siblings[end]
		if indentOf(next) > cur.Indent {
			end++
			continue
		}
		if !numbered(next) || next.Indent < cur.Indent {
			break
		}
		end++
	}
	return start, end
}

// indentOf treats non-list blocks as indent-breaking (level -1).
func indentOf(n *block.Node) int {
	if n.Type != block.TypeListItem {
		return -1
	}
	return n.Indent
}

// Resync recomputes ordinals inside a transaction, walking forward from
// the earliest affected child index of the parent node through the
// contiguous run until it breaks. Siblings at a greater indent keep
// their own independent counters and are renumbered recursively.
func Resync(d *doc.Draft, parentKey string, from int) {
	parent := d.Node(parentKey)
	if parent == nil {
		return
	}
	if from < 0 {
		from = 0
	}
	if from >= len(parent.Children) {
		return
	}

	// Back up to the start of the run the affected item sits in, then
	// number every indent level within it.
	sibs := parent.Children
	i := from
	for !numbered(sibs[i]) {
		i++
		if i >= len(sibs) {
			return
		}
	}
	start, end := Run(sibs, i)
	counters := map[int]int{}
	for j := start; j < end; j++ {
		it := sibs[j]
		if !numbered(it) {
			// A non-number sibling interrupts its own level and
			// everything deeper.
			for depth := range counters {
				if depth >= indentOf(it) {
					delete(counters, depth)
				}
			}
			continue
		}
		// A shallower neighbor resets every deeper counter.
		for depth := range counters {
			if depth > it.Indent {
				delete(counters, depth)
			}
		}
		counters[it.Indent]++
		want := counters[it.Indent]
		if it.Ordinal != want {
			key := it.Key
			d.Update(key, func(n *block.Node) { n.Ordinal = want })
			// Refresh the slice: the update copied the path.
			sibs = d.Node(parentKey).Children
		}
	}
}
