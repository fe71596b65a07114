package ordinal

import (
	"testing"

	"github.com/starford/ansuz/internal/block"
	"github.com/starford/ansuz/internal/doc"
)

func num(indent int, text string) *block.Node {
	return block.NewListItem(block.ListNumber, indent, block.NewText(text))
}

func bullet(indent int, text string) *block.Node {
	return block.NewListItem(block.ListBullet, indent, block.NewText(text))
}

func TestOf_Contiguity(t *testing.T) {
	sibs := []*block.Node{num(0, "a"), num(0, "b"), num(0, "c")}
	for i, want := range []int{1, 2, 3} {
		if got := Of(sibs, i); got != want {
			t.Errorf("ordinal[%d] = %d, want %d", i, got, want)
		}
	}
}

func TestOf_SubItemsSkipped(t *testing.T) {
	// Nested sub-list keeps its own counter and does not advance the parent's.
	sibs := []*block.Node{num(0, "a"), num(1, "a.1"), num(1, "a.2"), num(0, "b")}
	if got := Of(sibs, 3); got != 2 {
		t.Errorf("ordinal of b = %d, want 2", got)
	}
	if got := Of(sibs, 2); got != 2 {
		t.Errorf("ordinal of a.2 = %d, want 2", got)
	}
	if got := Of(sibs, 1); got != 1 {
		t.Errorf("ordinal of a.1 = %d, want 1", got)
	}
}

func TestOf_ResetAfterInterruption(t *testing.T) {
	sibs := []*block.Node{num(0, "a"), bullet(0, "x"), num(0, "b")}
	if got := Of(sibs, 2); got != 1 {
		t.Errorf("ordinal after non-number sibling = %d, want 1", got)
	}
}

func TestOf_LowerIndentStops(t *testing.T) {
	sibs := []*block.Node{num(0, "a"), num(1, "a.1"), num(1, "a.2")}
	if got := Of(sibs, 2); got != 2 {
		t.Errorf("ordinal = %d, want 2", got)
	}
	// The indent-0 item does not leak into the indent-1 count.
	sibs2 := []*block.Node{num(0, "a"), num(0, "b"), num(1, "b.1")}
	if got := Of(sibs2, 2); got != 1 {
		t.Errorf("ordinal of b.1 = %d, want 1", got)
	}
}

func TestOf_NonNumberIsZero(t *testing.T) {
	sibs := []*block.Node{bullet(0, "x")}
	if got := Of(sibs, 0); got != 0 {
		t.Errorf("ordinal of bullet = %d, want 0", got)
	}
}

func TestRun_Bounds(t *testing.T) {
	sibs := []*block.Node{
		bullet(0, "x"),
		num(0, "a"), num(1, "a.1"), num(0, "b"),
		bullet(0, "y"),
		num(0, "c"),
	}
	start, end := Run(sibs, 3)
	if start != 1 || end != 4 {
		t.Errorf("run = [%d,%d), want [1,4)", start, end)
	}
	start, end = Run(sibs, 5)
	if start != 5 || end != 6 {
		t.Errorf("run = [%d,%d), want [5,6)", start, end)
	}
}

func TestResync_RenumbersAfterDeletion(t *testing.T) {
	items := []*block.Node{num(0, "a"), num(0, "b"), num(0, "c"), num(0, "d")}
	root := block.NewRoot(append([]*block.Node{block.NewTitle()}, items...)...)
	s, err := doc.NewStore(root)
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Transact(func(d *doc.Draft) error {
		Resync(d, root.Key, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	for i, want := range []int{1, 2, 3, 4} {
		got := s.Snapshot().Children[i+1].Ordinal
		if got != want {
			t.Errorf("ordinal[%d] = %d, want %d", i, got, want)
		}
	}

	// Delete item b; c and d renumber down by one.
	_, err = s.Transact(func(d *doc.Draft) error {
		d.Remove(items[1].Key)
		Resync(d, root.Key, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	snap := s.Snapshot()
	for i, want := range []int{1, 2, 3} {
		got := snap.Children[i+1].Ordinal
		if got != want {
			t.Errorf("after delete: ordinal[%d] = %d, want %d", i, got, want)
		}
	}
}

func TestResync_NestedCountersIndependent(t *testing.T) {
	items := []*block.Node{num(0, "a"), num(1, "a.1"), num(1, "a.2"), num(0, "b")}
	root := block.NewRoot(append([]*block.Node{block.NewTitle()}, items...)...)
	s, err := doc.NewStore(root)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Transact(func(d *doc.Draft) error {
		Resync(d, root.Key, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	snap := s.Snapshot()
	want := []int{1, 1, 2, 2}
	for i := range want {
		if got := snap.Children[i+1].Ordinal; got != want[i] {
			t.Errorf("ordinal[%d] = %d, want %d", i, got, want[i])
		}
	}
}
