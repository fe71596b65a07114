package doc

import (
	"errors"
	"testing"

	"github.com/starford/ansuz/internal/block"
)

func testStore(t *testing.T) (*Store, *block.Node) {
	t.Helper()
	root := block.NewRoot(
		block.NewTitle(block.NewText("Doc")),
		block.NewParagraph(block.NewText("one")),
		block.NewParagraph(block.NewText("two")),
	)
	s, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, root
}

func TestTransact_StructuralSharing(t *testing.T) {
	s, before := testStore(t)
	touched := before.Children[1]

	_, err := s.Transact(func(d *Draft) error {
		d.SetText(touched.Children[0].Key, "changed")
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}

	after := s.Snapshot()
	if after == before {
		t.Error("commit must produce a new root")
	}
	if after.Children[0] != before.Children[0] {
		t.Error("untouched title subtree must be shared")
	}
	if after.Children[2] != before.Children[2] {
		t.Error("untouched paragraph must be shared")
	}
	if after.Children[1] == before.Children[1] {
		t.Error("touched path must be copied")
	}
	if got := after.Children[1].Children[0].Text; got != "changed" {
		t.Errorf("text = %q, want %q", got, "changed")
	}
	// The committed original is untouched.
	if got := before.Children[1].Children[0].Text; got != "one" {
		t.Errorf("original text = %q, want %q", got, "one")
	}
}

func TestTransact_ErrorDiscardsDraft(t *testing.T) {
	s, before := testStore(t)
	boom := errors.New("boom")

	_, err := s.Transact(func(d *Draft) error {
		d.SetText(before.Children[1].Children[0].Key, "changed")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if s.Snapshot() != before {
		t.Error("failed transaction must not commit")
	}
}

func TestTransact_Changeset(t *testing.T) {
	s, root := testStore(t)
	para := root.Children[1]
	fresh := block.NewParagraph(block.NewText("new"))

	cs, err := s.Transact(func(d *Draft) error {
		d.InsertAfter(para.Key, fresh)
		d.SetText(para.Children[0].Key, "edited")
		d.Remove(root.Children[2].Key)
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	if cs[fresh.Key] != Created {
		t.Errorf("fresh node change = %q, want created", cs[fresh.Key])
	}
	if cs[para.Children[0].Key] != Updated {
		t.Errorf("edited node change = %q, want updated", cs[para.Children[0].Key])
	}
	if cs[root.Children[2].Key] != Removed {
		t.Errorf("removed node change = %q, want removed", cs[root.Children[2].Key])
	}
}

func TestRemove_TitleRefused(t *testing.T) {
	s, root := testStore(t)
	title := root.Children[0]

	_, err := s.Transact(func(d *Draft) error {
		if d.Remove(title.Key) {
			t.Error("removing the title must be refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	if s.Snapshot().Children[0].Type != block.TypeTitle {
		t.Error("title must survive")
	}
}

func TestReplace_TitleTypeGuard(t *testing.T) {
	s, root := testStore(t)
	title := root.Children[0]

	_, err := s.Transact(func(d *Draft) error {
		if d.Replace(title.Key, block.NewParagraph()) {
			t.Error("replacing title with a paragraph must be refused")
		}
		if !d.Replace(title.Key, block.NewTitle(block.NewText("renamed"))) {
			t.Error("replacing title with a title must be allowed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
}

func TestSetIndent_NegativeRefused(t *testing.T) {
	item := block.NewListItem(block.ListBullet, 0, block.NewText("x"))
	s, err := NewStore(block.NewRoot(block.NewTitle(), item))
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Transact(func(d *Draft) error {
		if d.SetIndent(item.Key, -1) {
			t.Error("negative indent must be refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	if s.Snapshot().Children[1].Indent != 0 {
		t.Error("refused mutation must leave the tree unchanged")
	}
}

func TestMutateOutsideTransaction_Panics(t *testing.T) {
	s, root := testStore(t)
	var leaked *Draft
	_, _ = s.Transact(func(d *Draft) error {
		leaked = d
		return nil
	})

	defer func() {
		if recover() == nil {
			t.Error("mutating after commit must panic")
		}
	}()
	leaked.SetText(root.Children[1].Children[0].Key, "nope")
}

func TestMutateRemovedNode_Panics(t *testing.T) {
	s, root := testStore(t)
	para := root.Children[1]

	_, err := s.Transact(func(d *Draft) error {
		d.Remove(para.Key)
		defer func() {
			if recover() == nil {
				t.Error("mutating a removed node must panic")
			}
		}()
		d.SetText(para.Children[0].Key, "nope")
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
}

func TestCommit_InvariantViolationRejected(t *testing.T) {
	s, root := testStore(t)
	_, err := s.Transact(func(d *Draft) error {
		// Empty the root behind the validators' back.
		d.SetChildren(root.Key, nil)
		return nil
	})
	if err == nil {
		t.Fatal("committing a root without children must fail")
	}
	if s.Snapshot() != root {
		t.Error("failed commit must leave the previous snapshot")
	}
}
