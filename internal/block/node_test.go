package block

import "testing"

func TestNewHeading_LevelClamped(t *testing.T) {
	if h := NewHeading(0); h.Level != 1 {
		t.Errorf("level = %d, want 1", h.Level)
	}
	if h := NewHeading(7); h.Level != 3 {
		t.Errorf("level = %d, want 3", h.Level)
	}
}

func TestNewListItem_NegativeIndentClamped(t *testing.T) {
	it := NewListItem(ListBullet, -2)
	if it.Indent != 0 {
		t.Errorf("indent = %d, want 0", it.Indent)
	}
}

func TestNewMedia_StartsLoading(t *testing.T) {
	m := NewMedia(MediaImage, "https://example.com/a.png")
	if m.LoadState != LoadLoading {
		t.Errorf("load state = %q, want %q", m.LoadState, LoadLoading)
	}
}

func TestCloneShallow_SharesChildren(t *testing.T) {
	child := NewText("hello")
	p := NewParagraph(child)
	c := p.CloneShallow()

	if c == p {
		t.Fatal("clone must be a distinct node")
	}
	if c.Children[0] != child {
		t.Error("shallow clone must share child pointers")
	}
	c.Children[0] = NewText("other")
	if p.Children[0] != child {
		t.Error("mutating the clone's child slice must not touch the original")
	}
}

func TestCloneDeep_FreshKeys(t *testing.T) {
	p := NewParagraph(NewText("a"), NewLink("b", "https://b"))
	c := p.CloneDeep()
	if c.Key == p.Key {
		t.Error("deep clone must get a fresh key")
	}
	if c.Children[0].Key == p.Children[0].Key {
		t.Error("deep clone children must get fresh keys")
	}
	if !Equivalent(p, c) {
		t.Error("deep clone must stay structurally equivalent")
	}
}

func TestFindByKey(t *testing.T) {
	target := NewText("find me")
	root := NewRoot(NewTitle(), NewParagraph(NewText("x")), NewParagraph(target))

	n, parent, idx := FindByKey(root, target.Key)
	if n != target {
		t.Fatal("node not found")
	}
	if parent != root.Children[2] || idx != 0 {
		t.Errorf("parent/index = %v/%d", parent.Type, idx)
	}

	if n, _, _ := FindByKey(root, "no-such-key"); n != nil {
		t.Error("expected nil for missing key")
	}
}

func TestEquivalent_IgnoresKeysAndOrdinals(t *testing.T) {
	a := NewListItem(ListNumber, 1, NewText("x"))
	b := NewListItem(ListNumber, 1, NewText("x"))
	a.Ordinal = 3
	b.Ordinal = 7
	if !Equivalent(a, b) {
		t.Error("ordinals and keys must not affect equivalence")
	}
	b.Indent = 2
	if Equivalent(a, b) {
		t.Error("indent must affect equivalence")
	}
}

func TestPlainText(t *testing.T) {
	p := NewParagraph(NewText("hello "), NewLink("world", "https://w"))
	if got := p.PlainText(); got != "hello world" {
		t.Errorf("plain text = %q, want %q", got, "hello world")
	}
}

func TestValidateRoot(t *testing.T) {
	if err := ValidateRoot(NewDefaultDocument()); err != nil {
		t.Errorf("default document must validate: %v", err)
	}
	if err := ValidateRoot(NewRoot()); err == nil {
		t.Error("empty root must fail validation")
	}
	if err := ValidateRoot(NewRoot(NewParagraph())); err == nil {
		t.Error("root without leading title must fail validation")
	}
}
