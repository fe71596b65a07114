package docservice

import (
	"context"
	"fmt"

	"github.com/starford/ansuz/internal/doc"
	"github.com/starford/ansuz/internal/flatlist"
	"github.com/starford/ansuz/internal/markdown"
)

// Command is one editor operation against a document.
type Command struct {
	Op     string `json:"op"`
	Key    string `json:"key"`
	Child  int    `json:"child,omitempty"`
	Offset int    `json:"offset,omitempty"`

	// Pointer fields, used by op "pointer-down".
	OffsetX float64 `json:"offsetX,omitempty"`
	Pointer string  `json:"pointer,omitempty"`
}

// CommandResult reports what a command did. Handled == false means the
// command violated an invariant and the document is unchanged.
type CommandResult struct {
	Handled       bool   `json:"handled"`
	FocusKey      string `json:"focusKey,omitempty"`
	Toggled       bool   `json:"toggled,omitempty"`
	SuppressCaret bool   `json:"suppressCaret,omitempty"`

	Created int `json:"created"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// ApplyCommand runs one editor command against an open document and saves
// the result when it was handled. Commands the engine refuses leave the
// document untouched and return Handled == false without error.
func (s *Service) ApplyCommand(ctx context.Context, id string, cmd Command) (CommandResult, error) {
	st, err := s.Load(ctx, id)
	if err != nil {
		return CommandResult{}, err
	}

	eng := flatlist.New(st)
	var res CommandResult
	var changes doc.Changeset

	switch cmd.Op {
	case "split":
		res.FocusKey, res.Handled = eng.Split(cmd.Key, flatlist.Cursor{Child: cmd.Child, Offset: cmd.Offset})
	case "backspace":
		res.FocusKey, res.Handled = eng.BackspaceAtStart(cmd.Key)
	case "indent":
		res.Handled = eng.Indent(cmd.Key)
	case "outdent":
		res.Handled = eng.Outdent(cmd.Key)
	case "toggle-check":
		res.Handled = eng.ToggleCheck(cmd.Key)
	case "pointer-down":
		p := flatlist.Mouse
		if cmd.Pointer == "touch" {
			p = flatlist.Touch
		}
		res.Toggled, res.SuppressCaret = eng.PointerDown(cmd.Key, cmd.OffsetX, p)
		res.Handled = res.Toggled
	case "code-fence":
		cs, err := st.Transact(func(d *doc.Draft) error {
			res.Handled = markdown.TriggerCodeFence(d, cmd.Key)
			return nil
		})
		if err != nil {
			return CommandResult{}, err
		}
		changes = cs
	case "image":
		cs, err := st.Transact(func(d *doc.Draft) error {
			res.Handled = markdown.TriggerImage(d, cmd.Key)
			return nil
		})
		if err != nil {
			return CommandResult{}, err
		}
		changes = cs
	default:
		return CommandResult{}, fmt.Errorf("docservice: unknown command op %q", cmd.Op)
	}

	if !res.Handled {
		return res, nil
	}

	if changes == nil {
		changes = eng.LastChanges()
	}
	res.Created, res.Updated, res.Removed = countChanges(changes)

	if _, err := s.Save(ctx, id); err != nil {
		return CommandResult{}, err
	}
	// An image trigger creates a loading media node; resolve it.
	if cmd.Op == "image" {
		s.resolvePending(ctx, st)
	}
	return res, nil
}

func countChanges(cs doc.Changeset) (created, updated, removed int) {
	for _, kind := range cs {
		switch kind {
		case doc.Created:
			created++
		case doc.Updated:
			updated++
		case doc.Removed:
			removed++
		}
	}
	return created, updated, removed
}
