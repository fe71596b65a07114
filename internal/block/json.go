package block

import (
	"encoding/json"
	"fmt"
)

// CurrentVersion is written into every encoded node.
const CurrentVersion = 1

// nodeJSON is the on-disk node shape: {type, version, key, children?, fields...}.
// Fields irrelevant to a node's type are omitted.
type nodeJSON struct {
	Type     string      `json:"type"`
	Version  int         `json:"version"`
	Key      string      `json:"key,omitempty"`
	Children []*nodeJSON `json:"children,omitempty"`

	Text  string `json:"text,omitempty"`
	Href  string `json:"href,omitempty"`
	Style string `json:"style,omitempty"`

	Level int `json:"level,omitempty"`

	ListType string `json:"listType,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
	Indent   int    `json:"indent,omitempty"`

	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`

	MediaKind string `json:"kind,omitempty"`
	RemoteID  string `json:"remoteId,omitempty"`
	LocalPath string `json:"localPath,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Align     string `json:"alignment,omitempty"`
	LoadState string `json:"loadingState,omitempty"`
}

// documentJSON is the top-level on-disk schema: { root: { children: [...] } }.
type documentJSON struct {
	Root *nodeJSON `json:"root"`
}

// Encode serializes a document tree to the on-disk JSON schema.
// Derived fields (ordinals) are not written.
func Encode(root *Node) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("block: encode: nil root")
	}
	data, err := json.MarshalIndent(documentJSON{Root: toJSON(root)}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("block: encode: %w", err)
	}
	return data, nil
}

// Decode parses on-disk JSON into a document tree. Unrecognized node
// types are kept as TypeUnknown nodes with the original tag preserved;
// migration rewrites them into placeholder paragraphs. Nodes without a
// key get a fresh one.
func Decode(data []byte) (*Node, error) {
	var d documentJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("block: decode: %w", err)
	}
	if d.Root == nil {
		return nil, fmt.Errorf("block: decode: missing root")
	}
	root := fromJSON(d.Root)
	root.Type = TypeRoot
	return root, nil
}

func toJSON(n *Node) *nodeJSON {
	tag := string(n.Type)
	if n.Type == TypeUnknown && n.RawType != "" {
		tag = n.RawType
	}
	j := &nodeJSON{
		Type:      tag,
		Version:   CurrentVersion,
		Key:       n.Key,
		Text:      n.Text,
		Href:      n.Href,
		Style:     string(n.Style),
		Level:     n.Level,
		ListType:  string(n.ListType),
		Checked:   n.Checked,
		Indent:    n.Indent,
		Code:      n.Code,
		Language:  n.Language,
		MediaKind: string(n.MediaKind),
		RemoteID:  n.RemoteID,
		LocalPath: n.LocalPath,
		Width:     n.Width,
		Height:    n.Height,
		Align:     string(n.Align),
		LoadState: string(n.LoadState),
	}
	if len(n.Children) > 0 {
		j.Children = make([]*nodeJSON, len(n.Children))
		for i, c := range n.Children {
			j.Children[i] = toJSON(c)
		}
	}
	return j
}

func fromJSON(j *nodeJSON) *Node {
	t := Type(j.Type)
	n := &Node{
		Key:       j.Key,
		Type:      t,
		Text:      j.Text,
		Href:      j.Href,
		Style:     Style(j.Style),
		Level:     j.Level,
		ListType:  ListType(j.ListType),
		Checked:   j.Checked,
		Indent:    j.Indent,
		Code:      j.Code,
		Language:  j.Language,
		MediaKind: MediaKind(j.MediaKind),
		RemoteID:  j.RemoteID,
		LocalPath: j.LocalPath,
		Width:     j.Width,
		Height:    j.Height,
		Align:     Alignment(j.Align),
		LoadState: LoadState(j.LoadState),
	}
	if n.Key == "" {
		n.Key = NewKey()
	}
	if !Known(t) && !Retired(t) {
		n.Type = TypeUnknown
		n.RawType = j.Type
	}
	if n.Indent < 0 {
		n.Indent = 0
	}
	// A media node persisted mid-fetch resumes as loading; anything else
	// invalid degrades to error rather than inventing readiness.
	if n.Type == TypeMedia {
		switch n.LoadState {
		case LoadLoading, LoadReady, LoadError:
		default:
			n.LoadState = LoadLoading
		}
	}
	for _, cj := range j.Children {
		n.Children = append(n.Children, fromJSON(cj))
	}
	return n
}
