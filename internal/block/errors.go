package block

import "errors"

var (
	errNotRoot    = errors.New("block: document root must be a root node")
	errNoChildren = errors.New("block: root must have at least one child")
	errNoTitle    = errors.New("block: first child of root must be a title")
)
