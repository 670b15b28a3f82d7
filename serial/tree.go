package serial

import "errors"

// ErrNoChild is returned by FindChild when name does not identify
// an existing child of the current node.
var ErrNoChild = errors.New("serial: no such child node")

// Tree is a structured, navigable serialization document.
// Implementations hold a cursor pointing at the "current" node;
// FindChild/AppendChild push the cursor down to a child and Pop
// restores the parent, so callers can walk a document the same
// way regardless of the underlying format.
type Tree interface {
	// IsEmpty reports whether the current node holds no value
	// and has no children.
	IsEmpty() bool

	// HasChild reports whether the current node (treated as a
	// map) has a child under name.
	HasChild(name string) bool

	// FindChild moves the cursor to the named child of the
	// current node. It returns ErrNoChild if absent.
	FindChild(name string) error

	// AppendChild appends a new, empty child to the current
	// node (treated as a list or a map awaiting WriteKey) and
	// moves the cursor to it.
	AppendChild() error

	// FindFirstChild moves the cursor to the first child of the
	// current node, if any.
	FindFirstChild()

	// IsValid reports whether the cursor currently designates a
	// live node (used after FindFirstChild/NextSibling to detect
	// the end of iteration).
	IsValid() bool

	// NextSibling advances the cursor to the next sibling.
	NextSibling()

	// Pop moves the cursor back to the parent of the current
	// node.
	Pop()

	// NumChildren returns the number of children of the current
	// node.
	NumChildren() int

	// WriteKey labels the current node with key, for use when
	// the parent node is a map.
	WriteKey(key string) error

	// AsMap marks the current node as a map.
	AsMap()

	// AsList marks the current node as a list expected to hold
	// length elements.
	AsList(length int)

	// WriteValue stores value in the current node: a scalar, or
	// a struct, map or slice encoded as a subtree. YAMLTree
	// accepts anything yaml.v3 can encode.
	WriteValue(value any) error

	// ReadValue decodes the current node into dst, which must be
	// a pointer to a type WriteValue accepts.
	ReadValue(dst any) error
}
