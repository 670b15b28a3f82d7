package serial

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLTree is the Tree implementation backing asset metadata,
// manifests and artifact info files - anything meant to be a
// human-editable document on disk.
// The document is held as a yaml.Node graph; yaml.Node already
// models an ordered structure of maps/sequences/scalars, which is
// exactly what Tree's node_* cursor contract needs.
type YAMLTree struct {
	stack []*frame
}

type frame struct {
	node    *yaml.Node
	keyNode *yaml.Node // non-nil when node is a map value awaiting WriteKey
	iterIdx int        // -1 when not iterating node's children
}

// NewYAMLTree returns an empty tree positioned at its root, ready
// for AsMap/AsList followed by writes.
func NewYAMLTree() *YAMLTree {
	root := &yaml.Node{}
	return &YAMLTree{stack: []*frame{{node: root, iterIdx: -1}}}
}

// ParseYAMLTree decodes data as a YAML document and returns a Tree
// positioned at its root.
func ParseYAMLTree(data []byte) (*YAMLTree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("serial: parse yaml tree: %w", err)
	}
	root := &yaml.Node{}
	if len(doc.Content) > 0 {
		root = doc.Content[0]
	}
	return &YAMLTree{stack: []*frame{{node: root, iterIdx: -1}}}, nil
}

// Bytes marshals the tree back to a YAML document.
func (t *YAMLTree) Bytes() ([]byte, error) {
	return yaml.Marshal(t.stack[0].node)
}

func (t *YAMLTree) top() *frame { return t.stack[len(t.stack)-1] }

// cur resolves the node that read/write operations act upon:
// the frame's node directly, or the child currently designated
// by iteration if FindFirstChild/NextSibling are in progress.
func (t *YAMLTree) cur() *yaml.Node {
	f := t.top()
	if f.iterIdx < 0 {
		return f.node
	}
	return childAt(f.node, f.iterIdx)
}

func childAt(node *yaml.Node, idx int) *yaml.Node {
	switch node.Kind {
	case yaml.MappingNode:
		return node.Content[idx*2+1]
	default:
		return node.Content[idx]
	}
}

func numChildren(node *yaml.Node) int {
	if node == nil {
		return 0
	}
	switch node.Kind {
	case yaml.MappingNode:
		return len(node.Content) / 2
	default:
		return len(node.Content)
	}
}

func (t *YAMLTree) IsEmpty() bool {
	n := t.cur()
	if n.Kind == 0 {
		return true
	}
	if n.Kind == yaml.ScalarNode && (n.Tag == "!!null" || n.Value == "") {
		return n.Tag == "!!null"
	}
	return numChildren(n) == 0 && n.Kind != yaml.ScalarNode
}

func (t *YAMLTree) HasChild(name string) bool {
	n := t.cur()
	if n.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i < len(n.Content); i += 2 {
		if n.Content[i].Value == name {
			return true
		}
	}
	return false
}

func (t *YAMLTree) FindChild(name string) error {
	n := t.cur()
	if n.Kind != yaml.MappingNode {
		return ErrNoChild
	}
	for i := 0; i < len(n.Content); i += 2 {
		if n.Content[i].Value == name {
			t.stack = append(t.stack, &frame{node: n.Content[i+1], iterIdx: -1})
			return nil
		}
	}
	return ErrNoChild
}

func (t *YAMLTree) AppendChild() error {
	n := t.cur()
	child := &yaml.Node{}
	var key *yaml.Node
	switch n.Kind {
	case yaml.MappingNode:
		key = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str"}
		n.Content = append(n.Content, key, child)
	case yaml.SequenceNode:
		n.Content = append(n.Content, child)
	default:
		return fmt.Errorf("serial: AppendChild: current node is not a map or list")
	}
	t.stack = append(t.stack, &frame{node: child, keyNode: key, iterIdx: -1})
	return nil
}

func (t *YAMLTree) FindFirstChild() {
	t.top().iterIdx = 0
}

func (t *YAMLTree) IsValid() bool {
	f := t.top()
	return f.iterIdx >= 0 && f.iterIdx < numChildren(f.node)
}

func (t *YAMLTree) NextSibling() {
	t.top().iterIdx++
}

func (t *YAMLTree) Pop() {
	t.stack = t.stack[:len(t.stack)-1]
}

func (t *YAMLTree) NumChildren() int {
	return numChildren(t.cur())
}

func (t *YAMLTree) WriteKey(key string) error {
	f := t.top()
	if f.keyNode == nil {
		return fmt.Errorf("serial: WriteKey: current node has no pending key")
	}
	f.keyNode.Value = key
	return nil
}

func (t *YAMLTree) AsMap() {
	n := t.cur()
	n.Kind = yaml.MappingNode
	n.Tag = "!!map"
}

func (t *YAMLTree) AsList(length int) {
	n := t.cur()
	n.Kind = yaml.SequenceNode
	n.Tag = "!!seq"
	n.Content = make([]*yaml.Node, 0, length)
}

func (t *YAMLTree) WriteValue(value any) error {
	return t.cur().Encode(value)
}

func (t *YAMLTree) ReadValue(dst any) error {
	return t.cur().Decode(dst)
}

var _ Tree = (*YAMLTree)(nil)
