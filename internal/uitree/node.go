// Package uitree is a small in-memory UI tree: labeled nodes with classes,
// data attributes, children and event subscriptions. Renderers walk it to
// produce terminal output; nothing here touches the terminal.
//
// A tree is not safe for concurrent use. Callers that share one across
// goroutines (see render.Session) serialize access themselves.
package uitree

import (
	"strings"
)

const (
	// TagFragment marks a detached container whose children move into the
	// parent when appended, like a DOM document fragment.
	TagFragment = "#fragment"
	// DefaultTag is used when MakeNode receives an empty tag.
	DefaultTag = "p"
	// HiddenClass hides a node and its subtree from renderers.
	HiddenClass = "hide"
)

// Node is one element of the tree.
type Node struct {
	Tag  string
	Text string

	classes   []string
	data      map[string]string
	parent    *Node
	children  []*Node
	listeners map[string][]*Subscription
}

// MakeNode builds a labeled node. Text is stored verbatim and the class is
// applied only when non-empty.
func MakeNode(tag, text, class string) *Node {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = DefaultTag
	}
	n := &Node{Tag: tag, Text: text}
	if class != "" {
		n.classes = []string{class}
	}
	return n
}

// NewFragment returns an empty fragment node.
func NewFragment() *Node {
	return &Node{Tag: TagFragment}
}

// IsFragment reports whether n is a fragment container.
func (n *Node) IsFragment() bool {
	return n != nil && n.Tag == TagFragment
}

// Parent returns the node n is mounted under, or nil.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Children returns a copy of n's child list.
func (n *Node) Children() []*Node {
	if n == nil || len(n.children) == 0 {
		return nil
	}
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// AppendChild mounts child as the last child of n and returns it. A child that
// is already mounted elsewhere is moved. Appending a fragment moves the
// fragment's children into n and leaves the fragment empty.
func (n *Node) AppendChild(child *Node) *Node {
	if n == nil || child == nil || child == n {
		return child
	}
	if child.IsFragment() {
		moved := child.children
		child.children = nil
		for _, c := range moved {
			c.parent = nil
			n.AppendChild(c)
		}
		return child
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	return child
}

// RemoveChild unmounts child from n. It reports whether child was found.
func (n *Node) RemoveChild(child *Node) bool {
	if n == nil || child == nil {
		return false
	}
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// RemoveChildren unmounts every child of n, last first, and returns n.
func (n *Node) RemoveChildren() *Node {
	if n == nil {
		return nil
	}
	for len(n.children) > 0 {
		last := n.children[len(n.children)-1]
		n.RemoveChild(last)
	}
	return n
}

// SetData stores a data attribute such as "post-id".
func (n *Node) SetData(key, value string) {
	if n == nil {
		return
	}
	if n.data == nil {
		n.data = map[string]string{}
	}
	n.data[key] = value
}

// Data returns a data attribute.
func (n *Node) Data(key string) (string, bool) {
	if n == nil || n.data == nil {
		return "", false
	}
	v, ok := n.data[key]
	return v, ok
}

// ClassName returns the space-separated class list.
func (n *Node) ClassName() string {
	if n == nil {
		return ""
	}
	return strings.Join(n.classes, " ")
}

// HasClass reports whether class is set on n.
func (n *Node) HasClass(class string) bool {
	if n == nil {
		return false
	}
	for _, c := range n.classes {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass sets each class that is not already present.
func (n *Node) AddClass(classes ...string) {
	if n == nil {
		return
	}
	for _, class := range classes {
		class = strings.TrimSpace(class)
		if class == "" || n.HasClass(class) {
			continue
		}
		n.classes = append(n.classes, class)
	}
}

// RemoveClass clears class from n.
func (n *Node) RemoveClass(class string) {
	if n == nil {
		return
	}
	for i, c := range n.classes {
		if c == class {
			n.classes = append(n.classes[:i], n.classes[i+1:]...)
			return
		}
	}
}

// ToggleClass flips class and reports whether it is now set.
func (n *Node) ToggleClass(class string) bool {
	if n == nil {
		return false
	}
	if n.HasClass(class) {
		n.RemoveClass(class)
		return false
	}
	n.AddClass(class)
	return true
}

// Hidden reports whether n carries HiddenClass.
func (n *Node) Hidden() bool {
	return n.HasClass(HiddenClass)
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the visited node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || fn == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// FindAll returns every node in n's subtree (n included) matching tag.
func (n *Node) FindAll(tag string) []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		if node.Tag == tag {
			out = append(out, node)
		}
		return true
	})
	return out
}

// Texts returns the non-empty text of every node in n's subtree, in
// document order.
func (n *Node) Texts() []string {
	var out []string
	n.Walk(func(node *Node) bool {
		if node.Text != "" {
			out = append(out, node.Text)
		}
		return true
	})
	return out
}
