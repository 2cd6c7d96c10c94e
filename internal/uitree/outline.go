package uitree

import (
	"fmt"
	"strings"
)

// Outline renders n as indented plain text. Buttons render as "[label]" and
// hidden subtrees collapse to a single marker line.
func Outline(n *Node) string {
	var b strings.Builder
	writeOutline(&b, n, 0)
	return strings.TrimRight(b.String(), "\n")
}

func writeOutline(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	if n.Hidden() {
		fmt.Fprintf(b, "%s(%s hidden: %d item(s))\n", indent, n.Tag, n.ChildCount())
		return
	}
	next := depth
	switch {
	case n.IsFragment():
	case n.Tag == "button":
		fmt.Fprintf(b, "%s[%s]\n", indent, n.Text)
		next = depth + 1
	case n.Text != "":
		fmt.Fprintf(b, "%s%s\n", indent, n.Text)
		next = depth + 1
	case n.parent != nil:
		next = depth + 1
	}
	for _, c := range n.children {
		writeOutline(b, c, next)
	}
}
