package nestmap

import (
	"io"
	"strings"
)

const (
	branchMid  = "├─"
	branchLast = "└─"
	padMid     = "│ "
	padLast    = "  "
)

// String renders the tree under a "<title> contents:" header, one line per
// entry, in the same staggered order Keys uses.
func (m *TreeMap) String() string {
	var b strings.Builder
	b.WriteString(m.Title())
	b.WriteString(" contents:")
	renderNode(&b, m.root, "")
	return b.String()
}

// WriteTo writes the String rendering to w.
func (m *TreeMap) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, m.String())
	return int64(n), err
}

func renderNode(b *strings.Builder, n *node, prefix string) {
	order := levelOrder(n)
	for i, key := range order {
		branch, pad := branchMid, padMid
		if i == len(order)-1 {
			branch, pad = branchLast, padLast
		}
		b.WriteString("\n")
		b.WriteString(prefix)
		b.WriteString(branch)
		b.WriteString(key)
		b.WriteString(": ")

		e := n.values[key]
		if e.isMap() {
			renderNode(b, e.child, prefix+pad)
			continue
		}
		b.WriteString(formatScalar(e.scalar))
	}
}

// levelOrder lists the keys of one level: sub-mappings first, then single
// values, each group in insertion order.
func levelOrder(n *node) []string {
	if !n.hasChildMap() {
		return n.keys
	}
	maps := make([]string, 0, n.len())
	simple := make([]string, 0, n.len())
	for _, key := range n.keys {
		if n.values[key].isMap() {
			maps = append(maps, key)
			continue
		}
		simple = append(simple, key)
	}
	return append(maps, simple...)
}
