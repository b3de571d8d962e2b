// Package thread turns the flat reply list of a post into a forest of
// nested reply nodes.
package thread

import (
	"slices"

	"github.com/anonto42/nano-midea/threads/internal/models"
)

// Node wraps one reply with the ids of its direct children, oldest first
type Node struct {
	Reply    models.Reply
	Children []string
	Depth    int
	// Promoted is set when the reply names a parent that could not be
	// resolved (deleted, or belonging to another post) and was lifted to
	// the root list instead of being dropped.
	Promoted bool
}

// Forest is every reply tree of one post. Nodes is keyed by reply id; Roots
// and Children hold ids so the structure can be walked without recursion.
type Forest struct {
	PostID string
	Roots  []string
	Nodes  map[string]*Node
}

// Len returns the number of replies in the forest
func (f *Forest) Len() int {
	return len(f.Nodes)
}

// Node returns the node for id, or nil
func (f *Forest) Node(id string) *Node {
	return f.Nodes[id]
}

// Walk visits nodes in pre-order: each node before its children, siblings
// oldest first. Returning false from fn skips the node's subtree.
func (f *Forest) Walk(fn func(n *Node) bool) {
	stack := make([]string, 0, len(f.Roots))
	for _, id := range slices.Backward(f.Roots) {
		stack = append(stack, id)
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := f.Nodes[id]
		if !fn(n) {
			continue
		}
		for _, child := range slices.Backward(n.Children) {
			stack = append(stack, child)
		}
	}
}

// Flatten returns the replies in Walk order
func (f *Forest) Flatten() []*Node {
	out := make([]*Node, 0, len(f.Nodes))
	f.Walk(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Descendants returns every reply under id, children before their parents,
// so deleting in order never leaves a reply whose parent is already gone.
// The result does not include id itself. Unknown ids yield nil.
func (f *Forest) Descendants(id string) []string {
	root, ok := f.Nodes[id]
	if !ok {
		return nil
	}

	var preorder []string
	stack := slices.Clone(root.Children)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		preorder = append(preorder, cur)
		stack = append(stack, f.Nodes[cur].Children...)
	}

	// In any pre-order a parent precedes its subtree, so the reverse puts
	// every child ahead of its parent.
	slices.Reverse(preorder)
	return preorder
}

// DeleteOrder returns the replies of the whole forest leaves first
func (f *Forest) DeleteOrder() []string {
	out := make([]string, 0, len(f.Nodes))
	for _, root := range f.Roots {
		out = append(out, f.Descendants(root)...)
		out = append(out, root)
	}
	return out
}

// MaxDepth returns the depth of the deepest node; roots are depth 0, an
// empty forest is -1.
func (f *Forest) MaxDepth() int {
	depth := -1
	for _, n := range f.Nodes {
		depth = max(depth, n.Depth)
	}
	return depth
}

// Promoted returns the ids of replies lifted to root because their parent
// could not be resolved, in creation order.
func (f *Forest) Promoted() []string {
	var out []string
	for _, id := range f.Roots {
		if f.Nodes[id].Promoted {
			out = append(out, id)
		}
	}
	return out
}

// View is the nested form of a node handed to presentation
type View struct {
	models.Reply
	Depth    int     `json:"depth"`
	Promoted bool    `json:"promoted,omitempty"`
	Replies  []*View `json:"replies"`
}

// Views renders the forest as nested views, built iteratively
func (f *Forest) Views() []*View {
	roots := make([]*View, 0, len(f.Roots))
	views := make(map[string]*View, len(f.Nodes))

	f.Walk(func(n *Node) bool {
		v := &View{Reply: n.Reply, Depth: n.Depth, Promoted: n.Promoted, Replies: []*View{}}
		views[n.Reply.ID] = v

		if parent := n.Reply.ParentReplyID; parent != nil && !n.Promoted {
			views[*parent].Replies = append(views[*parent].Replies, v)
		} else {
			roots = append(roots, v)
		}
		return true
	})
	return roots
}
