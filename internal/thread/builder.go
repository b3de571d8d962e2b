package thread

import (
	"cmp"
	"slices"

	"github.com/anonto42/nano-midea/threads/internal/models"
)

// Build assembles the forest of postID from its replies.
//
// Replies are taken in creation order (the input is stable-sorted by
// CreatedAt, which is a no-op for store output). Every reply is indexed by id
// first, then attached to its parent when the parent is one of the indexed
// replies. Timestamps play no part in resolving a parent, so a parent and
// child created in the same instant, or a child stamped before its parent,
// still nest. A parent that is missing is a promotion to root.
//
// Parent links that close a cycle, self references included, are cut at the
// oldest reply on the cycle, which becomes a promoted root. Every distinct
// reply ends up reachable exactly once and children stay oldest first.
//
// Replies whose PostID differs from postID are ignored, as are repeated ids
// after the first.
func Build(postID string, replies []models.Reply) *Forest {
	ordered := slices.Clone(replies)
	slices.SortStableFunc(ordered, func(a, b models.Reply) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	f := &Forest{
		PostID: postID,
		Roots:  []string{},
		Nodes:  make(map[string]*Node, len(ordered)),
	}

	order := make([]string, 0, len(ordered))
	for _, r := range ordered {
		if r.PostID != postID {
			continue
		}
		if _, dup := f.Nodes[r.ID]; dup {
			continue
		}
		order = append(order, r.ID)
		f.Nodes[r.ID] = &Node{Reply: r, Children: []string{}}
	}

	parents := make(map[string]string, len(order))
	for _, id := range order {
		if p := f.Nodes[id].Reply.ParentReplyID; p != nil {
			if _, ok := f.Nodes[*p]; ok {
				parents[id] = *p
			}
		}
	}
	breakCycles(order, parents)

	for _, id := range order {
		n := f.Nodes[id]
		parentID, ok := parents[id]
		if !ok {
			n.Promoted = !n.Reply.IsRoot()
			f.Roots = append(f.Roots, id)
			continue
		}
		parent := f.Nodes[parentID]
		parent.Children = append(parent.Children, id)
	}

	// Walk is pre-order, so a parent's depth is final before its children
	// are reached.
	f.Walk(func(n *Node) bool {
		for _, child := range n.Children {
			f.Nodes[child].Depth = n.Depth + 1
		}
		return true
	})

	return f
}

// breakCycles removes the link of the oldest reply on every cycle in
// parents. order is creation order. Each reply is visited once.
func breakCycles(order []string, parents map[string]string) {
	const (
		unseen = iota
		onPath
		done
	)

	rank := make(map[string]int, len(order))
	for i, id := range order {
		rank[id] = i
	}

	state := make(map[string]int, len(order))
	for _, start := range order {
		var path []string
		cur, ok := start, true
		for ok && state[cur] == unseen {
			state[cur] = onPath
			path = append(path, cur)
			cur, ok = parents[cur]
		}

		if ok && state[cur] == onPath {
			cycle := path[slices.Index(path, cur):]
			oldest := slices.MinFunc(cycle, func(a, b string) int {
				return cmp.Compare(rank[a], rank[b])
			})
			delete(parents, oldest)
		}

		for _, id := range path {
			state[id] = done
		}
	}
}

// Subtree returns id and every reply whose parent chain reaches it, gathered
// by following parent links breadth first rather than through a built forest.
// The result runs deepest first and ends with id, so deleting in order never
// removes a parent before its children. Replies on a cycle through id are
// included once. An id with no replies under it yields just [id].
func Subtree(replies []models.Reply, id string) []string {
	children := make(map[string][]string, len(replies))
	for _, r := range replies {
		if r.ParentReplyID != nil && r.ID != *r.ParentReplyID {
			children[*r.ParentReplyID] = append(children[*r.ParentReplyID], r.ID)
		}
	}

	visited := map[string]bool{id: true}
	queue := []string{id}
	for i := 0; i < len(queue); i++ {
		for _, child := range children[queue[i]] {
			if !visited[child] {
				visited[child] = true
				queue = append(queue, child)
			}
		}
	}

	slices.Reverse(queue)
	return queue
}
