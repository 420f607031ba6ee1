package module

import "fmt"

// Leaf is a single analysis module slot. It declares the dataset names its
// module needs and whether the module uses the reporter capability.
type Leaf struct {
	ID           string
	Title        string
	Datasets     []string
	UsesReporter bool
	Module       Module
}

// Group is a tab group. Groups hold only leaves, which caps tree nesting at
// two levels by construction.
type Group struct {
	Title    string
	Children []Leaf
}

// Node is a tagged union: exactly one of Leaf or Group is set.
type Node struct {
	Leaf  *Leaf
	Group *Group
}

// Tree is the immutable module hierarchy of an application.
type Tree struct {
	Title string
	Nodes []Node
}

// Validate rejects malformed trees at construction time.
func (t Tree) Validate() error {
	seen := make(map[string]bool)
	checkLeaf := func(leaf *Leaf) error {
		if leaf.ID == "" {
			return fmt.Errorf("module tree %q: leaf with empty ID", t.Title)
		}
		if seen[leaf.ID] {
			return fmt.Errorf("module tree %q: duplicate leaf ID %s", t.Title, leaf.ID)
		}
		seen[leaf.ID] = true
		if leaf.Module == nil {
			return fmt.Errorf("module tree %q: leaf %s has no module", t.Title, leaf.ID)
		}
		return nil
	}

	for i, node := range t.Nodes {
		switch {
		case node.Leaf != nil && node.Group != nil:
			return fmt.Errorf("module tree %q: node %d sets both leaf and group", t.Title, i)
		case node.Leaf != nil:
			if err := checkLeaf(node.Leaf); err != nil {
				return err
			}
		case node.Group != nil:
			if len(node.Group.Children) == 0 {
				return fmt.Errorf("module tree %q: group %q is empty", t.Title, node.Group.Title)
			}
			for j := range node.Group.Children {
				if err := checkLeaf(&node.Group.Children[j]); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("module tree %q: node %d is empty", t.Title, i)
		}
	}
	return nil
}

// Leaves returns all leaves in depth-first order.
func (t Tree) Leaves() []*Leaf {
	var leaves []*Leaf
	for i := range t.Nodes {
		if t.Nodes[i].Leaf != nil {
			leaves = append(leaves, t.Nodes[i].Leaf)
		}
		if t.Nodes[i].Group != nil {
			for j := range t.Nodes[i].Group.Children {
				leaves = append(leaves, &t.Nodes[i].Group.Children[j])
			}
		}
	}
	return leaves
}

// Meta returns the metadata handed to activated leaves.
func (t Tree) Meta() Meta {
	leaves := t.Leaves()
	ids := make([]string, len(leaves))
	for i, leaf := range leaves {
		ids[i] = leaf.ID
	}
	return Meta{Title: t.Title, LeafIDs: ids}
}

// UsesReporter reports whether any leaf declared the reporter capability.
func (t Tree) UsesReporter() bool {
	for _, leaf := range t.Leaves() {
		if leaf.UsesReporter {
			return true
		}
	}
	return false
}

// HasLeaf reports whether a leaf with the given ID exists.
func (t Tree) HasLeaf(id string) bool {
	for _, leaf := range t.Leaves() {
		if leaf.ID == id {
			return true
		}
	}
	return false
}
