// Package menu turns flat menu item rows into navigation trees
package menu

import (
	"cms/models"
	"sort"
	"strings"
)

type Node struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	IsActive bool    `json:"isActive"`
	Order    int     `json:"order"`
	ParentID *string `json:"parentId"`
	Children []*Node `json:"children"`
}

// BuildTree links items of one menu to their parents, children sorted by order.
// Items whose parent is not among items are left out together with their subtree,
// so filtering out an inactive parent hides its children as well.
func BuildTree(items []models.MenuItem) []*Node {
	nodes := make(map[string]*Node, len(items))
	for i := range items {
		item := &items[i]
		nodes[item.ID] = &Node{
			ID:       item.ID,
			Title:    item.Title,
			URL:      item.URL,
			IsActive: item.IsActive,
			Order:    item.Order,
			ParentID: item.ParentID,
			Children: []*Node{},
		}
	}
	roots := []*Node{}
	for i := range items {
		node := nodes[items[i].ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*node.ParentID]; ok && parent != node {
			parent.Children = append(parent.Children, node)
		}
	}
	sortNodes(roots)
	return roots
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Order < nodes[j].Order
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

type FlatNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Depth int    `json:"depth"`
}

// Flatten lists the tree depth-first, e.g. for a "parent item" select box
func Flatten(tree []*Node) []FlatNode {
	result := []FlatNode{}
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			result = append(result, FlatNode{ID: n.ID, Title: n.Title, Depth: depth})
			walk(n.Children, depth+1)
		}
	}
	walk(tree, 0)
	return result
}

// Label indents title by depth for display in a flat list
func (f FlatNode) Label() string {
	return strings.TrimSpace(strings.Repeat("— ", f.Depth) + f.Title)
}

// Descendants returns the ids below id in tree (not including id)
func Descendants(tree []*Node, id string) []string {
	var found *Node
	var find func(nodes []*Node)
	find = func(nodes []*Node) {
		for _, n := range nodes {
			if found != nil {
				return
			}
			if n.ID == id {
				found = n
				return
			}
			find(n.Children)
		}
	}
	find(tree)
	if found == nil {
		return nil
	}
	result := []string{}
	for _, f := range Flatten(found.Children) {
		result = append(result, f.ID)
	}
	return result
}
