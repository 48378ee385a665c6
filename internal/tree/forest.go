// Package tree builds the forest of container image trees from a flat
// set of definitions, and hoists packages shared by siblings up to their
// common parent.
package tree

import (
	"fmt"
	"sort"
	"strings"
)

// Definition is one entry of the flat name -> definition map. Image is
// the base this definition builds from; if no definition in the input
// map is keyed by that name, a virtual root is synthesized for it.
// Extra carries INI fields that have no dedicated field, preserved
// verbatim through hoisting and re-emission.
type Definition struct {
	Image          string
	Packages       []string
	PackageManager string
	PreBuildCmd    string
	Extra          map[string][]string
}

// Node is one vertex of a built tree: a concrete definition, or a
// synthetic root standing in for an undefined base image.
type Node struct {
	Name     string
	Virtual  bool
	Def      *Definition
	Children []*Node
}

// Forest is the ascending-name-ordered set of root nodes produced by
// BuildForest.
type Forest []*Node

// CycleError reports that definitions reference one another in a loop,
// so no forest could be built.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular image reference: %s", strings.Join(e.Cycle, " -> "))
}

// BuildForest implements the 5-step construction described for the tree
// builder: concrete nodes for every input entry, a virtual root for
// every base image that isn't itself a key, each concrete node attached
// under the node named by its own base image, and roots returned in
// ascending-name order.
func BuildForest(defs map[string]*Definition) (Forest, error) {
	nodes := make(map[string]*Node, len(defs))
	for name, def := range defs {
		nodes[name] = &Node{Name: name, Def: def}
	}

	names := sortedKeys(defs)
	for _, name := range names {
		base := defs[name].Image
		if _, ok := defs[base]; ok {
			continue
		}
		if _, exists := nodes[base]; !exists {
			nodes[base] = &Node{
				Name:    base,
				Virtual: true,
				Def:     &Definition{Image: base},
			}
		}
	}

	allNames := sortedNodeKeys(nodes)
	for _, name := range allNames {
		node := nodes[name]
		if node.Name == node.Def.Image {
			continue // self-rooted: this is a root, not a child
		}
		parent, ok := nodes[node.Def.Image]
		if !ok {
			return nil, fmt.Errorf("tree: node %q references unknown base %q", node.Name, node.Def.Image)
		}
		parent.Children = append(parent.Children, node)
	}
	for _, node := range nodes {
		sort.Slice(node.Children, func(i, j int) bool {
			return node.Children[i].Name < node.Children[j].Name
		})
	}

	var roots Forest
	for _, name := range allNames {
		node := nodes[name]
		if node.Name == node.Def.Image {
			roots = append(roots, node)
		}
	}

	reached := make(map[string]bool)
	var markReachable func(n *Node)
	markReachable = func(n *Node) {
		if reached[n.Name] {
			return
		}
		reached[n.Name] = true
		for _, c := range n.Children {
			markReachable(c)
		}
	}
	for _, root := range roots {
		markReachable(root)
	}

	for _, name := range allNames {
		if reached[name] {
			continue
		}
		return nil, &CycleError{Cycle: findCycle(nodes, name)}
	}

	return roots, nil
}

// findCycle walks the base-image chain starting at name until a name
// repeats, returning the repeated path for error reporting.
func findCycle(nodes map[string]*Node, start string) []string {
	path := []string{start}
	seen := map[string]int{start: 0}
	current := start
	for {
		node := nodes[current]
		next := node.Def.Image
		if idx, ok := seen[next]; ok {
			return append(path[idx:], next)
		}
		seen[next] = len(path)
		path = append(path, next)
		current = next
	}
}

func sortedKeys(defs map[string]*Definition) []string {
	out := make([]string, 0, len(defs))
	for k := range defs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedNodeKeys(nodes map[string]*Node) []string {
	out := make([]string, 0, len(nodes))
	for k := range nodes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
