package tree

import "sort"

// Hoist walks every tree in the forest bottom-up, moving packages common
// to all of a node's children onto the node itself. It mutates the
// definitions reachable from f in place.
func Hoist(f Forest) {
	for _, root := range f {
		hoistNode(root)
	}
}

// hoistNode processes children first: intersection at this level depends
// on each child's package set already being fully hoisted from below.
func hoistNode(n *Node) {
	for _, child := range n.Children {
		hoistNode(child)
	}

	if len(n.Children) > 1 {
		common := intersectPackages(n.Children)
		if len(common) > 0 {
			n.Def.Packages = append(n.Def.Packages, common...)
			for _, child := range n.Children {
				child.Def.Packages = subtract(child.Def.Packages, common)
			}
		}
	}

	n.Def.Packages = dedupeSorted(n.Def.Packages)
	for _, child := range n.Children {
		child.Def.Packages = dedupeSorted(child.Def.Packages)
	}
}

// intersectPackages returns the packages present in every child's own
// package list, ignoring the parent.
func intersectPackages(children []*Node) []string {
	if len(children) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, child := range children {
		seen := make(map[string]bool, len(child.Def.Packages))
		for _, pkg := range child.Def.Packages {
			if seen[pkg] {
				continue
			}
			seen[pkg] = true
			counts[pkg]++
		}
	}
	var common []string
	for pkg, n := range counts {
		if n == len(children) {
			common = append(common, pkg)
		}
	}
	sort.Strings(common)
	return common
}

func subtract(pkgs []string, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, r := range remove {
		drop[r] = true
	}
	out := pkgs[:0:0]
	for _, p := range pkgs {
		if !drop[p] {
			out = append(out, p)
		}
	}
	return out
}

func dedupeSorted(pkgs []string) []string {
	if len(pkgs) == 0 {
		return pkgs
	}
	sorted := append([]string(nil), pkgs...)
	sort.Strings(sorted)
	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
