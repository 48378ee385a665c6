package tree

import "testing"

func defsFixture() map[string]*Definition {
	return map[string]*Definition{
		"Node1": {Image: "Image1", Packages: []string{"Package1", "Package2", "Package3"}},
		"Node2": {Image: "Image1", Packages: []string{"Package1", "Package2", "Package4", "Package5"}},
		"Node3": {Image: "Image0", Packages: []string{"Package1"}},
		"Node4": {Image: "Image0", Packages: []string{"Package2", "Package3", "Package3"}},
	}
}

func TestBuildForest(t *testing.T) {
	forest, err := BuildForest(defsFixture())
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	if len(forest) != 2 {
		t.Fatalf("len(forest) = %d, want 2", len(forest))
	}
	if forest[0].Name != "Image0" || forest[1].Name != "Image1" {
		t.Fatalf("roots = [%s, %s], want [Image0, Image1]", forest[0].Name, forest[1].Name)
	}
	if !forest[0].Virtual || !forest[1].Virtual {
		t.Errorf("expected both roots to be virtual (no definition names them)")
	}
	if len(forest[0].Children) != 2 || forest[0].Children[0].Name != "Node3" || forest[0].Children[1].Name != "Node4" {
		t.Errorf("Image0 children = %v, want [Node3, Node4]", childNames(forest[0]))
	}
	if len(forest[1].Children) != 2 || forest[1].Children[0].Name != "Node1" || forest[1].Children[1].Name != "Node2" {
		t.Errorf("Image1 children = %v, want [Node1, Node2]", childNames(forest[1]))
	}
}

func TestBuildForestDetectsCycle(t *testing.T) {
	defs := map[string]*Definition{
		"A": {Image: "B"},
		"B": {Image: "A"},
	}
	_, err := BuildForest(defs)
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	if _, ok := err.(*CycleError); !ok {
		t.Errorf("err = %T, want *CycleError", err)
	}
}

func TestBuildForestConcreteRoot(t *testing.T) {
	defs := map[string]*Definition{
		"base": {Image: "base", Packages: []string{"core"}},
		"leaf": {Image: "base", Packages: []string{"extra"}},
	}
	forest, err := BuildForest(defs)
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	if len(forest) != 1 || forest[0].Virtual {
		t.Fatalf("expected a single concrete root, got %+v", forest)
	}
	if len(forest[0].Children) != 1 || forest[0].Children[0].Name != "leaf" {
		t.Errorf("children = %v, want [leaf]", childNames(forest[0]))
	}
}

func childNames(n *Node) []string {
	names := make([]string, len(n.Children))
	for i, c := range n.Children {
		names[i] = c.Name
	}
	return names
}
