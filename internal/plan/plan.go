// Package plan composes the tree builder, package hoister and image
// synthesizer into one pass over a flat configuration, then rewrites
// that configuration to point every name at its freshly built image.
package plan

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/xz-dev/distrobox-boost/internal/synth"
	"github.com/xz-dev/distrobox-boost/internal/tree"
)

// Options controls one Plan invocation.
type Options struct {
	// ExtraPackages is appended to every definition's package list before
	// the tree is built.
	ExtraPackages []string
	// Concurrency bounds how many nodes are synthesized at once, across
	// independent root trees and sibling subtrees. 0 or 1 means strictly
	// sequential: one node at a time, each parent before its children.
	Concurrency int
}

// Orchestrator drives Plan against one synthesizer.
type Orchestrator struct {
	Synth *synth.Synthesizer
}

// New builds an Orchestrator around a ready-to-use synthesizer.
func New(s *synth.Synthesizer) *Orchestrator {
	return &Orchestrator{Synth: s}
}

// Plan builds the forest from defs, hoists shared packages, synthesizes
// every node's image pre-order (parent before children), and returns a
// new map with each definition rewritten to point at its built image.
// The original package lists are preserved in the result even though the
// built image already contains them, so the downstream toolbox tool
// still records what logically belongs to each container.
func (o *Orchestrator) Plan(ctx context.Context, defs map[string]*tree.Definition, opts Options) (map[string]*tree.Definition, error) {
	working := cloneDefs(defs)
	if len(opts.ExtraPackages) > 0 {
		for _, def := range working {
			def.Packages = append(append([]string(nil), def.Packages...), opts.ExtraPackages...)
		}
	}

	forest, err := tree.BuildForest(working)
	if err != nil {
		return nil, err
	}
	tree.Hoist(forest)

	originalPackages := make(map[string][]string, len(defs))
	for name, def := range defs {
		originalPackages[name] = append([]string(nil), def.Packages...)
	}

	built := make(map[string]string)
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	g, gctx := errgroup.WithContext(ctx)
	for _, root := range forest {
		root := root
		g.Go(func() error {
			return o.buildTree(gctx, root, root.Name, built, sem)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string]*tree.Definition, len(defs))
	for name := range defs {
		image, ok := built[name]
		if !ok {
			return nil, fmt.Errorf("plan: %q was not synthesized", name)
		}
		rewritten := *defs[name]
		rewritten.Image = image
		rewritten.Packages = originalPackages[name]
		rewritten.Extra = extendExtra(rewritten.Extra, "pull", "false")
		result[name] = &rewritten
	}
	return result, nil
}

// buildTree synthesizes node and then its children, recording every
// built tag by name. A node's children cannot start until its own image
// is tagged, so children of one node fan out concurrently only after
// that node returns.
func (o *Orchestrator) buildTree(ctx context.Context, node *tree.Node, parentImage string, built map[string]string, sem chan struct{}) error {
	// The slot is held only while this node is synthesized, not while its
	// children build, so a chain deeper than the limit cannot block itself.
	sem <- struct{}{}
	tag, err := o.Synth.BuildNode(ctx, node, parentImage)
	<-sem
	if err != nil {
		return fmt.Errorf("synthesizing %s: %w", node.Name, err)
	}
	storeBuilt(built, node.Name, tag)

	g, gctx := errgroup.WithContext(ctx)
	for _, child := range node.Children {
		child := child
		g.Go(func() error {
			return o.buildTree(gctx, child, tag, built, sem)
		})
	}
	return g.Wait()
}

var buildMapGuard = make(chan struct{}, 1)

func storeBuilt(built map[string]string, name, tag string) {
	buildMapGuard <- struct{}{}
	defer func() { <-buildMapGuard }()
	built[name] = tag
}

func cloneDefs(defs map[string]*tree.Definition) map[string]*tree.Definition {
	out := make(map[string]*tree.Definition, len(defs))
	for name, def := range defs {
		clone := *def
		clone.Packages = append([]string(nil), def.Packages...)
		out[name] = &clone
	}
	return out
}

func extendExtra(extra map[string][]string, key, value string) map[string][]string {
	out := make(map[string][]string, len(extra)+1)
	for k, v := range extra {
		out[k] = v
	}
	out[key] = []string{value}
	return out
}
