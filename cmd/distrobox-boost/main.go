// Command distrobox-boost is the CLI front end over the build planner
// and incremental image builder: it reads one or more distrobox assemble
// INI files, builds a minimal set of shared prebuilt images, and writes
// back a configuration pointing every container name at its prebuilt
// image.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/xz-dev/distrobox-boost/internal/bblog"
	"github.com/xz-dev/distrobox-boost/internal/boxconfig"
	"github.com/xz-dev/distrobox-boost/internal/keymutex"
	"github.com/xz-dev/distrobox-boost/internal/ociengine"
	"github.com/xz-dev/distrobox-boost/internal/plan"
	"github.com/xz-dev/distrobox-boost/internal/runtimecfg"
	"github.com/xz-dev/distrobox-boost/internal/synth"
	"github.com/xz-dev/distrobox-boost/internal/tree"
)

// CLI defines the command-line interface structure.
type CLI struct {
	Verbose bool   `short:"v" help:"Enable debug logging"`
	Engine  string `help:"Container runtime: podman, docker, or autodetect"`
	Prefix  string `help:"Prefix built images are tagged under"`

	Build BuildCmd `cmd:"" help:"Plan and build prebuilt images for an assemble config"`
	Cache CacheCmd `cmd:"" help:"Inspect and move the label-addressed image cache"`
	Pin   PinCmd   `cmd:"" help:"Pin an image so the runtime won't prune it"`
	Unpin UnpinCmd `cmd:"" help:"Undo Pin"`
}

// BuildCmd loads one or more assemble files, runs the plan orchestrator,
// and writes back the rewritten configuration.
type BuildCmd struct {
	Files     []string `arg:"" help:"Assemble INI file(s) to plan and build"`
	Output    string   `long:"output" help:"Write the rewritten config to this file instead of stdout"`
	OutputDir string   `long:"output-dir" help:"Write one rewritten file per section into this directory, named <section>.ini"`
	Package   []string `long:"package" help:"Ad-hoc name=package spec added on top of the file's own packages"`
	NoToolbox bool     `long:"no-toolbox" help:"Skip baseline-package and setup-marker layers"`
}

func (c *BuildCmd) Run(cli *CLI) error {
	rt, err := resolveRuntime(cli)
	if err != nil {
		return err
	}

	eng, err := ociengine.Detect(rt.Engine)
	if err != nil {
		return fmt.Errorf("detecting container runtime: %w", err)
	}
	bblog.Logger.Infof("using container runtime %q", eng.Binary)

	synthesizer := synth.New(eng, keymutex.New(), synth.Config{
		Prefix:      rt.Prefix,
		ToolboxMode: rt.ToolboxMode && !c.NoToolbox,
	})
	orchestrator := plan.New(synthesizer)

	for _, file := range c.Files {
		defs, err := loadDefs(file)
		if err != nil {
			return err
		}
		applyAdHocPackages(defs, c.Package)

		result, err := orchestrator.Plan(context.Background(), defs, plan.Options{Concurrency: rt.Concurrency})
		if err != nil {
			return fmt.Errorf("building %s: %w", file, err)
		}

		if err := emit(file, result, c); err != nil {
			return err
		}
	}
	return nil
}

func loadDefs(path string) (map[string]*tree.Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bblog.WrapIO("open", path, err)
	}
	defer f.Close()
	return boxconfig.Load(path, f)
}

// applyAdHocPackages supplements name=package specs onto a definition
// without editing the INI on disk.
func applyAdHocPackages(defs map[string]*tree.Definition, specs []string) {
	for _, spec := range specs {
		name, pkg, ok := splitOnce(spec, '=')
		if !ok {
			continue
		}
		if def, exists := defs[name]; exists {
			def.Packages = append(def.Packages, pkg)
		}
	}
}

func splitOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func emit(inputFile string, result map[string]*tree.Definition, c *BuildCmd) error {
	switch {
	case c.OutputDir != "":
		for name, def := range result {
			path := filepath.Join(c.OutputDir, name+".ini")
			f, err := os.Create(path)
			if err != nil {
				return bblog.WrapIO("create", path, err)
			}
			err = boxconfig.Write(f, map[string]*tree.Definition{name: def})
			f.Close()
			if err != nil {
				return err
			}
		}
		return nil
	case c.Output != "":
		f, err := os.Create(c.Output)
		if err != nil {
			return bblog.WrapIO("create", c.Output, err)
		}
		defer f.Close()
		return boxconfig.Write(f, result)
	default:
		return boxconfig.Write(os.Stdout, result)
	}
}

// CacheCmd groups cache-visibility operations over the label-addressed
// image store.
type CacheCmd struct {
	Ls     CacheLsCmd     `cmd:"" help:"List cached images under the configured prefix"`
	Export CacheExportCmd `cmd:"" help:"Export cached images to a tarball"`
	Import CacheImportCmd `cmd:"" help:"Import a tarball of cached images"`
}

type CacheLsCmd struct{}

func (c *CacheLsCmd) Run(cli *CLI) error {
	rt, err := resolveRuntime(cli)
	if err != nil {
		return err
	}
	eng, err := ociengine.Detect(rt.Engine)
	if err != nil {
		return err
	}
	refs, err := eng.ListByReferencePrefix(context.Background(), rt.Prefix)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		fmt.Println(ref)
	}
	return nil
}

type CacheExportCmd struct {
	Path string `arg:""`
}

func (c *CacheExportCmd) Run(cli *CLI) error {
	rt, err := resolveRuntime(cli)
	if err != nil {
		return err
	}
	eng, err := ociengine.Detect(rt.Engine)
	if err != nil {
		return err
	}
	refs, err := eng.ListByReferencePrefix(context.Background(), rt.Prefix)
	if err != nil {
		return err
	}
	return eng.Save(context.Background(), refs, c.Path)
}

type CacheImportCmd struct {
	Path string `arg:""`
}

func (c *CacheImportCmd) Run(cli *CLI) error {
	rt, err := resolveRuntime(cli)
	if err != nil {
		return err
	}
	eng, err := ociengine.Detect(rt.Engine)
	if err != nil {
		return err
	}
	return eng.Load(context.Background(), c.Path)
}

type PinCmd struct {
	Image string `arg:""`
}

func (c *PinCmd) Run(cli *CLI) error {
	rt, err := resolveRuntime(cli)
	if err != nil {
		return err
	}
	eng, err := ociengine.Detect(rt.Engine)
	if err != nil {
		return err
	}
	return eng.Pin(context.Background(), c.Image)
}

type UnpinCmd struct {
	Image string `arg:""`
}

func (c *UnpinCmd) Run(cli *CLI) error {
	rt, err := resolveRuntime(cli)
	if err != nil {
		return err
	}
	eng, err := ociengine.Detect(rt.Engine)
	if err != nil {
		return err
	}
	return eng.Unpin(context.Background(), c.Image)
}

func resolveRuntime(cli *CLI) (*runtimecfg.Resolved, error) {
	bblog.SetVerbose(cli.Verbose)
	return runtimecfg.Resolve(runtimecfg.Overrides{
		Engine: cli.Engine,
		Prefix: cli.Prefix,
	})
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("distrobox-boost"),
		kong.Description("Accelerates distrobox-style toolbox builds by sharing prebuilt images across container definitions."),
		kong.UsageOnError(),
		kong.Bind(&cli),
	)
	err := ctx.Run()
	if err != nil {
		bblog.Logger.Errorf("%v", err)
		os.Exit(1)
	}
}
