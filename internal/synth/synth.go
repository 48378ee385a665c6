// Package synth turns one tree node into a tagged OCI image through a
// sequence of cached, label-addressed layer steps.
package synth

import (
	"context"
	"fmt"
	"hash/fnv"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xz-dev/distrobox-boost/internal/distro"
	"github.com/xz-dev/distrobox-boost/internal/keymutex"
	"github.com/xz-dev/distrobox-boost/internal/ociengine"
	"github.com/xz-dev/distrobox-boost/internal/tree"
)

// Config is the process-wide synthesis configuration: where images are
// tagged, and whether toolbox baseline/marker steps run.
type Config struct {
	Prefix      string
	ToolboxMode bool
}

// Synthesizer drives layer steps for nodes against one runtime.
type Synthesizer struct {
	Engine ociengine.Runner
	Locks  *keymutex.Registry
	Config Config

	// now is overridden in tests so tag names are deterministic.
	now func() int64
}

// New builds a Synthesizer with real timestamps.
func New(eng ociengine.Runner, locks *keymutex.Registry, cfg Config) *Synthesizer {
	return &Synthesizer{Engine: eng, Locks: locks, Config: cfg, now: func() int64 { return time.Now().Unix() }}
}

// labels is an ordered set of "key=value" entries. Order is significant:
// it is what makes a fingerprint reproducible across runs instead of
// depending on Go's randomized map iteration.
type labels []string

func kv(pairs ...string) labels {
	l := make(labels, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		l = append(l, pairs[i]+"="+pairs[i+1])
	}
	return l
}

// filterStrings renders the set as "label=K=V" --filter arguments.
func (l labels) filterStrings() []string {
	out := make([]string, len(l))
	for i, entry := range l {
		out[i] = "label=" + entry
	}
	return out
}

// commitStrings renders the set as "LABEL K=V" commit -c instructions.
func (l labels) commitStrings() []string {
	out := make([]string, len(l))
	for i, entry := range l {
		out[i] = "LABEL " + entry
	}
	return out
}

// BuildNode produces a tagged image for node, given its parent's
// already-built image (or the raw base image, for roots). It returns the
// final `<prefix>/<node-name>` tag.
func (s *Synthesizer) BuildNode(ctx context.Context, node *tree.Node, parentImage string) (string, error) {
	def := node.Def

	// Stage 1: pre-build hook, not cached, not part of the fingerprint.
	if def.PreBuildCmd != "" {
		if err := runHostHook(ctx, def.PreBuildCmd); err != nil {
			return "", fmt.Errorf("pre-build hook for %s: %w", node.Name, err)
		}
	}

	base := parentImage
	if node.Virtual {
		base = node.Name
	}

	// Stage 2: base resolution. dockerfile:// sources build through the
	// runtime directly and become the effective base for stage 3 on.
	if strings.HasPrefix(base, "dockerfile://") {
		built, err := s.buildFromDockerfile(ctx, node.Name, strings.TrimPrefix(base, "dockerfile://"))
		if err != nil {
			return "", err
		}
		base = built
	}

	info, err := s.probeDistro(ctx, base)
	if err != nil {
		return "", fmt.Errorf("probing distro for %s: %w", node.Name, err)
	}

	pm := def.PackageManager
	if pm == "" {
		pm = distro.DetectPackageManager(info)
		if pm == "" {
			return "", &distro.DistroError{Image: base, Msg: fmt.Sprintf("no package manager mapping for distro id %q", info.ID)}
		}
	}

	slim := fmt.Sprintf("%s/builder/%s", s.Config.Prefix, ociengine.SanitizeTag(node.Name))
	current := base

	// Stage 3: DB refresh.
	current, err = s.layerStep(ctx, layerStepArgs{
		base:   current,
		target: slim + ":db_updated",
		cmd:    distro.RefreshCmd(pm),
		labels: kv("image", base, "status", "db_update"),
	})
	if err != nil {
		return "", err
	}

	// Stage 4: toolbox baseline.
	if s.Config.ToolboxMode {
		baseline := distro.ToolboxBaseline(info.ID)
		current, err = s.layerStep(ctx, layerStepArgs{
			base:   current,
			target: slim + ":distrobox_pre",
			cmd:    distro.InstallCmd(pm, baseline),
			labels: kv("image", base, "status", "distrobox_pre_install", "packages0", strings.Join(baseline, ";")),
		})
		if err != nil {
			return "", err
		}
	}

	// Stage 5: per-package install, one layer per package. The label
	// accumulates the full install-order prefix, so [gcc,make] and
	// [make,gcc] land on distinct caches.
	var installed []string
	for i, pkg := range def.Packages {
		installed = append(installed, pkg)
		packagesLabel := strings.Join(installed, ";")
		target := fmt.Sprintf("%s:pkg%d-%s%d", slim, i+1, hash16(packagesLabel), s.now())
		current, err = s.layerStep(ctx, layerStepArgs{
			base:   current,
			target: target,
			cmd:    distro.InstallCmd(pm, []string{pkg}),
			labels: kv("image", base, "status", "package_install", "package1", packagesLabel),
		})
		if err != nil {
			return "", err
		}
	}

	// Stage 6: marker.
	if s.Config.ToolboxMode {
		current, err = s.layerStep(ctx, layerStepArgs{
			base:   current,
			target: slim + ":mark_distrobox_setup_done",
			cmd:    "touch /run/.containersetupdone",
			labels: kv("image", base, "status", "distrobox_setup"),
		})
		if err != nil {
			return "", err
		}
	}

	// Stage 7: final tag.
	finalTag := fmt.Sprintf("%s/%s", s.Config.Prefix, node.Name)
	if _, err := s.Engine.Tag(ctx, current, finalTag); err != nil {
		return "", err
	}
	return finalTag, nil
}

type layerStepArgs struct {
	base   string
	target string
	cmd    string
	labels labels
}

// layerStep implements one cacheable unit of work: acquire the
// fingerprint's lock, look for a cache hit, and fall back to
// run+commit+rm on a miss. The keyed mutex makes two concurrent callers
// racing on the same fingerprint serialize instead of double-building.
func (s *Synthesizer) layerStep(ctx context.Context, args layerStepArgs) (string, error) {
	filters := args.labels.filterStrings()
	key := strings.Join(filters, ";")

	result, err := s.Locks.Execute(key, func() (any, error) {
		return s.runLayerStepLocked(ctx, args, filters)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (s *Synthesizer) runLayerStepLocked(ctx context.Context, args layerStepArgs, filters []string) (string, error) {
	ids, err := s.Engine.FindImages(ctx, filters)
	if err != nil {
		return "", err
	}
	if len(ids) > 0 {
		if _, err := s.Engine.Tag(ctx, ids[0], args.target); err != nil {
			return "", err
		}
		return args.target, nil
	}

	container := fmt.Sprintf("%s-%d", ociengine.SanitizeTag(args.target), s.now())
	exists, err := s.Engine.ContainerExists(ctx, container)
	if err != nil {
		return "", err
	}
	if !exists {
		if _, err := s.Engine.Run(ctx, container, args.base, args.cmd, nil, false); err != nil {
			return "", err
		}
	}

	instructions := append(args.labels.commitStrings(), fmt.Sprintf("LABEL updated_at=%d", s.now()), "CMD []")
	if _, err := s.Engine.Commit(ctx, container, args.target, instructions); err != nil {
		return "", err
	}
	if _, err := s.Engine.RemoveContainer(ctx, container); err != nil {
		return "", err
	}
	return args.target, nil
}

func (s *Synthesizer) buildFromDockerfile(ctx context.Context, node, path string) (string, error) {
	tag := fmt.Sprintf("%s/dockerfile/%s", s.Config.Prefix, node)
	// The Dockerfile build path is not part of the layer-step cache
	// chain: the build context on disk is its own cache.
	if _, err := s.Engine.Build(ctx, filepath.Dir(path), path, tag); err != nil {
		return "", err
	}
	return tag, nil
}

// probeDistro runs `cat /etc/os-release` inside an ephemeral container on
// image and parses the result, so package-manager detection works from
// whatever base the node was actually given rather than the image
// reference string.
func (s *Synthesizer) probeDistro(ctx context.Context, image string) (distro.Info, error) {
	res, err := s.Engine.Run(ctx, "", image, "cat /etc/os-release", nil, false)
	if err != nil {
		return distro.Info{}, err
	}
	info, ok := distro.ParseOSRelease(res.Stdout)
	if !ok {
		return distro.Info{}, &distro.DistroError{Image: image, Msg: "could not parse /etc/os-release: missing ID or VERSION_ID"}
	}
	return info, nil
}

func runHostHook(ctx context.Context, cmd string) error {
	return hostExec(ctx, cmd)
}

// hostExec is overridden in tests so pre-build hooks don't spawn a real
// shell.
var hostExec = defaultHostExec

func defaultHostExec(ctx context.Context, cmd string) error {
	c := exec.CommandContext(ctx, "sh", "-c", cmd)
	stderr := &strings.Builder{}
	c.Stderr = stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// hash16 is a stable, non-cryptographic 16-bit digest of a label string:
// uniqueness of a tag comes from the commit labels themselves, so
// collisions here only cost a wasted cache slot, never correctness.
func hash16(s string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	sum := h.Sum32()
	folded := uint16(sum) ^ uint16(sum>>16)
	return strconv.FormatUint(uint64(folded), 16)
}
