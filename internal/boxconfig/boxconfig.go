// Package boxconfig reads and writes the distrobox-style assemble INI
// file: one section per container, recognized keys mapped onto
// tree.Definition, everything else round-tripped verbatim.
package boxconfig

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/xz-dev/distrobox-boost/internal/tree"
)

// ConfigError reports a malformed assemble file: a key outside any
// section, or another structural problem the INI syntax itself doesn't
// catch.
type ConfigError struct {
	Path string
	Msg  string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// The recognized-but-opaque keys the core round-trips without
// interpreting (flags, home, init_hooks, pre_init_hooks, volumes, entry,
// start_now, init, nvidia, pull, root, unshare_ipc, unshare_netns) all
// fall through to Extra automatically; only volumes gets special
// handling on write (see Write).

// Load parses an assemble-style INI document into the flat name ->
// definition map the tree builder consumes.
func Load(path string, r io.Reader) (map[string]*tree.Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows:             true,
		PreserveSurroundingQuote: true,
	}, data)
	if err != nil {
		return nil, &ConfigError{Path: path, Msg: err.Error()}
	}

	if def := cfg.Section(ini.DefaultSection); len(def.Keys()) > 0 {
		return nil, &ConfigError{Path: path, Msg: fmt.Sprintf("key %q appears before any [section]", def.Keys()[0].Name())}
	}

	defs := make(map[string]*tree.Definition)
	for _, section := range cfg.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		def := &tree.Definition{Extra: map[string][]string{}}

		for _, key := range section.Keys() {
			values := shadowValues(key)
			for i, v := range values {
				values[i] = unquote(v)
			}

			switch key.Name() {
			case "image":
				def.Image = values[len(values)-1]
			case "packages":
				for _, v := range values {
					def.Packages = append(def.Packages, strings.Fields(v)...)
				}
			case "package_manager":
				def.PackageManager = values[len(values)-1]
			case "pre_build_cmd":
				def.PreBuildCmd = values[len(values)-1]
			default:
				def.Extra[key.Name()] = append(def.Extra[key.Name()], values...)
			}
		}

		defs[section.Name()] = def
	}
	return defs, nil
}

// shadowValues returns every value a (possibly repeated) key was given,
// in file order; AllowShadows is what makes ValueWithShadows non-empty
// for a key that appears more than once.
func shadowValues(key *ini.Key) []string {
	shadows := key.ValueWithShadows()
	if len(shadows) == 0 {
		return []string{key.Value()}
	}
	return shadows
}

// unquote strips a leading and trailing quote only when the value is
// wrapped in exactly one matching pair — not when the character merely
// appears, and not when it's unbalanced.
func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	first, last := v[0], v[len(v)-1]
	if first != last || (first != '"' && first != '\'') {
		return v
	}
	inner := v[1 : len(v)-1]
	if strings.ContainsRune(inner, rune(first)) {
		return v
	}
	return inner
}

// Write serializes defs back out as one [section] per definition, keys
// in their recognized order, repeatable keys as one line each.
func Write(w io.Writer, defs map[string]*tree.Definition) error {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s]\n", name)
		def := defs[name]

		if def.Image != "" {
			fmt.Fprintf(w, "image=%s\n", def.Image)
		}
		for _, p := range def.Packages {
			fmt.Fprintf(w, "packages=%s\n", p)
		}
		if def.PackageManager != "" {
			fmt.Fprintf(w, "package_manager=%s\n", def.PackageManager)
		}
		if def.PreBuildCmd != "" {
			fmt.Fprintf(w, "pre_build_cmd=%s\n", def.PreBuildCmd)
		}

		extraKeys := make([]string, 0, len(def.Extra))
		for k := range def.Extra {
			extraKeys = append(extraKeys, k)
		}
		sort.Strings(extraKeys)
		for _, k := range extraKeys {
			if k == "volumes" {
				fmt.Fprintf(w, "volumes=%s\n", strings.Join(def.Extra[k], " "))
				continue
			}
			for _, v := range def.Extra[k] {
				fmt.Fprintf(w, "%s=%s\n", k, v)
			}
		}
	}
	return nil
}
