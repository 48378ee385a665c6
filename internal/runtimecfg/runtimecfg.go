// Package runtimecfg resolves the process-wide settings the orchestrator
// needs before it can build anything: which container engine to drive,
// whether toolbox-mode post-processing runs, and where built images get
// tagged. Resolution order is environment variable, then the user's
// config file, then a built-in default.
package runtimecfg

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of ~/.config/distrobox-boost/config.yml.
type FileConfig struct {
	Engine      string `yaml:"engine,omitempty"`
	Prefix      string `yaml:"prefix,omitempty"`
	TestPrefix  string `yaml:"test_prefix,omitempty"`
	ToolboxMode *bool  `yaml:"toolbox_mode,omitempty"`
	Concurrency int    `yaml:"concurrency,omitempty"`
}

// Resolved is the fully resolved configuration the CLI hands to the
// synthesizer and orchestrator.
type Resolved struct {
	Engine      string // "podman", "docker", or "autodetect"
	Prefix      string
	ToolboxMode bool
	Concurrency int
}

// Path returns the location of the user's config file.
var Path = defaultPath

func defaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determining config directory: %w", err)
	}
	return filepath.Join(dir, "distrobox-boost", "config.yml"), nil
}

// Load reads the user config file, returning a zero-value config (not an
// error) if it doesn't exist yet.
func Load() (*FileConfig, error) {
	path, err := Path()
	if err != nil {
		return &FileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config file, creating its directory if needed.
func Save(cfg *FileConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Overrides carries CLI-flag values, which win over everything else when
// non-zero.
type Overrides struct {
	Engine      string
	Prefix      string
	ToolboxMode *bool
	Concurrency int
}

// Resolve applies the env > file > default cascade, with CLI flags
// taking priority over all three.
func Resolve(overrides Overrides) (*Resolved, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	r := &Resolved{
		Engine:      cascade(overrides.Engine, os.Getenv("DISTROBOX_BOOST_ENGINE"), cfg.Engine, "autodetect"),
		Prefix:      cascade(overrides.Prefix, os.Getenv("DISTROBOX_BOOST_PREFIX"), cfg.Prefix, "distrobox-boost"),
		ToolboxMode: resolveBool(overrides.ToolboxMode, os.Getenv("DISTROBOX_BOOST_TOOLBOX_MODE"), cfg.ToolboxMode, true),
		Concurrency: resolveInt(overrides.Concurrency, cfg.Concurrency, 1),
	}
	return r, nil
}

func cascade(flagVal, envVal, cfgVal, defaultVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if envVal != "" {
		return envVal
	}
	if cfgVal != "" {
		return cfgVal
	}
	return defaultVal
}

func resolveBool(flagVal *bool, envVal string, cfgVal *bool, defaultVal bool) bool {
	if flagVal != nil {
		return *flagVal
	}
	if envVal != "" {
		return envVal == "true" || envVal == "1"
	}
	if cfgVal != nil {
		return *cfgVal
	}
	return defaultVal
}

func resolveInt(flagVal int, cfgVal int, defaultVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	if cfgVal > 0 {
		return cfgVal
	}
	return defaultVal
}
