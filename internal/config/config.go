// Package config loads llvmexec.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"llvmexec/internal/diag"
	"llvmexec/internal/native"
	"llvmexec/internal/translate"
)

// FileName is the configuration file looked up from the working directory.
const FileName = "llvmexec.toml"

// Translate is the [translate] section.
type Translate struct {
	LifetimeAnalysis bool   `toml:"lifetime_analysis"`
	AliasPolicy      string `toml:"alias_policy"`
	DataLayout       string `toml:"data_layout"`
	Jobs             int    `toml:"jobs"`
	GlobalLimit      int    `toml:"global_limit"`
	KeepGoing        bool   `toml:"keep_going"`
}

type file struct {
	Translate Translate         `toml:"translate"`
	Natives   map[string]uint64 `toml:"natives"`
}

// Config is a parsed configuration file. The zero value is the default
// configuration.
type Config struct {
	Path      string
	Translate Translate
	Natives   map[string]uint64
	// Undecoded lists keys present in the file that nothing reads.
	Undecoded []string

	meta toml.MetaData
}

// Load parses the file at path.
func Load(path string) (*Config, error) {
	var f file
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg := &Config{Path: path, Translate: f.Translate, Natives: f.Natives, meta: meta}
	for _, key := range meta.Undecoded() {
		cfg.Undecoded = append(cfg.Undecoded, key.String())
	}
	if cfg.Translate.Jobs < 0 {
		return nil, fmt.Errorf("%s: translate.jobs must not be negative", path)
	}
	if _, err := translate.ParseAliasPolicy(cfg.Translate.AliasPolicy); err != nil {
		return nil, fmt.Errorf("%s: translate.alias_policy: %w", path, err)
	}
	return cfg, nil
}

// Find walks up from startDir to locate llvmexec.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadOrDefault loads path when given, otherwise the nearest llvmexec.toml,
// otherwise the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) != "" {
		return Load(path)
	}
	found, ok, err := Find(".")
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Config{}, nil
	}
	return Load(found)
}

// IsDefined reports whether the file set the key.
func (c *Config) IsDefined(key ...string) bool {
	if c == nil {
		return false
	}
	return c.meta.IsDefined(key...)
}

// Report warns about every unknown key.
func (c *Config) Report(r diag.Reporter) {
	if c == nil {
		return
	}
	for _, key := range c.Undecoded {
		diag.Warning(r, diag.WarnUnknownConfigKey, key, "unknown key in "+filepath.Base(c.Path))
	}
}

// Options converts the [translate] section.
func (c *Config) Options() (translate.Options, error) {
	if c == nil {
		return translate.Options{}, nil
	}
	policy, err := translate.ParseAliasPolicy(c.Translate.AliasPolicy)
	if err != nil {
		return translate.Options{}, err
	}
	return translate.Options{
		LifetimeAnalysis: c.Translate.LifetimeAnalysis,
		AliasPolicy:      policy,
		DataLayout:       c.Translate.DataLayout,
		GlobalLimit:      c.Translate.GlobalLimit,
	}, nil
}

// NativeTable returns the [natives] section as a resolver.
func (c *Config) NativeTable() *native.Table {
	if c == nil {
		return native.NewTable(nil)
	}
	return native.NewTable(c.Natives)
}
