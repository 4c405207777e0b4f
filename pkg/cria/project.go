package cria

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/cria-lang/cria/pkg/ty"
)

// ProjectFileName is the name of the project configuration file.
const ProjectFileName = "cria.toml"

// ProjectConfig represents a cria.toml project configuration file.
type ProjectConfig struct {
	// MaxDepth bounds expression nesting in the parser and the checker.
	MaxDepth int `toml:"max_depth,omitempty"`

	// MaxCallDepth bounds nested calls while evaluating.
	MaxCallDepth int `toml:"max_call_depth,omitempty"`

	// Prelude seeds programs with the builtin functions. Defaults to true.
	Prelude *bool `toml:"prelude,omitempty"`

	Emit EmitConfig `toml:"emit"`
}

// EmitConfig controls JavaScript output.
type EmitConfig struct {
	// Indent is the number of spaces per nesting level.
	Indent int `toml:"indent,omitempty"`
}

// DefaultProjectConfig is the configuration used when no cria.toml exists.
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{}
}

// UsePrelude reports whether builtins are in scope.
func (c *ProjectConfig) UsePrelude() bool {
	return c == nil || c.Prelude == nil || *c.Prelude
}

// Checker returns a type checker honouring the configured depth limit.
func (c *ProjectConfig) Checker() *Checker {
	if c == nil {
		return &Checker{}
	}
	return &Checker{MaxDepth: c.MaxDepth}
}

// Evaluator returns an evaluator honouring the configured call depth.
func (c *ProjectConfig) Evaluator() *Evaluator {
	if c == nil {
		return &Evaluator{}
	}
	return &Evaluator{MaxCallDepth: c.MaxCallDepth}
}

// ParseOptions returns the parser options for this configuration.
func (c *ProjectConfig) ParseOptions() []Option {
	if c == nil || c.MaxDepth <= 0 {
		return nil
	}
	return []Option{MaxDepth(c.MaxDepth)}
}

// EmitOptions returns emitter options for this configuration.
func (c *ProjectConfig) EmitOptions() EmitOptions {
	if c == nil {
		return EmitOptions{Prelude: true}
	}
	return EmitOptions{Indent: c.Emit.Indent, Prelude: c.UsePrelude()}
}

// TypeEnv is the initial typing context.
func (c *ProjectConfig) TypeEnv() *ty.Env {
	if c.UsePrelude() {
		return PreludeEnv()
	}
	return nil
}

// EvalEnv is the initial evaluation environment.
func (c *ProjectConfig) EvalEnv() *EvalEnv {
	if c.UsePrelude() {
		return PreludeEvalEnv()
	}
	return nil
}

// LoadProjectConfig loads a cria.toml file from the given path.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	var config ProjectConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &config, nil
}

// FindProjectConfig searches for a cria.toml file starting from dir and
// walking up to parent directories. Returns the path to cria.toml and the
// parsed config, or ("", nil, nil) if not found.
func FindProjectConfig(dir string) (string, *ProjectConfig, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(path); err == nil {
			config, err := LoadProjectConfig(path)
			if err != nil {
				return "", nil, err
			}
			return path, config, nil
		}

		// Stop at .git boundary
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

// ApplyEnv overrides config fields from CRIA_MAX_DEPTH, CRIA_MAX_CALL_DEPTH
// and CRIA_PRELUDE.
func (c *ProjectConfig) ApplyEnv(getenv func(string) string) error {
	if v := getenv("CRIA_MAX_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CRIA_MAX_DEPTH: %w", err)
		}
		c.MaxDepth = n
	}
	if v := getenv("CRIA_MAX_CALL_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CRIA_MAX_CALL_DEPTH: %w", err)
		}
		c.MaxCallDepth = n
	}
	if v := getenv("CRIA_PRELUDE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CRIA_PRELUDE: %w", err)
		}
		c.Prelude = &b
	}
	return nil
}

// ResolveProjectConfig finds the configuration governing dir, falling back
// to defaults, and applies environment overrides.
func ResolveProjectConfig(dir string) (*ProjectConfig, error) {
	_, config, err := FindProjectConfig(dir)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = DefaultProjectConfig()
	}
	if err := config.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return config, nil
}

type projectConfigKey struct{}

// ContextWithProjectConfig stores config in ctx.
func ContextWithProjectConfig(ctx context.Context, config *ProjectConfig) context.Context {
	return context.WithValue(ctx, projectConfigKey{}, config)
}

// ProjectConfigFromContext returns the config stored in ctx, or defaults.
func ProjectConfigFromContext(ctx context.Context) *ProjectConfig {
	if config, ok := ctx.Value(projectConfigKey{}).(*ProjectConfig); ok && config != nil {
		return config
	}
	return DefaultProjectConfig()
}
