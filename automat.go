package automat

import (
	_ "embed"
	"strings"

	"github.com/aretw0/automat/internal/compiler"
	"github.com/aretw0/automat/pkg/dsl"
)

//go:embed VERSION
var version string

// Version returns the release of this module.
func Version() string { return strings.TrimSpace(version) }

// Option configures how definition files are compiled.
type Option = compiler.Option

var (
	// WithRegistry binds the outputs declared in a definition to the
	// implementations registered under the same name.
	WithRegistry = compiler.WithRegistry
	// WithFallback implements outputs missing from the registry.
	WithFallback = compiler.WithFallback
)

// Load compiles the YAML machine definition at path.
func Load(path string, opts ...Option) (*dsl.Definition, error) {
	return compiler.New(opts...).CompileFile(path)
}

// Parse compiles a YAML machine definition.
func Parse(data []byte, opts ...Option) (*dsl.Definition, error) {
	return compiler.New(opts...).CompileBytes(data)
}
