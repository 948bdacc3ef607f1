package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/automat/internal/compiler"
	"github.com/aretw0/automat/pkg/dsl"
	"github.com/aretw0/automat/pkg/registry"
)

// EchoOutput stands in for outputs with no registered implementation: it
// returns the output name and its arguments, e.g. "announce(3)".
func EchoOutput(name string) registry.Func {
	return func(ctx context.Context, args ...any) (any, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprint(a)
		}
		return name + "(" + strings.Join(parts, ", ") + ")", nil
	}
}

// LoadDefinition compiles the definition file at path. Outputs missing from
// reg are echoed.
func LoadDefinition(path string, reg *registry.Registry) (*dsl.Definition, error) {
	if reg == nil {
		reg = registry.NewRegistry()
	}
	c := compiler.New(compiler.WithRegistry(reg), compiler.WithFallback(EchoOutput))
	return c.CompileFile(path)
}
