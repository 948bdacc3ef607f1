// Package compiler turns YAML machine definitions into dsl definitions.
package compiler

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/aretw0/automat/pkg/domain"
	"github.com/aretw0/automat/pkg/dsl"
	"github.com/aretw0/automat/pkg/flags"
	"github.com/aretw0/automat/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithRegistry binds declared outputs to the implementations in reg.
func WithRegistry(reg *registry.Registry) Option {
	return func(c *Compiler) {
		c.registry = reg
	}
}

// WithFallback supplies the implementation of outputs missing from the
// registry. Without it, an unbound output is a configuration error.
func WithFallback(fallback func(name string) registry.Func) Option {
	return func(c *Compiler) {
		c.fallback = fallback
	}
}

// Compiler parses, validates and compiles definition files.
type Compiler struct {
	registry *registry.Registry
	fallback func(name string) registry.Func
	validate *validator.Validate
}

// New creates a compiler.
func New(opts ...Option) *Compiler {
	v := validator.New()
	// Report fields by their key in the file.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	c := &Compiler{validate: v}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = registry.NewRegistry()
	}
	return c
}

// Parse decodes and validates a definition.
func (c *Compiler) Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	if raw == nil {
		return nil, domain.Configf("parse definition", "definition is empty")
	}

	var doc Document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, domain.Configf("decode definition", "%v", err)
	}

	if err := c.validate.Struct(&doc); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			field := fe.Namespace()
			if i := strings.IndexByte(field, '.'); i >= 0 {
				field = field[i+1:]
			}
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			msgs = append(msgs, field+" fails "+rule)
		}
		return nil, domain.Configf("validate definition", "%s", strings.Join(msgs, "; "))
	}
	return &doc, nil
}

// Compile declares the document on a dsl.Builder and builds it, so every
// builder check applies to definition files too.
func (c *Compiler) Compile(doc *Document) (*dsl.Definition, error) {
	if len(doc.Flags) > 0 && len(doc.States) > 0 {
		return nil, domain.Configf("compile", "machine %q declares both flags and states", doc.Name)
	}
	atomic := len(doc.States) > 0

	b := dsl.New(doc.Name)
	for _, f := range doc.Flags {
		err := b.DeclareFlag(flags.Flag{Name: f.Name, Domain: f.Values, Initial: f.Initial, Serialized: f.Serialized})
		if err != nil {
			return nil, err
		}
	}
	for _, s := range doc.States {
		sb := b.DeclareState(s.Name)
		if s.Initial {
			sb.Initial()
		}
		if s.Serialized != "" {
			sb.Serialized(s.Serialized)
		}
	}

	inputs := make(map[string]*domain.Symbol, len(doc.Inputs))
	for _, in := range doc.Inputs {
		sym, err := b.DeclareInput(in.Name, in.Params...)
		if err != nil {
			return nil, err
		}
		inputs[in.Name] = sym
	}

	outputs := make(map[string]*domain.Symbol, len(doc.Outputs))
	for _, out := range doc.Outputs {
		fn, ok := c.registry.Lookup(out.Name)
		if !ok && c.fallback != nil {
			fn, ok = c.fallback(out.Name), true
		}
		if !ok || fn == nil {
			return nil, domain.Configf("compile", "output %q is not registered", out.Name)
		}
		sym, err := b.DeclareOutput(out.Name, dsl.OutputFunc(fn), out.Params...)
		if err != nil {
			return nil, err
		}
		outputs[out.Name] = sym
	}

	for i, t := range doc.Transitions {
		in, ok := inputs[t.Input]
		if !ok {
			return nil, domain.Configf("compile", "transitions[%d]: input %q is not declared", i, t.Input)
		}
		outs := make([]*domain.Symbol, 0, len(t.Outputs))
		for _, name := range t.Outputs {
			out, ok := outputs[name]
			if !ok {
				return nil, domain.Configf("compile", "transitions[%d]: output %q is not declared", i, name)
			}
			outs = append(outs, out)
		}
		collect, _ := dsl.CollectorByName(t.Collect)

		from, err := stateOf(t.From, atomic)
		if err != nil {
			return nil, fmt.Errorf("transitions[%d].from: %w", i, err)
		}
		to, err := stateOf(t.To, atomic)
		if err != nil {
			return nil, fmt.Errorf("transitions[%d].to: %w", i, err)
		}
		if err := b.DeclareTransition(from, in, to, outs, dsl.WithCollector(collect)); err != nil {
			return nil, fmt.Errorf("transitions[%d]: %w", i, err)
		}
	}

	return b.Build()
}

func stateOf(assignments map[string]string, atomic bool) (domain.State, error) {
	if !atomic {
		return domain.Compose(assignments), nil
	}
	name, ok := assignments[dsl.StateKey]
	if !ok || len(assignments) != 1 {
		return domain.State{}, domain.Configf("compile", "atomic machines name states as {%s: Name}", dsl.StateKey)
	}
	return domain.Atom(name), nil
}

// CompileBytes parses and compiles a definition.
func (c *Compiler) CompileBytes(data []byte) (*dsl.Definition, error) {
	doc, err := c.Parse(data)
	if err != nil {
		return nil, err
	}
	return c.Compile(doc)
}

// CompileFile reads, parses and compiles the definition at path.
func (c *Compiler) CompileFile(path string) (*dsl.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	def, err := c.CompileBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}
