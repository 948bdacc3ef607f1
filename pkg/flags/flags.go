package flags

import (
	"iter"

	"github.com/aretw0/automat/pkg/automaton"
	"github.com/aretw0/automat/pkg/domain"
)

// Flag is one independently varying component of a composite state.
type Flag struct {
	Name string
	// Domain lists the allowed values in order; at least two, all distinct.
	Domain  []string
	Initial string
	// Serialized is the external name used by Serialize; defaults to Name.
	Serialized string
}

// SerializedName returns the name the flag goes by outside the machine.
func (f Flag) SerializedName() string {
	if f.Serialized != "" {
		return f.Serialized
	}
	return f.Name
}

// Validate checks the flag on its own.
func (f Flag) Validate() error {
	if f.Name == domain.AtomKey {
		return domain.Configf("declare flag", "flag name is required")
	}
	if len(f.Domain) < 2 {
		return domain.Configf("declare flag", "flag %q needs at least 2 values, got %d", f.Name, len(f.Domain))
	}
	seen := make(map[string]bool, len(f.Domain))
	for _, v := range f.Domain {
		if seen[v] {
			return domain.Configf("declare flag", "flag %q lists value %q twice", f.Name, v)
		}
		seen[v] = true
	}
	if !seen[f.Initial] {
		return domain.Configf("declare flag", "initial value %q of flag %q is not in its domain %v", f.Initial, f.Name, f.Domain)
	}
	return nil
}

func (f Flag) allows(v string) bool {
	for _, d := range f.Domain {
		if d == v {
			return true
		}
	}
	return false
}

// Space is the cartesian product of a fixed list of flags.
type Space struct {
	flags  []Flag
	byName map[string]int
	bySer  map[string]int
}

// NewSpace validates the flags and builds their state space.
func NewSpace(flags ...Flag) (*Space, error) {
	if len(flags) == 0 {
		return nil, domain.Configf("declare flag", "a composite state space needs at least one flag")
	}
	s := &Space{
		byName: make(map[string]int, len(flags)),
		bySer:  make(map[string]int, len(flags)),
	}
	for _, f := range flags {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, domain.Configf("declare flag", "flag %q declared twice", f.Name)
		}
		if _, dup := s.bySer[f.SerializedName()]; dup {
			return nil, domain.Configf("declare flag", "serialized name %q used by two flags", f.SerializedName())
		}
		f.Domain = append([]string(nil), f.Domain...)
		s.byName[f.Name] = len(s.flags)
		s.bySer[f.SerializedName()] = len(s.flags)
		s.flags = append(s.flags, f)
	}
	return s, nil
}

// Flags returns the declared flags in declaration order.
func (s *Space) Flags() []Flag {
	out := make([]Flag, len(s.flags))
	copy(out, s.flags)
	return out
}

// Initial returns the state where every flag holds its initial value.
func (s *Space) Initial() domain.State {
	m := make(map[string]string, len(s.flags))
	for _, f := range s.flags {
		m[f.Name] = f.Initial
	}
	return domain.Compose(m)
}

// Size is the number of full composite states.
func (s *Space) Size() int {
	n := 1
	for _, f := range s.flags {
		n *= len(f.Domain)
	}
	return n
}

// States yields every full composite state. The sequence is finite and
// lazy, and can be ranged over any number of times.
func (s *Space) States() iter.Seq[domain.State] {
	return func(yield func(domain.State) bool) {
		idx := make([]int, len(s.flags))
		for {
			m := make(map[string]string, len(s.flags))
			for i, f := range s.flags {
				m[f.Name] = f.Domain[idx[i]]
			}
			if !yield(domain.Compose(m)) {
				return
			}
			// odometer increment, last flag fastest
			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(s.flags[i].Domain) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// Validate confirms that state is a subset of some full composite state:
// every key names a declared flag and every value is in that flag's domain.
func (s *Space) Validate(state domain.State) error {
	for _, p := range state.Pairs() {
		i, ok := s.byName[p.Key]
		if !ok {
			return domain.Configf("validate state", "invalid state %s: unknown flag %q", state, p.Key)
		}
		if !s.flags[i].allows(p.Value) {
			return domain.Configf("validate state", "invalid state %s: %q is not a value of flag %q", state, p.Value, p.Key)
		}
	}
	return nil
}

// Expand declares a transition on partial states. For every full state S
// containing fromPartial it adds S -> S with toPartial's values overwritten.
// The whole expansion is inserted atomically; the number of concrete
// transitions is returned.
func (s *Space) Expand(b *automaton.Builder, fromPartial, toPartial domain.State, input *domain.Symbol, outputs ...*domain.Symbol) (int, error) {
	if err := s.Validate(fromPartial); err != nil {
		return 0, err
	}
	if err := s.Validate(toPartial); err != nil {
		return 0, err
	}
	if !fromPartial.SameKeys(toPartial) {
		return 0, domain.Configf("expand transition",
			"from %s and to %s must assign the same flags", fromPartial, toPartial)
	}

	var batch []domain.Transition
	for full := range s.States() {
		if !fromPartial.SubsetOf(full) {
			continue
		}
		batch = append(batch, domain.Transition{
			From:    full,
			Input:   input,
			To:      full.With(toPartial),
			Outputs: outputs,
		})
	}
	if err := b.AddTransitions(batch...); err != nil {
		return 0, err
	}
	return len(batch), nil
}
