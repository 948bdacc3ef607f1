package flags

import (
	"fmt"

	"github.com/aretw0/automat/pkg/domain"
)

// Serialize renders a full composite state keyed by each flag's serialized name.
func (s *Space) Serialize(state domain.State) (map[string]string, error) {
	if err := s.Validate(state); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(s.flags))
	for _, f := range s.flags {
		v, ok := state.Get(f.Name)
		if !ok {
			return nil, fmt.Errorf("serialize %s: flag %q is unassigned", state, f.Name)
		}
		out[f.SerializedName()] = v
	}
	return out, nil
}

// Unserialize is the inverse of Serialize. Missing flags fall back to their
// initial value, so snapshots taken before a flag existed still load.
func (s *Space) Unserialize(data map[string]string) (domain.State, error) {
	m := make(map[string]string, len(s.flags))
	for _, f := range s.flags {
		m[f.Name] = f.Initial
	}
	for k, v := range data {
		i, ok := s.bySer[k]
		if !ok {
			return domain.State{}, domain.Configf("unserialize", "unknown serialized flag %q", k)
		}
		m[s.flags[i].Name] = v
	}
	state := domain.Compose(m)
	if err := s.Validate(state); err != nil {
		return domain.State{}, err
	}
	return state, nil
}
