package domain

import (
	"sort"
	"strings"
)

// AtomKey is the reserved key carried by atomic states.
// Flag names may not use it.
const AtomKey = ""

// Pair is one (flag, value) fact of a State.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// State is an immutable set of (flag, value) pairs.
//
// An atomic state is a single pair under AtomKey. A composite state assigns
// one value to every declared flag; a partial state assigns only some of them.
// Representing both as sets makes subset matching uniform: a transition
// declared from a partial state matches every state that contains it.
type State struct {
	pairs []Pair
	key   string
}

// Atom builds an atomic state.
func Atom(name string) State {
	return newState([]Pair{{Key: AtomKey, Value: name}})
}

// Compose builds a composite (or partial) state from flag assignments.
func Compose(assignments map[string]string) State {
	pairs := make([]Pair, 0, len(assignments))
	for k, v := range assignments {
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	return newState(pairs)
}

func newState(pairs []Pair) State {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })

	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte(0)
		}
		sb.WriteString(p.Key)
		sb.WriteByte(0)
		sb.WriteString(p.Value)
	}
	return State{pairs: pairs, key: sb.String()}
}

// Key is a canonical encoding suitable for equality checks and map keys.
func (s State) Key() string { return s.key }

// IsZero reports whether s has no pairs at all.
func (s State) IsZero() bool { return len(s.pairs) == 0 }

// IsAtom reports whether s is an atomic state.
func (s State) IsAtom() bool { return len(s.pairs) == 1 && s.pairs[0].Key == AtomKey }

// Name returns the atom name, or the rendered state for composites.
func (s State) Name() string {
	if s.IsAtom() {
		return s.pairs[0].Value
	}
	return s.String()
}

// Equal reports whether both states hold exactly the same pairs.
func (s State) Equal(other State) bool { return s.key == other.key }

// SubsetOf reports whether every pair of s is also a pair of other.
func (s State) SubsetOf(other State) bool {
	for _, p := range s.pairs {
		v, ok := other.Get(p.Key)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// Overlaps reports whether one of the states is a subset of the other.
func (s State) Overlaps(other State) bool {
	return s.SubsetOf(other) || other.SubsetOf(s)
}

// Get returns the value assigned to key.
func (s State) Get(key string) (string, bool) {
	i := sort.Search(len(s.pairs), func(i int) bool { return s.pairs[i].Key >= key })
	if i < len(s.pairs) && s.pairs[i].Key == key {
		return s.pairs[i].Value, true
	}
	return "", false
}

// Keys returns the flag names of s in sorted order.
func (s State) Keys() []string {
	keys := make([]string, len(s.pairs))
	for i, p := range s.pairs {
		keys[i] = p.Key
	}
	return keys
}

// Pairs returns a copy of the pairs of s in key order.
func (s State) Pairs() []Pair {
	out := make([]Pair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// Map returns the assignments of s as a fresh map.
func (s State) Map() map[string]string {
	m := make(map[string]string, len(s.pairs))
	for _, p := range s.pairs {
		m[p.Key] = p.Value
	}
	return m
}

// With returns a copy of s where every key of overrides replaces the value in s.
// Keys present only in overrides are added.
func (s State) With(overrides State) State {
	m := s.Map()
	for _, p := range overrides.pairs {
		m[p.Key] = p.Value
	}
	return Compose(m)
}

// SameKeys reports whether both states assign exactly the same flags.
func (s State) SameKeys(other State) bool {
	if len(s.pairs) != len(other.pairs) {
		return false
	}
	for i := range s.pairs {
		if s.pairs[i].Key != other.pairs[i].Key {
			return false
		}
	}
	return true
}

// String renders atoms by name and composites as {flag:value, ...}.
func (s State) String() string {
	if s.IsAtom() {
		return s.pairs[0].Value
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, p := range s.pairs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Key)
		sb.WriteByte(':')
		sb.WriteString(p.Value)
	}
	sb.WriteByte('}')
	return sb.String()
}
