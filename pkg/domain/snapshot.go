package domain

import "time"

// Snapshot is the persisted form of one machine instance.
// State holds the serialized assignments produced by the serialization bridge.
type Snapshot struct {
	ID        string            `json:"id"`
	Machine   string            `json:"machine"`
	State     map[string]string `json:"state"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewSnapshot creates a snapshot stamped with the current time.
func NewSnapshot(id, machine string, state map[string]string) *Snapshot {
	return &Snapshot{
		ID:        id,
		Machine:   machine,
		State:     state,
		UpdatedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy, so stores can isolate what they hold.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.State = make(map[string]string, len(s.State))
	for k, v := range s.State {
		c.State[k] = v
	}
	return &c
}
