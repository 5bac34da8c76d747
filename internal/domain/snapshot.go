package domain

// Snapshot is a partial field snapshot carried by an update record. The
// creating update has an empty old snapshot; later updates carry only the
// fields they changed.
type Snapshot map[string]any

const snapshotStatusField = "status"

// Status extracts the status field when present.
func (s Snapshot) Status() (Status, bool) {
	if s == nil {
		return "", false
	}
	raw, ok := s[snapshotStatusField]
	if !ok {
		return "", false
	}
	switch typed := raw.(type) {
	case Status:
		return typed, true
	case string:
		return NormalizeStatus(typed), true
	default:
		return "", false
	}
}

// HasStatus reports whether the snapshot carries a status field.
func (s Snapshot) HasStatus() bool {
	_, ok := s.Status()
	return ok
}

// OnlyStatus reports whether status is the single field carried by the snapshot.
func (s Snapshot) OnlyStatus() bool {
	return len(s) == 1 && s.HasStatus()
}

// FieldCount returns the number of changed fields recorded in the snapshot.
func (s Snapshot) FieldCount() int {
	return len(s)
}

// Clone returns a shallow copy so callers can mutate without sharing state.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for key, value := range s {
		out[key] = value
	}
	return out
}

// WithStatus returns a copy of the snapshot with the status field set.
func (s Snapshot) WithStatus(status Status) Snapshot {
	out := s.Clone()
	if out == nil {
		out = Snapshot{}
	}
	out[snapshotStatusField] = string(status)
	return out
}
