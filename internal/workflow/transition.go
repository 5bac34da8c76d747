package workflow

import (
	"strings"

	"github.com/goliatone/go-review/internal/domain"
)

// Transition is an ordered pair of statuses representing one legal step.
// A nil From denotes the creating update; a nil To only appears on inverted
// creation steps produced by Undo and never matches a real status change.
type Transition struct {
	From *domain.Status
	To   *domain.Status
}

// NewTransition builds a transition between two concrete statuses.
func NewTransition(from, to domain.Status) Transition {
	return Transition{From: statusPtr(from), To: statusPtr(to)}
}

// Creation builds the transition applied by an item's creating update.
func Creation(to domain.Status) Transition {
	return Transition{To: statusPtr(to)}
}

// Equal reports whether both ends match exactly, treating absent ends as
// distinct from every concrete status.
func (t Transition) Equal(other Transition) bool {
	return statusEqual(t.From, other.From) && statusEqual(t.To, other.To)
}

// IsCreation reports whether the transition originates from no prior status.
func (t Transition) IsCreation() bool {
	return t.From == nil && t.To != nil
}

// IsNoop reports whether both ends resolve to the same status, including the
// degenerate case where neither end is set.
func (t Transition) IsNoop() bool {
	return statusEqual(t.From, t.To)
}

// Undo returns the transition with its ends swapped.
func (t Transition) Undo() Transition {
	return Transition{From: t.To, To: t.From}
}

func (t Transition) String() string {
	var b strings.Builder
	if t.From != nil {
		b.WriteString(string(*t.From))
	}
	b.WriteString(" -> ")
	if t.To != nil {
		b.WriteString(string(*t.To))
	}
	return b.String()
}

// Pack is an ordered multiset of transitions. Unions concatenate without
// de-duplication; membership only needs one match so duplicates are harmless.
type Pack []Transition

// NewPack builds a pack from the supplied transitions.
func NewPack(transitions ...Transition) Pack {
	pack := make(Pack, len(transitions))
	copy(pack, transitions)
	return pack
}

// Union concatenates the receiver with the supplied packs into a new pack.
func (p Pack) Union(others ...Pack) Pack {
	size := len(p)
	for _, other := range others {
		size += len(other)
	}
	merged := make(Pack, 0, size)
	merged = append(merged, p...)
	for _, other := range others {
		merged = append(merged, other...)
	}
	return merged
}

// Contains reports whether some member equals the supplied transition.
func (p Pack) Contains(t Transition) bool {
	for _, member := range p {
		if member.Equal(t) {
			return true
		}
	}
	return false
}

// FilterFrom returns the sub-pack of members originating from the status.
func (p Pack) FilterFrom(status domain.Status) Pack {
	out := Pack{}
	for _, member := range p {
		if member.From != nil && *member.From == status {
			out = append(out, member)
		}
	}
	return out
}

// FilterTo returns the sub-pack of members targeting the status.
func (p Pack) FilterTo(status domain.Status) Pack {
	out := Pack{}
	for _, member := range p {
		if member.To != nil && *member.To == status {
			out = append(out, member)
		}
	}
	return out
}

// Undo returns a new pack with every member's ends swapped. Applying Undo
// twice reproduces the original multiset.
func (p Pack) Undo() Pack {
	out := make(Pack, len(p))
	for i, member := range p {
		out[i] = member.Undo()
	}
	return out
}

func statusPtr(status domain.Status) *domain.Status {
	return &status
}

func statusEqual(a, b *domain.Status) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
