package vm

import "fmt"

// Tier is one of the four variable storage tiers.
type Tier int

const (
	TierPrivate Tier = iota // keyed by user id
	TierServer              // keyed by server id
	TierGlobal
	TierCore
)

// GlobalOwner is the owner id used for the global and core tiers.
const GlobalOwner int64 = -1

// Tiers lists every tier in storage order.
var Tiers = []Tier{TierPrivate, TierServer, TierGlobal, TierCore}

var tierNames = [...]string{"private", "server", "global", "core"}

func (t Tier) String() string {
	if t >= 0 && int(t) < len(tierNames) {
		return tierNames[t]
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// ParseTier converts a tier name (or its scoping keyword) to a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "private", "my":
		return TierPrivate, nil
	case "server", "our":
		return TierServer, nil
	case "global":
		return TierGlobal, nil
	case "core":
		return TierCore, nil
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// Store persists variables across executions. Get returns Undefined for a
// missing name; Drop returns the removed value or Undefined.
type Store interface {
	Get(tier Tier, owner int64, name string) (Value, error)
	Put(tier Tier, owner int64, name string, v Value) error
	Drop(tier Tier, owner int64, name string) (Value, error)
	Names(tier Tier, owner int64) ([]string, error)
}

// Editors decides who may modify the core tier.
type Editors interface {
	CanEdit(userID int64) bool
}

// EditorSet is a fixed set of privileged user ids.
type EditorSet map[int64]bool

// NewEditorSet returns a set holding ids.
func NewEditorSet(ids ...int64) EditorSet {
	s := EditorSet{}
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func (s EditorSet) CanEdit(userID int64) bool { return s[userID] }
