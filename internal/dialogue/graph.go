// Package dialogue holds the in-memory dialogue graph of one scenario and the
// rules a graph must satisfy before it can be played.
package dialogue

import (
	"strings"

	"github.com/google/uuid"
)

// Kind is the behaviour of a node when played.
type Kind string

const (
	// KindAuto shows its content and continues along its single outgoing edge.
	KindAuto Kind = "auto"
	// KindDecision waits for the player to pick one of its options.
	KindDecision Kind = "decision"
	// KindFinal ends the flow.
	KindFinal Kind = "final"
)

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindAuto, KindDecision, KindFinal:
		return k, true
	}
	return "", false
}

// MaxOptions is the number of branches a decision node may offer.
const MaxOptions = 4

var labels = [MaxOptions]string{"A", "B", "C", "D"}

// LabelAt maps a 0-based option order to its label.
func LabelAt(i int) (string, bool) {
	if i < 0 || i >= MaxOptions {
		return "", false
	}
	return labels[i], true
}

// LabelIndex maps a label back to its 0-based order, or -1.
func LabelIndex(label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}

// NextFreeLabel returns the first label not in used.
func NextFreeLabel(used []string) (string, bool) {
	taken := make(map[string]bool, len(used))
	for _, l := range used {
		taken[l] = true
	}
	for _, l := range labels {
		if !taken[l] {
			return l, true
		}
	}
	return "", false
}

// Role is a courtroom participant. Required roles must have a playable flow.
type Role struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Required bool      `json:"required"`
}

// Flow is one ordered sequence of nodes owned by a role.
type Flow struct {
	ID        uuid.UUID `json:"id"`
	RoleID    uuid.UUID `json:"role_id"`
	Name      string    `json:"name"`
	IsPrimary bool      `json:"is_primary"`
}

// Node is one dialogue step. Order is its position within the flow.
type Node struct {
	ID        uuid.UUID `json:"id"`
	FlowID    uuid.UUID `json:"flow_id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	IsInitial bool      `json:"is_initial"`
	IsFinal   bool      `json:"is_final"`
	Order     int       `json:"order"`
}

// Option is an answer offered by a decision node, labelled A to D.
type Option struct {
	ID     uuid.UUID `json:"id"`
	NodeID uuid.UUID `json:"node_id"`
	Label  string    `json:"label"`
	Order  int       `json:"order"`
}

// Connection is a directed edge. OptionID is set when a decision option feeds it.
type Connection struct {
	ID       uuid.UUID  `json:"id"`
	From     uuid.UUID  `json:"from"`
	To       uuid.UUID  `json:"to"`
	OptionID *uuid.UUID `json:"option_id,omitempty"`
}

// Graph is the full entity set of one scenario. Slices keep the caller's order,
// which is also the order issues are reported in.
type Graph struct {
	ScenarioID  uuid.UUID    `json:"scenario_id"`
	Roles       []Role       `json:"roles"`
	Flows       []Flow       `json:"flows"`
	Nodes       []Node       `json:"nodes"`
	Options     []Option     `json:"options"`
	Connections []Connection `json:"connections"`
}
