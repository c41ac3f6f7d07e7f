package models

import "github.com/google/uuid"

// GraphSet is the persisted entity set of one scenario.
type GraphSet struct {
	Scenario    Scenario     `json:"scenario"`
	Roles       []Role       `json:"roles"`
	Flows       []Flow       `json:"flows"`
	Nodes       []Node       `json:"nodes"`
	Options     []Option     `json:"options"`
	Connections []Connection `json:"connections"`
}

// RoleOfFlow maps each flow id to its role.
func (g *GraphSet) RoleOfFlow() map[uuid.UUID]*Role {
	roles := make(map[uuid.UUID]*Role, len(g.Roles))
	for i := range g.Roles {
		roles[g.Roles[i].ID] = &g.Roles[i]
	}
	out := make(map[uuid.UUID]*Role, len(g.Flows))
	for _, f := range g.Flows {
		if r, ok := roles[f.RoleID]; ok {
			out[f.ID] = r
		}
	}
	return out
}
