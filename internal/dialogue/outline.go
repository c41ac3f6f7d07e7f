package dialogue

import (
	"sort"

	"github.com/google/uuid"
)

// FlowOutline lists the nodes of one flow in display order.
type FlowOutline struct {
	FlowID uuid.UUID `json:"flow_id"`
	RoleID uuid.UUID `json:"role_id"`
	Name   string    `json:"name"`
	Nodes  []Node    `json:"nodes"`
}

// Outline orders each flow's nodes by their declared order, then title, then id.
// It is a display hint only: playback follows connections, not this order.
func Outline(g *Graph) []FlowOutline {
	byFlow := make(map[uuid.UUID][]Node, len(g.Flows))
	for _, n := range g.Nodes {
		byFlow[n.FlowID] = append(byFlow[n.FlowID], n)
	}

	out := make([]FlowOutline, 0, len(g.Flows))
	for _, f := range g.Flows {
		nodes := byFlow[f.ID]
		sort.SliceStable(nodes, func(i, j int) bool {
			a, b := nodes[i], nodes[j]
			if a.Order != b.Order {
				return a.Order < b.Order
			}
			if a.Title != b.Title {
				return a.Title < b.Title
			}
			return a.ID.String() < b.ID.String()
		})
		if nodes == nil {
			nodes = []Node{}
		}
		out = append(out, FlowOutline{FlowID: f.ID, RoleID: f.RoleID, Name: f.Name, Nodes: nodes})
	}
	return out
}
