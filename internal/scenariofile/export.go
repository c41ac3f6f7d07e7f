package scenariofile

import (
	"fmt"
	"sort"

	"github.com/courtroom-studio/engine/internal/dialogue"
	"github.com/courtroom-studio/engine/internal/models"
	"github.com/google/uuid"
)

// Export renders a persisted scenario as a document the importer accepts.
// Node keys are n1..nN in flow order. Decision exits are written in label
// order so a re-import assigns the same labels. Options without a connection
// have no representation and are dropped.
func Export(set *models.GraphSet) *Document {
	doc := &Document{
		Scenario: ScenarioInfo{
			Name:        set.Scenario.Name,
			Description: set.Scenario.Description,
			Public:      set.Scenario.IsPublic,
		},
		Nodes:       make([]Node, 0, len(set.Nodes)),
		Connections: make([]Connection, 0, len(set.Connections)),
	}

	roleOf := set.RoleOfFlow()
	nodes := orderedNodes(set)
	keys := make(map[uuid.UUID]string, len(nodes))
	rank := make(map[uuid.UUID]int, len(nodes))
	for i, n := range nodes {
		key := fmt.Sprintf("n%d", i+1)
		keys[n.ID] = key
		rank[n.ID] = i

		roleName := ""
		if r, ok := roleOf[n.FlowID]; ok {
			roleName = r.Name
		}
		doc.Nodes = append(doc.Nodes, Node{
			ID:        key,
			Title:     n.Title,
			Content:   n.Content,
			RoleName:  roleName,
			Type:      TypeOf(dialogue.Kind(n.Kind), n.IsInitial),
			IsInitial: n.IsInitial,
			IsFinal:   n.IsFinal,
			Position:  &Position{X: n.PosX, Y: n.PosY},
		})
	}

	options := make(map[uuid.UUID]models.Option, len(set.Options))
	for _, o := range set.Options {
		options[o.ID] = o
	}

	conns := append([]models.Connection(nil), set.Connections...)
	optionOrder := func(c models.Connection) int {
		if c.OptionID == nil {
			return -1
		}
		return options[*c.OptionID].SortOrder
	}
	sort.SliceStable(conns, func(i, j int) bool {
		a, b := conns[i], conns[j]
		if rank[a.FromNodeID] != rank[b.FromNodeID] {
			return rank[a.FromNodeID] < rank[b.FromNodeID]
		}
		return optionOrder(a) < optionOrder(b)
	})

	for _, c := range conns {
		from, okFrom := keys[c.FromNodeID]
		to, okTo := keys[c.ToNodeID]
		if !okFrom || !okTo {
			continue
		}
		out := Connection{From: from, To: to, Text: c.Label}
		if c.OptionID != nil {
			if o, ok := options[*c.OptionID]; ok {
				out.Text = o.Text
				if o.Color != "" {
					color := o.Color
					out.Color = &color
				}
				score := float64(o.Score)
				out.Score = &score
			}
		}
		doc.Connections = append(doc.Connections, out)
	}
	return doc
}

// orderedNodes sorts nodes by role, then flow, then node order.
func orderedNodes(set *models.GraphSet) []models.Node {
	roleRank := make(map[uuid.UUID]int, len(set.Roles))
	for i, r := range set.Roles {
		roleRank[r.ID] = i
	}
	flowRank := make(map[uuid.UUID]int, len(set.Flows))
	for i, f := range set.Flows {
		flowRank[f.ID] = roleRank[f.RoleID]*len(set.Flows) + i
	}

	nodes := append([]models.Node(nil), set.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if flowRank[a.FlowID] != flowRank[b.FlowID] {
			return flowRank[a.FlowID] < flowRank[b.FlowID]
		}
		return a.SortOrder < b.SortOrder
	})
	return nodes
}
