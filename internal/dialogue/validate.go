package dialogue

import "github.com/google/uuid"

type optionKey struct {
	from   uuid.UUID
	option uuid.UUID
}

type validator struct {
	g      *Graph
	report Report

	nodes       map[uuid.UUID]*Node
	flows       map[uuid.UUID]*Flow
	roles       map[uuid.UUID]*Role
	optionsOf   map[uuid.UUID][]*Option
	options     map[uuid.UUID]*Option
	out         map[uuid.UUID][]*Connection
	fedOptions  map[uuid.UUID]bool
	flowsOfRole map[uuid.UUID][]*Flow
	nodesOfFlow map[uuid.UUID][]*Node
}

// Validate checks that g forms a playable dialogue graph. It collects every
// problem instead of stopping at the first and never modifies g.
// Cycles are allowed.
func Validate(g *Graph) Report {
	v := newValidator(g)
	v.checkPlayable()
	v.checkRoles()
	v.checkInitialNodes()
	v.checkOptions()
	v.checkConnections()
	v.checkExits()
	v.checkReachability()
	return v.report
}

func newValidator(g *Graph) *validator {
	v := &validator{
		g:           g,
		nodes:       make(map[uuid.UUID]*Node, len(g.Nodes)),
		flows:       make(map[uuid.UUID]*Flow, len(g.Flows)),
		roles:       make(map[uuid.UUID]*Role, len(g.Roles)),
		optionsOf:   make(map[uuid.UUID][]*Option),
		options:     make(map[uuid.UUID]*Option, len(g.Options)),
		out:         make(map[uuid.UUID][]*Connection),
		fedOptions:  make(map[uuid.UUID]bool),
		flowsOfRole: make(map[uuid.UUID][]*Flow),
		nodesOfFlow: make(map[uuid.UUID][]*Node),
	}
	for i := range g.Roles {
		v.roles[g.Roles[i].ID] = &g.Roles[i]
	}
	for i := range g.Flows {
		f := &g.Flows[i]
		v.flows[f.ID] = f
		v.flowsOfRole[f.RoleID] = append(v.flowsOfRole[f.RoleID], f)
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		v.nodes[n.ID] = n
		v.nodesOfFlow[n.FlowID] = append(v.nodesOfFlow[n.FlowID], n)
	}
	for i := range g.Options {
		o := &g.Options[i]
		v.options[o.ID] = o
		v.optionsOf[o.NodeID] = append(v.optionsOf[o.NodeID], o)
	}
	return v
}

// checkPlayable requires at least one node the dialogue can start from.
func (v *validator) checkPlayable() {
	if len(v.g.Nodes) == 0 {
		v.report.fail(EmptyScenario, v.g.ScenarioID, "scenario has no nodes")
		return
	}
	for i := range v.g.Nodes {
		if v.g.Nodes[i].IsInitial {
			return
		}
	}
	v.report.fail(EmptyScenario, v.g.ScenarioID, "no flow has an initial node to start from")
}

func (v *validator) checkRoles() {
	for i := range v.g.Roles {
		r := &v.g.Roles[i]
		flows := v.flowsOfRole[r.ID]
		if len(flows) == 0 {
			if r.Required {
				v.report.fail(RoleWithoutFlow, r.ID, "required role %q has no flow", r.Name)
			} else {
				v.report.warn(RoleWithoutFlow, r.ID, "role %q has no flow", r.Name)
			}
			continue
		}
		primaries := 0
		for _, f := range flows {
			if f.IsPrimary {
				primaries++
			}
		}
		if primaries != 1 {
			v.report.warn(PrimaryFlowMismatch, r.ID, "role %q has %d primary flows", r.Name, primaries)
		}
	}
}

func (v *validator) checkInitialNodes() {
	for i := range v.g.Flows {
		f := &v.g.Flows[i]
		nodes := v.nodesOfFlow[f.ID]
		if len(nodes) == 0 {
			if r, ok := v.roles[f.RoleID]; ok && r.Required {
				v.report.fail(MissingInitialNode, f.ID, "flow %q of required role %q has no nodes", f.Name, r.Name)
			} else {
				v.report.warn(EmptyFlow, f.ID, "flow %q has no nodes", f.Name)
			}
			continue
		}
		initial := 0
		for _, n := range nodes {
			if n.IsInitial {
				initial++
			}
		}
		switch {
		case initial == 0:
			v.report.fail(MissingInitialNode, f.ID, "flow %q has no initial node", f.Name)
		case initial > 1:
			v.report.fail(MultipleInitialNodes, f.ID, "flow %q has %d initial nodes", f.Name, initial)
		}
	}
}

func (v *validator) checkOptions() {
	for i := range v.g.Options {
		o := &v.g.Options[i]
		n, ok := v.nodes[o.NodeID]
		if !ok {
			v.report.fail(OrphanOption, o.ID, "option %s belongs to no node", o.Label)
			continue
		}
		if n.Kind != KindDecision {
			v.report.fail(OrphanOption, o.ID, "option %s is attached to %s node %q", o.Label, n.Kind, n.Title)
		}
	}
	for i := range v.g.Nodes {
		n := &v.g.Nodes[i]
		opts := v.optionsOf[n.ID]
		if n.Kind != KindDecision || len(opts) == 0 {
			continue
		}
		if len(opts) > MaxOptions {
			v.report.fail(OptionLimitExceeded, n.ID, "decision %q has %d options, at most %d allowed", n.Title, len(opts), MaxOptions)
		}
		seen := make(map[string]bool, len(opts))
		for _, o := range opts {
			if LabelIndex(o.Label) < 0 {
				v.report.fail(InvalidOptionLabel, o.ID, "decision %q has option with label %q", n.Title, o.Label)
				continue
			}
			if seen[o.Label] {
				v.report.fail(DuplicateOptionLabel, o.ID, "decision %q repeats label %s", n.Title, o.Label)
			}
			seen[o.Label] = true
		}
	}
}

func (v *validator) checkConnections() {
	seen := make(map[optionKey]bool)
	for i := range v.g.Connections {
		c := &v.g.Connections[i]
		from, okFrom := v.nodes[c.From]
		to, okTo := v.nodes[c.To]
		if !okFrom || !okTo {
			v.report.fail(InvalidConnection, c.ID, "connection references a node outside the scenario")
			continue
		}
		if c.From == c.To {
			v.report.fail(InvalidConnection, c.ID, "node %q connects to itself", from.Title)
			continue
		}
		v.out[c.From] = append(v.out[c.From], c)

		if from.Kind == KindDecision {
			v.checkOptionEdge(c, from, seen)
		} else if c.OptionID != nil {
			v.report.fail(InvalidConnection, c.ID, "%s node %q cannot branch through an option", from.Kind, from.Title)
		}

		if fromRole, toRole := v.roleOf(from), v.roleOf(to); fromRole != toRole {
			v.report.warn(CrossRoleConnection, c.ID, "connection %q -> %q crosses roles", from.Title, to.Title)
		}
	}
}

func (v *validator) checkOptionEdge(c *Connection, from *Node, seen map[optionKey]bool) {
	if c.OptionID == nil {
		v.report.fail(InvalidConnection, c.ID, "decision %q has a connection without an option", from.Title)
		return
	}
	o, ok := v.options[*c.OptionID]
	if !ok || o.NodeID != from.ID {
		v.report.fail(InvalidConnection, c.ID, "connection from %q uses an option of another node", from.Title)
		return
	}
	key := optionKey{from: c.From, option: o.ID}
	if seen[key] {
		v.report.fail(DuplicateOptionConnection, c.ID, "option %s of %q feeds more than one connection", o.Label, from.Title)
		return
	}
	seen[key] = true
	v.fedOptions[o.ID] = true
}

func (v *validator) roleOf(n *Node) uuid.UUID {
	if f, ok := v.flows[n.FlowID]; ok {
		return f.RoleID
	}
	return uuid.Nil
}

func (v *validator) checkExits() {
	for i := range v.g.Nodes {
		n := &v.g.Nodes[i]
		exits := len(v.out[n.ID])

		if n.Kind == KindFinal {
			if !n.IsFinal {
				v.report.fail(InconsistentFinalFlag, n.ID, "final node %q is not flagged final", n.Title)
			}
			if exits > 0 {
				v.report.fail(FinalNodeHasExits, n.ID, "final node %q has %d outgoing connections", n.Title, exits)
			}
			continue
		}
		if n.IsFinal {
			v.report.fail(InconsistentFinalFlag, n.ID, "%s node %q is flagged final", n.Kind, n.Title)
		}
		if exits == 0 {
			v.report.fail(DeadEndNode, n.ID, "%s node %q has no outgoing connection", n.Kind, n.Title)
		}
		switch n.Kind {
		case KindAuto:
			if exits > 1 {
				v.report.fail(AmbiguousAutoNode, n.ID, "auto node %q has %d outgoing connections", n.Title, exits)
			}
		case KindDecision:
			for _, o := range v.optionsOf[n.ID] {
				if !v.fedOptions[o.ID] {
					v.report.fail(UnresolvedOption, o.ID, "option %s of %q leads nowhere", o.Label, n.Title)
				}
			}
		}
	}
}

// checkReachability walks forward from every initial node at once, since a
// connection may hand the dialogue over to another role's flow.
func (v *validator) checkReachability() {
	visited := make(map[uuid.UUID]bool, len(v.g.Nodes))
	var queue []uuid.UUID
	for i := range v.g.Nodes {
		n := &v.g.Nodes[i]
		if n.IsInitial {
			visited[n.ID] = true
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range v.out[id] {
			if !visited[c.To] {
				visited[c.To] = true
				queue = append(queue, c.To)
			}
		}
	}
	for i := range v.g.Nodes {
		n := &v.g.Nodes[i]
		if !visited[n.ID] {
			v.report.fail(UnreachableNode, n.ID, "node %q cannot be reached from any initial node", n.Title)
		}
	}
}
