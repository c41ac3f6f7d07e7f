package scenariofile

import (
	"fmt"
	"math"
	"strings"

	"github.com/courtroom-studio/engine/internal/dialogue"
)

// CheckOptions controls role resolution.
type CheckOptions struct {
	// KnownRole reports whether a role name resolves to a catalog entry.
	KnownRole func(name string) bool
	// AutoCreateRoles accepts any role name; unknown ones are created on import.
	AutoCreateRoles bool
}

// Check returns every structural problem of doc as "Node 3: missing content"
// style items with 1-based indexes. An empty result means doc can be imported.
func Check(doc *Document, opts CheckOptions) []string {
	var items []string
	add := func(format string, args ...any) {
		items = append(items, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(doc.Scenario.Name) == "" {
		add("Scenario: missing name")
	}
	if len(doc.Nodes) == 0 {
		add("Scenario: no nodes")
	}

	index := make(map[string]int, len(doc.Nodes))
	for i, n := range doc.Nodes {
		pos := i + 1
		switch {
		case n.ID == "":
			add("Node %d: missing id", pos)
		case index[n.ID] > 0:
			add("Node %d: duplicate id %s (first used by Node %d)", pos, n.ID, index[n.ID])
		default:
			index[n.ID] = pos
		}
		if strings.TrimSpace(n.Title) == "" {
			add("Node %d: missing title", pos)
		}
		if strings.TrimSpace(n.Content) == "" {
			add("Node %d: missing content", pos)
		}
		if n.Position == nil {
			add("Node %d: missing posicion", pos)
		}
		if n.RoleName == "" {
			add("Node %d: missing role", pos)
		} else if !opts.AutoCreateRoles && !known(opts, n.RoleName) {
			add("Node %d: unknown role %s", pos, n.RoleName)
		}

		kind, ok := KindOf(n.Type)
		switch {
		case n.Type == "":
			add("Node %d: missing type", pos)
		case !ok:
			add("Node %d: unknown type %s", pos, n.Type)
		}
		if n.Type == TypeStart && !n.IsInitial {
			add("Node %d: type inicio must be initial", pos)
		}
		if ok && (kind == dialogue.KindFinal) != n.IsFinal {
			if n.IsFinal {
				add("Node %d: es_final set on %s node", pos, n.Type)
			} else {
				add("Node %d: final node must set es_final", pos)
			}
		}
	}

	for _, role := range doc.RoleNames() {
		var initial []string
		for i, n := range doc.Nodes {
			if n.RoleName == role && n.IsInitial {
				initial = append(initial, fmt.Sprintf("Node %d", i+1))
			}
		}
		switch len(initial) {
		case 0:
			add("Role %s: no initial node", role)
		case 1:
		default:
			add("Role %s: multiple initial nodes (%s)", role, strings.Join(initial, ", "))
		}
	}

	for i, c := range doc.Connections {
		pos := i + 1
		from, okFrom := lookup(doc, index, c.From)
		_, okTo := lookup(doc, index, c.To)
		switch {
		case c.From == "":
			add("Connection %d: missing source", pos)
		case !okFrom:
			add("Connection %d: unknown source %s", pos, c.From)
		}
		switch {
		case c.To == "":
			add("Connection %d: missing target", pos)
		case !okTo:
			add("Connection %d: unknown target %s", pos, c.To)
		}
		if c.From != "" && c.From == c.To {
			add("Connection %d: node %s connects to itself", pos, c.From)
		}
		if okFrom && from.Type == TypeFinal {
			add("Connection %d: final node %s cannot have exits", pos, c.From)
		}
		if okFrom && from.Type == TypeDecision && strings.TrimSpace(c.Text) == "" {
			add("Connection %d: missing text for decision option", pos)
		}
		if c.Color != nil && len(*c.Color) > MaxColorLen {
			add("Connection %d: color longer than %d characters", pos, MaxColorLen)
		}
		if c.Score != nil && *c.Score != math.Trunc(*c.Score) {
			add("Connection %d: puntuacion must be a whole number", pos)
		}
	}

	exits := doc.Exits()
	for i, n := range doc.Nodes {
		if n.Type != TypeDecision {
			continue
		}
		if got := len(exits[n.ID]); got > dialogue.MaxOptions {
			add("Node %d: decision has %d exits, at most %d allowed", i+1, got, dialogue.MaxOptions)
		}
	}
	return items
}

func known(opts CheckOptions, name string) bool {
	return opts.KnownRole != nil && opts.KnownRole(name)
}

func lookup(doc *Document, index map[string]int, id string) (Node, bool) {
	pos, ok := index[id]
	if !ok || id == "" {
		return Node{}, false
	}
	return doc.Nodes[pos-1], true
}
