package services

import (
	"context"
	"testing"

	"github.com/courtroom-studio/engine/internal/dialogue"
	"github.com/courtroom-studio/engine/internal/models"
	appErr "github.com/courtroom-studio/engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRules(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	sc := s.newScene(t)

	start := s.node(t, sc.flow, "auto", "start", true)
	ask := s.node(t, sc.flow, "decision", "ask", false)
	yes := s.node(t, sc.flow, "final", "yes", false)
	no := s.node(t, sc.flow, "final", "no", false)
	a, err := s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Text: "Ha lugar"})
	require.NoError(t, err)

	connect := func(from, to *models.Node, opt *models.Option) error {
		input := &ConnectInput{FromNodeID: from.ID, ToNodeID: to.ID}
		if opt != nil {
			input.OptionID = &opt.ID
		}
		_, err := s.connections.Connect(ctx, s.owner, sc.scenario.ID, input)
		return err
	}

	t.Run("self loop", func(t *testing.T) {
		requireRule(t, connect(start, start, nil), appErr.CodeInvalid, string(dialogue.InvalidConnection))
	})
	t.Run("final source", func(t *testing.T) {
		requireRule(t, connect(yes, start, nil), appErr.CodeInvalid, string(dialogue.FinalNodeHasExits))
	})
	t.Run("decision without option", func(t *testing.T) {
		requireRule(t, connect(ask, yes, nil), appErr.CodeInvalid, string(dialogue.InvalidConnection))
	})
	t.Run("option on auto source", func(t *testing.T) {
		requireRule(t, connect(start, ask, a), appErr.CodeInvalid, string(dialogue.InvalidConnection))
	})

	c, err := s.connections.Connect(ctx, s.owner, sc.scenario.ID, &ConnectInput{FromNodeID: ask.ID, ToNodeID: yes.ID, OptionID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ha lugar", c.Label)

	t.Run("option already connected", func(t *testing.T) {
		requireRule(t, connect(ask, no, a), appErr.CodeConflict, string(dialogue.DuplicateOptionConnection))
	})

	require.NoError(t, connect(start, ask, nil))
	t.Run("second auto exit", func(t *testing.T) {
		requireRule(t, connect(start, no, nil), appErr.CodeConflict, string(dialogue.AmbiguousAutoNode))
	})

	t.Run("option of another node", func(t *testing.T) {
		other := s.node(t, sc.flow, "decision", "other", false)
		requireRule(t, connect(other, no, a), appErr.CodeInvalid, string(dialogue.InvalidConnection))
	})

	t.Run("node of another scenario", func(t *testing.T) {
		foreign := s.newScene(t)
		stranger := s.node(t, foreign.flow, "final", "stranger", false)
		b, err := s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Text: "No ha lugar"})
		require.NoError(t, err)
		requireRule(t, connect(ask, stranger, b), appErr.CodeInvalid, string(dialogue.InvalidConnection))
	})

	assert.EqualValues(t, 2, s.count(t, &models.Connection{}, ""))
}

func TestDisconnect(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	sc := s.newScene(t)

	n1 := s.node(t, sc.flow, "auto", "n1", true)
	n2 := s.node(t, sc.flow, "final", "n2", false)
	c := s.link(t, sc.scenario, n1, n2, nil)

	require.NoError(t, s.connections.Disconnect(ctx, s.owner, c.ID))
	assert.Zero(t, s.count(t, &models.Connection{}, ""))

	err := s.connections.Disconnect(ctx, s.owner, c.ID)
	requireRule(t, err, appErr.CodeNotFound, "")

	// The auto node may take a new exit once the old one is gone.
	s.link(t, sc.scenario, n1, n2, nil)
}
