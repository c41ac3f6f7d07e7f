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

func TestOptionCardinality(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	sc := s.newScene(t)
	ask := s.node(t, sc.flow, "decision", "ask", true)

	var labels []string
	for _, text := range []string{"uno", "dos", "tres", "cuatro"} {
		opt, err := s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Text: text})
		require.NoError(t, err)
		labels = append(labels, opt.Label)
		assert.Equal(t, dialogue.LabelIndex(opt.Label), opt.SortOrder)
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, labels)

	_, err := s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Text: "cinco"})
	requireRule(t, err, appErr.CodeConflict, string(dialogue.OptionLimitExceeded))
	assert.EqualValues(t, 4, s.count(t, &models.Option{}, "node_id = ?", ask.ID))
}

func TestOptionLabels(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	sc := s.newScene(t)
	ask := s.node(t, sc.flow, "decision", "ask", true)

	b, err := s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Label: "b", Text: "segunda"})
	require.NoError(t, err)
	assert.Equal(t, "B", b.Label)

	_, err = s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Label: "B", Text: "otra"})
	requireRule(t, err, appErr.CodeAlreadyExists, string(dialogue.DuplicateOptionLabel))

	_, err = s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Label: "E", Text: "quinta"})
	requireRule(t, err, appErr.CodeInvalid, string(dialogue.InvalidOptionLabel))

	a, err := s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Text: "primera"})
	require.NoError(t, err)
	assert.Equal(t, "A", a.Label)
	c, err := s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Text: "tercera"})
	require.NoError(t, err)
	assert.Equal(t, "C", c.Label)
}

func TestOptionOnlyOnDecision(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	sc := s.newScene(t)
	n := s.node(t, sc.flow, "auto", "n", true)

	_, err := s.options.Add(ctx, s.owner, n.ID, &OptionInput{Text: "x"})
	requireRule(t, err, appErr.CodeInvalid, string(dialogue.OrphanOption))
}

func TestDeleteOptionRemovesItsConnection(t *testing.T) {
	s := newStudio(t)
	ctx := context.Background()
	sc := s.newScene(t)
	ask := s.node(t, sc.flow, "decision", "ask", true)
	end := s.node(t, sc.flow, "final", "end", false)

	opt, err := s.options.Add(ctx, s.owner, ask.ID, &OptionInput{Text: "Ha lugar", Score: 5})
	require.NoError(t, err)
	s.link(t, sc.scenario, ask, end, opt)

	text, score := "Se acepta", 7
	updated, err := s.options.Update(ctx, s.owner, opt.ID, &OptionUpdate{Text: &text, Score: &score})
	require.NoError(t, err)
	assert.Equal(t, "Se acepta", updated.Text)
	assert.Equal(t, 7, updated.Score)
	assert.Equal(t, "A", updated.Label)

	require.NoError(t, s.options.Delete(ctx, s.owner, opt.ID))
	assert.Zero(t, s.count(t, &models.Connection{}, ""))
	assert.Zero(t, s.count(t, &models.Option{}, ""))

	report, err := s.scenarios.Validate(ctx, s.owner, sc.scenario.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(dialogue.DeadEndNode))
}
