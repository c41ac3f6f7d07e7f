package layout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid() *Grid {
	return New(Config{Columns: 8, Rows: 6, MaxRows: 10, Margin: 1, CellWidth: 240, CellHeight: 160})
}

func TestPlaceCollision(t *testing.T) {
	g := newTestGrid()
	a, b := uuid.New(), uuid.New()

	ca, err := g.Place(a, Cell{2, 2})
	require.NoError(t, err)
	assert.Equal(t, Cell{2, 2}, ca)

	cb, err := g.Place(b, Cell{2, 2})
	require.NoError(t, err)
	assert.Equal(t, Cell{3, 2}, cb)
	assert.Equal(t, 2, g.Len())
}

func TestPlaceTieOrder(t *testing.T) {
	g := newTestGrid()
	origin := Cell{3, 3}
	_, err := g.Place(uuid.New(), origin)
	require.NoError(t, err)

	// distance-1 neighbours come first: E, S, W, N; then diagonals SE, SW, NW, NE
	want := []Cell{{4, 3}, {3, 4}, {2, 3}, {3, 2}, {4, 4}, {2, 4}, {2, 2}, {4, 2}}
	for _, w := range want {
		c, err := g.Place(uuid.New(), origin)
		require.NoError(t, err)
		assert.Equal(t, w, c)
	}

	c, err := g.Place(uuid.New(), origin)
	require.NoError(t, err)
	assert.Equal(t, Cell{5, 3}, c)
}

func TestPlaceMovesNode(t *testing.T) {
	g := newTestGrid()
	n := uuid.New()

	_, err := g.Place(n, Cell{1, 1})
	require.NoError(t, err)
	c, err := g.Place(n, Cell{5, 4})
	require.NoError(t, err)
	assert.Equal(t, Cell{5, 4}, c)

	_, taken := g.Occupant(Cell{1, 1})
	assert.False(t, taken)
	assert.Equal(t, 1, g.Len())

	again, err := g.Place(n, Cell{5, 4})
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestReleaseFreesCell(t *testing.T) {
	g := newTestGrid()
	a := uuid.New()
	_, err := g.Place(a, Cell{0, 0})
	require.NoError(t, err)

	assert.True(t, g.Release(a))
	assert.False(t, g.Release(a))

	b := uuid.New()
	c, err := g.Place(b, Cell{0, 0})
	require.NoError(t, err)
	assert.Equal(t, Cell{0, 0}, c)
}

func TestPlaceGrowsThenExhausts(t *testing.T) {
	g := New(Config{Columns: 2, Rows: 1, MaxRows: 2})

	got := make([]Cell, 0, 4)
	for range 4 {
		c, err := g.Place(uuid.New(), Cell{0, 0})
		require.NoError(t, err)
		got = append(got, c)
	}
	assert.Equal(t, []Cell{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, got)

	_, rows := g.Size()
	assert.Equal(t, 2, rows)

	_, err := g.Place(uuid.New(), Cell{0, 0})
	assert.ErrorIs(t, err, ErrGridExhausted)
}

func TestMoveOntoTakenCell(t *testing.T) {
	g := New(Config{Columns: 1, Rows: 2, MaxRows: 2})
	a, b := uuid.New(), uuid.New()
	_, err := g.Place(a, Cell{0, 0})
	require.NoError(t, err)
	_, err = g.Place(b, Cell{0, 1})
	require.NoError(t, err)

	// moving a onto b's cell bounces it back to its own, now free, cell
	c, err := g.Place(a, Cell{0, 1})
	require.NoError(t, err)
	assert.Equal(t, Cell{0, 0}, c)
}

func TestResizeToFitIsMonotonic(t *testing.T) {
	g := newTestGrid()

	assert.True(t, g.ResizeToFit([]Cell{{10, 7}}))
	cols, rows := g.Size()
	assert.Equal(t, 12, cols)
	assert.Equal(t, 9, rows)

	assert.False(t, g.ResizeToFit([]Cell{{0, 0}}))
	cols, rows = g.Size()
	assert.Equal(t, 12, cols)
	assert.Equal(t, 9, rows)

	g.ResizeToFit([]Cell{{0, 50}})
	_, rows = g.Size()
	assert.Equal(t, 10, rows)
}

func TestLoadResolvesCollisions(t *testing.T) {
	g := newTestGrid()
	a, b := uuid.New(), uuid.New()

	moved, err := g.Load([]Placement{
		{NodeID: a, Cell: Cell{1, 1}},
		{NodeID: b, Cell: Cell{1, 1}},
	})
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, b, moved[0].NodeID)
	assert.Equal(t, Cell{2, 1}, moved[0].Cell)
}

func TestPixelConversion(t *testing.T) {
	g := newTestGrid()

	assert.Equal(t, Cell{2, 1}, g.CellAt(500, 200))
	assert.Equal(t, Cell{0, 0}, g.CellAt(-30, -1))

	x, y := g.Position(Cell{2, 1})
	assert.Equal(t, 480.0, x)
	assert.Equal(t, 160.0, y)
}
