package drop_test

import (
	"math/rand/v2"
	"testing"

	"github.com/plus3/fruitmerge/drop"
	"github.com/plus3/fruitmerge/fruit"
	"github.com/plus3/fruitmerge/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(width float64) (*store.Store, *drop.Controller) {
	st := store.New(fruit.Default().Smallest())
	return st, drop.New(st, fruit.Default(), width, rand.New(rand.NewPCG(3, 4)))
}

func TestDropSpawnsQueuedFruit(t *testing.T) {
	st, c := newController(400)

	id, ok, err := c.Drop(150)
	require.NoError(t, err)
	require.True(t, ok)

	f, found := st.Fruit(id)
	require.True(t, found)
	r := fruit.Default().Smallest().Radius
	assert.Equal(t, store.Vec2{X: 150, Y: r}, f.Position)
	assert.Zero(t, f.Rotation)
	assert.LessOrEqual(t, f.AngularVelocity, drop.DefaultMaxSpin)
	assert.GreaterOrEqual(t, f.AngularVelocity, -drop.DefaultMaxSpin)
	assert.Equal(t, 1, st.Stats().Drops)
}

func TestDropUsesAndRequeuesNextFruit(t *testing.T) {
	st, c := newController(400)
	grape, _ := fruit.Default().ByTier(3)
	st.SetNextFruit(grape)

	id, _, err := c.Drop(200)
	require.NoError(t, err)

	f, _ := st.Fruit(id)
	assert.Equal(t, grape, f.Type)
	assert.Equal(t, fruit.Default().Smallest(), st.NextFruit())
}

func TestDropClampsToPlayArea(t *testing.T) {
	tests := []struct {
		name  string
		width float64
		x     float64
		want  func(r, width float64) float64
	}{
		{"beyond right wall", 400, 10_000, func(r, w float64) float64 { return w - r }},
		{"beyond left wall", 400, -50, func(r, w float64) float64 { return r }},
		{"inside", 400, 200, func(r, w float64) float64 { return 200 }},
		{"narrower than fruit", 10, 3, func(r, w float64) float64 { return w / 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, c := newController(tt.width)

			id, ok, err := c.Drop(tt.x)
			require.NoError(t, err)
			require.True(t, ok)

			f, _ := st.Fruit(id)
			assert.Equal(t, tt.want(f.Type.Radius, tt.width), f.Position.X)
		})
	}
}

func TestDropAfterGameOverIsNoop(t *testing.T) {
	st, c := newController(400)
	st.SetGameOver(true)

	id, ok, err := c.Drop(100)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, id)
	assert.Zero(t, st.Len())
	assert.Zero(t, st.Stats().Drops)
}

func TestDropsGetDistinctIDs(t *testing.T) {
	st, c := newController(400)

	seen := make(map[store.FruitID]bool)
	for i := range 20 {
		id, ok, err := c.Drop(float64(i * 20))
		require.NoError(t, err)
		require.True(t, ok)
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Equal(t, 20, st.Len())
}
