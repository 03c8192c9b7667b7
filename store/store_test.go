package store_test

import (
	"testing"

	"github.com/plus3/fruitmerge/fruit"
	"github.com/plus3/fruitmerge/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFruit(s *store.Store, tier int, x, y float64) store.Fruit {
	ft, _ := fruit.Default().ByTier(tier)
	return store.Fruit{
		ID:       s.NewID(),
		Type:     ft,
		Position: store.Vec2{X: x, Y: y},
	}
}

func recordEvents(s *store.Store) *[]store.Event {
	events := &[]store.Event{}
	s.Subscribe(func(ev store.Event) {
		*events = append(*events, ev)
	})
	return events
}

func TestAddFruit(t *testing.T) {
	s := store.New(fruit.Default().Smallest())
	events := recordEvents(s)

	f := newFruit(s, 1, 100, 50)
	require.NoError(t, s.AddFruit(f))

	got, ok := s.Fruit(f.ID)
	require.True(t, ok)
	assert.Equal(t, f, got)
	assert.Equal(t, 1, s.Len())

	require.Len(t, *events, 1)
	assert.Equal(t, store.FruitAdded, (*events)[0].Kind)
	assert.Equal(t, f.ID, (*events)[0].Fruit.ID)
}

func TestAddFruitDuplicateID(t *testing.T) {
	s := store.New(fruit.Default().Smallest())

	f := newFruit(s, 1, 0, 0)
	require.NoError(t, s.AddFruit(f))

	err := s.AddFruit(f)
	assert.ErrorIs(t, err, store.ErrDuplicateID)
	assert.Equal(t, 1, s.Len())
}

func TestAddFruitRejectsZeroID(t *testing.T) {
	s := store.New(fruit.Default().Smallest())
	err := s.AddFruit(store.Fruit{Type: fruit.Default().Smallest()})
	assert.ErrorIs(t, err, store.ErrInvalidID)
}

func TestAddFruitAfterGameOver(t *testing.T) {
	s := store.New(fruit.Default().Smallest())
	s.SetGameOver(true)

	err := s.AddFruit(newFruit(s, 1, 0, 0))
	assert.ErrorIs(t, err, store.ErrGameOver)
	assert.Equal(t, 0, s.Len())
}

func TestExternalIDsAreNotReissued(t *testing.T) {
	s := store.New(fruit.Default().Smallest())

	require.NoError(t, s.AddFruit(store.Fruit{ID: 40, Type: fruit.Default().Smallest()}))
	assert.Equal(t, store.FruitID(41), s.NewID())
}

func TestRemoveFruitIsIdempotent(t *testing.T) {
	s := store.New(fruit.Default().Smallest())
	events := recordEvents(s)

	f := newFruit(s, 2, 0, 0)
	require.NoError(t, s.AddFruit(f))

	assert.True(t, s.RemoveFruit(f.ID))
	assert.False(t, s.RemoveFruit(f.ID))
	assert.False(t, s.RemoveFruit(12345))

	_, ok := s.Fruit(f.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	removed := 0
	for _, ev := range *events {
		if ev.Kind == store.FruitRemoved {
			removed++
			assert.Equal(t, f.ID, ev.Fruit.ID)
		}
	}
	assert.Equal(t, 1, removed)
}

func TestUpdateFruit(t *testing.T) {
	s := store.New(fruit.Default().Smallest())
	f := newFruit(s, 1, 10, 10)
	require.NoError(t, s.AddFruit(f))

	pos := store.Vec2{X: 12, Y: 30}
	require.NoError(t, s.UpdateFruit(f.ID, store.FruitUpdate{Position: &pos}))

	got, _ := s.Fruit(f.ID)
	assert.Equal(t, pos, got.Position)
	assert.Zero(t, got.Rotation, "nil fields are left alone")

	require.NoError(t, s.UpdateFruit(f.ID, store.Pose(store.Vec2{X: 1, Y: 2}, store.Vec2{Y: 3}, 0.5, -0.25)))
	got, _ = s.Fruit(f.ID)
	assert.Equal(t, store.Vec2{X: 1, Y: 2}, got.Position)
	assert.Equal(t, store.Vec2{Y: 3}, got.Velocity)
	assert.Equal(t, 0.5, got.Rotation)
	assert.Equal(t, -0.25, got.AngularVelocity)
	assert.Equal(t, f.Type, got.Type, "type never changes")
}

func TestUpdateFruitNotFound(t *testing.T) {
	s := store.New(fruit.Default().Smallest())
	err := s.UpdateFruit(99, store.FruitUpdate{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReadAfterWriteInObserver(t *testing.T) {
	s := store.New(fruit.Default().Smallest())

	var seen bool
	s.Subscribe(func(ev store.Event) {
		if ev.Kind == store.FruitAdded {
			_, seen = s.Fruit(ev.Fruit.ID)
		}
	})

	require.NoError(t, s.AddFruit(newFruit(s, 1, 0, 0)))
	assert.True(t, seen, "observers see the mutation already applied")
}

func TestUnsubscribe(t *testing.T) {
	s := store.New(fruit.Default().Smallest())

	calls := 0
	unsubscribe := s.Subscribe(func(store.Event) { calls++ })

	s.IncrementScore(10)
	unsubscribe()
	unsubscribe()
	s.IncrementScore(10)

	assert.Equal(t, 1, calls)
}

func TestIncrementScore(t *testing.T) {
	s := store.New(fruit.Default().Smallest())

	s.IncrementScore(20)
	s.IncrementScore(0)
	s.IncrementScore(30)
	assert.Equal(t, 50, s.Score())

	assert.Panics(t, func() { s.IncrementScore(-1) })

	s.SetGameOver(true)
	s.IncrementScore(100)
	assert.Equal(t, 50, s.Score(), "score is frozen once the game is over")
}

func TestGameOverIsOneWay(t *testing.T) {
	s := store.New(fruit.Default().Smallest())
	events := recordEvents(s)

	assert.False(t, s.SetGameOver(false))
	assert.True(t, s.SetGameOver(true))
	assert.False(t, s.SetGameOver(true))
	assert.False(t, s.SetGameOver(false))
	assert.True(t, s.IsGameOver())

	require.Len(t, *events, 1)
	assert.Equal(t, store.GameOverChanged, (*events)[0].Kind)
}

func TestReset(t *testing.T) {
	table := fruit.Default()
	s := store.New(table.Smallest())

	for i := range 5 {
		require.NoError(t, s.AddFruit(newFruit(s, 1, float64(i*20), 100)))
	}
	lastID := s.NewID()
	s.IncrementScore(70)
	s.RecordDrop()
	s.RecordMerge()
	melon, _ := table.ByTier(10)
	s.SetNextFruit(melon)
	s.SetGameOver(true)

	events := recordEvents(s)
	s.Reset(table.Smallest())

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Score())
	assert.False(t, s.IsGameOver())
	assert.Equal(t, table.Smallest(), s.NextFruit())
	assert.Equal(t, store.Stats{}, s.Stats())
	assert.Greater(t, s.NewID(), lastID, "ids keep counting across resets")

	require.Len(t, *events, 1)
	assert.Equal(t, store.StateReset, (*events)[0].Kind)
}

func TestStats(t *testing.T) {
	s := store.New(fruit.Default().Smallest())

	require.NoError(t, s.AddFruit(newFruit(s, 1, 0, 0)))
	require.NoError(t, s.AddFruit(newFruit(s, 4, 0, 0)))
	require.NoError(t, s.AddFruit(newFruit(s, 2, 0, 0)))
	s.RecordDrop()
	s.RecordDrop()
	s.RecordMerge()

	assert.Equal(t, store.Stats{Drops: 2, Merges: 1, MaxTier: 4}, s.Stats())
}

func TestFogExpiry(t *testing.T) {
	s := store.New(fruit.Default().Smallest())
	events := recordEvents(s)

	first := s.AddFog(store.Vec2{X: 10, Y: 10}, 40, 0.5)
	s.Advance(0.25)
	second := s.AddFog(store.Vec2{X: 20, Y: 20}, 60, 0.5)
	assert.Len(t, s.Fogs(), 2)

	s.Advance(0.25)
	fogs := s.Fogs()
	require.Len(t, fogs, 1)
	assert.Equal(t, second.ID, fogs[0].ID)

	s.Advance(0.5)
	assert.Empty(t, s.Fogs())
	assert.InDelta(t, 1.0, s.Elapsed(), 1e-9)

	var expired []uint64
	for _, ev := range *events {
		if ev.Kind == store.FogExpired {
			expired = append(expired, ev.Fog.ID)
		}
	}
	assert.Equal(t, []uint64{first.ID, second.ID}, expired)
}

func TestFogSurvivesReset(t *testing.T) {
	s := store.New(fruit.Default().Smallest())
	s.AddFog(store.Vec2{}, 10, 0.5)
	s.Reset(fruit.Default().Smallest())
	assert.Len(t, s.Fogs(), 1)
}

func TestFruitsIteration(t *testing.T) {
	s := store.New(fruit.Default().Smallest())

	ids := map[store.FruitID]bool{}
	for i := range 100 {
		f := newFruit(s, 1, float64(i), 0)
		require.NoError(t, s.AddFruit(f))
		ids[f.ID] = true
	}

	seen := map[store.FruitID]bool{}
	for f := range s.Fruits() {
		assert.False(t, seen[f.ID], "no id is yielded twice")
		seen[f.ID] = true
	}
	assert.Equal(t, ids, seen)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "FruitAdded", store.FruitAdded.String())
	assert.Equal(t, "FogExpired", store.FogExpired.String())
	assert.Equal(t, "EventKind(200)", store.EventKind(200).String())
}
