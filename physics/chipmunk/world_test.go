package chipmunk_test

import (
	"testing"

	"github.com/plus3/fruitmerge/physics"
	"github.com/plus3/fruitmerge/physics/chipmunk"
	"github.com/plus3/fruitmerge/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 60

func body(id store.FruitID, x, y, r float64) physics.BodySpec {
	return physics.BodySpec{ID: id, Position: store.Vec2{X: x, Y: y}, Radius: r, Mass: r * r / 100}
}

func stateOf(t *testing.T, w *chipmunk.World, id store.FruitID) physics.BodyState {
	t.Helper()
	for s := range w.Bodies() {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("no body for %s", id)
	return physics.BodyState{}
}

func TestFruitComesToRestOnFloor(t *testing.T) {
	w := chipmunk.New(chipmunk.DefaultConfig)
	require.True(t, w.AddBody(body(1, 200, 50, 12)))

	for range 600 {
		w.Step(dt)
	}

	s := stateOf(t, w, 1)
	_, height := w.Bounds()
	assert.InDelta(t, height-12, s.Position.Y, 1.5)
	assert.InDelta(t, 200, s.Position.X, 1)
	assert.InDelta(t, 0, s.Velocity.Y, 5)
}

func TestWallsKeepFruitInside(t *testing.T) {
	w := chipmunk.New(chipmunk.DefaultConfig)
	spec := body(1, 380, 300, 16)
	spec.Velocity = store.Vec2{X: 800}
	require.True(t, w.AddBody(spec))

	for range 300 {
		w.Step(dt)
	}

	width, _ := w.Bounds()
	s := stateOf(t, w, 1)
	assert.LessOrEqual(t, s.Position.X, width-16+1.5)
	assert.GreaterOrEqual(t, s.Position.X, 16-1.5)
}

func TestOverlappingFruitsReportContact(t *testing.T) {
	w := chipmunk.New(chipmunk.DefaultConfig)
	require.True(t, w.AddBody(body(1, 100, 300, 10)))
	require.True(t, w.AddBody(body(2, 115, 300, 10)))

	contacts := w.Step(dt)
	require.Len(t, contacts, 1)

	ids := []store.FruitID{contacts[0].A.ID, contacts[0].B.ID}
	assert.ElementsMatch(t, []store.FruitID{1, 2}, ids)

	assert.Empty(t, w.Step(dt), "begin is reported once per touch")
}

func TestFloorContactsAreNotReported(t *testing.T) {
	w := chipmunk.New(chipmunk.DefaultConfig)
	require.True(t, w.AddBody(body(1, 200, 585, 12)))

	for range 30 {
		assert.Empty(t, w.Step(dt))
	}
}

func TestAddRemoveBody(t *testing.T) {
	w := chipmunk.New(chipmunk.DefaultConfig)

	assert.True(t, w.AddBody(body(7, 50, 50, 10)))
	assert.False(t, w.AddBody(body(7, 60, 60, 10)), "duplicate id")
	assert.False(t, w.AddBody(body(0, 60, 60, 10)), "unlabeled body")
	assert.Equal(t, 1, w.Len())

	assert.True(t, w.SetSpin(7, 0.5, 2))
	s := stateOf(t, w, 7)
	assert.InDelta(t, 0.5, s.Angle, 1e-9)
	assert.InDelta(t, 2, s.AngularVelocity, 1e-9)

	assert.True(t, w.RemoveBody(7))
	assert.False(t, w.RemoveBody(7))
	assert.False(t, w.SetSpin(7, 0, 0))
	assert.Equal(t, 0, w.Len())
}

func TestClearKeepsBoundaries(t *testing.T) {
	w := chipmunk.New(chipmunk.DefaultConfig)
	for id := range store.FruitID(5) {
		w.AddBody(body(id+1, 40+float64(id)*60, 100, 10))
	}
	w.Clear()
	assert.Equal(t, 0, w.Len())

	require.True(t, w.AddBody(body(10, 200, 50, 12)))
	for range 600 {
		w.Step(dt)
	}
	_, height := w.Bounds()
	assert.InDelta(t, height-12, stateOf(t, w, 10).Position.Y, 1.5, "floor still there")
}

func TestBodiesOnlyYieldsFruits(t *testing.T) {
	w := chipmunk.New(chipmunk.DefaultConfig)
	w.AddBody(body(1, 100, 100, 10))
	w.AddBody(body(2, 200, 100, 10))

	var ids []store.FruitID
	for s := range w.Bodies() {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []store.FruitID{1, 2}, ids)
}
