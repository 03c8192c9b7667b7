// Package physicstest provides a scripted physics.World for tests. Bodies do
// not move on their own; tests place them and queue the contacts the next
// Step should report.
package physicstest

import (
	"iter"
	"slices"

	"github.com/plus3/fruitmerge/physics"
	"github.com/plus3/fruitmerge/store"
)

type body struct {
	spec  physics.BodySpec
	state physics.BodyState
}

// World is an in-memory physics.World.
type World struct {
	bodies map[store.FruitID]*body
	order  []store.FruitID

	pending [][2]store.FruitID
	raw     []physics.Contact

	Steps   int
	Elapsed float64
	Removed []store.FruitID
	Cleared int

	// Move, if set, is applied to every body on each step.
	Move func(state *physics.BodyState, dt float64)
}

var _ physics.World = (*World)(nil)

func New() *World {
	return &World{bodies: make(map[store.FruitID]*body)}
}

func (w *World) AddBody(spec physics.BodySpec) bool {
	if _, exists := w.bodies[spec.ID]; exists {
		return false
	}
	w.bodies[spec.ID] = &body{
		spec: spec,
		state: physics.BodyState{
			ID:              spec.ID,
			Position:        spec.Position,
			Velocity:        spec.Velocity,
			Angle:           spec.Angle,
			AngularVelocity: spec.AngularVelocity,
		},
	}
	w.order = append(w.order, spec.ID)
	return true
}

func (w *World) RemoveBody(id store.FruitID) bool {
	if _, exists := w.bodies[id]; !exists {
		return false
	}
	delete(w.bodies, id)
	w.order = slices.DeleteFunc(w.order, func(o store.FruitID) bool { return o == id })
	w.Removed = append(w.Removed, id)
	return true
}

func (w *World) SetSpin(id store.FruitID, angle, angularVelocity float64) bool {
	b, ok := w.bodies[id]
	if !ok {
		return false
	}
	b.state.Angle = angle
	b.state.AngularVelocity = angularVelocity
	return true
}

// Collide queues a contact between two bodies for the next Step. The contact
// carries the bodies' state at the time of the step.
func (w *World) Collide(a, b store.FruitID) {
	w.pending = append(w.pending, [2]store.FruitID{a, b})
}

// Report queues a contact exactly as given, for bodies the world does not
// know about such as boundaries.
func (w *World) Report(c physics.Contact) {
	w.raw = append(w.raw, c)
}

// Place overwrites a body's state.
func (w *World) Place(state physics.BodyState) {
	if b, ok := w.bodies[state.ID]; ok {
		b.state = state
	}
}

func (w *World) Step(dt float64) []physics.Contact {
	w.Steps++
	w.Elapsed += dt

	if w.Move != nil {
		for _, id := range w.order {
			w.Move(&w.bodies[id].state, dt)
		}
	}

	contacts := make([]physics.Contact, 0, len(w.pending)+len(w.raw))
	for _, pair := range w.pending {
		a, okA := w.State(pair[0])
		b, okB := w.State(pair[1])
		if !okA {
			a = physics.BodyState{ID: pair[0]}
		}
		if !okB {
			b = physics.BodyState{ID: pair[1]}
		}
		contacts = append(contacts, physics.Contact{A: a, B: b})
	}
	contacts = append(contacts, w.raw...)

	w.pending = w.pending[:0]
	w.raw = w.raw[:0]
	return contacts
}

// State returns a body's current state.
func (w *World) State(id store.FruitID) (physics.BodyState, bool) {
	b, ok := w.bodies[id]
	if !ok {
		return physics.BodyState{}, false
	}
	return b.state, true
}

// Spec returns the spec a body was created with.
func (w *World) Spec(id store.FruitID) (physics.BodySpec, bool) {
	b, ok := w.bodies[id]
	if !ok {
		return physics.BodySpec{}, false
	}
	return b.spec, true
}

func (w *World) Len() int {
	return len(w.bodies)
}

func (w *World) Bodies() iter.Seq[physics.BodyState] {
	states := make([]physics.BodyState, 0, len(w.order))
	for _, id := range w.order {
		states = append(states, w.bodies[id].state)
	}
	return slices.Values(states)
}

func (w *World) Clear() {
	clear(w.bodies)
	w.order = w.order[:0]
	w.Cleared++
}
