// Package physics keeps a rigid-body world in step with the fruit store.
// The solver itself is injected through World; the Adapter only creates and
// removes bodies, advances the world and copies body poses back.
package physics

import (
	"iter"

	"github.com/plus3/fruitmerge/store"
)

// Material holds the surface constants shared by every fruit body.
type Material struct {
	Restitution float64
	Friction    float64
	// AirFriction is the fraction of velocity lost per tick.
	AirFriction float64
}

// DefaultMaterial is a slightly bouncy, low friction surface.
var DefaultMaterial = Material{
	Restitution: 0.3,
	Friction:    0.1,
	AirFriction: 0.01,
}

// BodySpec describes a fruit body to create.
type BodySpec struct {
	ID              store.FruitID
	Position        store.Vec2
	Velocity        store.Vec2
	Radius          float64
	Mass            float64
	Angle           float64
	AngularVelocity float64
}

// BodyState is a body's pose after a step. ID is zero for boundary bodies.
type BodyState struct {
	ID              store.FruitID
	Position        store.Vec2
	Velocity        store.Vec2
	Angle           float64
	AngularVelocity float64
}

// Labeled reports whether the body belongs to a fruit.
func (b BodyState) Labeled() bool {
	return b.ID != 0
}

// Contact is a collision that started during a step, with both bodies as
// they were when it began.
type Contact struct {
	A, B BodyState
}

// World is the rigid-body solver.
type World interface {
	// AddBody creates a circular body. Adding an id twice replaces nothing and
	// is reported as false.
	AddBody(spec BodySpec) bool
	// RemoveBody deletes the body for id, reporting whether one existed.
	RemoveBody(id store.FruitID) bool
	// SetSpin overwrites a body's angle and angular velocity.
	SetSpin(id store.FruitID, angle, angularVelocity float64) bool
	// Step advances the simulation by dt seconds and returns the contacts
	// that began during the step, in the order the solver reported them.
	Step(dt float64) []Contact
	// Bodies iterates every fruit body. Boundary bodies are not included.
	Bodies() iter.Seq[BodyState]
	// Clear removes every fruit body, keeping the boundaries.
	Clear()
}
