package physics

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/kamstrup/intmap"
	"github.com/plus3/fruitmerge/store"
)

// CollisionHandler is told about every collision that starts between two
// fruit bodies. It decides what, if anything, happens; the Adapter never
// merges on its own.
type CollisionHandler interface {
	HandleCollision(a, b BodyState) error
}

// CollisionHandlerFunc adapts a function to CollisionHandler.
type CollisionHandlerFunc func(a, b BodyState) error

func (f CollisionHandlerFunc) HandleCollision(a, b BodyState) error {
	return f(a, b)
}

// Nudge bounds the random spin given to bodies created perfectly still, so
// stacks of identical fruit do not come to rest in lockstep.
type Nudge struct {
	MaxAngle           float64
	MaxAngularVelocity float64
}

var DefaultNudge = Nudge{
	MaxAngle:           0.1,
	MaxAngularVelocity: 0.5,
}

// Adapter mirrors the store's fruits into a World. The store is the source
// of truth: bodies are created and removed to match it, and the only thing
// flowing back is each body's pose after a step.
type Adapter struct {
	world   World
	store   *store.Store
	handler CollisionHandler
	nudge   Nudge
	rng     *rand.Rand

	bodies *intmap.Set[store.FruitID]
	fresh  []store.FruitID

	unsubscribe func()
	closed      bool
}

type Option func(*Adapter)

// WithNudge overrides DefaultNudge.
func WithNudge(n Nudge) Option {
	return func(a *Adapter) {
		a.nudge = n
	}
}

// WithRand sets the random source used for nudges.
func WithRand(rng *rand.Rand) Option {
	return func(a *Adapter) {
		a.rng = rng
	}
}

// NewAdapter creates an adapter for world and st. Call Attach before the
// first Tick.
func NewAdapter(world World, st *store.Store, opts ...Option) *Adapter {
	if world == nil {
		panic("physics: nil world")
	}

	a := &Adapter{
		world:  world,
		store:  st,
		nudge:  DefaultNudge,
		bodies: intmap.NewSet[store.FruitID](64),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		a.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return a
}

// SetCollisionHandler sets the receiver of collision notifications.
func (a *Adapter) SetCollisionHandler(h CollisionHandler) {
	a.handler = h
}

// Attach subscribes to the store and creates bodies for fruits that already
// exist.
func (a *Adapter) Attach() {
	if a.unsubscribe != nil || a.closed {
		return
	}
	a.unsubscribe = a.store.Subscribe(a.observe)
	a.Sync()
}

func (a *Adapter) observe(ev store.Event) {
	switch ev.Kind {
	case store.FruitAdded:
		a.embody(ev.Fruit)
	case store.FruitRemoved:
		a.RemoveBody(ev.Fruit.ID)
	case store.StateReset:
		a.clearBodies()
	}
}

func (a *Adapter) embody(f store.Fruit) {
	if a.closed || a.bodies.Has(f.ID) {
		return
	}

	a.world.AddBody(BodySpec{
		ID:              f.ID,
		Position:        f.Position,
		Velocity:        f.Velocity,
		Radius:          f.Type.Radius,
		Mass:            f.Type.Mass,
		Angle:           f.Rotation,
		AngularVelocity: f.AngularVelocity,
	})
	a.bodies.Add(f.ID)

	if f.Rotation == 0 && f.AngularVelocity == 0 {
		a.fresh = append(a.fresh, f.ID)
	}
}

// HasBody reports whether a body exists for id.
func (a *Adapter) HasBody(id store.FruitID) bool {
	return a.bodies.Has(id)
}

// BodyCount is the number of fruit bodies in the world.
func (a *Adapter) BodyCount() int {
	return a.bodies.Len()
}

// RemoveBody deletes the body for id. It is safe to call for ids that have
// no body.
func (a *Adapter) RemoveBody(id store.FruitID) bool {
	if !a.bodies.Del(id) {
		return false
	}
	a.world.RemoveBody(id)
	return true
}

func (a *Adapter) clearBodies() {
	a.world.Clear()
	a.bodies.Clear()
	a.fresh = a.fresh[:0]
}

// Sync makes the set of bodies match the store: missing bodies are created
// and bodies without a fruit are removed.
func (a *Adapter) Sync() {
	if a.closed {
		return
	}

	for f := range a.store.Fruits() {
		a.embody(f)
	}

	var stale []store.FruitID
	for id := range a.bodies.All() {
		if _, ok := a.store.Fruit(id); !ok {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		a.RemoveBody(id)
	}
}

// Tick advances the world by dt seconds, passes collisions to the handler in
// the order the solver reported them and copies every body's pose back into
// the store. Errors from the handler or the store abort the tick.
func (a *Adapter) Tick(dt float64) error {
	if a.closed {
		return nil
	}

	a.Sync()
	contacts := a.world.Step(dt)
	a.applyNudges()

	for _, c := range contacts {
		if !c.A.Labeled() || !c.B.Labeled() || a.handler == nil {
			continue
		}
		if err := a.handler.HandleCollision(c.A, c.B); err != nil {
			return fmt.Errorf("collision %s/%s: %w", c.A.ID, c.B.ID, err)
		}
		if a.closed {
			return nil
		}
	}

	return a.readback()
}

func (a *Adapter) applyNudges() {
	for _, id := range a.fresh {
		if !a.bodies.Has(id) {
			continue
		}
		angle := (a.rng.Float64()*2 - 1) * a.nudge.MaxAngle
		spin := (a.rng.Float64()*2 - 1) * a.nudge.MaxAngularVelocity
		a.world.SetSpin(id, angle, spin)
	}
	a.fresh = a.fresh[:0]
}

func (a *Adapter) readback() error {
	var orphans []store.FruitID

	for body := range a.world.Bodies() {
		if !body.Labeled() {
			continue
		}
		err := a.store.UpdateFruit(body.ID, store.Pose(body.Position, body.Velocity, body.Angle, body.AngularVelocity))
		if errors.Is(err, store.ErrNotFound) {
			orphans = append(orphans, body.ID)
			continue
		}
		if err != nil {
			return err
		}
	}

	for _, id := range orphans {
		if !a.RemoveBody(id) {
			a.world.RemoveBody(id)
		}
	}
	return nil
}

// Close detaches from the store and removes every body. Later ticks do
// nothing. Calling Close again is a no-op.
func (a *Adapter) Close() {
	if a.closed {
		return
	}
	a.closed = true
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.clearBodies()
}
