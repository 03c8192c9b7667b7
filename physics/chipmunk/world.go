// Package chipmunk implements physics.World on the Chipmunk2D port
// github.com/jakecoffman/cp.
package chipmunk

import (
	"iter"
	"math"
	"slices"

	"github.com/jakecoffman/cp"
	"github.com/kamstrup/intmap"
	"github.com/plus3/fruitmerge/physics"
	"github.com/plus3/fruitmerge/store"
)

const (
	fruitCollision cp.CollisionType = 1 + iota
	boundaryCollision
)

// Config sizes the container and tunes the solver.
type Config struct {
	Width, Height float64
	WallThickness float64
	Gravity       float64
	Material      physics.Material
	// TickRate is the number of steps per simulated second. It converts the
	// per-tick air friction into Chipmunk's per-second damping.
	TickRate   float64
	Iterations uint
}

// DefaultConfig is a 400x600 container with earth-like gravity in pixels.
var DefaultConfig = Config{
	Width:         400,
	Height:        600,
	WallThickness: 40,
	Gravity:       980,
	Material:      physics.DefaultMaterial,
	TickRate:      60,
	Iterations:    10,
}

type entry struct {
	body  *cp.Body
	shape *cp.Shape
}

// World is a cp.Space with a floor, two side walls and one circle per fruit.
type World struct {
	cfg      Config
	space    *cp.Space
	bodies   *intmap.Map[store.FruitID, entry]
	walls    []*cp.Shape
	contacts []physics.Contact
}

var _ physics.World = (*World)(nil)

// New builds the space and its static boundaries.
func New(cfg Config) *World {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultConfig.TickRate
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = DefaultConfig.Iterations
	}
	if cfg.WallThickness <= 0 {
		cfg.WallThickness = DefaultConfig.WallThickness
	}

	space := cp.NewSpace()
	space.Iterations = cfg.Iterations
	space.SetGravity(cp.Vector{X: 0, Y: cfg.Gravity})
	space.SetDamping(math.Pow(1-cfg.Material.AirFriction, cfg.TickRate))

	w := &World{
		cfg:    cfg,
		space:  space,
		bodies: intmap.New[store.FruitID, entry](64),
	}
	w.addBoundaries()

	handler := space.NewCollisionHandler(fruitCollision, fruitCollision)
	handler.BeginFunc = w.begin

	return w
}

func (w *World) addBoundaries() {
	t := w.cfg.WallThickness
	half := t / 2
	width, height := w.cfg.Width, w.cfg.Height

	// Segments sit just outside the play area so the inner faces line up with
	// x=0, x=width and y=height. Walls reach one container height above the
	// top so pieces dropped at y=0 cannot escape sideways.
	segments := [][2]cp.Vector{
		{{X: -t, Y: height + half}, {X: width + t, Y: height + half}},
		{{X: -half, Y: -height}, {X: -half, Y: height + t}},
		{{X: width + half, Y: -height}, {X: width + half, Y: height + t}},
	}

	static := w.space.StaticBody
	for _, seg := range segments {
		shape := cp.NewSegment(static, seg[0], seg[1], half)
		shape.SetElasticity(w.cfg.Material.Restitution)
		shape.SetFriction(w.cfg.Material.Friction)
		shape.SetCollisionType(boundaryCollision)
		w.walls = append(w.walls, w.space.AddShape(shape))
	}
}

func (w *World) begin(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
	a, b := arb.Bodies()
	w.contacts = append(w.contacts, physics.Contact{A: state(a), B: state(b)})
	return true
}

func label(body *cp.Body) store.FruitID {
	if body == nil {
		return 0
	}
	id, _ := body.UserData.(store.FruitID)
	return id
}

func state(body *cp.Body) physics.BodyState {
	pos := body.Position()
	vel := body.Velocity()
	return physics.BodyState{
		ID:              label(body),
		Position:        store.Vec2{X: pos.X, Y: pos.Y},
		Velocity:        store.Vec2{X: vel.X, Y: vel.Y},
		Angle:           body.Angle(),
		AngularVelocity: body.AngularVelocity(),
	}
}

func (w *World) AddBody(spec physics.BodySpec) bool {
	if spec.ID == 0 || w.bodies.Has(spec.ID) {
		return false
	}

	body := cp.NewBody(spec.Mass, cp.MomentForCircle(spec.Mass, 0, spec.Radius, cp.Vector{}))
	body.UserData = spec.ID
	body.SetPosition(cp.Vector{X: spec.Position.X, Y: spec.Position.Y})
	body.SetVelocity(spec.Velocity.X, spec.Velocity.Y)
	body.SetAngle(spec.Angle)
	body.SetAngularVelocity(spec.AngularVelocity)

	shape := cp.NewCircle(body, spec.Radius, cp.Vector{})
	shape.SetElasticity(w.cfg.Material.Restitution)
	shape.SetFriction(w.cfg.Material.Friction)
	shape.SetCollisionType(fruitCollision)
	shape.UserData = spec.ID

	w.space.AddBody(body)
	w.space.AddShape(shape)
	w.bodies.Put(spec.ID, entry{body: body, shape: shape})
	return true
}

func (w *World) RemoveBody(id store.FruitID) bool {
	e, ok := w.bodies.Get(id)
	if !ok {
		return false
	}
	w.space.RemoveShape(e.shape)
	w.space.RemoveBody(e.body)
	w.bodies.Del(id)
	return true
}

func (w *World) SetSpin(id store.FruitID, angle, angularVelocity float64) bool {
	e, ok := w.bodies.Get(id)
	if !ok {
		return false
	}
	e.body.SetAngle(angle)
	e.body.SetAngularVelocity(angularVelocity)
	return true
}

// Step advances the space. Contacts are collected while the space is locked
// and returned once it is safe to add and remove bodies again.
func (w *World) Step(dt float64) []physics.Contact {
	w.contacts = w.contacts[:0]
	w.space.Step(dt)
	return slices.Clone(w.contacts)
}

// Bodies iterates fruit bodies in the order the space stores them.
func (w *World) Bodies() iter.Seq[physics.BodyState] {
	states := make([]physics.BodyState, 0, w.bodies.Len())
	w.space.EachBody(func(body *cp.Body) {
		if label(body) != 0 {
			states = append(states, state(body))
		}
	})
	return slices.Values(states)
}

// Len is the number of fruit bodies.
func (w *World) Len() int {
	return w.bodies.Len()
}

func (w *World) Clear() {
	var ids []store.FruitID
	for id := range w.bodies.Keys() {
		ids = append(ids, id)
	}
	for _, id := range ids {
		w.RemoveBody(id)
	}
}

// Bounds returns the inner edges of the container.
func (w *World) Bounds() (width, height float64) {
	return w.cfg.Width, w.cfg.Height
}
