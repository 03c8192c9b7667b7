// Package merge turns collisions between two fruits of the same tier into a
// single fruit of the next tier.
package merge

import (
	"fmt"
	"log"

	"github.com/plus3/fruitmerge/fruit"
	"github.com/plus3/fruitmerge/physics"
	"github.com/plus3/fruitmerge/store"
)

// Outcome is what a collision led to.
type Outcome int

const (
	Merged Outcome = iota
	// Unknown means one of the labels no longer resolves, usually because the
	// fruit was consumed by an earlier merge in the same step.
	Unknown
	TierMismatch
	MaxTier
	GameOver
)

var outcomeNames = [...]string{
	Merged:       "merged",
	Unknown:      "unknown",
	TierMismatch: "tier mismatch",
	MaxTier:      "max tier",
	GameOver:     "game over",
}

func (o Outcome) String() string {
	if o >= 0 && int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// BodyRemover deletes physics bodies. *physics.Adapter satisfies it.
type BodyRemover interface {
	RemoveBody(id store.FruitID) bool
}

// Fog configures the effect left at each merge point.
type Fog struct {
	// Scale multiplies the new fruit's radius.
	Scale float64
	// TTL is the lifetime in simulated seconds.
	TTL float64
}

var DefaultFog = Fog{Scale: 2, TTL: 0.5}

// Resolver applies merges to the store.
type Resolver struct {
	store  *store.Store
	table  *fruit.Table
	bodies BodyRemover
	fog    Fog
	logger *log.Logger
}

type Option func(*Resolver)

func WithFog(f Fog) Option {
	return func(r *Resolver) {
		r.fog = f
	}
}

// WithLogger logs every merge to l.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

func NewResolver(st *store.Store, table *fruit.Table, bodies BodyRemover, opts ...Option) *Resolver {
	r := &Resolver{
		store:  st,
		table:  table,
		bodies: bodies,
		fog:    DefaultFog,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleCollision implements physics.CollisionHandler.
func (r *Resolver) HandleCollision(a, b physics.BodyState) error {
	_, err := r.Resolve(a, b)
	return err
}

// Resolve checks whether a and b can merge and, if so, replaces them with
// their successor. Only store failures are returned as errors; every other
// reason not to merge is an Outcome.
func (r *Resolver) Resolve(a, b physics.BodyState) (Outcome, error) {
	if r.store.IsGameOver() {
		return GameOver, nil
	}
	if a.ID == b.ID {
		return Unknown, nil
	}

	fa, okA := r.store.Fruit(a.ID)
	fb, okB := r.store.Fruit(b.ID)
	if !okA || !okB {
		return Unknown, nil
	}

	if fa.Type.Tier != fb.Type.Tier {
		return TierMismatch, nil
	}

	next, ok := r.table.SuccessorOf(fa.Type)
	if !ok {
		return MaxTier, nil
	}

	if r.bodies != nil {
		r.bodies.RemoveBody(a.ID)
		r.bodies.RemoveBody(b.ID)
	}
	r.store.RemoveFruit(a.ID)
	r.store.RemoveFruit(b.ID)

	at := a.Position.Midpoint(b.Position)
	merged := store.Fruit{
		ID:              r.store.NewID(),
		Type:            next,
		Position:        at,
		Rotation:        a.Angle,
		AngularVelocity: (a.AngularVelocity + b.AngularVelocity) / 2,
	}
	if err := r.store.AddFruit(merged); err != nil {
		return Merged, fmt.Errorf("merge %s and %s: %w", a.ID, b.ID, err)
	}

	r.store.IncrementScore(next.Reward())
	r.store.AddFog(at, next.Radius*r.fog.Scale, r.fog.TTL)
	r.store.RecordMerge()

	if r.logger != nil {
		r.logger.Printf("merge: %s + %s -> %s %s at (%.1f, %.1f)", a.ID, b.ID, merged.ID, next.Name, at.X, at.Y)
	}
	return Merged, nil
}
