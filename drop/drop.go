// Package drop spawns the queued fruit where the player releases it.
package drop

import (
	"fmt"
	"math/rand/v2"

	"github.com/plus3/fruitmerge/fruit"
	"github.com/plus3/fruitmerge/store"
)

// DefaultMaxSpin bounds the random angular velocity of a dropped fruit, in
// radians per second.
const DefaultMaxSpin = 0.3

// Controller handles drop requests for one play area.
type Controller struct {
	store *store.Store
	table *fruit.Table
	rng   *rand.Rand

	// Width of the play area. Drops are clamped so the fruit fits inside it.
	Width   float64
	MaxSpin float64
}

func New(st *store.Store, table *fruit.Table, width float64, rng *rand.Rand) *Controller {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Controller{
		store:   st,
		table:   table,
		rng:     rng,
		Width:   width,
		MaxSpin: DefaultMaxSpin,
	}
}

// Clamp returns the x a fruit of radius r would actually be dropped at.
func (c *Controller) Clamp(x, r float64) float64 {
	if c.Width < 2*r {
		return c.Width / 2
	}
	return min(max(x, r), c.Width-r)
}

// Drop spawns the queued fruit at x with its top edge on the top of the play
// area. It does nothing and returns false once the game is over.
func (c *Controller) Drop(x float64) (store.FruitID, bool, error) {
	if c.store.IsGameOver() {
		return 0, false, nil
	}

	t := c.store.NextFruit()
	f := store.Fruit{
		ID:              c.store.NewID(),
		Type:            t,
		Position:        store.Vec2{X: c.Clamp(x, t.Radius), Y: t.Radius},
		AngularVelocity: (c.rng.Float64()*2 - 1) * c.MaxSpin,
	}
	if err := c.store.AddFruit(f); err != nil {
		return 0, false, fmt.Errorf("drop at %.1f: %w", x, err)
	}

	c.store.RecordDrop()
	c.store.SetNextFruit(c.table.Smallest())
	return f.ID, true, nil
}
