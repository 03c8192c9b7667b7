// Package gameover ends the game once a fruit comes to rest poking above the
// ceiling line.
package gameover

import (
	"math"

	"github.com/kamstrup/intmap"
	"github.com/plus3/fruitmerge/store"
)

// Config controls detection. A fruit is settled once its speed has stayed at
// or below SettleSpeed for SettleTicks consecutive updates.
type Config struct {
	Enabled     bool    `yaml:"enabled"`
	Ceiling     float64 `yaml:"ceiling"`
	SettleSpeed float64 `yaml:"settle_speed"`
	SettleTicks int     `yaml:"settle_ticks"`
}

var DefaultConfig = Config{
	Enabled:     true,
	Ceiling:     0,
	SettleSpeed: 4,
	SettleTicks: 30,
}

// Detector watches fruit updates on a store.
type Detector struct {
	cfg   Config
	store *store.Store
	rest  *intmap.Map[store.FruitID, int]

	unsubscribe func()
}

func New(st *store.Store, cfg Config) *Detector {
	return &Detector{
		cfg:   cfg,
		store: st,
		rest:  intmap.New[store.FruitID, int](64),
	}
}

// Attach starts observing the store. It returns the detector for chaining.
func (d *Detector) Attach() *Detector {
	if d.unsubscribe == nil {
		d.unsubscribe = d.store.Subscribe(d.observe)
	}
	return d
}

// Detach stops observing the store and forgets every rest counter.
func (d *Detector) Detach() {
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	d.rest.Clear()
}

func (d *Detector) observe(ev store.Event) {
	switch ev.Kind {
	case store.FruitUpdated:
		d.Evaluate(ev.Fruit)
	case store.FruitRemoved:
		d.rest.Del(ev.Fruit.ID)
	case store.StateReset:
		d.rest.Clear()
	}
}

// Evaluate updates f's rest counter and flags game over when f is settled
// above the ceiling. It reports whether this call ended the game.
func (d *Detector) Evaluate(f store.Fruit) bool {
	if !d.cfg.Enabled || d.store.IsGameOver() {
		return false
	}

	rest, _ := d.rest.Get(f.ID)
	if math.Hypot(f.Velocity.X, f.Velocity.Y) <= d.cfg.SettleSpeed {
		rest++
	} else {
		rest = 0
	}
	d.rest.Put(f.ID, rest)

	if rest < d.cfg.SettleTicks || f.Top() > d.cfg.Ceiling {
		return false
	}
	return d.store.SetGameOver(true)
}

// Resting returns how many consecutive updates id has been slow for.
func (d *Detector) Resting(id store.FruitID) int {
	n, _ := d.rest.Get(id)
	return n
}
