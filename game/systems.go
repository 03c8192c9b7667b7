package game

import (
	"github.com/plus3/fruitmerge/physics"
	"github.com/plus3/fruitmerge/sim"
	"github.com/plus3/fruitmerge/store"
)

// PhysicsSystem steps the world, resolves collisions and syncs poses.
type PhysicsSystem struct {
	Adapter *physics.Adapter
}

func (s *PhysicsSystem) Execute(frame *sim.Frame) error {
	return s.Adapter.Tick(frame.DeltaTime)
}

// ClockSystem advances simulated time, which expires fog effects.
type ClockSystem struct {
	Store *store.Store
}

func (s *ClockSystem) Execute(frame *sim.Frame) error {
	s.Store.Advance(frame.DeltaTime)
	return nil
}
