// Package store is the authoritative game state: live fruits, score, the
// queued next fruit and the game-over flag. Every mutation is pushed to
// subscribers synchronously, so a caller can read its own writes and so can
// every observer.
package store

import (
	"fmt"
	"iter"
	"strconv"

	"github.com/kamstrup/intmap"
	"github.com/plus3/fruitmerge/fruit"
)

// FruitID identifies a fruit instance. Ids are never reused within a store.
// The zero id is never issued and marks bodies without a fruit.
type FruitID uint64

func (id FruitID) String() string {
	return "fruit-" + strconv.FormatUint(uint64(id), 10)
}

// Vec2 is a point or velocity in play area coordinates, y pointing down.
type Vec2 struct {
	X, Y float64
}

// Midpoint returns the point halfway between v and o.
func (v Vec2) Midpoint(o Vec2) Vec2 {
	return Vec2{X: (v.X + o.X) / 2, Y: (v.Y + o.Y) / 2}
}

// Fruit is a live piece in the container.
type Fruit struct {
	ID              FruitID
	Type            fruit.Type
	Position        Vec2
	Velocity        Vec2
	Rotation        float64
	AngularVelocity float64
}

// Top is the y coordinate of the fruit's upper edge.
func (f Fruit) Top() float64 {
	return f.Position.Y - f.Type.Radius
}

// FruitUpdate carries the pose fields to overwrite. Nil fields are left alone.
type FruitUpdate struct {
	Position        *Vec2
	Velocity        *Vec2
	Rotation        *float64
	AngularVelocity *float64
}

// Pose builds an update that overwrites every kinematic field.
func Pose(position, velocity Vec2, rotation, angularVelocity float64) FruitUpdate {
	return FruitUpdate{
		Position:        &position,
		Velocity:        &velocity,
		Rotation:        &rotation,
		AngularVelocity: &angularVelocity,
	}
}

// FogEffect marks a merge point for the renderer. It is not simulated.
type FogEffect struct {
	ID        uint64
	Position  Vec2
	Size      float64
	ExpiresAt float64
}

// Stats are per-game counters shown to the player.
type Stats struct {
	Drops   int
	Merges  int
	MaxTier int
}

// Store owns the game state.
type Store struct {
	fruits   pool[Fruit]
	index    *intmap.Map[FruitID, int]
	lastID   FruitID
	score    int
	next     fruit.Type
	gameOver bool
	stats    Stats

	fogs    []FogEffect
	lastFog uint64
	elapsed float64

	observers []*subscription
}

type subscription struct {
	fn     Observer
	active bool
}

// New creates an empty store that will drop next first.
func New(next fruit.Type) *Store {
	return &Store{
		index: intmap.New[FruitID, int](64),
		next:  next,
	}
}

// Subscribe registers an observer for every later mutation. The returned
// function removes it again.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	sub := &subscription{fn: fn, active: true}
	s.observers = append(s.observers, sub)

	return func() {
		if !sub.active {
			return
		}
		sub.active = false

		remaining := make([]*subscription, 0, len(s.observers))
		for _, o := range s.observers {
			if o != sub {
				remaining = append(remaining, o)
			}
		}
		s.observers = remaining
	}
}

func (s *Store) emit(ev Event) {
	for _, o := range s.observers {
		if o.active {
			o.fn(ev)
		}
	}
}

// NewID allocates a fruit id that has never been handed out by this store.
func (s *Store) NewID() FruitID {
	s.lastID++
	return s.lastID
}

// AddFruit inserts f.
func (s *Store) AddFruit(f Fruit) error {
	if f.ID == 0 {
		return ErrInvalidID
	}
	if s.gameOver {
		return fmt.Errorf("add %s: %w", f.ID, ErrGameOver)
	}
	if _, exists := s.index.Get(f.ID); exists {
		return fmt.Errorf("add %s: %w", f.ID, ErrDuplicateID)
	}

	// Externally chosen ids must not be handed out again later.
	if f.ID > s.lastID {
		s.lastID = f.ID
	}

	s.index.Put(f.ID, s.fruits.Append(f))
	if f.Type.Tier > s.stats.MaxTier {
		s.stats.MaxTier = f.Type.Tier
	}

	s.emit(Event{Kind: FruitAdded, Fruit: f})
	return nil
}

// RemoveFruit deletes a fruit. Removing an absent id is a no-op and returns
// false.
func (s *Store) RemoveFruit(id FruitID) bool {
	slot, ok := s.index.Get(id)
	if !ok {
		return false
	}

	removed := *s.fruits.Get(slot)
	s.fruits.Delete(slot)
	s.index.Del(id)

	s.emit(Event{Kind: FruitRemoved, Fruit: removed})
	return true
}

// UpdateFruit overwrites the non-nil fields of u on an existing fruit.
func (s *Store) UpdateFruit(id FruitID, u FruitUpdate) error {
	slot, ok := s.index.Get(id)
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}

	f := s.fruits.Get(slot)
	if u.Position != nil {
		f.Position = *u.Position
	}
	if u.Velocity != nil {
		f.Velocity = *u.Velocity
	}
	if u.Rotation != nil {
		f.Rotation = *u.Rotation
	}
	if u.AngularVelocity != nil {
		f.AngularVelocity = *u.AngularVelocity
	}

	s.emit(Event{Kind: FruitUpdated, Fruit: *f})
	return nil
}

// Fruit returns a copy of the fruit with the given id.
func (s *Store) Fruit(id FruitID) (Fruit, bool) {
	slot, ok := s.index.Get(id)
	if !ok {
		return Fruit{}, false
	}
	return *s.fruits.Get(slot), true
}

// Fruits iterates copies of the live fruits.
func (s *Store) Fruits() iter.Seq[Fruit] {
	return func(yield func(Fruit) bool) {
		for slot := range s.fruits.Iter() {
			if !yield(*s.fruits.Get(slot)) {
				return
			}
		}
	}
}

// Len is the number of live fruits.
func (s *Store) Len() int {
	return s.fruits.Len()
}

// IncrementScore adds delta to the score. It does nothing once the game is
// over and panics on a negative delta.
func (s *Store) IncrementScore(delta int) {
	if delta < 0 {
		panic("store: negative score delta " + strconv.Itoa(delta))
	}
	if s.gameOver || delta == 0 {
		return
	}
	s.score += delta
	s.emit(Event{Kind: ScoreChanged, Score: s.score})
}

func (s *Store) Score() int {
	return s.score
}

// SetNextFruit queues the type of the next drop.
func (s *Store) SetNextFruit(t fruit.Type) {
	s.next = t
	s.emit(Event{Kind: NextFruitChanged, Next: t})
}

func (s *Store) NextFruit() fruit.Type {
	return s.next
}

// SetGameOver ends the game. The flag is one-way: passing false never clears
// a finished game, only Reset does. It reports whether the flag changed.
func (s *Store) SetGameOver(over bool) bool {
	if !over || s.gameOver {
		return false
	}
	s.gameOver = true
	s.emit(Event{Kind: GameOverChanged, GameOver: true})
	return true
}

func (s *Store) IsGameOver() bool {
	return s.gameOver
}

// RecordDrop counts a player drop.
func (s *Store) RecordDrop() {
	s.stats.Drops++
}

// RecordMerge counts a completed merge.
func (s *Store) RecordMerge() {
	s.stats.Merges++
}

func (s *Store) Stats() Stats {
	return s.stats
}

// Reset starts a new game: no fruits, zero score, game over cleared and next
// queued. Fruit ids keep counting so old ids are never reissued. Fog effects
// are left to expire on their own.
func (s *Store) Reset(next fruit.Type) {
	s.fruits.Reset()
	s.index.Clear()
	s.score = 0
	s.gameOver = false
	s.next = next
	s.stats = Stats{}

	s.emit(Event{Kind: StateReset, Next: next})
}

// AddFog places a fog effect that expires ttl simulated seconds from now.
func (s *Store) AddFog(position Vec2, size, ttl float64) FogEffect {
	s.lastFog++
	fog := FogEffect{
		ID:        s.lastFog,
		Position:  position,
		Size:      size,
		ExpiresAt: s.elapsed + ttl,
	}
	s.fogs = append(s.fogs, fog)
	s.emit(Event{Kind: FogAdded, Fog: fog})
	return fog
}

// Advance moves the simulated clock forward and expires due fog effects.
func (s *Store) Advance(dt float64) {
	s.elapsed += dt

	kept := s.fogs[:0]
	var expired []FogEffect
	for _, fog := range s.fogs {
		if fog.ExpiresAt <= s.elapsed {
			expired = append(expired, fog)
			continue
		}
		kept = append(kept, fog)
	}
	s.fogs = kept

	for _, fog := range expired {
		s.emit(Event{Kind: FogExpired, Fog: fog})
	}
}

// Elapsed is the total simulated time in seconds.
func (s *Store) Elapsed() float64 {
	return s.elapsed
}

// Fogs returns a copy of the active fog effects.
func (s *Store) Fogs() []FogEffect {
	out := make([]FogEffect, len(s.fogs))
	copy(out, s.fogs)
	return out
}
