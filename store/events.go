package store

import (
	"strconv"

	"github.com/plus3/fruitmerge/fruit"
)

// EventKind names the mutation an Event reports.
type EventKind uint8

const (
	FruitAdded EventKind = iota + 1
	FruitRemoved
	FruitUpdated
	ScoreChanged
	NextFruitChanged
	GameOverChanged
	StateReset
	FogAdded
	FogExpired
)

var eventNames = [...]string{
	FruitAdded:       "FruitAdded",
	FruitRemoved:     "FruitRemoved",
	FruitUpdated:     "FruitUpdated",
	ScoreChanged:     "ScoreChanged",
	NextFruitChanged: "NextFruitChanged",
	GameOverChanged:  "GameOverChanged",
	StateReset:       "StateReset",
	FogAdded:         "FogAdded",
	FogExpired:       "FogExpired",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) && eventNames[k] != "" {
		return eventNames[k]
	}
	return "EventKind(" + strconv.Itoa(int(k)) + ")"
}

// Event describes one store mutation. Only the fields relevant to Kind are
// set: Fruit for the fruit events, Fog for the fog events, Score, Next and
// GameOver for their setters. StateReset carries the new Next.
type Event struct {
	Kind     EventKind
	Fruit    Fruit
	Fog      FogEffect
	Score    int
	Next     fruit.Type
	GameOver bool
}

// Observer receives events synchronously, before the mutating call returns.
type Observer func(Event)
