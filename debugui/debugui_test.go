package debugui

import (
	"testing"
	"time"

	"github.com/plus3/fruitmerge/fruit"
	"github.com/plus3/fruitmerge/game"
	"github.com/plus3/fruitmerge/sim"
	"github.com/plus3/fruitmerge/store"
)

func TestTierCounts(t *testing.T) {
	table := fruit.Default()
	cherry := table.Smallest()
	grape, _ := table.ByTier(3)

	snap := game.Snapshot{Fruits: []store.Fruit{
		{ID: 1, Type: cherry},
		{ID: 2, Type: grape},
		{ID: 3, Type: cherry},
	}}

	rows := TierCounts(table, snap)
	if len(rows) != table.Len() {
		t.Fatalf("expected %d rows, got %d", table.Len(), len(rows))
	}
	if rows[0].Count != 2 {
		t.Errorf("expected 2 cherries, got %d", rows[0].Count)
	}
	if rows[2].Count != 1 {
		t.Errorf("expected 1 grape, got %d", rows[2].Count)
	}
	if rows[1].Count != 0 {
		t.Errorf("expected no strawberries, got %d", rows[1].Count)
	}
}

func TestSortSystems(t *testing.T) {
	systems := []sim.SystemStats{
		{Name: "b", AvgDuration: 3 * time.Millisecond, MaxDuration: time.Millisecond},
		{Name: "a", AvgDuration: 1 * time.Millisecond, MaxDuration: 5 * time.Millisecond},
		{Name: "c", AvgDuration: 2 * time.Millisecond, MaxDuration: 2 * time.Millisecond},
	}

	SortSystems(systems, 0, false)
	if systems[0].Name != "a" || systems[2].Name != "c" {
		t.Errorf("name ascending: got %s %s %s", systems[0].Name, systems[1].Name, systems[2].Name)
	}

	SortSystems(systems, 1, true)
	if systems[0].Name != "b" || systems[2].Name != "a" {
		t.Errorf("avg descending: got %s %s %s", systems[0].Name, systems[1].Name, systems[2].Name)
	}

	SortSystems(systems, 3, false)
	if systems[0].Name != "b" || systems[2].Name != "a" {
		t.Errorf("max ascending: got %s %s %s", systems[0].Name, systems[1].Name, systems[2].Name)
	}
}

func TestFrameHistory(t *testing.T) {
	h := NewFrameHistory(3)
	if h.Average() != 0 {
		t.Errorf("expected 0 before any samples, got %f", h.Average())
	}

	h.Add(10)
	h.Add(20)
	if got := h.Average(); got != 15 {
		t.Errorf("expected 15, got %f", got)
	}

	h.Add(30)
	h.Add(40)
	if got := h.Average(); got != 30 {
		t.Errorf("expected oldest sample to be overwritten, got %f", got)
	}
}
