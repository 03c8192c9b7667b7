// Package fruit holds the static merge progression: every fruit type, its
// size, mass and the tier it merges into.
package fruit

import (
	_ "embed"
	"fmt"
	"iter"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed fruits.yaml
var defaultTable []byte

// Type is one entry of the merge progression. Values are immutable once the
// table is built and are copied into every fruit instance.
type Type struct {
	Tier      int     `yaml:"tier"`
	Name      string  `yaml:"name"`
	Radius    float64 `yaml:"radius"`
	Mass      float64 `yaml:"mass"`
	VisualRef string  `yaml:"visual_ref"`
	Color     string  `yaml:"color"`
}

// Reward is the score awarded when a merge produces this type. It is always
// the tier times ten and cannot be configured.
func (t Type) Reward() int {
	return t.Tier * 10
}

func (t Type) String() string {
	if t.Name == "" {
		return fmt.Sprintf("tier %d", t.Tier)
	}
	return fmt.Sprintf("%s (tier %d)", t.Name, t.Tier)
}

// Table is the ordered list of fruit types, smallest tier first.
type Table struct {
	types  []Type
	byTier map[int]int
}

type document struct {
	Fruits []Type `yaml:"fruits"`
}

// NewTable validates the given types and returns them as a table ordered by
// tier. Tiers must be unique and both radius and mass must grow strictly from
// one tier to the next.
func NewTable(types []Type) (*Table, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("fruit table is empty")
	}

	sorted := make([]Type, len(types))
	copy(sorted, types)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tier < sorted[j].Tier
	})

	t := &Table{
		types:  sorted,
		byTier: make(map[int]int, len(sorted)),
	}

	for i := range t.types {
		ft := &t.types[i]
		if ft.Radius <= 0 {
			return nil, fmt.Errorf("%s: radius must be positive, got %v", ft, ft.Radius)
		}
		if ft.Mass <= 0 {
			return nil, fmt.Errorf("%s: mass must be positive, got %v", ft, ft.Mass)
		}
		if _, dup := t.byTier[ft.Tier]; dup {
			return nil, fmt.Errorf("duplicate tier %d", ft.Tier)
		}
		t.byTier[ft.Tier] = i

		if i == 0 {
			continue
		}
		prev := t.types[i-1]
		if ft.Radius <= prev.Radius || ft.Mass <= prev.Mass {
			return nil, fmt.Errorf("%s must be larger and heavier than %s", ft, prev)
		}
	}

	return t, nil
}

// Parse decodes a YAML document with a top level "fruits" list.
func Parse(raw []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("fruit table: %w", err)
	}
	return NewTable(doc.Fruits)
}

// Default returns the built-in eleven tier table.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic("embedded fruit table is invalid: " + err.Error())
	}
	return t
}

// SuccessorOf returns the type two fruits of type ft merge into. It returns
// false for the largest tier and for types that are not part of the table.
func (t *Table) SuccessorOf(ft Type) (Type, bool) {
	idx, ok := t.byTier[ft.Tier]
	if !ok || idx+1 >= len(t.types) {
		return Type{}, false
	}
	return t.types[idx+1], true
}

// Smallest returns the first tier. New drops always use it.
func (t *Table) Smallest() Type {
	return t.types[0]
}

// Largest returns the final tier, which never merges.
func (t *Table) Largest() Type {
	return t.types[len(t.types)-1]
}

// ByTier looks up a type by its tier number.
func (t *Table) ByTier(tier int) (Type, bool) {
	idx, ok := t.byTier[tier]
	if !ok {
		return Type{}, false
	}
	return t.types[idx], true
}

func (t *Table) Len() int {
	return len(t.types)
}

// All iterates the types from smallest to largest.
func (t *Table) All() iter.Seq[Type] {
	return func(yield func(Type) bool) {
		for _, ft := range t.types {
			if !yield(ft) {
				return
			}
		}
	}
}
