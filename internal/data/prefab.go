package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/simcore/internal/core/entity"
)

var (
	ErrUnknownKind   = errors.New("unknown component kind")
	ErrDuplicateKind = errors.New("duplicate component kind")
	ErrDuplicateName = errors.New("duplicate prefab name")
)

// ComponentEntry is one component of a prefab. Params stay undecoded until
// the world knows which parameter struct the kind takes.
type ComponentEntry struct {
	Kind   string    `yaml:"kind"`
	Params yaml.Node `yaml:"params"`
}

// Decode unmarshals the entry's params into v. Missing params leave v as is.
func (c *ComponentEntry) Decode(v any) error {
	if c.Params.Kind == 0 {
		return nil
	}
	if err := c.Params.Decode(v); err != nil {
		return fmt.Errorf("decode %s params: %w", c.Kind, err)
	}
	return nil
}

// PrefabEntry describes one entity to spawn at world start.
type PrefabEntry struct {
	Name       string           `yaml:"name"`
	Position   [3]float64       `yaml:"position"`
	Yaw        float64          `yaml:"yaw"` // degrees about +Y
	Components []ComponentEntry `yaml:"components"`
	Inventory  []string         `yaml:"inventory"` // item prefab names added after spawn
	Equip      string           `yaml:"equip"`     // item moved into the first equip slot
}

// PrefabTable keeps prefabs in file order; spawn order matters because the
// manager updates entities in insertion order.
type PrefabTable struct {
	entries []*PrefabEntry
	byName  map[string]*PrefabEntry
}

// LoadPrefabTable loads prefab_list.yaml.
func LoadPrefabTable(path string) (*PrefabTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefab list: %w", err)
	}
	return ParsePrefabTable(raw)
}

func ParsePrefabTable(raw []byte) (*PrefabTable, error) {
	var entries []PrefabEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse prefab list: %w", err)
	}
	t := &PrefabTable{
		entries: make([]*PrefabEntry, 0, len(entries)),
		byName:  make(map[string]*PrefabEntry, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		if err := validatePrefab(e); err != nil {
			return nil, fmt.Errorf("prefab %d (%q): %w", i, e.Name, err)
		}
		if e.Name != "" {
			if _, dup := t.byName[e.Name]; dup {
				return nil, fmt.Errorf("prefab %d: %w: %q", i, ErrDuplicateName, e.Name)
			}
			t.byName[e.Name] = e
		}
		t.entries = append(t.entries, e)
	}
	return t, nil
}

func validatePrefab(e *PrefabEntry) error {
	seen := make(map[entity.Kind]bool, len(e.Components))
	for _, c := range e.Components {
		k, ok := entity.ParseKind(c.Kind)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
		}
		if seen[k] {
			return fmt.Errorf("%w: %s", ErrDuplicateKind, k)
		}
		seen[k] = true
	}
	return nil
}

// Get returns the named prefab, or nil.
func (t *PrefabTable) Get(name string) *PrefabEntry {
	return t.byName[name]
}

// All returns the prefabs in file order.
func (t *PrefabTable) All() []*PrefabEntry {
	return t.entries
}

// Count returns the total number of prefabs loaded.
func (t *PrefabTable) Count() int {
	return len(t.entries)
}
