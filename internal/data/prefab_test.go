package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePrefabs = `
- name: sword
  components:
    - kind: inventory_item
      params:
        damage: 1.5
- name: player
  position: [1, 0, -2]
  yaw: 90
  inventory: [sword]
  equip: sword
  components:
    - kind: spatial_grid
    - kind: health
      params:
        health: 50
        strength: 3
- components:
    - kind: level_up_effect
      params:
        lifetime: 500ms
`

func TestParsePrefabTable(t *testing.T) {
	tbl, err := ParsePrefabTable([]byte(samplePrefabs))
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Count())

	all := tbl.All()
	assert.Equal(t, "sword", all[0].Name)
	assert.Equal(t, "player", all[1].Name)
	assert.Empty(t, all[2].Name, "unnamed prefabs are kept")

	p := tbl.Get("player")
	require.NotNil(t, p)
	assert.Equal(t, [3]float64{1, 0, -2}, p.Position)
	assert.Equal(t, 90.0, p.Yaw)
	assert.Equal(t, []string{"sword"}, p.Inventory)
	assert.Equal(t, "sword", p.Equip)
	require.Len(t, p.Components, 2)

	var health struct {
		Health   float64 `yaml:"health"`
		Strength int     `yaml:"strength"`
	}
	require.NoError(t, p.Components[1].Decode(&health))
	assert.Equal(t, 50.0, health.Health)
	assert.Equal(t, 3, health.Strength)

	var effect struct {
		Lifetime time.Duration `yaml:"lifetime"`
	}
	require.NoError(t, all[2].Components[0].Decode(&effect))
	assert.Equal(t, 500*time.Millisecond, effect.Lifetime)

	assert.Nil(t, tbl.Get("missing"))
}

func TestComponentEntryDecodeWithoutParams(t *testing.T) {
	tbl, err := ParsePrefabTable([]byte("- name: a\n  components:\n    - kind: spatial_grid\n"))
	require.NoError(t, err)

	v := struct {
		X int `yaml:"x"`
	}{X: 7}
	require.NoError(t, tbl.Get("a").Components[0].Decode(&v))
	assert.Equal(t, 7, v.X, "defaults survive a missing params block")
}

func TestParsePrefabTableRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"unknown kind", "- name: a\n  components:\n    - kind: jetpack\n", ErrUnknownKind},
		{"invalid kind", "- name: a\n  components:\n    - kind: invalid\n", ErrUnknownKind},
		{"repeated kind", "- name: a\n  components:\n    - kind: health\n    - kind: health\n", ErrDuplicateKind},
		{"repeated name", "- name: a\n- name: a\n", ErrDuplicateName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrefabTable([]byte(tt.raw))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadPrefabTable(t *testing.T) {
	_, err := LoadPrefabTable(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read prefab list")

	path := filepath.Join(t.TempDir(), "prefabs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not: a list"), 0o644))
	_, err = LoadPrefabTable(path)
	assert.ErrorContains(t, err, "parse prefab list")

	require.NoError(t, os.WriteFile(path, []byte(samplePrefabs), 0o644))
	tbl, err := LoadPrefabTable(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Count())
}
