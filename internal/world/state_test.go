package world

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/entity"
	"github.com/l1jgo/simcore/internal/core/geom"
	"github.com/l1jgo/simcore/internal/core/spatial"
	"github.com/l1jgo/simcore/internal/data"
)

const arena = `
- name: sword
  components:
    - kind: inventory_item
      params: {damage: 1.5}
- name: level-up-spawner
  components:
    - kind: level_up_spawner
      params: {lifetime: 300ms}
- name: player
  inventory: [sword]
  equip: sword
  components:
    - kind: spatial_grid
    - kind: input
      params:
        script:
          - keys: {space: true}
            duration: 300ms
    - kind: health
      params: {health: 20, strength: 4}
    - kind: attacker
      params: {timing: 0.5}
    - kind: inventory
    - kind: equip_weapon
    - kind: character_controller
      params:
        actions: {attack: 400ms}
- name: spider
  position: [0, 0, 1]
  yaw: 180
  components:
    - kind: spatial_grid
    - kind: health
      params: {health: 5}
    - kind: npc_controller
`

func newState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(Options{
		Bounds: spatial.Bounds{Min: geom.Vec2{X: -50, Y: -50}, Max: geom.Vec2{X: 50, Y: 50}},
		Cols:   100,
		Rows:   100,
	})
	require.NoError(t, err)
	return s
}

func spawnArena(t *testing.T) *State {
	t.Helper()
	tbl, err := data.ParsePrefabTable([]byte(arena))
	require.NoError(t, err)
	s := newState(t)
	n, err := s.SpawnAll(tbl)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	return s
}

func TestNewStateRejectsBadGrid(t *testing.T) {
	_, err := NewState(Options{Cols: 0, Rows: 10})
	assert.Error(t, err)
}

func TestStateRunID(t *testing.T) {
	a, b := newState(t), newState(t)
	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestSpawnAllOutfitsPlayer(t *testing.T) {
	s := spawnArena(t)
	assert.Equal(t, 2, s.Grid().Len())

	player, ok := s.Player()
	require.True(t, ok)

	inv, err := entity.Get[*component.Inventory](player, entity.KindInventory)
	require.NoError(t, err)
	item, err := inv.Slot(component.WeaponSlot)
	require.NoError(t, err)
	assert.Equal(t, "sword", item)

	w, err := entity.Get[*component.EquipWeapon](player, entity.KindEquipWeapon)
	require.NoError(t, err)
	assert.Equal(t, "sword", w.Name())

	a, err := entity.Get[*component.Attacker](player, entity.KindAttacker)
	require.NoError(t, err)
	assert.Equal(t, 6.0, a.Damage())

	spider, ok := s.Entities().Get("spider")
	require.True(t, ok)
	fwd := spider.Orientation().Forward()
	assert.InDelta(t, -1.0, fwd.Z, 1e-9, "yaw is given in degrees")
}

func TestSpawnFailureReleasesGridClient(t *testing.T) {
	s := newState(t)
	p := &data.PrefabEntry{
		Name:       "crate",
		Components: []data.ComponentEntry{{Kind: "spatial_grid"}},
	}
	_, err := s.Spawn(p)
	require.NoError(t, err)
	require.Equal(t, 1, s.Grid().Len())

	_, err = s.Spawn(p)
	assert.ErrorIs(t, err, entity.ErrDuplicateName)
	assert.Equal(t, 1, s.Grid().Len())
}

func TestSpawnRejectsUnknownKind(t *testing.T) {
	s := newState(t)
	_, err := s.Spawn(&data.PrefabEntry{
		Name:       "ghost",
		Components: []data.ComponentEntry{{Kind: "spatial_grid"}, {Kind: "jetpack"}},
	})
	assert.ErrorIs(t, err, data.ErrUnknownKind)
	assert.Zero(t, s.Grid().Len())
	assert.Zero(t, s.Entities().Len())
}

func TestArenaPlayerKillsSpider(t *testing.T) {
	s := spawnArena(t)
	player, _ := s.Player()
	spider, _ := s.Entities().Get("spider")

	s.Entities().Update(100 * time.Millisecond)
	s.Entities().Update(100 * time.Millisecond)

	sh, err := entity.Get[*component.Health](spider, entity.KindHealth)
	require.NoError(t, err)
	assert.False(t, sh.IsAlive())

	npc, err := entity.Get[*component.NPCController](spider, entity.KindNPCController)
	require.NoError(t, err)
	assert.Equal(t, component.StateDeath, npc.State())

	ph, err := entity.Get[*component.Health](player, entity.KindHealth)
	require.NoError(t, err)
	assert.Equal(t, 2, ph.Level())

	effects := s.Entities().Filter(func(e *entity.Entity) bool {
		return strings.HasPrefix(e.Name(), "level-up-") && e.Name() != component.SpawnerName
	})
	require.Len(t, effects, 1)
	assert.Equal(t, player.Position(), effects[0].Position())

	for i := 0; i < 5; i++ {
		s.Entities().Update(100 * time.Millisecond)
	}
	_, ok := s.Entities().Get(effects[0].Name())
	assert.False(t, ok, "expired effect is reaped")
}
