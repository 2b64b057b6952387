package entity

// Kind identifies a component capability. An entity holds at most one
// component per Kind. The set is closed so storage is a fixed array.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindSpatialGrid
	KindHealth
	KindAttacker
	KindInventory
	KindInventoryItem
	KindEquipWeapon
	KindInput
	KindCharacterController
	KindNPCController
	KindLevelUpSpawner
	KindLevelUpEffect

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:             "invalid",
	KindSpatialGrid:         "spatial_grid",
	KindHealth:              "health",
	KindAttacker:            "attacker",
	KindInventory:           "inventory",
	KindInventoryItem:       "inventory_item",
	KindEquipWeapon:         "equip_weapon",
	KindInput:               "input",
	KindCharacterController: "character_controller",
	KindNPCController:       "npc_controller",
	KindLevelUpSpawner:      "level_up_spawner",
	KindLevelUpEffect:       "level_up_effect",
}

func (k Kind) Valid() bool { return k > KindInvalid && k < kindCount }

func (k Kind) String() string {
	if k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind maps a kind name (as used in prefab files) back to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k, n := range kindNames {
		if n == s && Kind(k).Valid() {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}
