package component

import (
	"errors"
	"fmt"
)

// Topics exchanged between gameplay components. Payload shape per topic is
// noted alongside.
const (
	TopicDamage         = "health.damage"         // float64 amount, From = attacker
	TopicAddExperience  = "health.add-experience" // int xp
	TopicDeath          = "health.death"          // nil
	TopicHealthUpdate   = "health.update"         // HealthUpdate
	TopicLevel          = "health.level"          // int new level
	TopicPlayerAction   = "player.action"         // Action
	TopicInventoryAdd   = "inventory.add"         // string item name
	TopicInventoryEquip = "inventory.equip"       // string item name, "" = unequip
	TopicEquipWeapon    = "equip.weapon"          // string weapon name
)

// SpawnerName is the well-known entity hosting the LevelUpSpawner.
const SpawnerName = "level-up-spawner"

// PlayerName is the entity NPCs hunt.
const PlayerName = "player"

var (
	ErrInventoryFull = errors.New("component: inventory full")
	ErrUnknownSlot   = errors.New("component: unknown inventory slot")
	ErrUnknownItem   = errors.New("component: item not in inventory")
	ErrBadPayload    = errors.New("component: unexpected message payload")
	ErrNoManager     = errors.New("component: entity has no manager")
)

type HealthUpdate struct {
	Health    float64
	MaxHealth float64
}

// Action reports the current action of a controller and its normalized
// progress in [0, 1].
type Action struct {
	Name string
	Time float64
}

func floatPayload(topic string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: %s carries %T", ErrBadPayload, topic, v)
}

func stringPayload(topic string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s carries %T", ErrBadPayload, topic, v)
	}
	return s, nil
}
