package component

import (
	"fmt"

	"github.com/l1jgo/simcore/internal/core/entity"
)

const (
	BagSlots   = 24
	EquipSlots = 8

	WeaponSlot = "inventory-equip-1"
)

type slot struct {
	name  string
	equip bool
	item  string // "" = empty
}

// Inventory holds item names in bag and equip slots. Items are entities
// registered with the manager under their item name.
type Inventory struct {
	entity.Base
	slots []slot
	index map[string]int
}

func NewInventory() *Inventory {
	inv := &Inventory{
		slots: make([]slot, 0, BagSlots+EquipSlots),
		index: make(map[string]int, BagSlots+EquipSlots),
	}
	for i := 1; i <= BagSlots; i++ {
		inv.addSlot(fmt.Sprintf("inventory-%d", i), false)
	}
	for i := 1; i <= EquipSlots; i++ {
		inv.addSlot(fmt.Sprintf("inventory-equip-%d", i), true)
	}
	return inv
}

func (inv *Inventory) addSlot(name string, equip bool) {
	inv.index[name] = len(inv.slots)
	inv.slots = append(inv.slots, slot{name: name, equip: equip})
}

func (*Inventory) Kind() entity.Kind { return entity.KindInventory }

func (inv *Inventory) Init() error {
	inv.RegisterHandler(TopicInventoryAdd, inv.onAdd)
	return nil
}

func (inv *Inventory) onAdd(msg entity.Message) error {
	name, err := stringPayload(msg.Topic, msg.Value)
	if err != nil {
		return err
	}
	_, err = inv.Add(name)
	return err
}

// Add puts item into the first free bag slot and returns that slot.
func (inv *Inventory) Add(item string) (string, error) {
	for i := range inv.slots {
		s := &inv.slots[i]
		if !s.equip && s.item == "" {
			s.item = item
			return s.name, nil
		}
	}
	return "", fmt.Errorf("%w: cannot add %q", ErrInventoryFull, item)
}

// Slot returns the item in the named slot ("" when empty).
func (inv *Inventory) Slot(name string) (string, error) {
	i, ok := inv.index[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, name)
	}
	return inv.slots[i].item, nil
}

// Move swaps the contents of two slots. Moving into an equip slot
// broadcasts inventory.equip with the item that landed there; moving out of
// an equip slot into the bag broadcasts whatever is left in the equip slot
// ("" when it is now empty).
func (inv *Inventory) Move(from, to string) error {
	fi, ok := inv.index[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, from)
	}
	ti, ok := inv.index[to]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, to)
	}
	moved := inv.slots[fi].item
	inv.slots[fi].item, inv.slots[ti].item = inv.slots[ti].item, moved

	var equipped string
	switch {
	case inv.slots[ti].equip:
		equipped = moved
	case inv.slots[fi].equip:
		equipped = inv.slots[fi].item
	default:
		return nil
	}
	return inv.Broadcast(entity.Message{
		Topic: TopicInventoryEquip,
		Value: equipped,
		From:  inv.Parent(),
	})
}

// Find returns the first slot holding item.
func (inv *Inventory) Find(item string) (string, bool) {
	if item == "" {
		return "", false
	}
	for _, s := range inv.slots {
		if s.item == item {
			return s.name, true
		}
	}
	return "", false
}

// Contains reports whether any slot holds item.
func (inv *Inventory) Contains(item string) bool {
	_, ok := inv.Find(item)
	return ok
}

// GetItemByName resolves a held item to its entity.
func (inv *Inventory) GetItemByName(name string) (*entity.Entity, bool) {
	if !inv.Contains(name) {
		return nil, false
	}
	return inv.FindEntity(name)
}

type ItemParams struct {
	Damage float64 `yaml:"damage"` // weapon damage multiplier
}

// InventoryItem marks an entity as an item and carries its parameters.
type InventoryItem struct {
	entity.Base
	params ItemParams
}

func NewInventoryItem(p ItemParams) *InventoryItem {
	return &InventoryItem{params: p}
}

func (*InventoryItem) Kind() entity.Kind { return entity.KindInventoryItem }

func (i *InventoryItem) Params() ItemParams { return i.params }
func (i *InventoryItem) Damage() float64    { return i.params.Damage }
