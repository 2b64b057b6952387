package component

import (
	"fmt"

	"github.com/l1jgo/simcore/internal/core/entity"
)

// EquipWeapon tracks which held item is wielded.
type EquipWeapon struct {
	entity.Base
	name string
}

func NewEquipWeapon() *EquipWeapon { return &EquipWeapon{} }

func (*EquipWeapon) Kind() entity.Kind { return entity.KindEquipWeapon }

func (w *EquipWeapon) Init() error {
	w.RegisterHandler(TopicInventoryEquip, w.onEquip)
	return nil
}

// Name is the equipped weapon's item name, "" when bare-handed.
func (w *EquipWeapon) Name() string { return w.name }

func (w *EquipWeapon) onEquip(msg entity.Message) error {
	name, err := stringPayload(msg.Topic, msg.Value)
	if err != nil {
		return err
	}
	if name == w.name {
		return nil
	}
	if name != "" {
		inv, err := entity.Get[*Inventory](w.Parent(), entity.KindInventory)
		if err != nil {
			return err
		}
		if _, ok := inv.GetItemByName(name); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownItem, name)
		}
	}
	w.name = name
	return w.Broadcast(entity.Message{
		Topic: TopicEquipWeapon,
		Value: name,
		From:  w.Parent(),
	})
}

// Weapon resolves the equipped item's InventoryItem.
func (w *EquipWeapon) Weapon() (*InventoryItem, bool) {
	if w.name == "" {
		return nil, false
	}
	inv, err := entity.Get[*Inventory](w.Parent(), entity.KindInventory)
	if err != nil {
		return nil, false
	}
	e, ok := inv.GetItemByName(w.name)
	if !ok {
		return nil, false
	}
	item, err := entity.Get[*InventoryItem](e, entity.KindInventoryItem)
	return item, err == nil
}
