package component

import (
	"errors"
	"math"

	"github.com/l1jgo/simcore/internal/core/entity"
	"github.com/l1jgo/simcore/internal/core/geom"
)

// ActionAttack is the controller action that can land hits.
const ActionAttack = "attack"

type AttackerParams struct {
	Timing float64 `yaml:"timing"` // fraction of the attack action at which the hit lands
	Range  float64 `yaml:"range"`
}

// Attacker lands melee hits on targets in front of its entity when the
// attack action crosses Timing.
type Attacker struct {
	entity.Base
	params  AttackerParams
	action  string
	elapsed float64
}

func NewAttacker(p AttackerParams) *Attacker {
	if p.Range <= 0 {
		p.Range = 2
	}
	return &Attacker{params: p}
}

func (*Attacker) Kind() entity.Kind { return entity.KindAttacker }

func (a *Attacker) Init() error {
	a.RegisterHandler(TopicPlayerAction, a.onAction)
	return nil
}

func (a *Attacker) onAction(msg entity.Message) error {
	act, ok := msg.Value.(Action)
	if !ok {
		return ErrBadPayload
	}
	if act.Name != a.action {
		a.action = act.Name
		a.elapsed = 0
	}
	old := a.elapsed
	a.elapsed = act.Time
	if act.Name != ActionAttack || old >= a.params.Timing || a.elapsed < a.params.Timing {
		return nil
	}
	return a.strike()
}

// Damage is the attacker's strength scaled by the equipped weapon.
func (a *Attacker) Damage() float64 {
	h, err := entity.Get[*Health](a.Parent(), entity.KindHealth)
	if err != nil {
		return 0
	}
	dmg := h.Strength()
	if item, ok := a.weapon(); ok {
		dmg = math.Round(dmg * item.Damage())
	}
	return dmg
}

func (a *Attacker) weapon() (*InventoryItem, bool) {
	equip, err := entity.Get[*EquipWeapon](a.Parent(), entity.KindEquipWeapon)
	if err != nil {
		return nil, false
	}
	return equip.Weapon()
}

func (a *Attacker) strike() error {
	self := a.Parent()
	grid, err := entity.Get[*SpatialGridController](self, entity.KindSpatialGrid)
	if err != nil {
		return err
	}
	damage := a.Damage()
	forward := self.Orientation().Forward()

	var errs []error
	for _, n := range grid.FindNearbyEntities(a.params.Range) {
		target := n.Entity
		if target == self {
			continue
		}
		h, err := entity.Get[*Health](target, entity.KindHealth)
		if err != nil || !h.IsAlive() {
			continue
		}
		dir := target.Position().Sub(self.Position()).Normalize()
		if !geom.InRange(forward.Dot(dir), 0.9, 1.1) {
			continue
		}
		errs = append(errs, target.Broadcast(entity.Message{
			Topic: TopicDamage,
			Value: damage,
			From:  self,
		}))
	}
	return errors.Join(errs...)
}
