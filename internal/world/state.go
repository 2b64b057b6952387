package world

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/core/entity"
	"github.com/l1jgo/simcore/internal/core/event"
	"github.com/l1jgo/simcore/internal/core/geom"
	"github.com/l1jgo/simcore/internal/core/spatial"
	"github.com/l1jgo/simcore/internal/data"
)

var ErrUnsupportedKind = errors.New("world: kind cannot be built from a prefab")

// Options configures a State. Zero values fall back to the component
// defaults.
type Options struct {
	Bounds            spatial.Bounds
	Cols, Rows        int
	MaxBroadcastDepth int
	EffectLifetime    time.Duration
	Brain             component.Brain
	Log               *zap.Logger
}

// State owns everything one simulation run needs: the spatial grid, the
// entity manager and the lifecycle event bus.
// Single-goroutine access only (game loop).
type State struct {
	runID    string
	grid     *spatial.Grid
	entities *entity.Manager
	bus      *event.Bus
	brain    component.Brain
	lifetime time.Duration
	log      *zap.Logger
}

func NewState(o Options) (*State, error) {
	grid, err := spatial.NewGrid(o.Bounds, o.Cols, o.Rows)
	if err != nil {
		return nil, fmt.Errorf("world grid: %w", err)
	}
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}
	if o.EffectLifetime <= 0 {
		o.EffectLifetime = component.DefaultEffectLifetime
	}
	runID := uuid.NewString()
	log = log.With(zap.String("run", runID))

	bus := event.NewBus()
	opts := []entity.ManagerOption{entity.WithLogger(log), entity.WithEventBus(bus)}
	if o.MaxBroadcastDepth > 0 {
		opts = append(opts, entity.WithMaxBroadcastDepth(o.MaxBroadcastDepth))
	}
	return &State{
		runID:    runID,
		grid:     grid,
		entities: entity.NewManager(opts...),
		bus:      bus,
		brain:    o.Brain,
		lifetime: o.EffectLifetime,
		log:      log,
	}, nil
}

func (s *State) RunID() string             { return s.runID }
func (s *State) Grid() *spatial.Grid       { return s.grid }
func (s *State) Entities() *entity.Manager { return s.entities }
func (s *State) Bus() *event.Bus           { return s.bus }
func (s *State) Log() *zap.Logger          { return s.log }

// Player returns the entity NPCs hunt, if spawned.
func (s *State) Player() (*entity.Entity, bool) {
	return s.entities.Get(component.PlayerName)
}

// SpawnAll spawns every prefab in file order, then fills inventories and
// equips weapons once all item entities exist. It returns the number of
// entities spawned.
func (s *State) SpawnAll(t *data.PrefabTable) (int, error) {
	spawned := make([]*entity.Entity, 0, t.Count())
	for _, p := range t.All() {
		e, err := s.Spawn(p)
		if err != nil {
			return len(spawned), err
		}
		spawned = append(spawned, e)
	}
	for i, p := range t.All() {
		if err := s.outfit(spawned[i], p); err != nil {
			return len(spawned), fmt.Errorf("outfit %s: %w", spawned[i].Name(), err)
		}
	}
	return len(spawned), nil
}

// Spawn builds one prefab and registers it with the manager.
func (s *State) Spawn(p *data.PrefabEntry) (*entity.Entity, error) {
	e := entity.New()
	if err := e.SetPosition(geom.Vec3{X: p.Position[0], Y: p.Position[1], Z: p.Position[2]}); err != nil {
		return nil, err
	}
	if p.Yaw != 0 {
		yaw := p.Yaw * math.Pi / 180
		if err := e.SetOrientation(geom.FromAxisAngle(geom.Vec3{Y: 1}, yaw)); err != nil {
			return nil, err
		}
	}
	for i := range p.Components {
		c, err := s.build(&p.Components[i])
		if err == nil {
			err = e.AddComponent(c)
		}
		if err != nil {
			e.Destroy()
			return nil, fmt.Errorf("prefab %q: %w", p.Name, err)
		}
	}
	if err := s.entities.Add(e, p.Name); err != nil {
		e.Destroy()
		return nil, fmt.Errorf("prefab %q: %w", p.Name, err)
	}
	s.log.Debug("spawned",
		zap.String("entity", e.Name()),
		zap.Int("components", len(p.Components)),
	)
	return e, nil
}

func (s *State) outfit(e *entity.Entity, p *data.PrefabEntry) error {
	if len(p.Inventory) == 0 && p.Equip == "" {
		return nil
	}
	inv, err := entity.Get[*component.Inventory](e, entity.KindInventory)
	if err != nil {
		return err
	}
	for _, item := range p.Inventory {
		if err := e.Broadcast(entity.Message{Topic: component.TopicInventoryAdd, Value: item, From: e}); err != nil {
			return err
		}
	}
	if p.Equip == "" {
		return nil
	}
	slot, ok := inv.Find(p.Equip)
	if !ok {
		if slot, err = inv.Add(p.Equip); err != nil {
			return err
		}
	}
	return inv.Move(slot, component.WeaponSlot)
}

type lifetimeParams struct {
	Lifetime time.Duration `yaml:"lifetime"`
}

// build turns one prefab component entry into a component.
func (s *State) build(c *data.ComponentEntry) (entity.Component, error) {
	kind, ok := entity.ParseKind(c.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", data.ErrUnknownKind, c.Kind)
	}
	switch kind {
	case entity.KindSpatialGrid:
		return component.NewSpatialGridController(s.grid), nil
	case entity.KindHealth:
		var p component.HealthParams
		if err := c.Decode(&p); err != nil {
			return nil, err
		}
		return component.NewHealth(p), nil
	case entity.KindAttacker:
		var p component.AttackerParams
		if err := c.Decode(&p); err != nil {
			return nil, err
		}
		return component.NewAttacker(p), nil
	case entity.KindInventory:
		return component.NewInventory(), nil
	case entity.KindInventoryItem:
		var p component.ItemParams
		if err := c.Decode(&p); err != nil {
			return nil, err
		}
		return component.NewInventoryItem(p), nil
	case entity.KindEquipWeapon:
		return component.NewEquipWeapon(), nil
	case entity.KindInput:
		var p component.InputParams
		if err := c.Decode(&p); err != nil {
			return nil, err
		}
		return component.NewInput(p), nil
	case entity.KindCharacterController:
		var p component.MotionParams
		if err := c.Decode(&p); err != nil {
			return nil, err
		}
		return component.NewCharacterController(p, s.log), nil
	case entity.KindNPCController:
		var p component.NPCParams
		if err := c.Decode(&p); err != nil {
			return nil, err
		}
		return component.NewNPCController(p, s.brain, s.log), nil
	case entity.KindLevelUpSpawner:
		p := lifetimeParams{Lifetime: s.lifetime}
		if err := c.Decode(&p); err != nil {
			return nil, err
		}
		return component.NewLevelUpSpawner(p.Lifetime), nil
	case entity.KindLevelUpEffect:
		p := lifetimeParams{Lifetime: s.lifetime}
		if err := c.Decode(&p); err != nil {
			return nil, err
		}
		return component.NewLevelUpEffect(p.Lifetime), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
}
