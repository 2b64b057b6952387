package component

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/l1jgo/simcore/internal/core/entity"
	"github.com/l1jgo/simcore/internal/core/geom"
)

// DefaultEffectLifetime is used when a spawner is configured without one.
const DefaultEffectLifetime = 2 * time.Second

// LevelUpSpawner creates short-lived level-up effect entities and reaps
// them once they have deactivated.
type LevelUpSpawner struct {
	entity.Base
	lifetime time.Duration
	spawned  []string
}

func NewLevelUpSpawner(lifetime time.Duration) *LevelUpSpawner {
	if lifetime <= 0 {
		lifetime = DefaultEffectLifetime
	}
	return &LevelUpSpawner{lifetime: lifetime}
}

func (*LevelUpSpawner) Kind() entity.Kind { return entity.KindLevelUpSpawner }

// Spawn adds an effect entity at pos to the spawner's manager.
func (s *LevelUpSpawner) Spawn(pos geom.Vec3) (*entity.Entity, error) {
	p := s.Parent()
	if p == nil || p.Manager() == nil {
		return nil, ErrNoManager
	}
	e := entity.New()
	if err := e.SetPosition(pos); err != nil {
		return nil, err
	}
	if err := e.AddComponent(NewLevelUpEffect(s.lifetime)); err != nil {
		return nil, err
	}
	name := "level-up-" + uuid.NewString()
	if err := p.Manager().Add(e, name); err != nil {
		return nil, fmt.Errorf("spawn level-up effect: %w", err)
	}
	s.spawned = append(s.spawned, name)
	return e, nil
}

// Live returns the number of spawned effects not yet reaped.
func (s *LevelUpSpawner) Live() int { return len(s.spawned) }

func (s *LevelUpSpawner) Update(time.Duration) {
	m := s.Parent().Manager()
	if m == nil {
		return
	}
	kept := s.spawned[:0]
	for _, name := range s.spawned {
		e, ok := m.Get(name)
		if !ok {
			continue
		}
		fx, err := entity.Get[*LevelUpEffect](e, entity.KindLevelUpEffect)
		if err == nil && (!fx.Expired() || e.Active()) {
			kept = append(kept, name)
			continue
		}
		_ = m.Remove(name)
	}
	s.spawned = kept
}

// LevelUpEffect deactivates its entity after a fixed lifetime.
type LevelUpEffect struct {
	entity.Base
	lifetime time.Duration
	elapsed  time.Duration
	expired  bool
}

func NewLevelUpEffect(lifetime time.Duration) *LevelUpEffect {
	return &LevelUpEffect{lifetime: lifetime}
}

func (*LevelUpEffect) Kind() entity.Kind { return entity.KindLevelUpEffect }

func (l *LevelUpEffect) Expired() bool { return l.expired }

func (l *LevelUpEffect) Update(dt time.Duration) {
	if l.expired {
		return
	}
	l.elapsed += dt
	if l.elapsed < l.lifetime {
		return
	}
	l.expired = true
	_ = l.Parent().SetActive(false)
}
