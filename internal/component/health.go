package component

import (
	"errors"
	"math"

	"github.com/l1jgo/simcore/internal/core/entity"
)

// HealthParams is the prefab/runtime stat block.
type HealthParams struct {
	Health     float64 `yaml:"health"`
	MaxHealth  float64 `yaml:"max_health"`
	Level      int     `yaml:"level"`
	Experience int     `yaml:"experience"`
	Strength   int     `yaml:"strength"`
	Wisdom     int     `yaml:"wisdom"`
	Benchpress int     `yaml:"benchpress"`
	Curl       int     `yaml:"curl"`
}

// Health tracks hit points, experience and levelling.
type Health struct {
	entity.Base
	params HealthParams
}

func NewHealth(p HealthParams) *Health {
	if p.MaxHealth <= 0 {
		p.MaxHealth = p.Health
	}
	if p.Level < 1 {
		p.Level = 1
	}
	return &Health{params: p}
}

func (*Health) Kind() entity.Kind { return entity.KindHealth }

func (h *Health) Init() error {
	h.RegisterHandler(TopicDamage, h.onDamage)
	h.RegisterHandler(TopicAddExperience, h.onAddExperience)
	return nil
}

func (h *Health) IsAlive() bool       { return h.params.Health > 0 }
func (h *Health) Health() float64     { return h.params.Health }
func (h *Health) MaxHealth() float64  { return h.params.MaxHealth }
func (h *Health) Level() int          { return h.params.Level }
func (h *Health) Stats() HealthParams { return h.params }
func (h *Health) XPForNextLevel() int { return xpRequirement(h.params.Level) }
func (h *Health) Strength() float64   { return float64(h.params.Strength) }

// xpRequirement is the experience total needed to leave level.
func xpRequirement(level int) int {
	return int(math.Round(math.Pow(2, float64(level-1)) * 100))
}

func (h *Health) onDamage(msg entity.Message) error {
	if !h.IsAlive() {
		return nil
	}
	amount, err := floatPayload(msg.Topic, msg.Value)
	if err != nil {
		return err
	}
	h.params.Health = math.Max(0, h.params.Health-amount)

	var errs []error
	if h.params.Health == 0 {
		errs = append(errs, h.die(msg.From))
	}
	errs = append(errs, h.Broadcast(entity.Message{
		Topic: TopicHealthUpdate,
		Value: HealthUpdate{Health: h.params.Health, MaxHealth: h.params.MaxHealth},
		From:  h.Parent(),
	}))
	return errors.Join(errs...)
}

func (h *Health) die(attacker *entity.Entity) error {
	var errs []error
	if attacker != nil && attacker != h.Parent() {
		errs = append(errs, attacker.Broadcast(entity.Message{
			Topic: TopicAddExperience,
			Value: h.params.Level * 100,
			From:  h.Parent(),
		}))
	}
	errs = append(errs, h.Broadcast(entity.Message{Topic: TopicDeath, From: h.Parent()}))
	return errors.Join(errs...)
}

func (h *Health) onAddExperience(msg entity.Message) error {
	xp, err := floatPayload(msg.Topic, msg.Value)
	if err != nil {
		return err
	}
	h.params.Experience += int(xp)
	if h.params.Experience < xpRequirement(h.params.Level) {
		return nil
	}

	h.params.Level++
	h.params.Strength++
	h.params.Wisdom++
	h.params.Benchpress++
	h.params.Curl += 2

	var errs []error
	if spawner, ok := h.findSpawner(); ok {
		if _, err := spawner.Spawn(h.Parent().Position()); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, h.Broadcast(entity.Message{
		Topic: TopicLevel,
		Value: h.params.Level,
		From:  h.Parent(),
	}))
	return errors.Join(errs...)
}

func (h *Health) findSpawner() (*LevelUpSpawner, bool) {
	e, ok := h.FindEntity(SpawnerName)
	if !ok {
		return nil, false
	}
	s, err := entity.Get[*LevelUpSpawner](e, entity.KindLevelUpSpawner)
	return s, err == nil
}
