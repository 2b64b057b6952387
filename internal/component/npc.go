package component

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/core/entity"
	"github.com/l1jgo/simcore/internal/scripting"
)

// Brain picks an NPC's next command. *scripting.Engine is the production
// implementation.
type Brain interface {
	RunNpcAI(ctx scripting.AIContext) scripting.AICommand
}

type NPCParams struct {
	Motion      MotionParams `yaml:"motion"`
	SightRange  float64      `yaml:"sight_range"`
	AttackRange float64      `yaml:"attack_range"`
}

// NPCController runs the shared state machine on input decided by a Brain.
type NPCController struct {
	entity.Base
	params NPCParams
	loco   *locomotion
	brain  Brain
	input  Input
	log    *zap.Logger
}

func NewNPCController(p NPCParams, brain Brain, log *zap.Logger) *NPCController {
	if p.SightRange <= 0 {
		p.SightRange = 100
	}
	if p.AttackRange <= 0 {
		p.AttackRange = 2
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NPCController{
		params: p,
		loco:   newLocomotion(p.Motion),
		brain:  brain,
		log:    log,
	}
}

func (*NPCController) Kind() entity.Kind { return entity.KindNPCController }

func (n *NPCController) Init() error {
	n.RegisterHandler(TopicDeath, func(entity.Message) error { return n.loco.die() })
	return n.loco.start(n.Parent())
}

func (n *NPCController) State() string { return n.loco.state() }

// SetBrain swaps the decision source, e.g. after a script reload.
func (n *NPCController) SetBrain(b Brain) { n.brain = b }

// findPlayer returns the nearest living player in sight.
func (n *NPCController) findPlayer() (*entity.Entity, float64, bool) {
	grid, err := entity.Get[*SpatialGridController](n.Parent(), entity.KindSpatialGrid)
	if err != nil {
		return nil, 0, false
	}
	self := n.Parent().Position()
	var best *entity.Entity
	bestDist := math.Inf(1)
	for _, c := range grid.FindNearbyEntities(n.params.SightRange) {
		if c.Entity.Name() != PlayerName {
			continue
		}
		h, err := entity.Get[*Health](c.Entity, entity.KindHealth)
		if err != nil || !h.IsAlive() {
			continue
		}
		d := c.Entity.Position().Sub(self)
		d.Y = 0
		if dist := d.Len(); dist < bestDist {
			best, bestDist = c.Entity, dist
		}
	}
	return best, bestDist, best != nil
}

func (n *NPCController) decide() (scripting.AICommand, *entity.Entity) {
	idle := scripting.AICommand{Type: scripting.CmdIdle}
	if n.brain == nil || n.loco.state() == StateDeath {
		return idle, nil
	}
	pos := n.Parent().Position()
	ctx := scripting.AIContext{
		Name:        n.Parent().Name(),
		X:           pos.X,
		Z:           pos.Z,
		State:       n.loco.state(),
		AttackRange: n.params.AttackRange,
	}
	if h, err := entity.Get[*Health](n.Parent(), entity.KindHealth); err == nil {
		ctx.Health, ctx.MaxHealth, ctx.Level = h.Health(), h.MaxHealth(), h.Level()
	}
	target, dist, ok := n.findPlayer()
	if ok {
		tp := target.Position()
		ctx.HasTarget = true
		ctx.TargetName = target.Name()
		ctx.TargetX, ctx.TargetZ = tp.X, tp.Z
		ctx.TargetDist = dist
	}
	cmd := n.brain.RunNpcAI(ctx)
	if !ok && cmd.Type != scripting.CmdIdle {
		return idle, nil
	}
	return cmd, target
}

func (n *NPCController) Update(dt time.Duration) {
	cmd, target := n.decide()

	var keys Keys
	switch cmd.Type {
	case scripting.CmdMoveToward:
		keys = Keys{Forward: true, Shift: cmd.Run}
	case scripting.CmdAttack:
		keys = Keys{Space: true}
	}
	if target != nil && n.loco.state() != StateAttack {
		if err := n.loco.faceTowards(target.Position()); err != nil {
			n.log.Warn("npc face target", zap.String("npc", n.Parent().Name()), zap.Error(err))
		}
	}
	n.input.SetKeys(keys)

	if err := n.loco.step(dt, &n.input); err != nil {
		n.log.Warn("npc step",
			zap.String("npc", n.Parent().Name()),
			zap.String("state", n.loco.state()),
			zap.Error(err),
		)
	}
}
