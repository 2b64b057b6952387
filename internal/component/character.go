package component

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/core/entity"
)

// CharacterController drives a player-style entity from its Input
// component through the idle/walk/run/attack/death machine.
type CharacterController struct {
	entity.Base
	loco  *locomotion
	input *Input
	log   *zap.Logger
}

func NewCharacterController(p MotionParams, log *zap.Logger) *CharacterController {
	if log == nil {
		log = zap.NewNop()
	}
	return &CharacterController{loco: newLocomotion(p), log: log}
}

func (*CharacterController) Kind() entity.Kind { return entity.KindCharacterController }

func (c *CharacterController) Init() error {
	c.RegisterHandler(TopicDeath, func(entity.Message) error { return c.loco.die() })
	return c.loco.start(c.Parent())
}

// State returns the current machine state name.
func (c *CharacterController) State() string { return c.loco.state() }

func (c *CharacterController) Update(dt time.Duration) {
	in := c.input
	if in == nil {
		var err error
		if in, err = entity.Get[*Input](c.Parent(), entity.KindInput); err != nil {
			in = &Input{}
		} else {
			c.input = in
		}
	}
	if err := c.loco.step(dt, in); err != nil {
		c.log.Warn("character step",
			zap.String("entity", c.Parent().Name()),
			zap.String("state", c.loco.state()),
			zap.Error(err),
		)
	}
}
