package component

import (
	"errors"
	"math"
	"time"

	"github.com/l1jgo/simcore/internal/core/entity"
	"github.com/l1jgo/simcore/internal/core/fsm"
	"github.com/l1jgo/simcore/internal/core/geom"
)

// Controller state names; each doubles as the action name reported on
// player.action.
const (
	StateIdle   = "idle"
	StateWalk   = "walk"
	StateRun    = "run"
	StateAttack = ActionAttack
	StateDeath  = "death"
)

// MotionParams tunes movement and action clip lengths.
type MotionParams struct {
	WalkSpeed float64                  `yaml:"walk_speed"`
	RunSpeed  float64                  `yaml:"run_speed"` // 0 disables the run state
	TurnRate  float64                  `yaml:"turn_rate"` // radians per second
	Actions   map[string]time.Duration `yaml:"actions"`
}

var defaultActions = map[string]time.Duration{
	StateIdle:   2 * time.Second,
	StateWalk:   time.Second,
	StateRun:    700 * time.Millisecond,
	StateAttack: 1200 * time.Millisecond,
	StateDeath:  1500 * time.Millisecond,
}

func (p MotionParams) withDefaults() MotionParams {
	actions := make(map[string]time.Duration, len(defaultActions))
	for k, v := range defaultActions {
		actions[k] = v
	}
	for k, v := range p.Actions {
		if v > 0 {
			actions[k] = v
		}
	}
	p.Actions = actions
	if p.WalkSpeed <= 0 {
		p.WalkSpeed = 2
	}
	if p.TurnRate <= 0 {
		p.TurnRate = math.Pi
	}
	return p
}

// locomotion is the state machine and action clock shared by the player
// and NPC controllers.
type locomotion struct {
	owner   *entity.Entity
	machine *fsm.Machine[*Input]
	params  MotionParams
	clock   time.Duration
}

func newLocomotion(p MotionParams) *locomotion {
	l := &locomotion{
		machine: fsm.New[*Input](),
		params:  p.withDefaults(),
	}
	state := func(name string, build func() fsm.State[*Input]) {
		l.machine.RegisterState(name, func(*fsm.Machine[*Input]) fsm.State[*Input] { return build() })
	}
	state(StateIdle, func() fsm.State[*Input] { return &idleState{l: l} })
	state(StateWalk, func() fsm.State[*Input] { return &moveState{l: l, name: StateWalk} })
	if l.params.RunSpeed > 0 {
		state(StateRun, func() fsm.State[*Input] { return &moveState{l: l, name: StateRun} })
	}
	state(StateAttack, func() fsm.State[*Input] { return &attackState{l: l} })
	state(StateDeath, func() fsm.State[*Input] { return &deathState{l: l} })
	return l
}

func (l *locomotion) start(owner *entity.Entity) error {
	l.owner = owner
	return l.machine.SetState(StateIdle)
}

func (l *locomotion) state() string { return l.machine.CurrentName() }

func (l *locomotion) duration(action string) time.Duration {
	return l.params.Actions[action]
}

// progress returns the normalized action time. Locomotion actions loop;
// attack and death clamp at 1.
func (l *locomotion) progress() float64 {
	d := l.duration(l.state())
	if d <= 0 {
		return 0
	}
	t := float64(l.clock) / float64(d)
	switch l.state() {
	case StateAttack, StateDeath:
		return math.Min(t, 1)
	}
	return t - math.Floor(t)
}

func (l *locomotion) finished() bool {
	return l.clock >= l.duration(l.state())
}

func (l *locomotion) die() error { return l.machine.SetState(StateDeath) }

// step drives the machine with in, advances the action clock, reports the
// action and moves the owner.
func (l *locomotion) step(dt time.Duration, in *Input) error {
	l.machine.Update(dt, in)
	l.clock += dt

	var errs []error
	errs = append(errs, l.owner.Broadcast(entity.Message{
		Topic: TopicPlayerAction,
		Value: Action{Name: l.state(), Time: l.progress()},
		From:  l.owner,
	}))
	errs = append(errs, l.move(dt, in.Keys()))
	return errors.Join(errs...)
}

func (l *locomotion) move(dt time.Duration, k Keys) error {
	state := l.state()
	if state == StateDeath || state == StateAttack {
		return nil
	}
	secs := dt.Seconds()
	var errs []error

	turn := 0.0
	if k.Left {
		turn += l.params.TurnRate * secs
	}
	if k.Right {
		turn -= l.params.TurnRate * secs
	}
	if turn != 0 {
		q := l.owner.Orientation().Mul(geom.FromAxisAngle(geom.Vec3{Y: 1}, turn))
		errs = append(errs, l.owner.SetOrientation(q))
	}

	speed := 0.0
	switch state {
	case StateWalk:
		speed = l.params.WalkSpeed
	case StateRun:
		speed = l.params.RunSpeed
	}
	if k.Backward && !k.Forward {
		speed = -speed
	}
	if speed != 0 {
		fwd := l.owner.Orientation().Forward()
		errs = append(errs, l.owner.SetPosition(l.owner.Position().Add(fwd.Scale(speed*secs))))
	}
	return errors.Join(errs...)
}

// faceTowards turns the owner on the ground plane to look at target.
func (l *locomotion) faceTowards(target geom.Vec3) error {
	d := target.Sub(l.owner.Position())
	if d.X == 0 && d.Z == 0 {
		return nil
	}
	yaw := math.Atan2(d.X, d.Z)
	return l.owner.SetOrientation(geom.FromAxisAngle(geom.Vec3{Y: 1}, yaw))
}

type idleState struct {
	fsm.Base[*Input]
	l *locomotion
}

func (*idleState) Name() string { return StateIdle }

func (s *idleState) Enter(fsm.State[*Input]) { s.l.clock = 0 }

func (s *idleState) Update(_ time.Duration, in *Input) {
	k := in.Keys()
	switch {
	case k.Forward || k.Backward:
		_ = s.l.machine.SetState(StateWalk)
	case k.Space:
		_ = s.l.machine.SetState(StateAttack)
	}
}

// moveState is walk or run. Switching between the two keeps the phase of
// the cycle.
type moveState struct {
	fsm.Base[*Input]
	l    *locomotion
	name string
}

func (s *moveState) Name() string { return s.name }

func (s *moveState) Enter(prev fsm.State[*Input]) {
	if prev == nil || (prev.Name() != StateWalk && prev.Name() != StateRun) {
		s.l.clock = 0
		return
	}
	from, to := s.l.duration(prev.Name()), s.l.duration(s.name)
	if from > 0 {
		s.l.clock = time.Duration(float64(s.l.clock) * float64(to) / float64(from))
	}
}

func (s *moveState) Update(_ time.Duration, in *Input) {
	k := in.Keys()
	if !k.Forward && !k.Backward {
		_ = s.l.machine.SetState(StateIdle)
		return
	}
	switch {
	case s.name == StateWalk && k.Shift && s.l.machine.Has(StateRun):
		_ = s.l.machine.SetState(StateRun)
	case s.name == StateRun && !k.Shift:
		_ = s.l.machine.SetState(StateWalk)
	}
}

type attackState struct {
	fsm.Base[*Input]
	l *locomotion
}

func (*attackState) Name() string { return StateAttack }

func (s *attackState) Enter(fsm.State[*Input]) { s.l.clock = 0 }

func (s *attackState) Update(time.Duration, *Input) {
	if s.l.finished() {
		_ = s.l.machine.SetState(StateIdle)
	}
}

// deathState is terminal.
type deathState struct {
	fsm.Base[*Input]
	l *locomotion
}

func (*deathState) Name() string { return StateDeath }

func (s *deathState) Enter(fsm.State[*Input]) { s.l.clock = 0 }
