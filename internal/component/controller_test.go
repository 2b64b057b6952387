package component

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/simcore/internal/core/entity"
	"github.com/l1jgo/simcore/internal/core/geom"
	"github.com/l1jgo/simcore/internal/scripting"
)

func newCharacter(t *testing.T) (*entity.Entity, *Input, *CharacterController) {
	t.Helper()
	e := entity.New()
	in := NewInput(InputParams{})
	cc := NewCharacterController(MotionParams{
		WalkSpeed: 2,
		RunSpeed:  4,
		Actions:   map[string]time.Duration{StateAttack: 400 * time.Millisecond},
	}, nil)
	require.NoError(t, e.AddComponent(in))
	require.NoError(t, e.AddComponent(cc))
	return e, in, cc
}

func TestCharacterControllerLocomotion(t *testing.T) {
	e, in, cc := newCharacter(t)
	assert.Equal(t, StateIdle, cc.State())

	in.SetKeys(Keys{Forward: true})
	e.Update(500 * time.Millisecond)
	assert.Equal(t, StateWalk, cc.State())
	assert.InDelta(t, 1.0, e.Position().Z, 1e-9)

	in.SetKeys(Keys{Forward: true, Shift: true})
	e.Update(500 * time.Millisecond)
	assert.Equal(t, StateRun, cc.State())
	assert.InDelta(t, 3.0, e.Position().Z, 1e-9)

	in.SetKeys(Keys{Forward: true})
	e.Update(time.Millisecond)
	assert.Equal(t, StateWalk, cc.State())

	in.SetKeys(Keys{})
	before := e.Position()
	e.Update(500 * time.Millisecond)
	assert.Equal(t, StateIdle, cc.State())
	assert.Equal(t, before, e.Position())
}

func TestCharacterControllerTurns(t *testing.T) {
	e, in, _ := newCharacter(t)
	in.SetKeys(Keys{Left: true})
	e.Update(500 * time.Millisecond) // pi rad/s default turn rate

	fwd := e.Orientation().Forward()
	assert.InDelta(t, 1.0, fwd.X, 1e-9)
	assert.InDelta(t, 0.0, fwd.Z, 1e-9)
}

func TestCharacterControllerAttackCycle(t *testing.T) {
	e, in, cc := newCharacter(t)
	actions := record(e, TopicPlayerAction)

	in.SetKeys(Keys{Space: true})
	e.Update(100 * time.Millisecond)
	assert.Equal(t, StateAttack, cc.State())
	in.SetKeys(Keys{})

	e.Update(300 * time.Millisecond)
	assert.Equal(t, StateAttack, cc.State())
	e.Update(100 * time.Millisecond)
	assert.Equal(t, StateIdle, cc.State())

	require.Len(t, *actions, 3)
	assert.Equal(t, Action{Name: StateAttack, Time: 0.25}, (*actions)[0].Value)
	assert.Equal(t, Action{Name: StateAttack, Time: 1}, (*actions)[1].Value)
	assert.Equal(t, StateIdle, (*actions)[2].Value.(Action).Name)
}

func TestCharacterControllerDeathIsTerminal(t *testing.T) {
	e, in, cc := newCharacter(t)
	require.NoError(t, e.Broadcast(entity.Message{Topic: TopicDeath}))
	assert.Equal(t, StateDeath, cc.State())

	in.SetKeys(Keys{Forward: true, Space: true})
	e.Update(time.Second)
	assert.Equal(t, StateDeath, cc.State())
	assert.Equal(t, geom.Vec3{}, e.Position())
}

func TestCharacterWithoutRunSpeedStaysWalking(t *testing.T) {
	e := entity.New()
	in := NewInput(InputParams{})
	cc := NewCharacterController(MotionParams{}, nil)
	require.NoError(t, e.AddComponent(in))
	require.NoError(t, e.AddComponent(cc))

	in.SetKeys(Keys{Forward: true, Shift: true})
	e.Update(time.Millisecond)
	e.Update(time.Millisecond)
	assert.Equal(t, StateWalk, cc.State())
}

type fakeBrain struct {
	cmd  scripting.AICommand
	seen []scripting.AIContext
}

func (b *fakeBrain) RunNpcAI(ctx scripting.AIContext) scripting.AICommand {
	b.seen = append(b.seen, ctx)
	return b.cmd
}

func TestNPCControllerChasesPlayer(t *testing.T) {
	f := newFixture(t)
	brain := &fakeBrain{cmd: scripting.AICommand{Type: scripting.CmdMoveToward}}
	f.spawn(PlayerName, geom.Vec3{X: 10}, NewHealth(HealthParams{Health: 10}))
	npc := NewNPCController(NPCParams{}, brain, nil)
	e := f.spawn("spider", geom.Vec3{}, NewHealth(HealthParams{Health: 5}), npc)

	e.Update(500 * time.Millisecond)
	require.Len(t, brain.seen, 1)
	ctx := brain.seen[0]
	assert.True(t, ctx.HasTarget)
	assert.Equal(t, PlayerName, ctx.TargetName)
	assert.InDelta(t, 10.0, ctx.TargetDist, 1e-9)
	assert.Equal(t, "spider", ctx.Name)
	assert.Equal(t, StateIdle, ctx.State)

	assert.Equal(t, StateWalk, npc.State())
	assert.InDelta(t, 1.0, e.Position().X, 1e-9, "walked toward the player")
	assert.InDelta(t, 0.0, e.Position().Z, 1e-9)

	brain.cmd = scripting.AICommand{Type: scripting.CmdAttack}
	e.Update(time.Millisecond) // walk -> idle
	e.Update(time.Millisecond) // idle -> attack
	assert.Equal(t, StateAttack, npc.State())
}

func TestNPCControllerIgnoresDeadPlayer(t *testing.T) {
	f := newFixture(t)
	brain := &fakeBrain{cmd: scripting.AICommand{Type: scripting.CmdMoveToward}}
	f.spawn(PlayerName, geom.Vec3{X: 5}, NewHealth(HealthParams{Health: 0}))
	f.spawn("bystander", geom.Vec3{X: 3}, NewHealth(HealthParams{Health: 10}))
	npc := NewNPCController(NPCParams{}, brain, nil)
	e := f.spawn("spider", geom.Vec3{}, npc)

	e.Update(100 * time.Millisecond)
	require.Len(t, brain.seen, 1)
	assert.False(t, brain.seen[0].HasTarget)
	assert.Equal(t, StateIdle, npc.State(), "no target means no movement")
	assert.Equal(t, geom.Vec3{}, e.Position())
}

func TestNPCControllerStopsThinkingWhenDead(t *testing.T) {
	f := newFixture(t)
	brain := &fakeBrain{cmd: scripting.AICommand{Type: scripting.CmdIdle}}
	npc := NewNPCController(NPCParams{}, brain, nil)
	e := f.spawn("spider", geom.Vec3{}, npc)

	require.NoError(t, e.Broadcast(entity.Message{Topic: TopicDeath}))
	e.Update(100 * time.Millisecond)
	assert.Equal(t, StateDeath, npc.State())
	assert.Empty(t, brain.seen)
}
