package entity

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/simcore/internal/core/event"
)

func names(es []*Entity) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Name())
	}
	return out
}

func all(*Entity) bool { return true }

func TestManagerAddAndGet(t *testing.T) {
	m := NewManager()
	e := New()
	require.NoError(t, m.Add(e, "player"))

	got, ok := m.Get("player")
	require.True(t, ok)
	assert.Same(t, e, got)
	assert.Same(t, m, e.Manager())
	assert.True(t, e.Active())
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, m.ActiveLen())

	found, ok := e.FindEntity("player")
	assert.True(t, ok)
	assert.Same(t, e, found)
}

func TestManagerGeneratedNames(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(New(), "__name__1"))

	a, b := New(), New()
	require.NoError(t, m.Add(a, ""))
	require.NoError(t, m.Add(b, ""))

	assert.Equal(t, "__name__0", a.Name())
	assert.Equal(t, "__name__2", b.Name(), "taken names are skipped")
}

func TestManagerRejectsDuplicates(t *testing.T) {
	m := NewManager()
	e := New()
	require.NoError(t, m.Add(e, "npc"))

	assert.ErrorIs(t, m.Add(New(), "npc"), ErrDuplicateName)
	assert.ErrorIs(t, m.Add(e, "npc-2"), ErrAlreadyManaged)
	assert.ErrorIs(t, NewManager().Add(e, "elsewhere"), ErrAlreadyManaged)
	assert.ErrorIs(t, m.Add(nil, "x"), ErrNilEntity)
	assert.Equal(t, 1, m.Len())
}

func TestManagerNormalizesNames(t *testing.T) {
	m := NewManager()
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	require.NoError(t, m.Add(New(), composed))

	assert.ErrorIs(t, m.Add(New(), decomposed), ErrDuplicateName)
	_, ok := m.Get(decomposed)
	assert.True(t, ok)
}

// namer records its entity's name on every update.
type namer struct {
	Base
	out *[]string
}

func (n *namer) Kind() Kind           { return KindInput }
func (n *namer) Update(time.Duration) { *n.out = append(*n.out, n.Parent().Name()) }

func TestManagerUpdateInInsertionOrder(t *testing.T) {
	m := NewManager()
	var order []string
	for _, n := range []string{"c", "a", "b"} {
		e := New()
		require.NoError(t, e.AddComponent(&namer{out: &order}))
		require.NoError(t, m.Add(e, n))
	}

	m.Update(time.Millisecond)
	assert.Equal(t, []string{"c", "a", "b"}, order)
	assert.Equal(t, []string{"c", "a", "b"}, names(m.Filter(all)))
}

func TestSetActiveExcludesFromSweepAndFilter(t *testing.T) {
	m := NewManager()
	a, b := New(), New()
	pa, pb := &probe{kind: KindHealth}, &probe{kind: KindHealth}
	require.NoError(t, a.AddComponent(pa))
	require.NoError(t, b.AddComponent(pb))
	require.NoError(t, m.Add(a, "a"))
	require.NoError(t, m.Add(b, "b"))

	require.NoError(t, a.SetActive(false))
	m.Update(time.Millisecond)

	assert.Equal(t, 0, pa.updates)
	assert.Equal(t, 1, pb.updates)
	assert.Equal(t, []string{"b"}, names(m.Filter(all)))
	_, ok := m.Get("a")
	assert.True(t, ok, "inactive entities stay reachable by name")

	require.NoError(t, a.SetActive(true))
	assert.Equal(t, []string{"a", "b"}, names(m.Filter(all)), "reactivation keeps insertion order")
}

func TestSetActiveBroadcastsLifecycleTopics(t *testing.T) {
	m := NewManager()
	e := New()
	require.NoError(t, m.Add(e, "e"))
	var topics []string
	for _, topic := range []string{TopicActivated, TopicDeactivated} {
		e.RegisterHandler(topic, func(msg Message) error {
			topics = append(topics, msg.Topic)
			return nil
		})
	}

	require.NoError(t, e.SetActive(false))
	require.NoError(t, e.SetActive(false)) // already inactive
	require.NoError(t, e.SetActive(true))

	assert.Equal(t, []string{TopicDeactivated, TopicActivated}, topics)
}

// deactivator switches a peer off while the manager is sweeping.
type deactivator struct {
	Base
	m    *Manager
	peer string
	seen []int
}

func (d *deactivator) Kind() Kind { return KindInput }

func (d *deactivator) Update(time.Duration) {
	d.seen = append(d.seen, d.m.ActiveLen())
	if peer, ok := d.m.Get(d.peer); ok && peer.Active() {
		_ = peer.SetActive(false)
	}
}

func TestDeactivationDuringSweepIsDeferred(t *testing.T) {
	m := NewManager()
	first, second := New(), New()
	d := &deactivator{m: m, peer: "second"}
	p := &probe{kind: KindHealth}
	require.NoError(t, first.AddComponent(d))
	require.NoError(t, second.AddComponent(p))
	require.NoError(t, m.Add(first, "first"))
	require.NoError(t, m.Add(second, "second"))

	m.Update(time.Millisecond)
	assert.Equal(t, 1, p.updates, "peer still updated in the sweep that deactivated it")
	assert.Equal(t, []int{2}, d.seen)
	assert.False(t, second.Active())
	assert.Equal(t, 1, m.ActiveLen())

	m.Update(time.Millisecond)
	assert.Equal(t, 1, p.updates)
}

type spawner struct {
	Base
	m       *Manager
	spawned *Entity
}

func (s *spawner) Kind() Kind { return KindLevelUpSpawner }

func (s *spawner) Update(time.Duration) {
	if s.spawned != nil {
		return
	}
	s.spawned = New()
	_ = s.spawned.AddComponent(&probe{kind: KindLevelUpEffect})
	_ = s.m.Add(s.spawned, "effect")
}

func TestAddDuringSweepJoinsNextSweep(t *testing.T) {
	m := NewManager()
	root := New()
	s := &spawner{m: m}
	require.NoError(t, root.AddComponent(s))
	require.NoError(t, m.Add(root, "root"))

	m.Update(time.Millisecond)
	require.NotNil(t, s.spawned)
	c, _ := s.spawned.GetComponent(KindLevelUpEffect)
	assert.Equal(t, 0, c.(*probe).updates)
	assert.True(t, s.spawned.Active())
	assert.Equal(t, 2, m.ActiveLen())

	m.Update(time.Millisecond)
	assert.Equal(t, 1, c.(*probe).updates)
}

func TestRemove(t *testing.T) {
	m := NewManager()
	e := New()
	p := &probe{kind: KindHealth}
	require.NoError(t, e.AddComponent(p))
	require.NoError(t, m.Add(e, "doomed"))
	deactivated := false
	e.RegisterHandler(TopicDeactivated, func(Message) error {
		deactivated = true
		return nil
	})

	require.NoError(t, m.Remove("doomed"))
	assert.True(t, deactivated)
	assert.Equal(t, 1, p.disposed)
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, e.Manager())
	assert.ErrorIs(t, m.Remove("doomed"), ErrNotFound)

	// the name is free again
	require.NoError(t, m.Add(New(), "doomed"))
}

func TestManagerEmitsLifecycleEvents(t *testing.T) {
	bus := event.NewBus()
	m := NewManager(WithEventBus(bus))
	var got []string
	event.Subscribe(bus, func(ev event.EntityAdded) { got = append(got, "added "+ev.Name) })
	event.Subscribe(bus, func(ev event.EntityDeactivated) { got = append(got, "deactivated "+ev.Name) })
	event.Subscribe(bus, func(ev event.EntityRemoved) { got = append(got, "removed "+ev.Name) })

	e := New()
	require.NoError(t, m.Add(e, "e"))
	require.NoError(t, m.Remove("e"))
	assert.Empty(t, got, "events are observed one tick late")

	bus.SwapBuffers()
	bus.DispatchAll()
	assert.ElementsMatch(t, []string{"added e", "deactivated e", "removed e"}, got)
}

func TestSelfRemovalInsideBroadcastUnwindsDepth(t *testing.T) {
	m := NewManager(WithMaxBroadcastDepth(4))
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("doomed-%d", i)
		e := New()
		require.NoError(t, m.Add(e, name))
		e.RegisterHandler("die", func(Message) error { return m.Remove(name) })
		require.NoError(t, e.Broadcast(Message{Topic: "die"}))
		assert.Equal(t, 0, m.dispatch.depth)
	}

	survivor := New()
	require.NoError(t, m.Add(survivor, "survivor"))
	calls := 0
	survivor.RegisterHandler("t", func(Message) error { calls++; return nil })
	require.NoError(t, survivor.Broadcast(Message{Topic: "t"}))
	assert.Equal(t, 1, calls)
}

func TestAddInsideBroadcastKeepsManagerDepth(t *testing.T) {
	m := NewManager()
	e := New()
	e.RegisterHandler("join", func(Message) error { return m.Add(e, "joiner") })

	require.NoError(t, e.Broadcast(Message{Topic: "join"}))
	assert.Equal(t, 0, m.dispatch.depth)
	assert.Same(t, m, e.Manager())
}
