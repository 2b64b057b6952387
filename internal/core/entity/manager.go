package entity

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/l1jgo/simcore/internal/core/event"
)

type opKind uint8

const (
	opAdd opKind = iota
	opActivate
	opDeactivate
	opRemove
)

// pendingOp is a registry change requested while Update is sweeping.
// Flushed after the sweep, the same way the ECS world drains its destroy queue.
type pendingOp struct {
	kind opKind
	e    *Entity
}

// Manager is the name registry and update driver for entities.
type Manager struct {
	ids    int
	seq    uint64
	byName map[string]*Entity
	active []*Entity // sorted by seq

	pending  []pendingOp
	updating bool

	dispatch *dispatcher
	bus      *event.Bus
	log      *zap.Logger
}

type ManagerOption func(*Manager)

func WithLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithEventBus makes the manager emit lifecycle events (event.EntityAdded etc.)
// on bus. Subscribers observe them on the next tick.
func WithEventBus(bus *event.Bus) ManagerOption {
	return func(m *Manager) { m.bus = bus }
}

// WithMaxBroadcastDepth bounds nested Broadcast calls across all entities of
// the manager.
func WithMaxBroadcastDepth(n int) ManagerOption {
	return func(m *Manager) { m.dispatch = newDispatcher(n) }
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		byName:   make(map[string]*Entity, 64),
		active:   make([]*Entity, 0, 64),
		dispatch: newDispatcher(DefaultMaxBroadcastDepth),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Add registers e under name. An empty name is replaced by a generated
// "__name__N". Names are compared in NFC form.
func (m *Manager) Add(e *Entity, name string) error {
	if e == nil {
		return ErrNilEntity
	}
	if e.manager != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyManaged, e)
	}
	if name == "" {
		name = m.generateName()
	} else {
		name = norm.NFC.String(name)
		if _, taken := m.byName[name]; taken {
			return fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}

	e.name = name
	e.manager = m
	e.dispatch = m.dispatch
	e.seq = m.seq
	m.seq++
	m.byName[name] = e

	if m.updating {
		m.pending = append(m.pending, pendingOp{kind: opAdd, e: e})
	} else {
		e.active = true
		m.active = append(m.active, e)
	}
	if m.bus != nil {
		event.Emit(m.bus, event.EntityAdded{Name: name})
	}
	m.log.Debug("entity added", zap.String("entity", name))
	return nil
}

func (m *Manager) generateName() string {
	for {
		name := fmt.Sprintf("__name__%d", m.ids)
		m.ids++
		if _, taken := m.byName[name]; !taken {
			return name
		}
	}
}

// Get looks an entity up by name, active or not.
func (m *Manager) Get(name string) (*Entity, bool) {
	e, ok := m.byName[norm.NFC.String(name)]
	return e, ok
}

// Filter returns the active entities matching pred, in insertion order.
func (m *Manager) Filter(pred func(*Entity) bool) []*Entity {
	var out []*Entity
	for _, e := range m.active {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of registered entities.
func (m *Manager) Len() int { return len(m.byName) }

// ActiveLen returns the number of entities in the update sweep.
func (m *Manager) ActiveLen() int { return len(m.active) }

// SetActive includes or excludes e from the update sweep and notifies it via
// entity.activated / entity.deactivated. Requests made during Update are
// applied once the sweep finishes.
func (m *Manager) SetActive(e *Entity, active bool) error {
	if e == nil || e.manager != m {
		return ErrNotManaged
	}
	op := pendingOp{kind: opDeactivate, e: e}
	if active {
		op.kind = opActivate
	}
	if m.updating {
		m.pending = append(m.pending, op)
		return nil
	}
	return m.apply(op)
}

// Remove deactivates, destroys and unregisters the named entity.
func (m *Manager) Remove(name string) error {
	e, ok := m.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	op := pendingOp{kind: opRemove, e: e}
	if m.updating {
		m.pending = append(m.pending, op)
		return nil
	}
	return m.apply(op)
}

// Update ticks every active entity in insertion order, then applies the
// registry changes requested during the sweep.
func (m *Manager) Update(dt time.Duration) {
	m.updating = true
	for _, e := range m.active {
		e.Update(dt)
	}
	m.updating = false
	m.flush()
}

func (m *Manager) flush() {
	if len(m.pending) == 0 {
		return
	}
	ops := m.pending
	m.pending = nil
	for _, op := range ops {
		if err := m.apply(op); err != nil {
			m.log.Warn("deferred entity change failed",
				zap.String("entity", op.e.name),
				zap.Error(err),
			)
		}
	}
}

func (m *Manager) apply(op pendingOp) error {
	e := op.e
	if e.manager != m {
		// removed earlier in the same flush
		return nil
	}
	switch op.kind {
	case opAdd:
		e.active = true
		m.insertActive(e)
		return nil
	case opActivate:
		if e.active {
			return nil
		}
		e.active = true
		m.insertActive(e)
		if m.bus != nil {
			event.Emit(m.bus, event.EntityActivated{Name: e.name})
		}
		return e.Broadcast(Message{Topic: TopicActivated, Value: true, From: e})
	case opDeactivate:
		return m.deactivate(e)
	case opRemove:
		err := m.deactivate(e)
		e.Destroy()
		delete(m.byName, e.name)
		e.manager = nil
		e.dispatch = newDispatcher(DefaultMaxBroadcastDepth)
		if m.bus != nil {
			event.Emit(m.bus, event.EntityRemoved{Name: e.name})
		}
		m.log.Debug("entity removed", zap.String("entity", e.name))
		return err
	}
	return fmt.Errorf("entity: unknown registry op %d", op.kind)
}

func (m *Manager) deactivate(e *Entity) error {
	if !e.active {
		return nil
	}
	e.active = false
	if i, ok := m.indexActive(e); ok {
		m.active = slices.Delete(m.active, i, i+1)
	}
	if m.bus != nil {
		event.Emit(m.bus, event.EntityDeactivated{Name: e.name})
	}
	return e.Broadcast(Message{Topic: TopicDeactivated, Value: false, From: e})
}

func (m *Manager) indexActive(e *Entity) (int, bool) {
	i, found := slices.BinarySearchFunc(m.active, e.seq, func(x *Entity, seq uint64) int {
		return cmp.Compare(x.seq, seq)
	})
	return i, found && m.active[i] == e
}

func (m *Manager) insertActive(e *Entity) {
	i, found := slices.BinarySearchFunc(m.active, e.seq, func(x *Entity, seq uint64) int {
		return cmp.Compare(x.seq, seq)
	})
	if found {
		return
	}
	m.active = slices.Insert(m.active, i, e)
}
