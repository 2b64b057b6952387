package entity

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/l1jgo/simcore/internal/core/geom"
)

// Entity is a named, positioned aggregate of components and the root of a
// topic-scoped pub/sub channel. Accessed only from the game loop goroutine.
type Entity struct {
	name     string
	position geom.Vec3
	rotation geom.Quat

	components [kindCount]Component
	order      []Kind // attach order, drives Update

	handlers map[string][]Handler
	inFlight map[string]bool // topics currently being dispatched on this entity

	manager  *Manager
	dispatch *dispatcher
	seq      uint64 // registration order within the manager
	active   bool
}

func New() *Entity {
	return &Entity{
		rotation: geom.Identity(),
		order:    make([]Kind, 0, 4),
		handlers: make(map[string][]Handler),
		inFlight: make(map[string]bool),
		dispatch: newDispatcher(DefaultMaxBroadcastDepth),
	}
}

func (e *Entity) Name() string           { return e.name }
func (e *Entity) Position() geom.Vec3    { return e.position }
func (e *Entity) Orientation() geom.Quat { return e.rotation }
func (e *Entity) Manager() *Manager      { return e.manager }

// Active reports whether the entity takes part in the manager's update sweep.
func (e *Entity) Active() bool { return e.active }

func (e *Entity) String() string {
	if e.name == "" {
		return "<unnamed>"
	}
	return e.name
}

// AddComponent attaches c, replacing any component of the same kind, and
// runs its Init hook. A replaced component is disposed; a component whose
// Init fails is detached again.
func (e *Entity) AddComponent(c Component) error {
	if c == nil {
		return ErrNilComponent
	}
	k := c.Kind()
	if !k.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidKind, k)
	}
	if p := c.Parent(); p != nil && p != e {
		return fmt.Errorf("%w: %s on %s", ErrComponentOwned, k, p)
	}

	switch old := e.components[k]; {
	case old == c:
		return nil
	case old == nil:
		e.order = append(e.order, k)
	default:
		if d, ok := old.(Disposer); ok {
			d.Dispose()
		}
		old.SetParent(nil)
	}

	c.SetParent(e)
	e.components[k] = c
	if err := c.Init(); err != nil {
		e.detach(k)
		return fmt.Errorf("init %s component on %s: %w", k, e, err)
	}
	return nil
}

// detach drops the component of kind k without disposing it.
func (e *Entity) detach(k Kind) {
	if c := e.components[k]; c != nil {
		c.SetParent(nil)
	}
	e.components[k] = nil
	if i := slices.Index(e.order, k); i >= 0 {
		e.order = slices.Delete(e.order, i, i+1)
	}
}

// GetComponent returns the component of kind k, if attached.
func (e *Entity) GetComponent(k Kind) (Component, bool) {
	if !k.Valid() {
		return nil, false
	}
	c := e.components[k]
	return c, c != nil
}

// Get is the checked form of GetComponent: it fails when the component is
// missing or is not a T.
func Get[T Component](e *Entity, k Kind) (T, error) {
	var zero T
	c, ok := e.GetComponent(k)
	if !ok {
		return zero, fmt.Errorf("%w: %s on %s", ErrComponentNotFound, k, e)
	}
	t, ok := c.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s on %s is %T", ErrComponentType, k, e, c)
	}
	return t, nil
}

// FindEntity resolves another entity by name through the owning manager.
func (e *Entity) FindEntity(name string) (*Entity, bool) {
	if e.manager == nil {
		return nil, false
	}
	return e.manager.Get(name)
}

// RegisterHandler appends h to the subscribers of topic.
func (e *Entity) RegisterHandler(topic string, h Handler) {
	e.handlers[topic] = append(e.handlers[topic], h)
}

// Broadcast delivers msg synchronously to every handler of msg.Topic in
// registration order. Nested broadcasts run depth-first before the next
// handler. A topic with no handlers is silently dropped.
//
// Re-broadcasting a topic on this entity while it is still being dispatched
// fails with ErrBroadcastCycle, and nesting past the manager's depth limit
// fails with ErrBroadcastDepth.
func (e *Entity) Broadcast(msg Message) error {
	hs := e.handlers[msg.Topic]
	if len(hs) == 0 {
		return nil
	}
	if e.inFlight[msg.Topic] {
		return fmt.Errorf("%w: %q on %s", ErrBroadcastCycle, msg.Topic, e)
	}
	// Handlers may Remove or re-Add e, which swaps e.dispatch.
	d := e.dispatch
	if err := d.enter(); err != nil {
		return fmt.Errorf("%w: %q on %s", err, msg.Topic, e)
	}
	e.inFlight[msg.Topic] = true
	defer func() {
		delete(e.inFlight, msg.Topic)
		d.leave()
	}()

	var errs []error
	for _, h := range hs {
		if err := h(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetPosition moves the entity and broadcasts update.position.
func (e *Entity) SetPosition(p geom.Vec3) error {
	e.position = p
	return e.Broadcast(Message{Topic: TopicPosition, Value: p, From: e})
}

// SetOrientation rotates the entity and broadcasts update.rotation.
func (e *Entity) SetOrientation(q geom.Quat) error {
	e.rotation = q
	return e.Broadcast(Message{Topic: TopicRotation, Value: q, From: e})
}

// SetActive asks the owning manager to include or exclude the entity from
// the update sweep. The entity and its components are kept.
func (e *Entity) SetActive(active bool) error {
	if e.manager == nil {
		return ErrNotManaged
	}
	return e.manager.SetActive(e, active)
}

// Update ticks every component in attach order.
func (e *Entity) Update(dt time.Duration) {
	for _, k := range e.order {
		if c := e.components[k]; c != nil {
			c.Update(dt)
		}
	}
}

// Destroy disposes components in reverse attach order and drops all
// handlers. The entity is unusable afterwards.
func (e *Entity) Destroy() {
	for i := len(e.order) - 1; i >= 0; i-- {
		k := e.order[i]
		c := e.components[k]
		if d, ok := c.(Disposer); ok {
			d.Dispose()
		}
		c.SetParent(nil)
		e.components[k] = nil
	}
	e.order = e.order[:0]
	clear(e.handlers)
}
