package entity

import "time"

// Component is a unit of behaviour owned by exactly one Entity.
// Implementations embed Base and provide Kind.
type Component interface {
	Kind() Kind
	Parent() *Entity
	SetParent(e *Entity)
	// Init runs once after the component is attached. Handlers are usually
	// registered here, so AddComponent order matters between dependants.
	Init() error
	Update(dt time.Duration)
}

// Disposer is implemented by components holding resources outside the entity
// (grid clients, spawned entities). Dispose runs on replacement and on Destroy.
type Disposer interface {
	Dispose()
}

// Base supplies parent wiring and no-op lifecycle hooks.
type Base struct {
	parent *Entity
}

func (b *Base) Parent() *Entity      { return b.parent }
func (b *Base) SetParent(e *Entity)  { b.parent = e }
func (b *Base) Init() error          { return nil }
func (b *Base) Update(time.Duration) {}

// GetComponent looks up a sibling component on the parent entity.
func (b *Base) GetComponent(k Kind) (Component, bool) {
	if b.parent == nil {
		return nil, false
	}
	return b.parent.GetComponent(k)
}

// FindEntity resolves another entity by name through the parent's manager.
func (b *Base) FindEntity(name string) (*Entity, bool) {
	if b.parent == nil {
		return nil, false
	}
	return b.parent.FindEntity(name)
}

// Broadcast publishes msg on the parent entity.
func (b *Base) Broadcast(msg Message) error {
	if b.parent == nil {
		return ErrDetached
	}
	return b.parent.Broadcast(msg)
}

// RegisterHandler subscribes h to topic on the parent entity.
func (b *Base) RegisterHandler(topic string, h Handler) {
	if b.parent != nil {
		b.parent.RegisterHandler(topic, h)
	}
}
