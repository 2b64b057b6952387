package entity

// Topics broadcast by the core itself.
const (
	TopicPosition    = "update.position"
	TopicRotation    = "update.rotation"
	TopicActivated   = "entity.activated"
	TopicDeactivated = "entity.deactivated"
)

// Message is the unit of entity-scoped pub/sub. Value's shape is agreed
// between the producer and consumer of a topic.
type Message struct {
	Topic string
	Value any
	From  *Entity
}

// Handler reacts to a message. A returned error does not stop delivery to
// the remaining handlers; errors are joined and returned from Broadcast.
type Handler func(Message) error
