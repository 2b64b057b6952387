package event

// Entity registry notifications emitted by entity.Manager.

type EntityAdded struct {
	Name string
}

type EntityActivated struct {
	Name string
}

type EntityDeactivated struct {
	Name string
}

type EntityRemoved struct {
	Name string
}
