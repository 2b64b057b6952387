package entity

// DefaultMaxBroadcastDepth bounds nested broadcasts when no manager option
// overrides it.
const DefaultMaxBroadcastDepth = 64

// dispatcher tracks nesting of Broadcast calls. All entities of one manager
// share a dispatcher so that chains hopping between entities are bounded too.
type dispatcher struct {
	depth int
	max   int
}

func newDispatcher(max int) *dispatcher {
	if max <= 0 {
		max = DefaultMaxBroadcastDepth
	}
	return &dispatcher{max: max}
}

func (d *dispatcher) enter() error {
	if d.depth >= d.max {
		return ErrBroadcastDepth
	}
	d.depth++
	return nil
}

func (d *dispatcher) leave() { d.depth-- }
