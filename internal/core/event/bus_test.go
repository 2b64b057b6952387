package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsAreVisibleNextTick(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(ev EntityAdded) { got = append(got, ev.Name) })

	Emit(b, EntityAdded{Name: "a"})
	Emit(b, EntityAdded{Name: "b"})
	assert.Equal(t, 2, b.Pending())

	b.DispatchAll() // nothing in front yet
	assert.Empty(t, got)

	b.SwapBuffers()
	assert.Equal(t, 0, b.Pending())
	b.DispatchAll()
	assert.Equal(t, []string{"a", "b"}, got)

	// Front is replaced by the (empty) back buffer on the next swap.
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestHandlersOnlySeeTheirType(t *testing.T) {
	b := NewBus()
	added, removed := 0, 0
	Subscribe(b, func(EntityAdded) { added++ })
	Subscribe(b, func(EntityRemoved) { removed++ })
	Subscribe(b, func(EntityRemoved) { removed++ })

	Emit(b, EntityRemoved{Name: "x"})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Equal(t, 0, added)
	assert.Equal(t, 2, removed)
}
