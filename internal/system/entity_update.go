package system

import (
	"time"

	"github.com/l1jgo/simcore/internal/core/entity"
	coresys "github.com/l1jgo/simcore/internal/core/system"
)

// EntityUpdateSystem runs the manager's sweep over active entities.
// Phase 2 (Update).
type EntityUpdateSystem struct {
	entities *entity.Manager
}

func NewEntityUpdateSystem(m *entity.Manager) *EntityUpdateSystem {
	return &EntityUpdateSystem{entities: m}
}

func (s *EntityUpdateSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *EntityUpdateSystem) Update(dt time.Duration) {
	s.entities.Update(dt)
}
