package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/simcore/internal/core/entity"
	"github.com/l1jgo/simcore/internal/core/spatial"
	coresys "github.com/l1jgo/simcore/internal/core/system"
)

// TelemetrySystem counts ticks and periodically logs world statistics.
// Phase 3 (PostUpdate).
type TelemetrySystem struct {
	entities *entity.Manager
	grid     *spatial.Grid
	every    int
	ticks    int
	elapsed  time.Duration
	log      *zap.Logger
}

// NewTelemetrySystem logs every n ticks; n <= 0 disables logging.
func NewTelemetrySystem(m *entity.Manager, grid *spatial.Grid, every int, log *zap.Logger) *TelemetrySystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &TelemetrySystem{entities: m, grid: grid, every: every, log: log}
}

func (s *TelemetrySystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

// Ticks returns the number of completed ticks.
func (s *TelemetrySystem) Ticks() int { return s.ticks }

// Elapsed returns the simulated time so far.
func (s *TelemetrySystem) Elapsed() time.Duration { return s.elapsed }

func (s *TelemetrySystem) Update(dt time.Duration) {
	s.ticks++
	s.elapsed += dt
	if s.every <= 0 || s.ticks%s.every != 0 {
		return
	}
	st := s.grid.Stats()
	s.log.Info("tick",
		zap.Int("tick", s.ticks),
		zap.Duration("elapsed", s.elapsed),
		zap.Int("entities", s.entities.Len()),
		zap.Int("active", s.entities.ActiveLen()),
		zap.Int("grid_clients", st.Clients),
		zap.Int("grid_relinks", st.Relinks),
		zap.Int("grid_queries", st.Queries),
	)
}
