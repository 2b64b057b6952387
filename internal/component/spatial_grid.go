package component

import (
	"github.com/l1jgo/simcore/internal/core/entity"
	"github.com/l1jgo/simcore/internal/core/geom"
	"github.com/l1jgo/simcore/internal/core/spatial"
)

// Nearby is one proximity query hit.
type Nearby struct {
	Entity *entity.Entity
	Client *spatial.Client
}

// SpatialGridController keeps its entity registered in the grid while the
// entity is active.
type SpatialGridController struct {
	entity.Base
	grid   *spatial.Grid
	client *spatial.Client
}

func NewSpatialGridController(grid *spatial.Grid) *SpatialGridController {
	return &SpatialGridController{grid: grid}
}

func (*SpatialGridController) Kind() entity.Kind { return entity.KindSpatialGrid }

func (s *SpatialGridController) Init() error {
	p := s.Parent()
	s.client = s.grid.NewClient(p.Position().XZ(), geom.Vec2{X: 1, Y: 1})
	s.client.Payload = p

	s.RegisterHandler(entity.TopicPosition, s.onPosition)
	s.RegisterHandler(entity.TopicDeactivated, s.onDeactivated)
	s.RegisterHandler(entity.TopicActivated, s.onActivated)
	return nil
}

func (s *SpatialGridController) onPosition(msg entity.Message) error {
	p, ok := msg.Value.(geom.Vec3)
	if !ok {
		return ErrBadPayload
	}
	s.client.Position = p.XZ()
	if s.client.Linked() {
		s.grid.UpdateClient(s.client)
	}
	return nil
}

func (s *SpatialGridController) onDeactivated(entity.Message) error {
	s.grid.Remove(s.client)
	return nil
}

func (s *SpatialGridController) onActivated(entity.Message) error {
	s.client.Position = s.Parent().Position().XZ()
	s.grid.UpdateClient(s.client)
	return nil
}

// Dispose unlinks the client; the grid slot is reused.
func (s *SpatialGridController) Dispose() {
	if s.client != nil {
		s.grid.Remove(s.client)
	}
}

// Client returns the grid handle, nil before Init.
func (s *SpatialGridController) Client() *spatial.Client { return s.client }

// FindNearbyEntities returns entities whose clients overlap an rng×rng box
// centred on the parent, excluding the parent itself.
func (s *SpatialGridController) FindNearbyEntities(rng float64) []Nearby {
	if s.client == nil {
		return nil
	}
	hits := s.grid.FindNear(s.Parent().Position().XZ(), geom.Vec2{X: rng, Y: rng})
	out := make([]Nearby, 0, len(hits))
	for _, c := range hits {
		if c == s.client {
			continue
		}
		e, ok := c.Payload.(*entity.Entity)
		if !ok {
			continue
		}
		out = append(out, Nearby{Entity: e, Client: c})
	}
	return out
}
