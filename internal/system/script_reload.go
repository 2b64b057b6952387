package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/simcore/internal/core/system"
)

// Reloader is implemented by *scripting.Engine.
type Reloader interface {
	Reload() error
}

// ScriptReloadSystem applies script changes reported by a file watcher
// between ticks, so NPC brains never see a half-swapped VM.
// Phase 0 (Input).
type ScriptReloadSystem struct {
	engine  Reloader
	changes <-chan string
	log     *zap.Logger
}

func NewScriptReloadSystem(engine Reloader, changes <-chan string, log *zap.Logger) *ScriptReloadSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScriptReloadSystem{engine: engine, changes: changes, log: log}
}

func (s *ScriptReloadSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ScriptReloadSystem) Update(_ time.Duration) {
	var changed []string
drain:
	for {
		select {
		case path, ok := <-s.changes:
			if !ok {
				s.changes = nil
				break drain
			}
			changed = append(changed, path)
		default:
			break drain
		}
	}
	if len(changed) == 0 {
		return
	}
	if err := s.engine.Reload(); err != nil {
		s.log.Warn("script reload failed, keeping previous scripts",
			zap.Strings("changed", changed),
			zap.Error(err),
		)
	}
}
