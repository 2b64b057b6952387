package component

import (
	"time"

	"github.com/l1jgo/simcore/internal/core/entity"
)

// Keys is the movement/action key state read by controllers.
type Keys struct {
	Forward  bool `yaml:"forward"`
	Backward bool `yaml:"backward"`
	Left     bool `yaml:"left"`
	Right    bool `yaml:"right"`
	Space    bool `yaml:"space"`
	Shift    bool `yaml:"shift"`
}

// InputStep holds Keys for Duration.
type InputStep struct {
	Keys     Keys          `yaml:"keys"`
	Duration time.Duration `yaml:"duration"`
}

// InputParams optionally scripts the key state over time, which is how the
// headless demo drives its player.
type InputParams struct {
	Script []InputStep `yaml:"script"`
	Loop   bool        `yaml:"loop"`
}

type Input struct {
	entity.Base
	keys   Keys
	params InputParams
	step   int
	clock  time.Duration
}

// NewInput drops script steps without a positive duration.
func NewInput(p InputParams) *Input {
	steps := make([]InputStep, 0, len(p.Script))
	for _, s := range p.Script {
		if s.Duration > 0 {
			steps = append(steps, s)
		}
	}
	p.Script = steps
	in := &Input{params: p}
	if len(steps) > 0 {
		in.keys = steps[0].Keys
	}
	return in
}

func (*Input) Kind() entity.Kind { return entity.KindInput }

func (in *Input) Keys() Keys     { return in.keys }
func (in *Input) SetKeys(k Keys) { in.keys = k }
func (in *Input) Scripted() bool { return in.step < len(in.params.Script) }

// Update advances the key script, if any. Manual SetKeys calls are
// overwritten while a script is running.
func (in *Input) Update(dt time.Duration) {
	if !in.Scripted() {
		return
	}
	in.clock += dt
	for in.Scripted() && in.clock >= in.params.Script[in.step].Duration {
		in.clock -= in.params.Script[in.step].Duration
		in.step++
		if in.step == len(in.params.Script) && in.params.Loop {
			in.step = 0
		}
		if !in.Scripted() {
			in.keys = Keys{}
			return
		}
		in.keys = in.params.Script[in.step].Keys
	}
}
