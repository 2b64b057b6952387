package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to scripts as the API_VERSION global.
const APIVersion = 1

// scriptDirs are loaded in order; later files may override earlier globals.
var scriptDirs = []string{"core", "ai"}

// Engine wraps a single gopher-lua VM for NPC decision making.
// Single-goroutine access only (game loop). Reload swaps the VM between ticks.
type Engine struct {
	vm  *lua.LState
	dir string
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{dir: scriptsDir, log: log}
	vm, err := e.load()
	if err != nil {
		return nil, err
	}
	e.vm = vm
	return e, nil
}

func (e *Engine) load() (*lua.LState, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	for _, sub := range scriptDirs {
		if err := e.loadDir(vm, filepath.Join(e.dir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return vm, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(vm *lua.LState, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Reload rebuilds the VM from disk. On failure the running VM is kept.
func (e *Engine) Reload() error {
	vm, err := e.load()
	if err != nil {
		return err
	}
	e.vm.Close()
	e.vm = vm
	e.log.Info("lua scripts reloaded", zap.String("dir", e.dir))
	return nil
}

// Dir returns the scripts root the engine loads from.
func (e *Engine) Dir() string { return e.dir }

// --- NPC AI Bridge ---

// AI command types returned by npc_ai.
const (
	CmdIdle       = "idle"
	CmdMoveToward = "move_toward"
	CmdAttack     = "attack"
)

// AIContext holds pre-packed data for one NPC decision.
type AIContext struct {
	Name      string
	X, Z      float64
	Health    float64
	MaxHealth float64
	Level     int
	State     string // current fsm state name

	// Target (detected by Go through the grid; HasTarget false = none)
	HasTarget   bool
	TargetName  string
	TargetX     float64
	TargetZ     float64
	TargetDist  float64
	AttackRange float64
}

// AICommand is the action returned by Lua AI.
type AICommand struct {
	Type string // CmdIdle, CmdMoveToward, CmdAttack
	Run  bool   // move_toward at run speed
}

var idle = AICommand{Type: CmdIdle}

// RunNpcAI calls Lua npc_ai(ctx) and decodes the returned command table.
// Missing function, script errors and malformed results all yield idle.
func (e *Engine) RunNpcAI(ctx AIContext) AICommand {
	fn := e.vm.GetGlobal("npc_ai")
	if fn == lua.LNil {
		return idle
	}

	t := e.vm.NewTable()
	t.RawSetString("name", lua.LString(ctx.Name))
	t.RawSetString("x", lua.LNumber(ctx.X))
	t.RawSetString("z", lua.LNumber(ctx.Z))
	t.RawSetString("health", lua.LNumber(ctx.Health))
	t.RawSetString("max_health", lua.LNumber(ctx.MaxHealth))
	t.RawSetString("level", lua.LNumber(ctx.Level))
	t.RawSetString("state", lua.LString(ctx.State))
	t.RawSetString("has_target", lua.LBool(ctx.HasTarget))
	if ctx.HasTarget {
		t.RawSetString("target_name", lua.LString(ctx.TargetName))
		t.RawSetString("target_x", lua.LNumber(ctx.TargetX))
		t.RawSetString("target_z", lua.LNumber(ctx.TargetZ))
		t.RawSetString("target_dist", lua.LNumber(ctx.TargetDist))
	}
	t.RawSetString("attack_range", lua.LNumber(ctx.AttackRange))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua npc_ai error", zap.Error(err), zap.String("npc", ctx.Name))
		return idle
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	switch v := result.(type) {
	case lua.LString:
		return decodeCommand(string(v), false)
	case *lua.LTable:
		return decodeCommand(lStr(v, "type"), lBool(v, "run"))
	}
	return idle
}

func decodeCommand(typ string, run bool) AICommand {
	switch typ {
	case CmdMoveToward:
		return AICommand{Type: CmdMoveToward, Run: run}
	case CmdAttack:
		return AICommand{Type: CmdAttack}
	}
	return idle
}

// --- Lua helpers ---

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// lBool reads a boolean field from a Lua table.
func lBool(t *lua.LTable, key string) bool {
	return lua.LVAsBool(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
