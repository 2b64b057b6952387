package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/l1jgo/simcore/internal/component"
	"github.com/l1jgo/simcore/internal/config"
	"github.com/l1jgo/simcore/internal/core/entity"
	"github.com/l1jgo/simcore/internal/core/event"
	"github.com/l1jgo/simcore/internal/core/geom"
	"github.com/l1jgo/simcore/internal/core/spatial"
	coresys "github.com/l1jgo/simcore/internal/core/system"
	"github.com/l1jgo/simcore/internal/data"
	"github.com/l1jgo/simcore/internal/scripting"
	"github.com/l1jgo/simcore/internal/system"
	"github.com/l1jgo/simcore/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "config/simcore.toml", "path to the TOML config ("+config.EnvPath+" overrides)")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Lua engine
	engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("init lua engine: %w", err)
	}
	defer engine.Close()

	// 4. World state and prefabs
	state, err := world.NewState(world.Options{
		Bounds: spatial.Bounds{
			Min: geom.Vec2{X: cfg.World.MinX, Y: cfg.World.MinZ},
			Max: geom.Vec2{X: cfg.World.MaxX, Y: cfg.World.MaxZ},
		},
		Cols:              cfg.World.Cols,
		Rows:              cfg.World.Rows,
		MaxBroadcastDepth: cfg.Simulation.MaxBroadcastDepth,
		EffectLifetime:    cfg.Simulation.LevelUpLifetime,
		Brain:             engine,
		Log:               log,
	})
	if err != nil {
		return fmt.Errorf("init world: %w", err)
	}
	log = state.Log()
	subscribeLifecycle(state.Bus(), log)

	prefabs, err := data.LoadPrefabTable(cfg.Data.Prefabs)
	if err != nil {
		return fmt.Errorf("load prefabs: %w", err)
	}
	spawned, err := state.SpawnAll(prefabs)
	if err != nil {
		return fmt.Errorf("spawn prefabs: %w", err)
	}
	if player, ok := state.Player(); ok {
		watchPlayer(player, log)
	}
	log.Info("world ready",
		zap.Int("prefabs", prefabs.Count()),
		zap.Int("spawned", spawned),
		zap.Int("grid_clients", state.Grid().Len()),
	)

	// 5. Systems
	runner := coresys.NewRunner()
	var watcher *scripting.Watcher
	if cfg.Data.HotReload {
		watcher, err = scripting.NewWatcher(cfg.Data.ScriptsDir)
		if err != nil {
			return fmt.Errorf("watch scripts: %w", err)
		}
		defer watcher.Close()
		runner.Register(system.NewScriptReloadSystem(engine, watcher.Events, log))
	}
	runner.Register(system.NewEventDispatchSystem(state.Bus()))
	runner.Register(system.NewEntityUpdateSystem(state.Entities()))
	stats := system.NewTelemetrySystem(state.Entities(), state.Grid(), cfg.Simulation.StatsEvery, log)
	runner.Register(stats)

	// 6. Game loop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return gameLoop(ctx, runner, stats, cfg.Simulation, log)
	})
	if watcher != nil {
		g.Go(func() error {
			for {
				select {
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Warn("script watcher", zap.Error(err))
				case <-ctx.Done():
					return nil
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("simulation stopped",
		zap.Int("ticks", stats.Ticks()),
		zap.Duration("simulated", stats.Elapsed()),
		zap.Int("entities", state.Entities().Len()),
	)
	return nil
}

// gameLoop ticks the runner on a fixed cadence until the context ends or
// max_ticks is reached. All simulation state is touched from here only.
func gameLoop(ctx context.Context, runner *coresys.Runner, stats *system.TelemetrySystem, sim config.SimulationConfig, log *zap.Logger) error {
	ticker := time.NewTicker(sim.TickRate)
	defer ticker.Stop()

	log.Info("game loop started",
		zap.Duration("tick_rate", sim.TickRate),
		zap.Int("max_ticks", sim.MaxTicks),
	)
	for {
		select {
		case <-ticker.C:
			runner.Tick(sim.TickRate)
			if sim.MaxTicks > 0 && stats.Ticks() >= sim.MaxTicks {
				log.Info("tick limit reached")
				return nil
			}
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return nil
		}
	}
}

func subscribeLifecycle(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(ev event.EntityAdded) {
		log.Debug("entity added", zap.String("entity", ev.Name))
	})
	event.Subscribe(bus, func(ev event.EntityActivated) {
		log.Debug("entity activated", zap.String("entity", ev.Name))
	})
	event.Subscribe(bus, func(ev event.EntityDeactivated) {
		log.Debug("entity deactivated", zap.String("entity", ev.Name))
	})
	event.Subscribe(bus, func(ev event.EntityRemoved) {
		log.Debug("entity removed", zap.String("entity", ev.Name))
	})
}

// watchPlayer reports the player's milestones.
func watchPlayer(player *entity.Entity, log *zap.Logger) {
	player.RegisterHandler(component.TopicLevel, func(msg entity.Message) error {
		log.Info("player levelled up", zap.Any("level", msg.Value))
		return nil
	})
	player.RegisterHandler(component.TopicDeath, func(entity.Message) error {
		log.Info("player died")
		return nil
	})
	player.RegisterHandler(component.TopicEquipWeapon, func(msg entity.Message) error {
		log.Info("player equipped", zap.Any("weapon", msg.Value))
		return nil
	})
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
