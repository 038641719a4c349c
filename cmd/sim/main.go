// Command sim runs a small demo world on the armlock engine: a player, a
// rival and a tamable beast, driven by a fixed-step loop until the
// duration elapses or a signal arrives.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/armlock/armlock/internal/config"
	"github.com/armlock/armlock/internal/core/entity"
	"github.com/armlock/armlock/internal/core/events"
	"github.com/armlock/armlock/internal/core/events/bus"
	"github.com/armlock/armlock/internal/core/game"
	"github.com/armlock/armlock/internal/core/observability/log"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config; defaults ship built in")
		tickRate   = flag.Int("tick-rate", 60, "simulation ticks per second")
		duration   = flag.Duration("duration", 30*time.Second, "how long to run; 0 runs until interrupted")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "rng seed for jitter and wander")
		level      = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()

	lg := log.New(parseLevel(*level))
	if err := run(lg, *configPath, *tickRate, *duration, *seed); err != nil {
		lg.Error("sim failed", log.Err(err))
		os.Exit(1)
	}
}

func run(lg log.Log, configPath string, tickRate int, duration time.Duration, seed int64) error {
	if tickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", tickRate)
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	engine, err := game.New(cfg, rand.New(rand.NewSource(seed)), lg)
	if err != nil {
		return err
	}
	defer engine.Shutdown()
	seedWorld(engine, lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(stop)
		select {
		case sig := <-stop:
			lg.Info("signal received", log.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		dt := 1.0 / float64(tickRate)
		ticker := time.NewTicker(time.Second / time.Duration(tickRate))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				engine.Update(dt)
			}
		}
	})

	err = g.Wait()
	stats := engine.Stats()
	lg.Info("sim finished",
		log.Int("entities", stats.Total),
		log.Int("active", stats.Active))
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return config.LoadYAML(f)
}

// seedWorld populates the demo cast and kicks off the opening beats.
func seedWorld(engine *game.Engine, lg log.Log) {
	em := engine.Entities()

	player := em.CreateEntity(map[string]entity.Component{
		"power":    {"base": 30.0},
		"stamina":  {"current": 100.0, "max": 100.0},
		"faction":  {"name": "gym-rats"},
		"position": {"x": 0.0, "y": 0.0},
	}, []string{"player"})
	rival := em.CreateEntity(map[string]entity.Component{
		"power":    {"base": 25.0},
		"stamina":  {"current": 80.0, "max": 80.0},
		"faction":  {"name": "dockworkers"},
		"position": {"x": 4.0, "y": 0.0},
	}, []string{"enemy"})
	beast := em.CreateEntity(map[string]entity.Component{
		"position": {"x": -6.0, "y": 3.0},
	}, []string{"tamable", "wander"})

	hub := engine.Bus()
	hub.On(events.CombatEnded, func(e bus.Event) error {
		p := e.Payload.(events.CombatEndedPayload)
		lg.Info("bout settled",
			log.String("winner", p.WinnerID),
			log.String("loser", p.LoserID),
			log.Bool("fled", p.Fled))
		return nil
	})
	hub.On(events.ProgressionLevelUp, func(e bus.Event) error {
		p := e.Payload.(events.LevelUpPayload)
		lg.Info("level up", log.String("entity", p.EntityID), log.Int("level", p.Level))
		return nil
	})

	hub.Emit(events.ZoneEnterRequest, events.ZoneEnterRequestPayload{EntityID: player.ID(), Zone: "gymnasium"})
	hub.Emit(events.ZoneEnterRequest, events.ZoneEnterRequestPayload{EntityID: rival.ID(), Zone: "gymnasium"})
	hub.Emit(events.CombatRequest, events.CombatRequestPayload{AttackerID: player.ID(), DefenderID: rival.ID()})
	hub.Emit(events.PetTameRequest, events.TameRequestPayload{OwnerID: player.ID(), TargetID: beast.ID()})
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
