package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/simforge/engine/ecs"
	"github.com/simforge/engine/grid"
	"github.com/simforge/engine/internal/config"
	"github.com/simforge/engine/internal/scenario"
	"github.com/simforge/engine/pool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// External component type ids, as a code-generation layer would assign them.
const (
	typePosition int32 = 1
	typeVelocity int32 = 2
	typeLifetime int32 = 3
)

// System orders; lower runs first.
const (
	orderSpawn    = 0
	orderMovement = 10
	orderLifetime = 20
	orderReport   = 30
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to TOML config (defaults used when empty)")
	scenarioPath := flag.String("scenario", "", "path to YAML scenario (built-in workload when empty)")
	flag.Parse()

	cfg := config.Defaults()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}
	scn := scenario.Default()
	if *scenarioPath != "" {
		var err error
		scn, err = scenario.Load(*scenarioPath)
		if err != nil {
			return err
		}
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	switch cfg.Run.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath(".")).Stop()
	case "":
	default:
		logger.Warn("unknown profile mode", zap.String("mode", cfg.Run.Profile))
	}

	s := newSim(cfg, scn, logger)
	dt := time.Duration(cfg.Run.TickMs) * time.Millisecond

	logger.Info("starting run",
		zap.String("scenario", scn.Name),
		zap.Int("ticks", cfg.Run.Ticks),
		zap.Int("world_capacity", s.world.Capacity()),
		zap.Int("pool_capacity", s.agents.Capacity()),
		zap.Int("grid_cells", s.grid.Cells()))

	start := time.Now()
	for t := 0; t < cfg.Run.Ticks; t++ {
		s.tick = t
		s.world.Tick(dt)
	}
	elapsed := time.Since(start)

	perTick := time.Duration(0)
	if cfg.Run.Ticks > 0 {
		perTick = elapsed / time.Duration(cfg.Run.Ticks)
	}
	logger.Info("run complete",
		zap.Duration("elapsed", elapsed),
		zap.Duration("per_tick", perTick),
		zap.Int("spawned", s.spawned),
		zap.Int("expired", s.expired),
		zap.Int("rejected", s.rejected),
		zap.Int("final_active", s.world.ActiveCount()),
		zap.Int("final_tracked", s.grid.Count()),
		zap.Int("final_pooled", s.agents.ActiveCount()))
	return nil
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

// agent is the pooled wrapper paired with each live entity.
type agent struct {
	entity ecs.Entity
	wave   string
}

type sim struct {
	log *zap.Logger
	cfg *config.Config
	scn *scenario.Scenario

	world  *ecs.World
	grid   *grid.Grid
	agents *pool.Pool[*agent]

	// handles[id] is the pool handle owning entity id's agent.
	handles []pool.Handle[*agent]

	// Component backing arrays, owned here, registered with the world.
	positions  []grid.Vec3
	velocities []grid.Vec3
	lifetimes  []int32

	slotPosition int
	slotVelocity int
	slotLifetime int

	moveQuery ecs.Query
	lifeQuery ecs.Query

	queryBuf []int32

	rng  *rand.Rand
	tick int

	spawned  int
	expired  int
	rejected int
}

func newSim(cfg *config.Config, scn *scenario.Scenario, logger *zap.Logger) *sim {
	w := ecs.NewWorld(cfg.World.Capacity, logger)
	capacity := w.Capacity()

	e := cfg.Grid.Extent
	g := grid.New(
		grid.Vec3{X: -e, Y: -e, Z: -e},
		grid.Vec3{X: e, Y: e, Z: e},
		cfg.Grid.CellSize,
		cfg.Grid.CellCapacity,
		logger,
	)

	p := pool.New[*agent](cfg.Pool.Capacity, logger)
	p.Initialize(func(int) *agent { return &agent{entity: ecs.InvalidEntity} }, nil, nil)

	s := &sim{
		log:        logger,
		cfg:        cfg,
		scn:        scn,
		world:      w,
		grid:       g,
		agents:     p,
		handles:    make([]pool.Handle[*agent], capacity),
		positions:  make([]grid.Vec3, capacity),
		velocities: make([]grid.Vec3, capacity),
		lifetimes:  make([]int32, capacity),
		queryBuf:   make([]int32, 512),
		rng:        rand.New(rand.NewSource(1)),
	}
	for i := range s.handles {
		s.handles[i].Index = -1
	}

	s.slotPosition, _ = w.RegisterComponent(typePosition, s.positions)
	s.slotVelocity, _ = w.RegisterComponent(typeVelocity, s.velocities)
	s.slotLifetime, _ = w.RegisterComponent(typeLifetime, s.lifetimes)

	s.moveQuery = w.Query().With(s.slotPosition).With(s.slotVelocity)
	s.lifeQuery = w.Query().With(s.slotLifetime)

	w.RegisterSystem(s.spawnSystem, orderSpawn)
	w.RegisterSystem(s.movementSystem, orderMovement)
	w.RegisterSystem(s.lifetimeSystem, orderLifetime)
	if cfg.Run.Report > 0 {
		w.RegisterSystem(s.reportSystem, orderReport)
	}
	return s
}

// spawnSystem feeds waves whose start tick has arrived through the pool and
// the world.
func (s *sim) spawnSystem(w *ecs.World, _ time.Duration) {
	for _, wave := range s.scn.Waves {
		if wave.StartTick != s.tick {
			continue
		}
		for i := 0; i < wave.Count; i++ {
			if s.agents.IsFull() {
				s.rejected++
				continue
			}
			id, ok := w.TryCreateEntity()
			if !ok {
				s.rejected++
				continue
			}
			h := s.agents.AcquireHandle()
			h.Object.entity = id
			h.Object.wave = wave.Name
			s.handles[id] = h

			pos := s.randomPoint(wave.Spread)
			s.positions[id] = pos
			w.AddComponent(id, s.slotPosition)

			if wave.Has("velocity") {
				s.velocities[id] = s.randomHeading(wave.Speed)
				w.AddComponent(id, s.slotVelocity)
			}
			if wave.Has("lifetime") && wave.LifetimeTicks > 0 {
				s.lifetimes[id] = int32(wave.LifetimeTicks)
				w.AddComponent(id, s.slotLifetime)
			}
			// A full cell or out-of-bounds point leaves the agent alive but
			// untracked; the movement system re-inserts it when it strays
			// back into a cell with room.
			s.grid.Insert(id, pos)
			s.spawned++
		}
	}
}

// movementSystem integrates positions and keeps the grid current.
func (s *sim) movementSystem(_ *ecs.World, dt time.Duration) {
	step := float32(dt.Seconds())
	s.moveQuery.ForEach(func(id ecs.Entity) {
		old := s.positions[id]
		v := s.velocities[id]
		now := old.Add(v.Scale(step))
		s.positions[id] = now
		s.grid.UpdatePosition(id, old, now)
	})
}

// lifetimeSystem expires agents, releasing their pool slot and grid cell
// before queueing the entity for the end-of-tick flush.
func (s *sim) lifetimeSystem(w *ecs.World, _ time.Duration) {
	s.lifeQuery.ForEach(func(id ecs.Entity) {
		s.lifetimes[id]--
		if s.lifetimes[id] > 0 {
			return
		}
		if ci := s.grid.CellIndex(s.positions[id]); ci >= 0 {
			s.grid.RemoveFromCell(id, ci)
		}
		if h := s.handles[id]; h.Valid() {
			s.agents.ReleaseHandle(h)
			s.handles[id].Index = -1
		}
		w.DestroyEntityDeferred(id)
		s.expired++
	})
}

// reportSystem logs progress and samples a broad-phase query around the
// origin with exact distance filtering.
func (s *sim) reportSystem(w *ecs.World, _ time.Duration) {
	if s.tick == 0 || s.tick%s.cfg.Run.Report != 0 {
		return
	}
	const radius = 32
	n := s.grid.QueryRadius(grid.Vec3{}, radius, s.queryBuf)
	exact := 0
	for _, id := range s.queryBuf[:n] {
		if s.positions[id].DistanceSq(grid.Vec3{}) <= radius*radius {
			exact++
		}
	}
	s.log.Info("tick report",
		zap.Int("tick", s.tick),
		zap.Int("active", w.ActiveCount()),
		zap.Int("tracked", s.grid.Count()),
		zap.Int("pool_available", s.agents.AvailableCount()),
		zap.Int("near_origin_broad", n),
		zap.Int("near_origin_exact", exact))
}

func (s *sim) randomPoint(spread float32) grid.Vec3 {
	if spread <= 0 {
		return grid.Vec3{}
	}
	r := func() float32 { return (s.rng.Float32()*2 - 1) * spread }
	return grid.Vec3{X: r(), Y: r(), Z: r()}
}

func (s *sim) randomHeading(speed float32) grid.Vec3 {
	v := grid.Vec3{
		X: s.rng.Float32()*2 - 1,
		Y: s.rng.Float32()*2 - 1,
		Z: s.rng.Float32()*2 - 1,
	}
	return v.Scale(speed)
}
