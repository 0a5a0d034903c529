package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timberline/core/internal/config"
	"timberline/core/internal/gateway"
	"timberline/core/internal/grid"
	"timberline/core/internal/path"
	"timberline/core/internal/session"
	"timberline/core/internal/sim"
	"timberline/core/internal/state"
	"timberline/core/internal/tilemap"
	"timberline/core/internal/world"
	"timberline/core/logging"
	"timberline/core/logging/sinks"
)

const sessionSlot = "default"

func main() {
	var (
		configPath = flag.String("config", "", "path to the YAML tuning file")
		addr       = flag.String("addr", "", "listen address override")
		seed       = flag.Int64("seed", 1, "simulation RNG seed")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Gateway.Addr = *addr
	}

	router, jsonFile, err := buildRouter(cfg.Logging)
	if err != nil {
		logger.Fatalf("logging: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := router.Close(ctx); err != nil {
			logger.Printf("close logging router: %v", err)
		}
		if jsonFile != nil {
			jsonFile.Close()
		}
	}()

	scene, paths, err := buildScene(cfg, *seed, router)
	if err != nil {
		logger.Fatalf("scene: %v", err)
	}
	defer paths.Close()

	var store *session.Store
	if cfg.Session.DBPath != "" {
		store, err = session.Open(cfg.Session.DBPath)
		if err != nil {
			logger.Fatalf("open session store: %v", err)
		}
		defer store.Close()
		restoreSession(scene, store, logger)
	}

	core := sim.NewSceneCore(scene)
	var hub *gateway.Hub
	loop := sim.NewLoop(core, sim.LoopConfig{
		TickRate:        cfg.TickRate,
		CatchupMaxTicks: 4,
		CommandCapacity: 256,
		PerActorLimit:   32,
	}, sim.LoopHooks{
		AfterStep: func(result sim.StepResult) {
			// Synchronous so snapshots reach clients in tick order; slow
			// clients are bounded by the hub's write deadline.
			if hub != nil {
				hub.BroadcastSnapshot(result.Snapshot)
			}
			if store != nil && result.Tick%cfg.Session.SaveEveryTick == 0 {
				if err := store.Save(sessionSlot, sessionDocument(scene)); err != nil {
					logger.Printf("autosave: %v", err)
				}
			}
		},
		OnCommandDrop: func(reason string, cmd sim.Command) {
			logger.Printf("dropped command actor=%s type=%s reason=%s", cmd.ActorID, cmd.Type, reason)
		},
	})

	hub = gateway.NewHub(loop, logger)
	handler := gateway.NewHandler(hub, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.Handle)
	server := &http.Server{Addr: cfg.Gateway.Addr, Handler: mux}

	stop := make(chan struct{})
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(stop)
	}()

	go func() {
		logger.Printf("listening on %s", cfg.Gateway.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("serve: %v", err)
		}
	}()

	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-sigCtx.Done()
	logger.Printf("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown gateway: %v", err)
	}

	close(stop)
	<-loopDone

	if store != nil {
		if err := store.SaveSync(sessionSlot, sessionDocument(scene)); err != nil {
			logger.Printf("final save: %v", err)
		}
	}
}

func buildRouter(cfg config.LoggingConfig) (*logging.Router, *os.File, error) {
	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = cfg.Sinks
	if sev, ok := logging.ParseSeverity(cfg.MinSeverity); ok {
		logCfg.MinimumSeverity = sev
	}

	var named []logging.NamedSink
	var jsonFile *os.File
	for _, name := range cfg.Sinks {
		switch name {
		case "console":
			named = append(named, logging.NamedSink{
				Name: "console",
				Sink: sinks.NewConsoleSink(os.Stdout, logCfg.Console),
			})
		case "json":
			filePath := cfg.JSONPath
			if filePath == "" {
				filePath = "events.jsonl"
			}
			f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, nil, fmt.Errorf("open json sink: %w", err)
			}
			jsonFile = f
			named = append(named, logging.NamedSink{
				Name: "json",
				Sink: sinks.NewJSON(f, logCfg.JSON.FlushInterval),
			})
		case "memory":
			named = append(named, logging.NamedSink{Name: "memory", Sink: sinks.NewMemorySink()})
		}
	}

	router, err := logging.NewRouter(logging.ClockFunc(time.Now), logCfg, named)
	if err != nil {
		if jsonFile != nil {
			jsonFile.Close()
		}
		return nil, nil, err
	}
	return router, jsonFile, nil
}

func buildScene(cfg config.Config, seed int64, pub logging.Publisher) (*world.Scene, *path.Service, error) {
	var base *grid.Snapshot

	treeDefaults := world.TreeParams{
		MaxHealth:    cfg.Tree.MaxHealth,
		DamagePerHit: cfg.Tree.DamagePerHit,
		YieldAmount:  cfg.Tree.YieldAmount,
		RespawnTicks: cfg.Tree.RespawnTicks,
		HealTicks:    cfg.Tree.HealTicks,
		HitGateTicks: cfg.Tree.HitGateTicks,
	}

	var trees []*world.Tree
	if cfg.MapPath != "" {
		raw, err := os.ReadFile(cfg.MapPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read map: %w", err)
		}
		m, err := tilemap.Parse(raw)
		if err != nil {
			return nil, nil, err
		}
		base = m.CollisionSnapshot()
		entries := make([]world.TreeSpawnEntry, 0)
		for _, spawn := range m.TreeSpawns() {
			respawn := uint64(spawn.RespawnSeconds * float64(cfg.TickRate))
			entries = append(entries, world.SpawnEntry(
				state.Vec2{X: spawn.X, Y: spawn.Y}, respawn, spawn.YieldAmount))
		}
		trees = world.SpawnTrees(entries, treeDefaults)
	} else {
		base = grid.NewSnapshot(64, 64, nil)
	}

	templates, err := buildTemplates(cfg.Buildings)
	if err != nil {
		return nil, nil, err
	}

	paths := path.NewService(cfg.Paths.Workers, cfg.Paths.QueueDepth)
	scene := world.NewScene(world.SceneDeps{
		Base:      base,
		Trees:     world.NewTreeManager(trees, pub),
		Templates: templates,
		Paths:     paths,
		Publisher: pub,
		Worker: world.WorkerParams{
			MoveSpeed:         cfg.Worker.MoveSpeed,
			Capacity:          cfg.Worker.Capacity,
			WorkRadius:        cfg.Worker.WorkRadius,
			HarvestCycleTicks: cfg.Worker.HarvestCycleTicks,
			DepositDelayTicks: cfg.Worker.DepositDelayTicks,
			BlacklistTicks:    cfg.Worker.BlacklistTicks,
			ClaimAttempts:     cfg.Worker.ClaimAttempts,
			StuckSampleTicks:  cfg.Worker.StuckSampleTicks,
			StuckSampleCount:  cfg.Worker.StuckSampleCount,
		},
		PlayerSpeed: cfg.Player.MoveSpeed,
		PlayerStart: world.TileCenter(grid.Tile{X: base.Cols() / 2, Y: base.Rows() / 2}),
		Seed:        seed,
	})
	return scene, paths, nil
}

func buildTemplates(configs map[string]config.BuildingConfig) (map[string]*world.BuildingTemplate, error) {
	templates := make(map[string]*world.BuildingTemplate, len(configs))
	for name, bc := range configs {
		tpl := &world.BuildingTemplate{Type: name}
		if bc.Template != "" {
			raw, err := os.ReadFile(bc.Template)
			if err != nil {
				return nil, fmt.Errorf("building %q template: %w", name, err)
			}
			m, err := tilemap.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("building %q template: %w", name, err)
			}
			tpl.Footprint = m.FootprintTiles()
		}
		if len(tpl.Footprint) == 0 {
			tpl.Footprint = []grid.Tile{{X: 0, Y: 0}}
		}
		if len(bc.Capacities) > 0 {
			tpl.Capacities = make(map[world.ResourceType]int, len(bc.Capacities))
			for res, n := range bc.Capacities {
				tpl.Capacities[world.ResourceType(res)] = n
			}
		}
		if len(bc.Cost) > 0 {
			tpl.Cost = make(map[world.ResourceType]int, len(bc.Cost))
			for res, n := range bc.Cost {
				tpl.Cost[world.ResourceType(res)] = n
			}
		}
		templates[name] = tpl
	}
	return templates, nil
}

func restoreSession(scene *world.Scene, store *session.Store, logger *log.Logger) {
	doc, ok, err := store.Load(sessionSlot)
	if err != nil {
		logger.Printf("discarding session: %v", err)
		return
	}
	if !ok {
		return
	}
	pool := make(map[world.ResourceType]int, len(doc.Resources))
	for res, n := range doc.Resources {
		pool[world.ResourceType(res)] = n
	}
	scene.SetResources(pool)
	if n := scene.RestoreBuildings(doc.Buildings); n > 0 {
		logger.Printf("filtered %d invalid building records", n)
	}
	if n := scene.RestoreWorkers(doc.Workers); n > 0 {
		logger.Printf("filtered %d invalid worker records", n)
	}
}

func sessionDocument(scene *world.Scene) session.Document {
	resources := make(map[string]int)
	for res, n := range scene.Resources() {
		resources[string(res)] = n
	}
	return session.Document{
		Tick:      scene.Tick(),
		Buildings: scene.Buildings().Records(),
		Workers:   scene.Workers().Records(),
		Resources: resources,
	}
}
