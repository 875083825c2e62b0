package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/fallarena/arena"
	"github.com/wfunc/fallarena/broadcast"
	"github.com/wfunc/fallarena/config"
	"github.com/wfunc/fallarena/logger"
	"github.com/wfunc/fallarena/monitor"
	"github.com/wfunc/fallarena/persistence"
	"github.com/wfunc/fallarena/room"
	"github.com/wfunc/fallarena/server"
	"github.com/wfunc/fallarena/services"
	"github.com/wfunc/fallarena/session"
	"github.com/wfunc/fallarena/state"
	"github.com/wfunc/fallarena/timer"
	"github.com/wfunc/fallarena/world"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init("info")
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	// Initialize Database
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to open round store: %v", err)
	}
	defer db.Close()
	logger.Log.Infof("Round store ready (driver %s).", cfg.Database.Driver)
	stats := services.NewStatsService(db)

	// Host world, one block of headroom above the spawn height
	dims := arena.DefaultDimensions
	w := world.CreateWorld(world.Pos{dims.Width, dims.Height + 2, dims.Depth}, false)

	sessions := session.NewManager()
	broadcaster := broadcast.NewSessionBroadcaster(sessions)
	w.SetListener(broadcaster.BlockChanged)

	timers := timer.NewTimerManager(0)
	defer timers.Stop()

	mon := monitor.NewMonitor("fallarena")

	arenaRoom := room.NewRoom(room.Options{
		ID:          "arena",
		World:       w,
		Dimensions:  dims,
		Settings:    state.DefaultSettings(),
		Broadcaster: broadcaster,
		Scheduler:   timers,
		Recorder:    stats,
		Metrics:     mon,
		TickRate:    cfg.Server.TickRate,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go arenaRoom.Run(ctx)

	// Initialize Game Server
	gameServer, err := server.NewGameServer(server.Options{
		Server:   cfg.Server,
		Limits:   cfg.Limits,
		Arena:    arenaRoom,
		Sessions: sessions,
		Monitor:  mon,
		Stats:    stats,
	})
	if err != nil {
		logger.Log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		<-ctx.Done()
		logger.Log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := gameServer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warnf("Shutdown: %v", err)
		}
		arenaRoom.Close()
	}()

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
