package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/clueserver/board"
	"github.com/wfunc/clueserver/broadcast"
	"github.com/wfunc/clueserver/config"
	"github.com/wfunc/clueserver/game"
	"github.com/wfunc/clueserver/logger"
	"github.com/wfunc/clueserver/monitor"
	"github.com/wfunc/clueserver/persistence"
	"github.com/wfunc/clueserver/room"
	"github.com/wfunc/clueserver/server"
	"github.com/wfunc/clueserver/services"
	"github.com/wfunc/clueserver/session"
	"github.com/wfunc/clueserver/timer"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize storage
	db, err := persistence.Open(cfg.Storage)
	if err != nil {
		logger.Log.Fatalf("Failed to open storage: %v", err)
	}
	defer db.Close()
	logger.Log.Infow("storage ready", "driver", cfg.Storage.Driver)

	timers := timer.NewTimerManager()
	defer timers.Stop()
	if mem, ok := db.(*persistence.MemoryStore); ok {
		timers.AddTimer(time.Minute, time.Minute, func() {
			if n := mem.Purge(); n > 0 {
				logger.Log.Debugw("expired keys purged", "count", n)
			}
		})
	}

	mon := monitor.NewMonitor("clue")
	mon.PublishExpvar()
	if cfg.Server.MetricsAddress != "" {
		mon.StartServer(cfg.Server.MetricsAddress)
	}

	engine := game.NewEngine(db, board.MustNew(), game.WithTTL(cfg.Storage.GameTTL))
	records := services.NewRecordService(db)
	sessions := session.NewManager()
	broadcaster := broadcast.NewRoomBroadcaster(sessions)
	rooms := room.NewRoomManager(engine, broadcaster,
		room.WithMonitor(mon),
		room.WithRecorder(records),
		room.WithPacing(cfg.Driver.Tick, cfg.Driver.AgentDelay, cfg.Driver.ShowDelay),
		room.WithIdleTTL(cfg.Driver.IdleTTL),
	)
	rooms.StartSweeper(time.Minute)

	// Initialize Game Server
	gameServer, err := server.NewGameServer(cfg.Server, rooms, sessions, broadcaster, records, mon)
	if err != nil {
		logger.Log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gameServer.Shutdown(ctx); err != nil {
			logger.Log.Errorw("shutdown failed", "error", err)
		}
	}()

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
