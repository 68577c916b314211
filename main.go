package main

import (
	"time"

	"github.com/moonvale/werewolf-server/broadcast"
	"github.com/moonvale/werewolf-server/config"
	"github.com/moonvale/werewolf-server/game"
	"github.com/moonvale/werewolf-server/logger"
	"github.com/moonvale/werewolf-server/monitor"
	"github.com/moonvale/werewolf-server/persistence"
	"github.com/moonvale/werewolf-server/server"
	"github.com/moonvale/werewolf-server/services"
	"github.com/moonvale/werewolf-server/session"
	"github.com/moonvale/werewolf-server/timer"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	var db persistence.Database
	switch cfg.Database.Driver {
	case "pq":
		db, err = persistence.NewPostgreSQL(
			cfg.Database.Postgres.Host,
			cfg.Database.Postgres.Port,
			cfg.Database.Postgres.User,
			cfg.Database.Postgres.Password,
			cfg.Database.Postgres.DBName,
		)
	default:
		db, err = persistence.NewGormPostgreSQL(
			cfg.Database.Postgres.Host,
			cfg.Database.Postgres.Port,
			cfg.Database.Postgres.User,
			cfg.Database.Postgres.Password,
			cfg.Database.Postgres.DBName,
		)
	}
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	// Core wiring: sessions -> sender -> game manager
	sessions := session.NewManager()
	sender := broadcast.NewSessionSender(sessions)

	games := game.NewManager(sender, game.Durations{
		RoleCard:        cfg.Game.RoleCard(),
		Seer:            cfg.Game.Seer(),
		Guard:           cfg.Game.Guard(),
		Wolf:            cfg.Game.Wolf(),
		Day:             cfg.Game.Day(),
		TieBreak:        cfg.Game.TieBreak(),
		DisconnectGrace: cfg.Game.DisconnectGrace(),
	})
	games.SetRecorder(services.NewRecordService(db))

	accounts := services.NewAccountService(db)

	// Metrics endpoint
	mon := monitor.NewMonitor("werewolf")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Initialize Game Server
	gameServer := server.NewGameServer(
		cfg.Server.TCPAddress, cfg.Server.WSAddress, cfg.Server.RPCAddress,
		sessions, games, accounts, sender, mon,
	)

	// Periodic work: phase deadlines once a second, keepalive and metrics a
	// little slower.
	sched := timer.NewScheduler()
	defer sched.Stop()
	sched.Schedule(time.Second, time.Second, games.Sweep)
	sched.Schedule(5*time.Second, 5*time.Second, gameServer.SweepSessions)
	sched.Schedule(10*time.Second, 10*time.Second, gameServer.RefreshMetrics)

	// Start Server
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
