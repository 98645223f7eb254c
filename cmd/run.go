package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"hashdraw/config"
	"hashdraw/database"
	"hashdraw/drawlog"
	"hashdraw/events"
	"hashdraw/ledger"
	"hashdraw/repository"
	"hashdraw/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting hashdraw...")

	// Load configuration
	cfg := config.Get()

	if cfg.MigrateOnBoot {
		log.Println("Running pending migrations...")
		if err := database.MigrateUp(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Println("Database connection established successfully")

	// Initialize event bus and unit of work factory
	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize repositories and ledger client
	gameTxRepo := repository.NewGameTransactionRepository(db)
	operatorTxRepo := repository.NewOperatorTransactionRepository(db)
	drawRepo := repository.NewDrawRepository(db)
	breakdownRepo := repository.NewBreakdownRepository(db)
	client := ledger.NewRippledClient(cfg.RippledURL)

	// Initialize services
	log.Println("Initializing services...")
	ingestService := service.NewIngestService(&cfg.Game, client, gameTxRepo, operatorTxRepo, eventBus)
	settlementService := service.NewSettlementService(&cfg.Game, client, uowFactory, drawlog.NewWriter(cfg.DrawLogDir, &cfg.Game))
	reconcileService := service.NewReconcileService(&cfg.Game, gameTxRepo, operatorTxRepo, drawRepo, breakdownRepo, uowFactory, eventBus)
	scheduler := service.NewSchedulerService(&cfg.Game, ingestService, reconcileService, settlementService, gameTxRepo, drawRepo)
	log.Println("Services initialized successfully")

	// Always run one pass immediately so a restart catches up without
	// waiting for the next cron tick.
	if err := scheduler.RunPass(ctx); err != nil {
		log.Printf("Settlement pass failed: %v", err)
		if cfg.CronSchedule == "" {
			return err
		}
	}

	if cfg.CronSchedule == "" {
		log.Println("No cron schedule configured, exiting after single pass")
		return nil
	}

	// SkipIfStillRunning guarantees passes never overlap; a slow ledger sync
	// simply swallows the next tick.
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	_, err = c.AddFunc(cfg.CronSchedule, func() {
		if err := scheduler.RunPass(ctx); err != nil {
			log.Printf("Settlement pass failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule settlement pass: %w", err)
	}
	c.Start()

	log.Printf("Running in %s mode on schedule %q...", cfg.Environment, cfg.CronSchedule)
	<-ctx.Done()

	log.Println("Shutting down...")
	stopCtx := c.Stop()
	<-stopCtx.Done()

	log.Println("Shutdown completed")
	return nil
}
