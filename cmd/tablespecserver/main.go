package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bunrouter"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
	gormlog "gorm.io/gorm/logger"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/Warky-Devs/TableSpec/pkg/common/adapters/database"
	"github.com/Warky-Devs/TableSpec/pkg/config"
	"github.com/Warky-Devs/TableSpec/pkg/logger"
	"github.com/Warky-Devs/TableSpec/pkg/registry"
	"github.com/Warky-Devs/TableSpec/pkg/server"
	"github.com/Warky-Devs/TableSpec/pkg/tablespec"
	"github.com/Warky-Devs/TableSpec/pkg/testmodels"
)

func main() {
	root := &cli.Command{
		Name:  "tablespecserver",
		Usage: "Serve the demo tables over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "TOML configuration file"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			return run(ctx, cfg)
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	fmt.Println("TableSpec demo server starting")
	if err := logger.Configure(logger.Options{
		Dev:    cfg.Logging.Dev,
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Tables.PerPage > 0 {
		tablespec.DefaultPerPage = cfg.Tables.PerPage
	}

	db, closeDB, err := openDatabase(ctx, cfg.Database, cfg.Logging.Dev)
	if err != nil {
		logger.Error("Failed to initialize database: %+v", err)
		return err
	}
	defer closeDB()

	reg := registry.NewTableRegistry()
	if err := registerTables(reg, cfg.Database.Driver == "bun"); err != nil {
		return err
	}
	handler := server.NewHandler(db, reg)

	var router http.Handler
	switch cfg.Server.Router {
	case "bunrouter":
		r := bunrouter.New()
		server.SetupBunRouterRoutes(r, handler)
		router = r
	default:
		r := mux.NewRouter()
		server.SetupMuxRoutes(r, handler)
		router = r
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server on %s (router %s, driver %s)", cfg.Server.Addr, cfg.Server.Router, cfg.Database.Driver)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed: %v", err)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openDatabase opens the configured engine on sqlite, creates the demo
// tables and seeds them when asked to.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, dev bool) (common.Database, func(), error) {
	if cfg.Driver == "bun" {
		sqldb, err := sql.Open(sqlite.DriverName, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		db := bun.NewDB(sqldb, sqlitedialect.New())
		migrate := testmodels.MigrateBun
		if cfg.Seed {
			migrate = testmodels.SeedBun
		}
		if err := migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return database.NewBunAdapter(db), func() { db.Close() }, nil
	}

	level := gormlog.Warn
	if dev {
		level = gormlog.Info
	}
	newLogger := gormlog.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		gormlog.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // Don't include params in the SQL log
			Colorful:                  dev,
		},
	)

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{Logger: newLogger, DisableForeignKeyConstraintWhenMigrating: true})
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	migrate := testmodels.Migrate
	if cfg.Seed {
		migrate = testmodels.Seed
	}
	if err := migrate(db); err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	return database.NewGormAdapter(db), func() { sqlDB.Close() }, nil
}
