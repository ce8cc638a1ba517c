package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/timecard/internal/config"
	"github.com/MrJamesThe3rd/timecard/internal/database"
	"github.com/MrJamesThe3rd/timecard/internal/directory"
	timecardHttp "github.com/MrJamesThe3rd/timecard/internal/http"
	timesheetHandler "github.com/MrJamesThe3rd/timecard/internal/http/timesheet"
	"github.com/MrJamesThe3rd/timecard/internal/importer"
	"github.com/MrJamesThe3rd/timecard/internal/timesheet"
	timesheetStore "github.com/MrJamesThe3rd/timecard/internal/timesheet/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	policy, err := cfg.Policy()
	if err != nil {
		slog.Error("invalid shift policy", "error", err)
		os.Exit(1)
	}

	location, err := cfg.Location()
	if err != nil {
		slog.Error("invalid site timezone", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DB.Driver, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		directoryClient  = directory.NewClient(context.Background(), cfg.Directory.URL, cfg.Directory.Token, cfg.Directory.Timeout)
		timesheetService = timesheet.NewService(timesheetStore.New(db, cfg.DB.Driver), directoryClient, timesheet.Options{
			Policy:                 policy,
			DefaultBreakHours:      cfg.Timesheet.DefaultBreakHours,
			DefaultProjectLocation: cfg.Timesheet.DefaultProjectLocation,
			Location:               location,
		})
		importService = importer.NewService()
	)

	timesheetH := timesheetHandler.NewHandler(timesheetService, importService)

	router := timecardHttp.New(timesheetH, cfg.CORS.AllowedOrigins, cfg.Auth.JWTSecret)

	if cfg.Auth.JWTSecret == "" {
		slog.Warn("AUTH_JWT_SECRET is not set; requests are not authenticated")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server", "app", cfg.App.Name, "port", server.Addr, "db_driver", cfg.DB.Driver)

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
