package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // SITE_TIMEZONE must resolve on images without zoneinfo

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/timecard/internal/database"
	"github.com/MrJamesThe3rd/timecard/internal/timecalc"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Timecard"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Driver     database.Driver `envconfig:"DB_DRIVER" default:"postgres"`
		Host       string          `envconfig:"DB_HOST" default:"localhost"`
		Port       int             `envconfig:"DB_PORT" default:"5432"`
		User       string          `envconfig:"DB_USER" default:"postgres"`
		Password   string          `envconfig:"DB_PASSWORD" default:""`
		Name       string          `envconfig:"DB_NAME" default:"timecard"`
		SQLitePath string          `envconfig:"SQLITE_PATH" default:"data/timecard.db"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Directory struct {
		URL     string        `envconfig:"DIRECTORY_URL" default:"http://localhost:5000/api"`
		Token   string        `envconfig:"DIRECTORY_TOKEN"`
		Timeout time.Duration `envconfig:"DIRECTORY_TIMEOUT" default:"5s"`
	}

	Timesheet struct {
		StandardShiftHours     decimal.Decimal `envconfig:"STANDARD_SHIFT_HOURS" default:"8"`
		DefaultBreakHours      decimal.Decimal `envconfig:"DEFAULT_BREAK_HOURS" default:"0"`
		DefaultProjectLocation string          `envconfig:"DEFAULT_PROJECT_LOCATION" default:"HAYA AL ANDLUS"`
		SiteTimezone           string          `envconfig:"SITE_TIMEZONE" default:"UTC"`
	}

	Auth struct {
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}
}

// DSN returns the data source for the configured driver.
func (c *Config) DSN() string {
	if c.DB.Driver == database.DriverSQLite {
		return c.DB.SQLitePath
	}

	return c.ConnectionString()
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Policy returns the shift policy for hours computation.
func (c *Config) Policy() (timecalc.Policy, error) {
	return timecalc.NewPolicy(c.Timesheet.StandardShiftHours)
}

// Location loads the site timezone used for clock stamps.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timesheet.SiteTimezone)
	if err != nil {
		return nil, fmt.Errorf("loading site timezone %q: %w", c.Timesheet.SiteTimezone, err)
	}

	return loc, nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.DB.Driver {
	case database.DriverPostgres, database.DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}

	if cfg.Timesheet.DefaultBreakHours.IsNegative() {
		return nil, fmt.Errorf("DEFAULT_BREAK_HOURS must not be negative")
	}

	return &cfg, nil
}
