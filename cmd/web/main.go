package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"

	"github.com/hmiddleton/schoolpitch/internal/ai"
	"github.com/hmiddleton/schoolpitch/internal/dataset"
	"github.com/hmiddleton/schoolpitch/internal/db"
	"github.com/hmiddleton/schoolpitch/internal/envstruct"
	"github.com/hmiddleton/schoolpitch/internal/errors"
	"github.com/hmiddleton/schoolpitch/internal/intel"
	"github.com/hmiddleton/schoolpitch/internal/logging"
	"github.com/hmiddleton/schoolpitch/internal/ofsted"
	"github.com/hmiddleton/schoolpitch/internal/pprofserver"
	"github.com/hmiddleton/schoolpitch/internal/starters"
)

type config struct {
	Addr         string `env:"SCHOOLPITCH_ADDR" envDefault:"localhost:4000"`
	PprofPort    string `env:"SCHOOLPITCH_PPROF_PORT" envDefault:":6060"`
	SQLiteURL    string `env:"SCHOOLPITCH_SQLITE_URL" envDefault:"./schoolpitch.sqlite"`
	FinancialCSV string `env:"SCHOOLPITCH_FINANCIAL_CSV" envDefault:"./data/financial.csv"`
	DirectoryCSV string `env:"SCHOOLPITCH_DIRECTORY_CSV" envDefault:"./data/gias.csv"`
	SENDCSV      string `env:"SCHOOLPITCH_SEND_CSV" envDefault:"./data/send.csv"`
	OpenAIKey    string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:""`
	SerperAPIKey string `env:"SERPER_API_KEY" envDefault:""`
	// Endpoint overrides for the report locator, used by the tests.
	SerperURL       string `env:"SCHOOLPITCH_SERPER_URL" envDefault:""`
	OfstedSearchURL string `env:"SCHOOLPITCH_OFSTED_SEARCH_URL" envDefault:""`
}

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	service        *intel.Service
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	pprofserver.Launch(cfg.PprofPort, logger)

	database, err := db.NewDatabase(cfg.SQLiteURL)
	if err != nil {
		return errors.Wrap(err, "open database")
	}

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(database.ReadWrite.DB, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	loader := dataset.NewLoader(logger, cfg.FinancialCSV, cfg.DirectoryCSV, cfg.SENDCSV)
	completer := ai.NewClient(cfg.OpenAIKey, cfg.OpenAIModel)
	if completer == nil {
		logger.Warn("OPENAI_API_KEY not set, starter generation degraded to template channels")
	}
	locator := ofsted.NewLocator(logger, ofsted.LocatorConfig{
		SerperAPIKey: cfg.SerperAPIKey,
		SerperURL:    cfg.SerperURL,
		SearchURL:    cfg.OfstedSearchURL,
	})
	analyzer := ofsted.NewAnalyzer(logger, locator, ofsted.NewExtractor(logger), completer)

	service := intel.NewService(logger, loader, analyzer, starters.NewGenerator(completer))
	if err := service.LoadAll(); err != nil {
		return errors.Wrap(err, "initial dataset load")
	}

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		service:        service,
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
	logger := slog.New(loggerHandler)

	// Missing .env is fine, the environment may be set by other means.
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", errors.SlogError(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.Error("server exited", errors.SlogError(err))
		os.Exit(1)
	}
}
