package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/move-estimator/internal/application"
	"github.com/eugenenazirov/move-estimator/internal/config"
	"github.com/eugenenazirov/move-estimator/internal/logging"
)

var signalNotify = signal.Notify

type cliFlags struct {
	configFile     *string
	envFile        *string
	port           *string
	policyFile     *string
	dbPath         *string
	logLevel       *string
	rateLimitRPS   *float64
	rateLimitBurst *int
}

func main() {
	kingpinApp := kingpin.New("move-estimator", "Relocation cost estimator - plans truck loads and prices moves")
	flags := cliFlags{
		configFile:     kingpinApp.Flag("config", "Path to YAML configuration file").String(),
		envFile:        kingpinApp.Flag("env-file", "Path to a dotenv file loaded before the environment is read").String(),
		port:           kingpinApp.Flag("port", "HTTP port exposed by the service").String(),
		policyFile:     kingpinApp.Flag("policy", "Path to the YAML pricing policy (bundled default when empty)").String(),
		dbPath:         kingpinApp.Flag("db", "SQLite database file for estimates (in-memory when empty)").String(),
		logLevel:       kingpinApp.Flag("log-level", "Log level: debug, info, warn or error").String(),
		rateLimitRPS:   kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64(),
		rateLimitBurst: kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int(),
	}

	serveCmd := kingpinApp.Command("serve", "Run the HTTP API").Default()
	quoteCmd := kingpinApp.Command("quote", "Price one estimate request file and print the result")
	quoteInput := quoteCmd.Flag("input", "JSON estimate request ('-' reads stdin)").Required().String()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	cfg, err := config.Load(flags.overrides())
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case serveCmd.FullCommand():
		serve(cfg, logger)
	case quoteCmd.FullCommand():
		if err := quote(cfg, *quoteInput, os.Stdout, logger); err != nil {
			logger.Error("quote failed", zap.Error(err))
			_ = logger.Sync()
			os.Exit(1)
		}
	}
}

func (f cliFlags) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: *f.configFile,
		EnvFile:    *f.envFile,
	}
	if *f.port != "" {
		overrides.Port = f.port
	}
	if *f.policyFile != "" {
		overrides.PolicyFile = f.policyFile
	}
	if *f.dbPath != "" {
		overrides.DBPath = f.dbPath
	}
	if *f.logLevel != "" {
		overrides.LogLevel = f.logLevel
	}
	if *f.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = f.rateLimitRPS
	}
	if *f.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = f.rateLimitBurst
	}
	return overrides
}

func serve(cfg config.Config, logger *zap.Logger) {
	app, err := application.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer app.Close()

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// quote prices one request offline. Estimates are not persisted.
func quote(cfg config.Config, input string, out io.Writer, logger *zap.Logger) error {
	var src io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		src = f
	}

	cfg.DBPath = ""
	app, err := application.New(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	doc, err := app.Handler().Quote(context.Background(), src)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(doc))
	return err
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
