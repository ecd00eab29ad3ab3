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

	"github.com/eugenenazirov/discuss-config/internal/application"
	"github.com/eugenenazirov/discuss-config/internal/config"
	"github.com/eugenenazirov/discuss-config/internal/logging"
	"github.com/eugenenazirov/discuss-config/internal/render"
)

var signalNotify = signal.Notify

type cli struct {
	app          *kingpin.Application
	settingsFile *string
	logLevel     *string
	format       *string
	redact       *bool
	redactSet    bool
	port         *string
	rateRPS      *float64
	rateBurst    *int

	printCmd *kingpin.CmdClause
	getCmd   *kingpin.CmdClause
	getKey   *string
	serveCmd *kingpin.CmdClause
}

func newCLI() *cli {
	c := &cli{}
	c.app = kingpin.New("discuss-config", "Resolves the forum configuration document from the environment")
	c.settingsFile = c.app.Flag("settings", "Path to YAML or JSONC settings file").String()
	c.logLevel = c.app.Flag("log-level", "Log level (debug, info, warn, error)").String()
	c.format = c.app.Flag("format", "Output format (yaml, json, flat)").Short('f').String()
	c.redact = c.app.Flag("redact", "Hide the database password in output").IsSetByUser(&c.redactSet).Bool()

	c.printCmd = c.app.Command("print", "Print the resolved configuration document").Default()

	c.getCmd = c.app.Command("get", "Print a single value by key path, e.g. database.host")
	c.getKey = c.getCmd.Arg("key", "Key path").Required().String()

	c.serveCmd = c.app.Command("serve", "Serve the resolved configuration over HTTP")
	c.port = c.serveCmd.Flag("port", "HTTP port exposed by the service").String()
	c.rateRPS = c.serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.rateBurst = c.serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	return c
}

func (c *cli) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		SettingsFile: *c.settingsFile,
		Port:         c.port,
		Format:       c.format,
		LogLevel:     c.logLevel,
	}
	if c.redactSet {
		overrides.RedactSecrets = c.redact
	}
	if *c.rateRPS >= 0 {
		overrides.RateLimitRPS = c.rateRPS
	}
	if *c.rateBurst >= 0 {
		overrides.RateLimitBurst = c.rateBurst
	}
	return overrides
}

func main() {
	c := newCLI()
	command := kingpin.MustParse(c.app.Parse(os.Args[1:]))

	settings, err := config.LoadSettings(c.overrides())
	if err != nil {
		c.app.Fatalf("failed to load settings: %v", err)
	}

	logger, err := logging.New(settings.LogLevel)
	if err != nil {
		c.app.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	doc := config.Resolve()

	switch command {
	case c.serveCmd.FullCommand():
		logging.Unset(logger, config.Unset(os.LookupEnv))
		app := application.New(settings, doc, logger)
		if err := app.Start(); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}
		shutdown(app.Server(), settings.ShutdownGracePeriod, logger)
	case c.getCmd.FullCommand():
		if err := printValue(os.Stdout, doc, *c.getKey, c.redactSet && *c.redact); err != nil {
			logger.Fatal("failed to read key", zap.String("key", *c.getKey), zap.Error(err))
		}
	default:
		if err := printDocument(os.Stdout, doc, settings.Format, c.redactSet && *c.redact); err != nil {
			logger.Fatal("failed to print configuration", zap.Error(err))
		}
	}
}

// printDocument writes doc in the named format. The print and get commands
// only redact when --redact is given explicitly.
func printDocument(w io.Writer, doc config.Document, formatName string, redact bool) error {
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return err
	}
	return render.Encode(w, doc, format, render.Redacted(redact))
}

func printValue(w io.Writer, doc config.Document, key string, redact bool) error {
	entry, err := render.Lookup(doc, key, render.Redacted(redact))
	if err != nil {
		return err
	}
	// raw strings so the output can be captured by shell scripts
	if s, ok := entry.Value.(string); ok {
		_, err = fmt.Fprintln(w, s)
		return err
	}
	_, err = fmt.Fprintln(w, render.FormatValue(entry.Value))
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
