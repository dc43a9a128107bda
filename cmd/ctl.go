package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"grimm.is/directroute/internal/agent"
	"grimm.is/directroute/internal/config"
	"grimm.is/directroute/internal/i18n"
	"grimm.is/directroute/internal/logging"
	"grimm.is/directroute/internal/metrics"
)

// Printer is the global message printer for the CLI
var Printer = i18n.NewCLIPrinter()

// Options are the command line overrides shared by every sub-command.
type Options struct {
	ConfigFile  string
	AddressList string
	LogLevel    string
	DryRun      bool
	JSON        bool
}

// loadConfiguration reads the config file and applies command line overrides.
func loadConfiguration(opts Options) (*config.Config, error) {
	cfg, err := config.LoadFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.AddressList != "" {
		cfg.AddressList = opts.AddressList
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.JSON {
		cfg.LogJSON = true
	}
	if opts.DryRun {
		cfg.Provider = config.ProviderDryRun
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}

// initializeLogging installs the default logger described by cfg. The
// returned closer releases the syslog connection, if any.
func initializeLogging(cfg *config.Config, stderr io.Writer) (*logging.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	out := stderr
	var closer io.Closer = io.NopCloser(nil)
	if s := cfg.Syslog; s != nil && s.Host != "" {
		sc := logging.DefaultSyslogConfig()
		sc.Enabled = true
		sc.Host = s.Host
		if s.Port != 0 {
			sc.Port = s.Port
		}
		if s.Protocol != "" {
			sc.Protocol = s.Protocol
		}
		if s.Tag != "" {
			sc.Tag = s.Tag
		}
		if s.Facility != 0 {
			sc.Facility = s.Facility
		}
		w, err := logging.NewSyslogWriter(sc)
		if err != nil {
			// Remote logging is best effort; keep logging locally.
			fmt.Fprintf(stderr, "syslog disabled: %v\n", err)
		} else {
			out = logging.MultiWriter(stderr, w)
			closer = w
		}
	}

	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Output = out
	lc.JSON = cfg.LogJSON
	logger := logging.New(lc)
	logging.SetDefault(logger)
	return logger, closer, nil
}

// RunDaemon runs the reconciliation loop until ctx is cancelled.
func RunDaemon(ctx context.Context, opts Options) error {
	cfg, err := loadConfiguration(opts)
	if err != nil {
		return err
	}
	logger, closer, err := initializeLogging(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("starting", "config", opts.ConfigFile, "provider", cfg.Provider,
		"steady", cfg.SteadyDelay().String(), "retry", cfg.RetryDelay().String())

	a, err := agent.New(cfg, agent.WithLogger(logger), agent.WithMetrics(metrics.Get()))
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("stopped")
	return nil
}
