package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"seafoodpulse/internal/app"
	"seafoodpulse/internal/config"
	"seafoodpulse/internal/infrastructure"
	"seafoodpulse/pkg/contracts"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "seafood",
	Short:         "seafood scrapes, combines and analyses weekly seafood export statistics.",
	Version:       contracts.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(contracts.BuildString() + "\n")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default: "+config.EnvPrefix+"_CONFIG or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// ExecuteContext runs the root command and exits non-zero on failure.
// An interrupt cancels the running command.
func ExecuteContext(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// keepStdout moves console logging off stdout for commands that print tables
func keepStdout(cfg *config.Config) {
	switch cfg.Logging.Output {
	case "console":
		cfg.Logging.Output = "stderr"
	case "both":
		cfg.Logging.Output = "file"
	}
}

// withApp builds the application, hands it to fn and releases it afterwards.
// Each option may adjust the loaded config before the application is built.
func withApp(cmd *cobra.Command, fn func(context.Context, *app.Application) error, opts ...func(*config.Config)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = infrastructure.CloseLogFile() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

	return fn(ctx, a)
}
