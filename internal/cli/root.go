package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dhan-trader/internal/broker"
	"dhan-trader/internal/config"
	"dhan-trader/internal/credentials"
	"dhan-trader/internal/logging"
	"dhan-trader/internal/models"
	"dhan-trader/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Broker *broker.Client
	Store  store.TradeStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.IsLiveMode() {
		app.Broker = broker.New(broker.Config{
			ClientID:           cfg.Broker.ClientID,
			BaseURL:            cfg.Broker.BaseURL,
			ForceREST:          cfg.Broker.ForceREST,
			DefaultProductType: models.ProductType(cfg.Broker.DefaultProductType),
			Source:             credentials.NewFileSource(cfg.Broker.TokenFile),
		}, logger)
	} else {
		app.Broker = broker.NewWithTransport(
			broker.NewPaperTransport(0),
			models.ProductType(cfg.Broker.DefaultProductType),
			logger,
		)
	}
	logger.Debug().Str("transport", app.Broker.TransportName()).Msg("broker initialized")

	tradeStore, err := store.NewSQLiteStore(cfg.Store.DBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize store, audit trail unavailable")
	} else {
		app.Store = tradeStore
	}

	rootCmd := &cobra.Command{
		Use:   "dhan-trader",
		Short: "Dhan Trader - automated order dispatch for DhanHQ",
		Long: `Dhan Trader is an automated order-placement service for the DhanHQ
brokerage API.

It consumes trade recommendations from an external advisory process, runs
them through safety checks and risk sizing, and dispatches orders through
the Dhan API with an audit trail of every attempt.

Use 'dhan-trader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/dhan-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))
	rootCmd.AddCommand(newRecordsCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("Dhan Trader v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Broker Configuration")
	output.Printf("  Client ID:       %s\n", maskValue(cfg.Broker.ClientID))
	output.Printf("  Token File:      %s\n", cfg.Broker.TokenFile)
	output.Printf("  Force REST:      %v\n", cfg.Broker.ForceREST)
	output.Printf("  Default Product: %s\n", cfg.Broker.DefaultProductType)
	output.Println()

	output.Bold("Trading Configuration")
	output.Printf("  Mode:            %s\n", cfg.Trading.Mode)
	output.Printf("  Poll Interval:   %ds\n", cfg.Trading.PollIntervalSeconds)
	output.Printf("  Session:         %s-%s %s\n", cfg.Trading.HoursStart, cfg.Trading.HoursEnd, cfg.Trading.Timezone)
	output.Printf("  Segment:         %s\n", cfg.Trading.ExchangeSegment)
	output.Printf("  Allow Short:     %v\n", cfg.Trading.AllowShortSelling)
	output.Println()

	output.Bold("Risk Configuration")
	output.Printf("  Min Confidence:  %.2f\n", cfg.Risk.MinConfidence)
	output.Printf("  Risk Per Trade:  %.1f%%\n", cfg.Risk.RiskPerTrade*100)
	output.Printf("  Default Stop:    %.1f%%\n", cfg.Risk.DefaultStopLossPct*100)
	output.Printf("  Max Position:    %d\n", cfg.Risk.MaxPositionSize)
	output.Printf("  Daily Limits:    %d/symbol, %d total\n",
		cfg.Risk.MaxDailyTradesPerSymbol, cfg.Risk.MaxDailyTradesTotal)

	return nil
}

func maskValue(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}
