package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trail/internal/audit"
	"github.com/alfredjeanlab/trail/internal/config"
	"github.com/alfredjeanlab/trail/internal/events"
	"github.com/alfredjeanlab/trail/internal/store"
	"github.com/alfredjeanlab/trail/internal/store/redisstore"
	"github.com/alfredjeanlab/trail/internal/ui"
)

var (
	hostFlag   string
	natsFlag   string
	jsonOutput bool
	verbose    bool

	cfg    *config.Config
	st     store.Store
	ix     *audit.Index
	pub    events.Publisher
	logger *slog.Logger
)

// resolveHost picks the store URL: --host flag, then TRAIL_REDIS_URL, then
// the active remote, then the local default.
func resolveHost() string {
	if hostFlag != "" {
		return hostFlag
	}
	if s := os.Getenv("TRAIL_REDIS_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return config.DefaultRedisURL
}

// resolveNATS picks the notification URL the same way; empty means
// notifications are disabled.
func resolveNATS() string {
	if natsFlag != "" {
		return natsFlag
	}
	if s := os.Getenv("TRAIL_NATS_URL"); s != "" {
		return s
	}
	return activeRemoteNATSURL()
}

var rootCmd = &cobra.Command{
	Use:           "trail",
	Short:         "Append-mostly audit log over a shared key-value store",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setup()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		st, err = redisstore.New(cmd.Context(), resolveHost())
		if err != nil {
			return fmt.Errorf("connecting to store: %w", err)
		}

		pub = &events.NoopPublisher{}
		if url := resolveNATS(); url != "" {
			p, err := events.NewNATSPublisher(url)
			if err != nil {
				logger.Warn("nats unavailable, notifications disabled", "url", url, "error", err)
			} else {
				pub = p
			}
		}

		ix = audit.New(st, audit.WithPublisher(pub), audit.WithLogger(logger))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if pub != nil {
			pub.Close()
		}
		if st != nil {
			st.Close()
		}
	},
}

// setup configures logging and output for the resolved flags. Commands that
// skip the store dial call it from their own pre-run hooks.
func setup() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "store URL (default TRAIL_REDIS_URL, then the active remote)")
	rootCmd.PersistentFlags().StringVar(&natsFlag, "nats", "", "NATS URL for notifications (default TRAIL_NATS_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(subjectsCmd)
	rootCmd.AddCommand(truncateCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
