package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/netkit/internal/config"
	"firestige.xyz/netkit/internal/log"
	"firestige.xyz/netkit/internal/metrics"
	"firestige.xyz/netkit/internal/stack"
)

var statsInterval time.Duration

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Bring up the network subsystem",
	Long: `
Bring up the netkit subsystem: pre-allocate the buffer pool tiers, register
the configured static UDP bindings, and serve Prometheus metrics until
interrupted.

Examples:
  netkit start                    # Start with /etc/netkit/config.yml
  netkit start -c config.yml      # Start with a specific config file
  netkit start --stats-interval 10s
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if err := log.Init(cfg.Log); err != nil {
			return err
		}

		st := stack.New(cfg)
		if err := st.InitNetworkBuffers(); err != nil {
			return fmt.Errorf("bring-up failed: %w", err)
		}
		if err := st.InitNetworkDevices(); err != nil {
			return fmt.Errorf("bring-up failed: %w", err)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if cfg.Metrics.Enabled {
			srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
			if err := srv.Start(ctx); err != nil {
				return err
			}
			defer srv.Stop(context.Background())
		}

		// Hot-reload only the log level; pool sizing is fixed at bring-up.
		go func() {
			err := config.Watch(ctx, configFile, func(next *config.Config) {
				if err := log.SetLevel(next.Log.Level); err != nil {
					log.GetLogger().WithError(err).Warn("ignoring reloaded log level")
				}
			})
			if err != nil {
				log.GetLogger().WithError(err).Warn("config watcher disabled")
			}
		}()

		go reportStats(ctx, st)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sig:
			log.GetLogger().Infof("received %s, shutting down", s)
		case <-ctx.Done():
		}
		return nil
	},
}

// reportStats refreshes the utilization gauges and logs a periodic summary.
func reportStats(ctx context.Context, st *stack.Stack) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := st.BufferStats()
			if err != nil {
				continue
			}
			log.GetLogger().WithFields(map[string]interface{}{
				"small_allocated":  stats.Small.Allocated,
				"medium_allocated": stats.Medium.Allocated,
				"large_allocated":  stats.Large.Allocated,
				"utilization":      fmt.Sprintf("%.1f%%", st.TotalBufferUtilization()),
			}).Debug("buffer pool status")
		}
	}
}

func init() {
	startCmd.Flags().DurationVar(&statsInterval, "stats-interval", 5*time.Second,
		"how often to refresh buffer pool statistics")
	rootCmd.AddCommand(startCmd)
}
