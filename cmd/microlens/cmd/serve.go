package cmd

import (
	"fmt"
	"time"

	"github.com/damianti/micro-organisms/internal/pipeline"
	"github.com/damianti/micro-organisms/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort    int
	serveDataDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline and serve the composition API",
	Long: `Load the sandpiper source tables, compute average compositions per
environment, and start the HTTP API server.

If the initial load fails the server still starts in limited mode: data
endpoints answer 503 until a reload succeeds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if servePort != 0 {
			cfg.Port = servePort
		}
		if serveDataDir != "" {
			cfg.DataDir = serveDataDir
		}

		pipe := pipeline.New(logger)
		snap, err := pipe.Run(cfg.DataDir, cfg.MinSamples)
		if err != nil {
			logger.Warn("initial load failed, starting in limited mode", zap.Error(err))
		} else {
			fmt.Printf("Pipeline complete: %d environments from %d joined samples (%s)\n",
				len(snap.Aggregates.Environments), snap.JoinedRows, snap.Duration.Round(time.Millisecond))
		}

		srv := server.New(server.Config{
			Port:         cfg.Port,
			DataDir:      cfg.DataDir,
			MinSamples:   cfg.MinSamples,
			MinAbundance: cfg.MinAbundance,
			CORSOrigins:  cfg.CORSOrigins,
		}, pipe, logger)

		fmt.Printf("Serving on http://localhost:%d\n", srv.Port())
		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to serve on (overrides config)")
	serveCmd.Flags().StringVarP(&serveDataDir, "data", "d", "", "data directory (overrides config)")
}
