package cmd

import (
	"fmt"

	"github.com/damianti/micro-organisms/internal/export"
	"github.com/damianti/micro-organisms/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	exportOutput  string
	exportDataDir string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run the pipeline and export aggregates to SQLite",
	Long: `Compute average compositions per environment and write them to a
SQLite database for downstream analysis. The export is a one-way snapshot;
microlens never reads it back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		dir := cfg.DataDir
		if exportDataDir != "" {
			dir = exportDataDir
		}
		out := cfg.ExportPath
		if exportOutput != "" {
			out = exportOutput
		}

		pipe := pipeline.New(logger)
		snap, err := pipe.Run(dir, cfg.MinSamples)
		if err != nil {
			return fmt.Errorf("pipeline failed: %w", err)
		}

		st, err := export.Open(out)
		if err != nil {
			return fmt.Errorf("opening export database: %w", err)
		}
		defer st.Close()

		if err := st.Clear(); err != nil {
			return fmt.Errorf("clearing export database: %w", err)
		}
		if err := st.WriteSnapshot(snap); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}

		envs, stats, err := st.Counts()
		if err != nil {
			return fmt.Errorf("verifying export: %w", err)
		}

		fmt.Printf("Export complete!\n")
		fmt.Printf("  Environments: %d\n", envs)
		fmt.Printf("  Stat rows:    %d\n", stats)
		fmt.Printf("  Database:     %s\n", st.DBPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output database path (overrides config)")
	exportCmd.Flags().StringVarP(&exportDataDir, "data", "d", "", "data directory (overrides config)")
}
