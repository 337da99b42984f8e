package cmd

import (
	"fmt"
	"time"

	"github.com/damianti/micro-organisms/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	analyzeQuick   bool
	analyzeDataDir string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the pipeline once and print a summary",
	Long: `Analyze the sandpiper dataset without starting a server.

The analyze command:
- Loads biorun metadata and phylum abundances
- Reports the row-sum integrity check
- Filters metagenomes and joins the tables
- Prints environments that met the min-samples threshold

With --quick only the metadata table is loaded and the summary is limited
to metagenome and environment counts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		dir := cfg.DataDir
		if analyzeDataDir != "" {
			dir = analyzeDataDir
		}

		if analyzeQuick {
			summary, err := pipeline.QuickAnalysis(dir, 10, logger)
			if err != nil {
				return fmt.Errorf("quick analysis failed: %w", err)
			}
			fmt.Printf("Total bioruns:       %d\n", summary.TotalRuns)
			fmt.Printf("Metagenome bioruns:  %d\n", summary.MetagenomeRuns)
			fmt.Printf("Unique environments: %d\n", summary.UniqueEnvironments)
			fmt.Println("Top environments:")
			for _, env := range summary.TopEnvironments {
				fmt.Printf("  %6d  %s\n", env.SampleCount, env.Name)
			}
			return nil
		}

		pipe := pipeline.New(logger)
		snap, err := pipe.Run(dir, cfg.MinSamples)
		if err != nil {
			return fmt.Errorf("pipeline failed: %w", err)
		}

		fmt.Println()
		fmt.Printf("Pipeline complete!\n")
		fmt.Printf("  Metadata rows:   %d\n", snap.TotalMetadataRows)
		fmt.Printf("  Metagenomes:     %d\n", snap.MetagenomeRows)
		fmt.Printf("  Joined samples:  %d (%d lost in join)\n", snap.JoinedRows, snap.RowsLost)
		fmt.Printf("  Environments:    %d (min %d samples)\n",
			len(snap.Aggregates.Environments), snap.MinSamples)
		fmt.Printf("  Duration:        %s\n", snap.Duration.Round(time.Millisecond))

		fmt.Println()
		fmt.Printf("Integrity: mean row sum %.2f%% (std %.2f, min %.2f, max %.2f), %d/%d near 100%%\n",
			snap.Integrity.MeanSum, snap.Integrity.StdSum,
			snap.Integrity.MinSum, snap.Integrity.MaxSum,
			snap.Integrity.SamplesNear100, snap.Integrity.TotalSamples)

		fmt.Println()
		fmt.Println("Environments by sample count:")
		for _, env := range snap.Aggregates.EnvironmentList() {
			fmt.Printf("  %6d  %s\n", env.SampleCount, env.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeQuick, "quick", false, "metadata-only quick analysis")
	analyzeCmd.Flags().StringVarP(&analyzeDataDir, "data", "d", "", "data directory (overrides config)")
}
