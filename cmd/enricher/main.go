// Command enricher adds WGS84 coordinates to every record of the heritage
// register and writes the enriched dataset.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"monument/internal/config"
	"monument/internal/dataset"
	"monument/internal/enrich"
	"monument/internal/fetch"
	"monument/internal/models"
	"monument/internal/storage"
	"monument/pkg/graceful"
	"monument/pkg/utm"
)

var cfg *config.Config

var flags struct {
	input     string
	output    string
	axisOrder string
	workers   int
	noPublish bool
}

var rootCmd = &cobra.Command{
	Use:          "enricher",
	Short:        "Add coordinates to the Aachen heritage register",
	Long:         "Fetches every record's detail page, reads its UTM32N grid position and writes the register with lat/lng columns appended.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envLoaded := config.LoadEnv()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		if err := applyFlags(cmd); err != nil {
			return err
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if !envLoaded {
			zap.L().Info("no .env file found, using process environment")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.input, "input", "", "registry CSV to read (overrides input.path)")
	f.StringVar(&flags.output, "output", "", "enriched CSV to write (overrides output.path)")
	f.StringVar(&flags.axisOrder, "axis-order", "", "easting_northing or northing_easting (overrides projection.axis_order)")
	f.IntVar(&flags.workers, "workers", 0, "concurrent detail-page fetches (overrides fetch.workers)")
	f.BoolVar(&flags.noPublish, "no-publish", false, "skip uploading the dataset to object storage")
}

func applyFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("input") {
		cfg.Input.Path = flags.input
	}
	if f.Changed("output") {
		cfg.Output.Path = flags.output
	}
	if f.Changed("axis-order") {
		cfg.Projection.AxisOrder = flags.axisOrder
	}
	if f.Changed("workers") {
		cfg.Fetch.Workers = flags.workers
	}
	return cfg.Validate()
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := graceful.Context(cmd.Context())
	defer cancel()

	ds, err := dataset.Load(cfg.Input.Path)
	if err != nil {
		zap.L().Error("loading register failed", zap.String("path", cfg.Input.Path), zap.Error(err))
		return err
	}

	fetcher := fetch.New(fetch.Options{
		Timeout:    cfg.Fetch.Timeout(),
		UserAgent:  cfg.Fetch.UserAgent,
		RatePerSec: cfg.Fetch.RatePerSec,
	})
	batch := &enrich.Batch{
		Orchestrator: enrich.NewOrchestrator(enrich.Options{
			Fetcher:    fetcher,
			Projection: utm.Zone32N(),
			Label:      cfg.Locator.Label,
			AxisOrder:  cfg.Projection.Order(),
			Workers:    cfg.Fetch.Workers,
		}),
		OutputPath: cfg.Output.Path,
	}

	report, runErr := batch.Run(ctx, ds)
	printReport(cmd, report)
	if runErr != nil {
		return runErr
	}

	if flags.noPublish || !cfg.Minio.Enabled() {
		return nil
	}
	s3, err := storage.NewS3Service(cfg.Minio)
	if err != nil {
		return eris.Wrap(err, "publish dataset")
	}
	if err := s3.Publish(ctx, cfg.Minio.Bucket, cfg.Output.Path, report); err != nil {
		zap.L().Error("publishing dataset failed, local copy kept", zap.String("path", cfg.Output.Path), zap.Error(err))
		return err
	}
	return nil
}

func printReport(cmd *cobra.Command, report models.RunReport) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
