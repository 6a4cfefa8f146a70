// Command loader stores an enriched dataset in the monuments database, once
// from a file or continuously from object-store notifications.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"monument/internal/config"
	"monument/internal/dataset"
	"monument/internal/keys"
	"monument/internal/models"
	"monument/internal/service"
	"monument/internal/storage"
	"monument/internal/store"
	"monument/pkg/graceful"
	"monument/pkg/kafkaclient"
)

var cfg *config.Config

var flags struct {
	input  string
	follow bool
}

var rootCmd = &cobra.Command{
	Use:          "loader",
	Short:        "Load the enriched monument dataset into the database",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
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
	f.StringVar(&flags.input, "input", "", "enriched CSV to load (default output.path)")
	f.BoolVar(&flags.follow, "follow", false, "load every dataset announced on the kafka topic until interrupted")
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := graceful.Context(cmd.Context())
	defer cancel()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}

	if flags.follow {
		return follow(ctx, st)
	}

	path := cfg.Output.Path
	if flags.input != "" {
		path = flags.input
	}
	return loadFile(ctx, st, path)
}

func loadFile(ctx context.Context, st store.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return models.NewError(models.KindLoad, eris.Wrapf(err, "open %s", path))
	}
	defer f.Close()

	_, records, err := dataset.LoadEnriched(f)
	if err != nil {
		return err
	}
	if err := st.Upsert(ctx, records); err != nil {
		return err
	}
	zap.L().Info("dataset loaded", zap.String("path", path), zap.Int("records", len(records)))
	return nil
}

func follow(ctx context.Context, st store.Store) error {
	if cfg.Kafka.Broker == "" || cfg.Kafka.Topic == "" {
		return eris.New("follow mode needs kafka.broker and kafka.topic")
	}
	s3, err := storage.NewS3Service(cfg.Minio)
	if err != nil {
		return err
	}

	zap.L().Info("following dataset notifications",
		zap.String("broker", cfg.Kafka.Broker),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group_id", cfg.Kafka.GroupID))

	consumer := kafkaclient.NewKafkaConsumer(kafkaclient.Config{
		Brokers: strings.Split(cfg.Kafka.Broker, ","),
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	consumer.StartConsuming(ctx)
	defer consumer.Stop()

	iterator := service.NewIterator(consumer, s3.GetDataset, keys.IsDataset)
	return iterator.Each(ctx, func(ctx context.Context, obj *service.FetchedObject[[]models.EnrichedRecord]) error {
		if err := st.Upsert(ctx, obj.Data); err != nil {
			return err
		}
		zap.L().Info("dataset loaded", zap.String("key", obj.Key), zap.Int("records", len(obj.Data)))
		return nil
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
