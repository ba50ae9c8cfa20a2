package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-MolData/pkg/errors"
)

func newWatchCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Verify announced chunk runs as they arrive on kafka",
		Long: "watch joins kafka.group_id on kafka.topic and verifies every announced run\n" +
			"against the artifact store.  Failing runs are retried and then sent to\n" +
			"kafka.dead_letter_topic when configured.  Stops on SIGINT or SIGTERM.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve probes and metrics on this address (default: metrics.addr when metrics are enabled)")
	return cmd
}

func runWatch(cmd *cobra.Command, metricsAddr string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config
	log := cliCtx.Logger.Named("watch")
	if !cfg.Kafka.Enabled {
		return errors.Configuration("watch requires kafka.enabled")
	}

	rt, err := buildRuntime(cliCtx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka), log)
	if err != nil {
		return err
	}
	consumer.Subscribe(cfg.Kafka.Topic, rt.Service.HandleChunkReady)

	if cliCtx.ConfigPath != "" {
		watchConfig(cliCtx.ConfigPath, cfg, log)
	}

	ctx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	stopOps := startOpsServer(rt, opsAddr(metricsAddr, cfg, true))
	defer stopOps(context.Background())

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	log.Info("Watching for chunk runs",
		logging.String("topic", cfg.Kafka.Topic),
		logging.String("group", cfg.Kafka.GroupID),
	)

	<-ctx.Done()
	log.Info("Shutdown signal received")

	closeErr := consumer.Close()
	processed, failed, deadLettered := consumer.Stats()
	log.Info("Watch stopped",
		logging.Int64("processed", processed),
		logging.Int64("failed", failed),
		logging.Int64("dead_lettered", deadLettered),
	)
	return closeErr
}

// watchConfig reports edits of the configuration file.  A running consumer
// keeps its group and topic, so changes only take effect on restart.
func watchConfig(path string, current *config.Config, log logging.Logger) {
	config.Watch(path, func(next *config.Config) {
		log.Info("Configuration file changed; restart watch to apply",
			logging.String("path", path),
			logging.Bool("kafka_changed", !kafkaEqual(current.Kafka, next.Kafka)),
			logging.String("log_level", next.Log.Level),
		)
	}, func(err error) {
		log.Warn("Ignoring invalid configuration change", logging.String("path", path), logging.Err(err))
	})
}

func kafkaEqual(a, b config.KafkaConfig) bool {
	if a.Topic != b.Topic || a.GroupID != b.GroupID || a.DeadLetterTopic != b.DeadLetterTopic || len(a.Brokers) != len(b.Brokers) {
		return false
	}
	for i := range a.Brokers {
		if a.Brokers[i] != b.Brokers[i] {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
