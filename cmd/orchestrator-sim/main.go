// Command orchestrator-sim runs an Orchestrator against a configured
// deployment file and an MQTT broker, exposing Prometheus metrics over HTTP.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ottojo/ros2-def/orchestrator"
	occonfig "github.com/ottojo/ros2-def/orchestrator/config"
	"github.com/ottojo/ros2-def/orchestrator/emit"
	"github.com/ottojo/ros2-def/orchestrator/store"
	"github.com/ottojo/ros2-def/orchestrator/transport"
)

var rootCmd = &cobra.Command{
	Use:   "orchestrator-sim",
	Short: "Run a deterministic callback orchestrator against a deployment config",
	RunE:  run,
}

func init() {
	rootCmd.Flags().String("config", "deployment.yaml", "path to the deployment config file")
	rootCmd.Flags().String("metrics-addr", ":9090", "address to serve Prometheus metrics on")

	if err := viper.BindPFlag("config", rootCmd.Flags().Lookup("config")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("metrics-addr", rootCmd.Flags().Lookup("metrics-addr")); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("orchestrator_sim")
	viper.AutomaticEnv()
}

func run(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	deployment, err := occonfig.Load(viper.GetString("config"))
	if err != nil {
		return err
	}

	models, err := deployment.BuildModelSet()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := orchestrator.NewMetrics(registry)

	var log store.Log
	if deployment.LogPath != "" {
		sqliteLog, err := store.NewSQLiteStore(deployment.LogPath)
		if err != nil {
			return err
		}
		defer sqliteLog.Close()
		log = sqliteLog
	} else {
		log = store.NewMemStore()
	}
	runID := uuid.NewString()

	occCfg := orchestrator.Config{
		Models:              models,
		ExternalInputTopics: deployment.ExternalInputTopics,
		OutputTopics:        deployment.OutputTopics,
	}

	// b is assigned below; the publisher and timer-trigger closures defer to
	// it so the orchestrator and the transport binding can reference each
	// other despite the circular construction order.
	var b *transport.Binding
	occ := orchestrator.New(occCfg, publisherFunc(func(ctx context.Context, topic string, payload []byte) error {
		return b.PublishIntercepted(ctx, topic, payload)
	}), emit.NewLogEmitter(os.Stdout, true),
		orchestrator.WithMetrics(metrics),
		orchestrator.WithLog(log, runID),
		orchestrator.WithTimerTrigger(timerTriggerFunc(func(ctx context.Context, node string, cause orchestrator.TimerInput, ts int64) {
			b.TriggerTimer(ctx, node, cause, ts)
		})),
	)

	// Track the external inputs and outputs plus every topic a modeled node
	// publishes, so the completion of each publishing action is observed.
	tracked := append(append([]string(nil), deployment.ExternalInputTopics...), deployment.OutputTopics...)
	for _, nc := range deployment.Nodes {
		for _, input := range nc.Inputs {
			for _, ec := range input.Effects {
				if ec.PublishTopic != "" && !slices.Contains(tracked, ec.PublishTopic) {
					tracked = append(tracked, ec.PublishTopic)
				}
			}
		}
	}

	b = transport.NewBinding(transport.Config{
		Broker:        deployment.Broker,
		ClientID:      deployment.ClientID,
		StatusTopic:   deployment.StatusTopic,
		TrackedTopics: tracked,
	}, occ, logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: viper.GetString("metrics-addr"), Handler: mux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = metricsServer.Close()
	}()

	return b.Start(ctx)
}

// publisherFunc adapts a function to orchestrator.Publisher.
type publisherFunc func(ctx context.Context, topic string, payload []byte) error

func (f publisherFunc) PublishIntercepted(ctx context.Context, topic string, payload []byte) error {
	return f(ctx, topic, payload)
}

// timerTriggerFunc adapts a function to orchestrator.TimerTrigger.
type timerTriggerFunc func(ctx context.Context, node string, cause orchestrator.TimerInput, timestamp int64)

func (f timerTriggerFunc) TriggerTimer(ctx context.Context, node string, cause orchestrator.TimerInput, timestamp int64) {
	f(ctx, node, cause, timestamp)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("orchestrator-sim failed", "error", err)
		os.Exit(1)
	}
}
