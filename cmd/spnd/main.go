package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"sponsornet/config"
	"sponsornet/core"
	"sponsornet/observability/logging"
	"sponsornet/observability/metrics"
	telemetry "sponsornet/observability/otel"
	"sponsornet/rpc"
	"sponsornet/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SPN_ENV"))
	logger := logging.Setup("spnd", env)

	shutdownTelemetry, err := setupTelemetry(env)
	if err != nil {
		logger.Error("Failed to initialise telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	feeCollector, err := cfg.FeeCollectorAddress()
	if err != nil {
		panic(fmt.Sprintf("Failed to resolve fee collector: %v", err))
	}

	node, err := core.NewNode(db, core.Config{
		FeeCollector: feeCollector,
		TicksPerDay:  cfg.TicksPerDay,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create node: %v", err))
	}

	logger.Info("node ready",
		"network", cfg.NetworkName,
		"dataDir", cfg.DataDir,
		"tick", node.CurrentTick(),
		"ticksPerDay", cfg.TicksPerDay,
	)

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Logical clock: one tick per interval, persisted as it advances.
	interval := time.Duration(cfg.TickIntervalMillis) * time.Millisecond
	go runTickLoop(stopCtx, node, interval)

	errs := make(chan error, 2)

	rpcServer := rpc.NewServer(node)
	httpServer := &http.Server{
		Addr:         cfg.RPCAddress,
		Handler:      otelhttp.NewHandler(rpcServer.Handler(), "spnd-rpc"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("JSON-RPC listening", "addr", cfg.RPCAddress)
		errs <- httpServer.ListenAndServe()
	}()

	metrics.Escrow() // register collectors before serving /metrics

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddress, Handler: metricsMux}
	go func() {
		logger.Info("metrics listening", "addr", cfg.MetricsAddress)
		errs <- metricsServer.ListenAndServe()
	}()

	select {
	case <-stopCtx.Done():
		logger.Info("shutting down")
	case err := <-errs:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		_ = httpServer.Close()
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		_ = metricsServer.Close()
	}
}

func runTickLoop(ctx context.Context, node *core.Node, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			node.AdvanceTick(1)
		}
	}
}

func setupTelemetry(env string) (func(context.Context) error, error) {
	endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if endpoint == "" {
		return nil, nil
	}
	insecure := true
	if value := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			insecure = parsed
		}
	}
	return telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "spnd",
		Environment: env,
		Endpoint:    endpoint,
		Insecure:    insecure,
		Headers:     telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Metrics:     true,
		Traces:      true,
	})
}
