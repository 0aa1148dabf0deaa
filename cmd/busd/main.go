// busd runs a standalone bus broker: an in-process Router exposed to remote
// peers over a WebSocket gateway, with Prometheus metrics and structured
// logging.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	packetbus "github.com/packetbus/go-sdk"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "busd").Logger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("config")
	}
	logger = logger.Level(level)

	tracer := packetbus.MultiTracer(
		packetbus.LogTracer(logger),
		packetbus.MetricsTracer(prometheus.DefaultRegisterer),
	)

	router := packetbus.NewRouter(packetbus.WithTracer(tracer))
	defer router.Dispose()

	gateway := packetbus.NewGateway(router, packetbus.CoreVerbs())

	mux := http.NewServeMux()
	mux.Handle(cfg.GatewayPath, gateway)
	mux.Handle(cfg.MetricsPath, promhttp.Handler())

	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Str("gateway", cfg.GatewayPath).Msg("busd listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("serve")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	logger.Info().Msg("shutting down")
	server.Close()
}
