// Command netcanv-relay runs the NetCanv relay server: it pairs hosts
// and mates into rooms and forwards opaque tool traffic between them,
// without ever decoding the canvas data it carries.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantarax/netcanv/internal/observability"
	"github.com/quantarax/netcanv/internal/relay"
	"github.com/quantarax/netcanv/internal/validation"
)

func main() {
	listen := flag.String("listen", ":62137", "QUIC listen address")
	var port int
	flag.IntVar(&port, "port", 0, "override the listen address's port, keeping its host (shorthand: -p)")
	flag.IntVar(&port, "p", 0, "shorthand for -port")
	healthAddr := flag.String("health-addr", ":8083", "HTTP health/metrics listen address")
	maxConn := flag.Int("max-connections", 4096, "maximum concurrent connections")
	logLevel := flag.String("log-level", "info", "logging level (unused placeholder, kept for parity with teacher CLI)")
	flag.Parse()
	_ = logLevel

	if port != 0 {
		host, _, err := net.SplitHostPort(*listen)
		if err != nil {
			host = ""
		}
		*listen = net.JoinHostPort(host, fmt.Sprint(port))
	}

	if err := validation.ValidateAddr(*listen); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -listen address: %v\n", err)
		os.Exit(1)
	}
	if err := validation.ValidateRangeInt(*maxConn, 1, 1_000_000); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -max-connections: %v\n", err)
		os.Exit(1)
	}

	log := observability.NewLogger("netcanv-relay", "dev", os.Stdout)
	metrics := observability.NewMetrics()

	shutdownTracing, err := observability.InitTracing(context.Background(), "netcanv-relay")
	if err == nil {
		defer shutdownTracing(context.Background())
	}

	config := relay.DefaultConfig()
	config.ListenAddr = *listen
	config.MaxConnections = *maxConn

	srv := relay.NewServer(config, log, metrics)

	health := observability.NewHealthChecker("dev")
	health.RegisterCheck("quic_listener", observability.QUICListenerCheck(*listen))
	health.RegisterCheck("rooms", observability.RoomCapacityCheck(srv.Rooms().Count, *maxConn))

	go serveHealthAndMetrics(*healthAddr, health, metrics, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	log.Info(fmt.Sprintf("netcanv-relay starting on %s", *listen))
	if err := srv.Run(ctx); err != nil {
		log.Fatal(err, "relay server exited")
	}
	log.Info("relay server stopped")
}

func serveHealthAndMetrics(addr string, health *observability.HealthChecker, metrics *observability.Metrics, log *observability.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", health.Handler())
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error(err, "health/metrics server failed")
	}
}
