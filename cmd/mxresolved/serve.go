package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mxresolve/mxcore/internal/config"
	"github.com/mxresolve/mxcore/internal/listener"
	"github.com/mxresolve/mxcore/internal/logging"
	"github.com/mxresolve/mxcore/internal/metrics"
	"github.com/mxresolve/mxcore/internal/orchestrator"
	"github.com/mxresolve/mxcore/internal/reply"
	"github.com/mxresolve/mxcore/internal/resolver"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the MX/DNS resolution core",
	Example: "# mxresolved serve --config mxresolved.yaml",
	Run:     runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// listenAddr splits a "network://address" endpoint into net.Listen's two
// arguments, e.g. "unix:///run/mxresolved.sock" or "tcp://127.0.0.1:7420".
func listenAddr(endpoint string) (network, address string, err error) {
	parts := strings.SplitN(endpoint, "://", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("listen endpoint %q must be in network://address form", endpoint)
	}
	return parts[0], parts[1], nil
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	nameserver := cfg.Nameserver
	if nameserver == "" {
		nameserver, err = resolver.NameserverFromResolvConf(cfg.ResolvConfPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to determine nameserver: %v\n", err)
			os.Exit(1)
		}
	}
	mxResolver := resolver.NewMXResolver(nameserver, cfg.ResolverTimeout)
	res := resolver.NewDefault(mxResolver)

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Listen, log)
	}

	network, address, err := listenAddr(cfg.Listen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if network == "unix" {
		os.Remove(address)
	}
	ln, err := net.Listen(network, address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to listen on %s: %v\n", cfg.Listen, err)
		os.Exit(1)
	}
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go listener.Serve(ln, func(conn net.Conn) {
		handleConn(ctx, conn, res, log, m)
	}, func(err error) {
		log.Warn("accept loop stopped", zap.Error(err))
	})

	log.Info("mxresolved started", zap.String("listen", cfg.Listen), zap.String("nameserver", nameserver))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()
}

// handleConn gives the peer that dialed conn its own orchestrator: replies
// must return over the same connection a request arrived on, so each
// connection gets an independent session registry and dispatch loop
// rather than sharing one across every caller.
func handleConn(ctx context.Context, conn net.Conn, res resolver.Resolver, log logging.Logger, m *metrics.Metrics) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	composer := reply.New(conn)
	o := orchestrator.New(res, composer, log, m)
	requests := make(chan orchestrator.Request, 16)
	go o.Run(connCtx, requests)

	listener.ReadRequests(conn, requests, func(err error) {
		log.Warn("connection read error", zap.Error(err))
	})
}

func serveMetrics(addr string, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics server stopped", zap.Error(err))
	}
}
