package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sanverite/cellroute/internal/api"
	"github.com/sanverite/cellroute/internal/config"
	"github.com/sanverite/cellroute/internal/iface"
	"github.com/sanverite/cellroute/internal/logging"
	"github.com/sanverite/cellroute/internal/metrics"
	"github.com/sanverite/cellroute/internal/modem"
	"github.com/sanverite/cellroute/internal/socks5"
)

const (
	modemInitTimeout        = 30 * time.Second
	shutdownTimeout         = 5 * time.Second
	allocatorSampleInterval = 5 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "cellroute: invalid configuration:", err)
		return 1
	}

	log := logging.WithFields(map[string]any{"cluster": cfg.Cluster, "ip": cfg.IP})

	modemClient := modem.New(cfg.ModemHost, time.Duration(cfg.ModemTimeoutSecs)*time.Second)
	initCtx, cancelInit := context.WithTimeout(context.Background(), modemInitTimeout)
	err = modemClient.Init(initCtx)
	cancelInit()
	if err != nil {
		log.WithError(err).Error("modem client init failed, aborting startup")
		return 1
	}
	log.Info("modem client initialized")

	socksRecords, err := iface.Enumerate(cfg.IfacePrefixes)
	if err != nil {
		log.WithError(err).Error("initial interface enumeration failed")
		return 1
	}
	resolver := iface.MapResolver(iface.ToMap(socksRecords))
	log.WithField("count", len(socksRecords)).Info("socks5 interface map captured")

	acceptor, err := socks5.NewAcceptor(cfg.SOCKS5Addr(), resolver, logging.Component("socks5"))
	if err != nil {
		log.WithError(err).Error("socks5 listener bind failed")
		return 1
	}

	apiServer := api.NewServer(cfg.APIAddr(), cfg.ControlIfacePrefixes, modemClient, logging.Component("api"))
	metricsServer := metrics.NewServer(cfg.PrometheusAddr(), cfg.PrometheusUsername, cfg.PrometheusPassword)

	allocatorCtx, stopAllocator := context.WithCancel(context.Background())
	defer stopAllocator()

	errs := make(chan error, 3)
	go func() { errs <- acceptor.Serve() }()
	go func() { errs <- apiServer.Serve() }()
	go func() { errs <- metricsServer.Serve() }()
	go metrics.RunAllocatorLoop(allocatorCtx, cfg.Cluster, cfg.IP, allocatorSampleInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutdown signal received")
	case err := <-errs:
		log.WithError(err).Error("a listener exited unexpectedly")
		return 1
	}

	stopAllocator()
	_ = acceptor.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("control api shutdown error")
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("metrics shutdown error")
	}

	log.Info("cellroute stopped")
	return 0
}
