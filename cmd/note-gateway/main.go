package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/blues/note-c-zero/internal/metrics"
	"github.com/blues/note-c-zero/internal/server"
)

func main() {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("note-gateway %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	if cfg == nil {
		os.Exit(1)
	}
	l := setupLogger(cfg.logFormat, cfg.logLevel)
	l.Info("build_info", "version", version, "commit", commit, "date", date)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	startMetricsLogger(ctx, cfg.logMetricsEvery, l, &wg)

	transact, cleanup, berr := initBackend(cfg, l)
	if berr != nil {
		l.Error("backend_init_error", "error", berr)
		return
	}

	srv := server.NewServer(
		server.WithTransact(transact),
		server.WithLogger(l),
		server.WithMaxClients(cfg.maxClients),
		server.WithReadDeadline(cfg.clientReadTO),
		server.WithMaxFrameSize(cfg.maxFrame),
	)
	srv.SetListenAddr(cfg.listenAddr)
	go func() {
		if err := srv.Serve(ctx); err != nil {
			l.Error("tcp_server_error", "error", err)
			cancel()
		}
	}()

	// Start mDNS advertisement once the listener is ready.
	go func() {
		if !cfg.mdnsEnable {
			return
		}
		select {
		case <-srv.Ready():
		case <-ctx.Done():
			return
		}
		var portNum int
		if _, p, err := net.SplitHostPort(srv.Addr()); err == nil {
			if pn, perr := strconv.Atoi(p); perr == nil {
				portNum = pn
			}
		}
		cleanupMDNS, err := startMDNS(ctx, cfg, portNum)
		if err != nil {
			l.Warn("mdns_start_failed", "error", err)
			return
		}
		l.Info("mdns_started", "service", mdnsServiceType, "name", cfg.mdnsName, "port", portNum)
		go func() { <-ctx.Done(); cleanupMDNS() }()
	}()

	// Ready when the listener is bound and the context not cancelled.
	metrics.SetReadinessFunc(func() bool {
		select {
		case <-srv.Ready():
		default:
			return false
		}
		return ctx.Err() == nil
	})
	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	l.Info("shutdown_signal", "signal", s.String())
	cancel()
	cleanup()
	wg.Wait()
}
