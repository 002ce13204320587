package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/companyzero/audiodev/audiofs"
	"github.com/davecgh/go-spew/spew"
	"github.com/decred/slog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// app holds what every command needs.
type app struct {
	cfg     *config
	log     slog.Logger
	libLog  slog.Logger
	reg     *prometheus.Registry
	metrics *audiofs.Metrics

	// extraDirOpts are appended to the options of every directory.
	extraDirOpts []audiofs.Option
}

// dirOpts returns the options of the device directories used by commands.
func (a *app) dirOpts() []audiofs.Option {
	opts := []audiofs.Option{
		audiofs.WithLogger(a.libLog),
		audiofs.WithFormat(a.cfg.Format),
		audiofs.WithFrequency(a.cfg.Frequency),
		audiofs.WithCaptureBufferFrames(a.cfg.BufferFrames),
	}
	if a.metrics != nil {
		opts = append(opts, audiofs.WithMetrics(a.metrics))
	}
	return append(opts, a.extraDirOpts...)
}

// runMetricsListener serves the Prometheus metrics until ctx is done.
func (a *app) runMetricsListener(ctx context.Context) error {
	mux := http.NewServeMux()
	promHandler := promhttp.InstrumentMetricHandler(
		a.reg, promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{}),
	)
	mux.Handle("/metrics", promHandler)
	hs := http.Server{
		Addr:        a.cfg.MetricsListen,
		BaseContext: func(net.Listener) context.Context { return ctx },
		Handler:     mux,
	}
	a.log.Infof("Exposing prometheus metrics on %s", a.cfg.MetricsListen)
	go func() {
		<-ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		hs.Shutdown(ctx)
	}()
	err := hs.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *app) runCommand(ctx context.Context) error {
	switch a.cfg.Command {
	case "lsdev":
		return a.cmdListDevices(ctx, os.Stdout)
	case "record":
		return a.cmdRecord(ctx, a.cfg.Args)
	case "play":
		return a.cmdPlay(ctx, a.cfg.Args)
	default:
		return fmt.Errorf("unknown command %q", a.cfg.Command)
	}
}

func realMain() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	bknd, newLogger, err := initLogging(cfg)
	if err != nil {
		return err
	}
	defer bknd.Close()

	a := &app{
		cfg:    cfg,
		log:    newLogger("ADCT"),
		libLog: newLogger("AUFS"),
	}
	a.log.Debugf("Config %v", spew.Sdump(cfg))
	if cfg.MetricsListen != "" {
		a.reg = prometheus.NewRegistry()
		a.metrics = audiofs.NewMetrics(a.reg)
	}

	// Main context.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	cmdCtx, cmdDone := context.WithCancel(gctx)
	if a.reg != nil {
		g.Go(func() error { return a.runMetricsListener(cmdCtx) })
	}
	g.Go(func() error {
		defer cmdDone()
		return a.runCommand(cmdCtx)
	})
	return g.Wait()
}

func main() {
	err := realMain()
	if err != nil && !errors.Is(err, errCmdDone) {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(1)
	}
}
