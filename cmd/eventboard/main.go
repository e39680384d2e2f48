package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"eventboard/internal/board"
	"eventboard/internal/capture"
	"eventboard/internal/config"
	"eventboard/internal/lifecycle"
	appLog "eventboard/internal/log"
	"eventboard/internal/render"
	"eventboard/internal/source"
	"eventboard/internal/web"
)

const version = "0.1.0"

// flagConfig holds CLI flag values. Non-empty values override the config
// file and environment.
type flagConfig struct {
	configPath string
	listen     string
	source     string
	once       bool
	snapshot   string
	debug      bool
}

func main() {
	// A missing .env is normal; real environment variables still apply.
	_ = godotenv.Load()

	flags := parseFlags()
	if err := run(flags); err != nil {
		appLog.Error("eventboard failed", err)
		os.Exit(1)
	}
}

func run(flags flagConfig) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		if conf == nil {
			return fmt.Errorf("load config %s: %w", flags.configPath, err)
		}
		appLog.Warn("could not write default config; continuing with defaults",
			"config_path", flags.configPath, "error", err.Error())
	}
	conf.ApplyEnv()
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.source != "" {
		conf.Source = flags.source
	}
	if flags.debug {
		conf.LogLevel = "debug"
	}
	conf.Normalize()
	if err := conf.Validate(); err != nil {
		return err
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	pages, err := web.Pages()
	if err != nil {
		return err
	}

	loader := source.NewLoader(source.Options{
		Source:  conf.Source,
		Timeout: conf.FetchTimeoutDuration(),
	})
	b := board.New(board.Options{
		Loader: loader,
		Renderer: &render.Renderer{
			Normalizer: lifecycle.Normalizer{
				Location:        conf.Location(),
				DefaultDuration: conf.DefaultDuration(),
			},
			Layout: conf.DateLayout,
		},
		Pages:  pages,
		Period: conf.RefreshPeriod(),
	})
	defer b.Close()

	appLog.Info("effective config",
		"listen", conf.Listen,
		"source", loader.Source(),
		"timezone", conf.Timezone,
		"refresh_interval", conf.RefreshInterval,
		"reload", conf.Reload,
		"once", flags.once,
		"snapshot", flags.snapshot,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	if flags.once {
		return runOnce(ctx, b, os.Stdout)
	}

	printBanner(os.Stderr, conf)
	return serve(ctx, cancel, conf, b, flags.snapshot)
}

// runOnce loads the events, renders a single pass and writes the index
// page to w.
func runOnce(ctx context.Context, b *board.Board, w io.Writer) error {
	b.Load(ctx)
	b.Close()

	snap, ok := b.Snapshot()
	if !ok {
		return errors.New("no render pass completed")
	}
	_, err := w.Write(snap.Pages[web.PageIndex])
	return err
}

// serve runs the HTTP host until ctx is cancelled. With a snapshot path it
// captures the index page once and then shuts down.
func serve(ctx context.Context, cancel context.CancelFunc, conf *config.Config, b *board.Board, snapshotPath string) error {
	srv := web.NewServer(conf, b)
	httpSrv := srv.HTTPServer()

	ln, err := net.Listen("tcp", conf.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", conf.Listen, err)
	}
	appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)

	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			cancel()
		}
		close(serveErr)
	}()

	b.Load(ctx)

	if conf.Reload != "" {
		stopReload, err := b.ScheduleReload(ctx, conf.Reload)
		if err != nil {
			// Unreachable in practice: Validate parsed the cron expression.
			appLog.Error("reload schedule rejected", err, "reload", conf.Reload)
		} else {
			defer stopReload()
			appLog.Info("reload schedule active", "reload", conf.Reload)
		}
	}

	if snapshotPath != "" {
		err := capture.CapturePagePNG(ctx, capture.Options{
			URL:        localURL(conf.Listen) + "/",
			OutputPath: snapshotPath,
		})
		if err != nil {
			appLog.Error("page capture failed", err, "output", snapshotPath)
		} else {
			appLog.Info("page captured", "output", snapshotPath)
		}
		cancel()
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	srv.Close()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP shutdown failed", err)
	}
	b.Close()

	appLog.Info("eventboard exiting")
	return <-serveErr
}

// localURL turns a listen address into a URL reachable from this host.
func localURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file (created with defaults if missing)")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.source, "source", "", "Event source URL or path (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Load, render one pass, print the index page and exit")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Capture a PNG of the index page to this path and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
