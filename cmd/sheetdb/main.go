// Package main is the entry point for the sheetdb server.
//
// sheetdb exposes the sheets of a workbook as keyed record tables over a
// JSON HTTP API. The workbook is either an .xlsx file or a directory of
// JSONL sheets. Settings come from a YAML file, overridden by CLI flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lmittmann/tint"
	"github.com/maruel/sheetdb/internal/server"
	"github.com/maruel/sheetdb/internal/server/handlers"
	"github.com/maruel/sheetdb/internal/server/ratelimit"
	"github.com/maruel/sheetdb/internal/storage"
	"github.com/maruel/sheetdb/internal/storage/git"
	"github.com/maruel/sheetdb/internal/workbook"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "sheetdb: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	configPath := flag.String("config", "sheetdb.yaml", "YAML configuration file, created with defaults when missing")
	httpAddr := flag.String("http", "", "Address to listen on (e.g., localhost:8080, :8080); overrides the config file")
	wbPath := flag.String("workbook", "", "Workbook: an .xlsx file or a directory of JSONL sheets; overrides the config file")
	headerRow := flag.Int("header-row", 0, "Default 1-based header row; overrides the config file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	watchExe := flag.Bool("watch-exe", false, "Shut down when the executable is modified, for development restarts")
	flag.Parse()
	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	if *version {
		printVersion()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	slog.SetDefault(newLogger(ll))

	cfg, err := storage.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	// Flags explicitly set win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "http":
			cfg.HTTP = *httpAddr
		case "workbook":
			cfg.Workbook = *wbPath
		case "header-row":
			cfg.HeaderRow = *headerRow
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	// History stages files relative to the repo, so paths must be absolute.
	if cfg.Workbook, err = filepath.Abs(cfg.Workbook); err != nil {
		return err
	}

	switch cfg.LogLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	}

	// Normalize addr: ":8080" becomes "localhost:8080"
	addr := cfg.HTTP
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	wb, err := workbook.Open(cfg.Workbook, workbook.Options{Compress: cfg.Compress})
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		if err := wb.Close(); err != nil {
			slog.Error("Failed to close workbook", "err", err)
		}
	}()

	var history *git.Repo
	if cfg.History.Enabled {
		dir := cfg.Workbook
		if strings.EqualFold(filepath.Ext(dir), ".xlsx") {
			dir = filepath.Dir(dir)
		}
		if history, err = git.Open(dir, cfg.History.AuthorName, cfg.History.AuthorEmail); err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		slog.InfoContext(ctx, "History enabled", "dir", history.Dir())
	}

	if *watchExe {
		if err := watchExecutable(ctx, stop); err != nil {
			return fmt.Errorf("failed to watch executable: %w", err)
		}
	}

	limits := ratelimit.NewConfig(cfg.RateLimits.ReadRatePerMin, cfg.RateLimits.WriteRatePerMin)
	defer limits.Close()

	buildVersion, _, _, _ := getBuildInfo()
	h := handlers.New(wb, handlers.Options{
		HeaderRow:    cfg.HeaderRow,
		AutoIDColumn: cfg.AutoIDColumn,
		History:      history,
		Version:      buildVersion,
	})
	httpServer := &http.Server{
		Addr: addr,
		Handler: server.NewRouter(h, &server.Config{
			JWTSecret:           []byte(cfg.Auth.JWTSecret),
			MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
			RateLimits:          limits,
		}),
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.InfoContext(ctx, "Starting server", "addr", addr, "workbook", cfg.Workbook, "version", buildVersion, "auth", cfg.Auth.JWTSecret != "")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		return wb.Watch(ctx)
	})
	eg.Go(func() error {
		<-ctx.Done()
		slog.InfoContext(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.InfoContext(ctx, "Server stopped")
		return nil
	})
	err = eg.Wait()
	// The xlsx backend holds changes in memory until saved.
	if err2 := wb.Save(); err == nil {
		err = err2
	}
	return err
}

func newLogger(ll *slog.LevelVar) *slog.Logger {
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			if a.Key == "ip" {
				if v := a.Value.String(); v == "127.0.0.1" || v == "::1" {
					return slog.Attr{}
				}
			}
			skip := false
			switch t := a.Value.Any().(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case int64:
				skip = t == 0
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("sheetdb %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}

// watchExecutable calls stop when the running executable is rewritten.
func watchExecutable(ctx context.Context, stop context.CancelFunc) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	if exe, err = filepath.EvalSymlinks(exe); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(exe); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) {
					slog.InfoContext(ctx, "Executable modified, initiating shutdown")
					stop()
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.WarnContext(ctx, "Error watching executable", "err", err)
			}
		}
	}()
	return nil
}
