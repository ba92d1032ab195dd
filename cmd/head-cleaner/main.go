package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"head-cleaner/internal/admin"
	"head-cleaner/internal/auth"
	"head-cleaner/internal/config"
	"head-cleaner/internal/plugin"
	"head-cleaner/internal/server"
	"head-cleaner/internal/settings"
	"head-cleaner/internal/site"
	"head-cleaner/internal/tui"
)

var version = "dev"

func main() {
	configPath := flag.String("config", envOrDefault("HEAD_CLEANER_CONFIG", "head-cleaner.yaml"), "YAML config file")
	port := flag.String("port", "", "HTTP listen port (overrides config)")
	backend := flag.String("store", "", "settings backend: memory, meili, redis, postgres (overrides config)")
	useTUI := flag.Bool("tui", false, "show the terminal dashboard")
	issueToken := flag.String("issue-token", "", "print an admin token for the given user and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}
	if *useTUI {
		cfg.TUI = true
	}

	issuer, ephemeral, err := newIssuer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *issueToken != "" {
		if ephemeral {
			fmt.Fprintln(os.Stderr, "Error: -issue-token needs HEAD_CLEANER_JWT_SECRET or auth.jwt_secret")
			os.Exit(1)
		}
		token, err := issuer.Issue(*issueToken, auth.ManageOptions, auth.ActivatePlugins, auth.DeletePlugins)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	var logOut io.Writer = os.Stderr
	if cfg.TUI {
		logOut = io.Discard
	}
	logger := newLogger(logOut, cfg.LogLevel)

	// Connect to the settings backend; fail fast if unreachable.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if !cfg.TUI {
		fmt.Printf("Opening %s settings store...\n", cfg.Store.Backend)
	}
	store, err := settings.Open(ctx, cfg.Store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	p := plugin.New(store, logger)
	s := site.New(cfg.SiteName, cfg.SiteURL)
	srv := server.New(p, s, issuer, logger)

	var renderCh chan server.RenderEvent
	var saveCh chan admin.SaveEvent
	if cfg.TUI {
		renderCh = make(chan server.RenderEvent, 64)
		saveCh = make(chan admin.SaveEvent, 16)
		srv.SetOnRender(func(e server.RenderEvent) {
			select {
			case renderCh <- e:
			default:
			}
		})
		srv.SetOnSave(func(e admin.SaveEvent) {
			select {
			case saveCh <- e:
			default:
			}
		})
	}

	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", "127.0.0.1:"+cfg.Port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	actualPort := ln.Addr().(*net.TCPAddr).Port

	// Graceful shutdown.
	var shutdownOnce sync.Once
	doShutdown := func() {
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		httpSrv.Shutdown(shutdownCtx)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)
		select {
		case <-sig:
			if !cfg.TUI {
				fmt.Println("\nShutting down...")
			}
			shutdownOnce.Do(doShutdown)
		case <-ctx.Done():
		}
	}()

	if cfg.TUI {
		go func() {
			if err := httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
				logger.Error("serve failed", "operation", "serve", "outcome", "failure", "error", err.Error())
				shutdownOnce.Do(doShutdown)
			}
		}()
		model := tui.NewModel(tui.Config{
			Version:    version,
			SiteName:   cfg.SiteName,
			Store:      cfg.Store.Backend,
			ListenAddr: fmt.Sprintf("http://localhost:%d", actualPort),
		}, renderCh, saveCh, ctx, srv.ErrCount())
		if err := tui.Run(model); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		shutdownOnce.Do(doShutdown)
		return
	}

	printBanner(actualPort, cfg, issuer, ephemeral)

	if err := httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	shutdownOnce.Do(doShutdown)
}

// newIssuer signs with the configured secret, or with a random one whose
// tokens die with the process.
func newIssuer(cfg config.Config) (*auth.Issuer, bool, error) {
	if cfg.JWTSecret != "" {
		i, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
		return i, false, err
	}
	i, err := auth.NewEphemeralIssuer(cfg.TokenTTL)
	return i, true, err
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})).With("service", "head-cleaner")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printBanner(port int, cfg config.Config, issuer *auth.Issuer, ephemeral bool) {
	title := fmt.Sprintf("head-cleaner %s", version)
	sep := strings.Repeat("─", 50)
	fmt.Println(sep)
	fmt.Printf("  %s\n", title)
	fmt.Println(sep)
	fmt.Printf("  Site:        %s\n", cfg.SiteName)
	fmt.Printf("  Store:       %s\n", cfg.Store.Backend)
	fmt.Printf("  Listening:   http://localhost:%d\n", port)
	fmt.Printf("  Settings:    http://localhost:%d%s?page=%s\n", port, admin.SettingsPath, admin.PageSlug)
	fmt.Println("  Endpoints:   GET /  GET /{slug}/  GET /health  GET /stats")
	if ephemeral {
		token, err := issuer.Issue("admin", auth.ManageOptions, auth.ActivatePlugins, auth.DeletePlugins)
		if err == nil {
			fmt.Println(sep)
			fmt.Println("  No JWT secret set; log in for this run at:")
			fmt.Printf("  http://localhost:%d%s?token=%s\n", port, admin.LoginPath, token)
		}
	}
	fmt.Println(sep)
	fmt.Println("  Waiting for requests...")
	fmt.Println()
}
