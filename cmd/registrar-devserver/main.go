// ABOUTME: Entry point for the local registrar API used in development and demos
// ABOUTME: Serves the in-memory fake backend with seeded data, CORS and graceful shutdown

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"

	"github.com/2389/registrar/internal/config"
	"github.com/2389/registrar/internal/fakeapi"
)

// Version is set at build time.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := config.DefaultPath()
	for i := 1; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--config", "-c":
			if i+1 < len(os.Args) {
				configPath = os.Args[i+1]
				i++
			}
		case "-h", "--help", "help":
			fmt.Println("Usage: registrar-devserver [--config <path>]")
			fmt.Println()
			fmt.Println("Serves the registrar REST API from memory on devserver.addr")
			fmt.Println("(default " + config.DefaultDevServerAddr + "). Data is lost on exit.")
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown argument: %s\n", os.Args[i])
			os.Exit(1)
		}
	}

	if err := run(ctx, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	cyan.Println("registrar-devserver")
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := setupLogger(cfg.Logging)
	if !strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	dev := cfg.DevServer
	secret := []byte(dev.JWTSecret)
	if len(secret) == 0 {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		yellow.Println("    ! devserver.jwt_secret not set, tokens will not survive a restart")
	}

	store := fakeapi.NewStore()
	if dev.Seed {
		if err := fakeapi.Seed(store, 0); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}
	srv := fakeapi.New(store, fakeapi.Options{
		Secret:         secret,
		TokenTTL:       dev.TokenTTL,
		AllowedOrigins: dev.AllowedOrigins,
		Logger:         logger,
	})

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", orDefault(configPath, "(defaults)"))
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      http://%s/api\n", dev.Addr)
	if dev.Seed {
		green.Print("    ▶ ")
		fmt.Printf("Login:     %s / %s\n", fakeapi.SeedAdminUsername, fakeapi.SeedAdminPassword)
	} else {
		yellow.Println("    ! starting empty, create an account with `registrar-admin register`")
	}
	if len(dev.AllowedOrigins) > 0 {
		green.Print("    ▶ ")
		fmt.Printf("CORS:      %s\n", strings.Join(dev.AllowedOrigins, ", "))
	}
	fmt.Println()

	httpServer := &http.Server{
		Addr:              dev.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", dev.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", dev.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", dev.Addr, "seeded", dev.Seed)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("context canceled, initiating shutdown")
	case serveErr = <-errCh:
		logger.Error("server error", "error", serveErr)
	}

	// The signal context is already done
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return serveErr
}

func randomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating secret: %w", err)
	}
	return []byte(base64.StdEncoding.EncodeToString(b)), nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
