package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/notify"
	"github.com/Zachkp/portfolio/internal/server"
	"github.com/Zachkp/portfolio/internal/store"
)

var version = "dev"

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Globals are flags shared by every command.
type Globals struct {
	EnvFile string `help:"Dotenv file to load before reading the environment." default:".env" name:"env-file"`
}

// CLI is the top-level command structure.
type CLI struct {
	Globals

	Version  kong.VersionFlag `help:"Show version." short:"V"`
	Serve    ServeCmd         `cmd:"" default:"1" help:"Run the portfolio API server."`
	Contacts ContactsCmd      `cmd:"" help:"Print stored contact submissions."`
}

// configError marks failures caused by bad settings rather than runtime faults.
type configError struct{ err error }

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce configError
	if errors.As(err, &ce) {
		return exitConfig
	}
	return exitRuntime
}

func loadConfig(g *Globals) (config.Config, error) {
	cfg, err := config.Load(g.EnvFile)
	if err != nil {
		return config.Config{}, configError{err}
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store(), logs.GetLoggerFromString(cfg.LogLevel))
	if errors.Is(err, store.ErrUnknownDriver) {
		return nil, configError{err}
	}
	return st, err
}

// ServeCmd runs the HTTP server until SIGINT or SIGTERM.
type ServeCmd struct{}

func (s *ServeCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("Failed to close contact store", "error", err)
		}
	}()

	notifier := notify.NewAsync(notify.New(cfg.SMTP(), log), cfg.SMTPTimeout, log)
	engine := server.New(server.Deps{
		Store:    st,
		Notifier: notifier,
		Log:      log,
		Resume:   server.Resume{Path: cfg.ResumePath, Filename: cfg.ResumeFilename},
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Portfolio API listening", "addr", srv.Addr, "store", cfg.StoreDriver, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	if err := notifier.Wait(shutdownCtx); err != nil {
		log.Warn("Owner notifications still pending at exit", "error", err)
	}
	if shutdownErr != nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("portfolio"),
		kong.Description("Portfolio contact API."),
		kong.Vars{"version": version},
	)
	if err := ctx.Run(&cli.Globals); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
