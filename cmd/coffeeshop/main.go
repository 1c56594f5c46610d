package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/timgst1/coffeeshop/internal/app"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "import-menu" {
		if err := runImportMenu(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "import-menu:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.LOG_LEVEL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := app.BuildServer(cfg, a.Handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTP_ADDR)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.SHUTDOWN_TIMEOUT)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SHUTDOWN_TIMEOUT)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
