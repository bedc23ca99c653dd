package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/robertmeta/vidcat/server"
	"github.com/robertmeta/vidcat/viewer"
)

const shutdownTimeout = 10 * time.Second

// serve loads the first batch and serves the catalog until SIGINT or
// SIGTERM. A failed first load is logged; the server still starts and
// the collection can be reloaded over the API.
func serve(c *cli.Context) error {
	logger := getLogger(c)

	src, err := openSource(c, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	v := viewer.New(src, logger.With().Str("source", src.name).Logger())
	if err := v.Load(c.Context); err != nil {
		logger.Warn().Err(err).Msg("initial load failed, serving empty catalog")
	}

	srv := server.New(v, server.Config{
		CORSOrigins: c.String("cors-origins"),
		PageSize:    c.Int("page-size"),
	}, logger)

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(c.String("listen"))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return cli.Exit(fmt.Sprintf("Server failed: %v", err), ExitGeneralError)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return cli.Exit(fmt.Sprintf("Shutdown failed: %v", err), ExitGeneralError)
	}
	return nil
}
