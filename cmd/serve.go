package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/anneal-bench/anneal-bench/internal/config"
	"github.com/anneal-bench/anneal-bench/web"
)

// serve runs the web UI until interrupted.
func serve(cmd *cobra.Command, args []string) error {
	b, err := newBackend(appConfig)
	if err != nil {
		return err
	}
	defer b.Close()

	srv, err := web.NewServer(web.Options{
		Runner:         b.runner,
		Defaults:       appConfig.Defaults.RunConfig(),
		TemplateDir:    appConfig.Web.TemplateDir,
		CatalogTimeout: appConfig.Service.Timeout,
	})
	if err != nil {
		return err
	}

	if debug {
		config.Watch(appViper, func(cfg *config.Config) {
			srv.SetDefaults(cfg.Defaults.RunConfig())
			b.runner.Invalidate()
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hs := &http.Server{Addr: appConfig.Server.Addr, Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr": appConfig.Server.Addr,
			"mode": appConfig.Service.Mode,
		}).Info("serving UI")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}
