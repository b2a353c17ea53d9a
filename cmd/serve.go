package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kilianp07/powermatch/api/runs"
	"github.com/kilianp07/powermatch/app"
	"github.com/kilianp07/powermatch/infra/logger"
	"github.com/kilianp07/powermatch/infra/metrics"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stored runs and Prometheus metrics over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides api.addr")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.API.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	st, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	mux := http.NewServeMux()
	api := runs.NewHandler(st, cfg.API.Token)
	mux.Handle(runs.Prefix, api)
	mux.Handle(runs.Prefix+"/", api)
	mux.Handle("/metrics", metrics.Handler(prometheus.DefaultGatherer))

	log := logger.New("api")
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("api shutdown: %v", err)
		}
	}()
	log.Infof("serving runs on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
