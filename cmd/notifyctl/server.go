package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/delaneyj/reactnotify/notify"
	"github.com/delaneyj/reactnotify/pkg/graphspec"
	"github.com/delaneyj/reactnotify/pkg/promnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
)

func serve(ctx context.Context, cmd *cli.Command) error {
	g, err := loadGraph(cmd)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	sys := newSystem(cmd, notify.WithObserver(promnotify.New("reactnotify", reg)))

	srv := &http.Server{
		Addr:              cmd.String(addrKey),
		Handler:           newRouter(sys, g, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("serving %s on %s", g.Name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newRouter exposes /report (replays g on every request), /metrics and
// /healthz.
func newRouter(sys *notify.System, g *graphspec.Graph, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/report", func(w http.ResponseWriter, _ *http.Request) {
		trace, err := graphspec.Run(sys, g)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		graphspec.WriteReport(w, trace)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return r
}
