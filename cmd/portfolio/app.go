package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-resume-portfolio/internal/api"
	"github.com/pribylovaa/go-resume-portfolio/internal/client"
	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	"github.com/pribylovaa/go-resume-portfolio/internal/tokenstore"
	"github.com/pribylovaa/go-resume-portfolio/pkg/log"
)

var errUsage = errors.New("usage")

// app — всё, что нужно командам: конфиг, хранилище сессии, клиент и API.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	store  *tokenstore.Session
	client *client.Client
	api    *api.API

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	metricsSrv *http.Server
}

func newApp(ctx context.Context, cfg *config.Config, lg *slog.Logger, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	const op = "cmd/portfolio/newApp"

	store, err := tokenstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a := &app{cfg: cfg, log: lg, store: store, stdin: stdin, stdout: stdout, stderr: stderr}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := client.NewMetrics(reg)

	paths := cfg.API.Paths
	c, err := client.New(client.Options{
		BaseURL:        cfg.API.BaseURL,
		Store:          store,
		Logger:         lg,
		UserAgent:      cfg.API.UserAgent,
		RequestTimeout: cfg.Timeouts.Request,
		RefreshTimeout: cfg.Timeouts.Refresh,
		RefreshPath:    paths.Refresh,
		NoRefreshPaths: []string{paths.Login, paths.Register, paths.Logout},
		Metrics:        metrics,
		OnUnauthenticated: func(ctx context.Context, err error) {
			log.From(ctx).Info("redirect_to_login")
			fmt.Fprintln(stderr, "session expired: run `portfolio login` to sign in again")
		},
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.client = c
	a.api = api.New(c, store, paths)

	if cfg.Metrics.Addr != "" {
		if err := a.serveMetrics(reg); err != nil {
			lg.Warn("metrics_listen_failed", slog.String("addr", cfg.Metrics.Addr), slog.String("err", err.Error()))
		}
	}

	return a, nil
}

// serveMetrics поднимает /metrics на время работы команды.
func (a *app) serveMetrics(reg *prometheus.Registry) error {
	ln, err := net.Listen("tcp", a.cfg.Metrics.Addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	a.metricsSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.metricsSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("metrics_serve_failed", slog.String("err", err.Error()))
		}
	}()

	a.log.Info("metrics_listen_start", slog.String("addr", ln.Addr().String()))

	return nil
}

func (a *app) Close() {
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.metricsSrv.Shutdown(ctx)
	}

	if err := a.store.Close(); err != nil {
		a.log.Warn("store_close_failed", slog.String("err", err.Error()))
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.cmdLogin(ctx, args)
	case "register":
		return a.cmdRegister(ctx, args)
	case "logout":
		return a.api.Auth.Logout(ctx)
	case "whoami":
		return a.cmdWhoami(ctx)
	case "status":
		return a.cmdStatus(ctx)
	case "resume":
		return a.cmdResume(ctx, args)
	case "section":
		return a.cmdSection(ctx, args)
	case "export":
		return a.cmdExport(ctx, args)
	case "letter":
		return a.cmdLetter(ctx, args)
	case "chat":
		return a.cmdChat(ctx, args)
	default:
		return errUsage
	}
}
