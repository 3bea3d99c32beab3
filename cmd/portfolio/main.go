package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	apierrors "github.com/pribylovaa/go-resume-portfolio/internal/errors"
	"github.com/pribylovaa/go-resume-portfolio/pkg/log"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const usage = `usage: portfolio [--config path] <command> [args]

commands:
  login      --email E [--password P]
  register   --email E [--username U] [--first F] [--last L] [--password P]
  logout
  whoami
  status
  resume     upload FILE | list | delete ID
  section    list NAME | add NAME (--json DOC | --file PATH) | delete NAME ID
  export     [--out PATH]
  letter     generate --role R --company C [--resume ID] [--job PATH] [--out PATH]
             render   (--id ID | --file PATH) [--template T] [--resume ID] [--out PATH]
             pdf      (--id ID | --file PATH) [--template T] [--resume ID] [--out PATH] [--upload]
  chat       [--session ID] [--reset] [MESSAGE...]
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("portfolio", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to config file")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	lg := setupLogger(cfg.Env, stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = log.Into(ctx, lg)

	a, err := newApp(ctx, cfg, lg, stdin, stdout, stderr)
	if err != nil {
		lg.Error("app_init_failed", slog.String("err", err.Error()))
		return 1
	}
	defer a.Close()

	if err := a.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fs.Usage()
			return 2
		}

		fmt.Fprintf(stderr, "error: %s\n", apierrors.Message(err))
		lg.Debug("command_failed", slog.String("cmd", fs.Arg(0)), slog.String("err", err.Error()))
		return 1
	}

	return 0
}

// setupLogger — логи CLI пишутся в stderr, чтобы не смешиваться с выводом команд.
func setupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
	case envDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
}
