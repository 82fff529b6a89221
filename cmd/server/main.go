// server runs the simulated idle game with the burst helper attached and
// serves the burst.v1.Control gRPC service.
//
// Usage:
//
//	server [--settings DIR] [--listen ADDR] [--tick DUR] [--tui] [--watch DUR]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"

	"github.com/xtding233/burst-helper/internal/controller"
	"github.com/xtding233/burst-helper/internal/host"
	"github.com/xtding233/burst-helper/internal/host/sim"
	"github.com/xtding233/burst-helper/internal/rpc"
	"github.com/xtding233/burst-helper/internal/settings"
	"github.com/xtding233/burst-helper/internal/tui"
)

type options struct {
	settingsDir string
	listen      string
	tick        time.Duration
	logLevel    string
	logFormat   string
	logFile     string
	useTUI      bool
	watch       time.Duration
	seed        uint64
	bank        int64
	bonus       float64
}

func main() {
	var opts options
	pflag.StringVar(&opts.settingsDir, "settings", defaultSettingsDir(), "directory holding the settings file")
	pflag.StringVar(&opts.listen, "listen", "127.0.0.1:7411", "gRPC listen address")
	pflag.DurationVar(&opts.tick, "tick", time.Second/30, "simulation tick interval")
	pflag.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	pflag.StringVar(&opts.logFormat, "log-format", "text", "text or json")
	pflag.StringVar(&opts.logFile, "log-file", "", "write logs here instead of stderr")
	pflag.BoolVar(&opts.useTUI, "tui", false, "run the terminal UI")
	pflag.DurationVar(&opts.watch, "watch", 0, "poll the settings file for edits at this interval (0 disables)")
	pflag.Uint64Var(&opts.seed, "seed", 0, "seed for the simulation's random events (0 means random)")
	pflag.Int64Var(&opts.bank, "bank", 1_000_000, "starting currency")
	pflag.Float64Var(&opts.bonus, "bonus-chance", 0.001, "per-tick chance of a free building")
	pflag.Parse()

	if err := run(opts); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultSettingsDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return dir + string(os.PathSeparator) + "burst-helper"
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	}
	return nil, fmt.Errorf("--log-format: unknown format %q", format)
}

func run(opts options) error {
	var logOut io.Writer = os.Stderr
	switch {
	case opts.logFile != "":
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	case opts.useTUI:
		// stderr belongs to the terminal UI
		logOut = io.Discard
	}
	logger, err := newLogger(logOut, opts.logLevel, opts.logFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var program atomic.Pointer[tea.Program]
	rng := sim.DefaultRNG()
	if opts.seed != 0 {
		rng = sim.NewSeededRNG(opts.seed)
	}
	game := sim.New(sim.Options{
		Bank:        opts.bank,
		BonusChance: opts.bonus,
		RNG:         rng,
		OnNotify: func(n host.Notification) {
			logger.Info("notification", "title", n.Title, "message", n.Message)
			if p := program.Load(); p != nil {
				p.Send(tui.NotifyMsg(n))
			}
		},
		OnPrompt: func(r sim.PromptRecord) {
			if p := program.Load(); p != nil {
				p.Send(tui.PromptMsg{Markup: r.Markup, Buttons: r.Buttons})
			}
		},
	})

	store := settings.FileStore{Dir: opts.settingsDir}
	ctl := controller.New(game, store, controller.Options{Logger: logger})
	game.RegisterMod(controller.ModID, ctl)
	game.Ready()

	if opts.watch > 0 {
		w := ctl.Watch(store, opts.watch)
		defer w.Stop()
	}

	lis, err := net.Listen("tcp", opts.listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.listen, err)
	}
	srv := grpc.NewServer()
	rpc.Register(srv, ctl)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(lis) }()
	defer srv.GracefulStop()
	logger.Info("control service listening", "addr", lis.Addr().String(), "settings", store.Path(settings.StorageKey))

	if opts.useTUI {
		p := tea.NewProgram(tui.New(ctx, ctl, opts.tick), tea.WithContext(ctx), tea.WithAltScreen())
		program.Store(p)
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	}

	loopErr := make(chan error, 1)
	go func() { loopErr <- ctl.Run(ctx, opts.tick) }()
	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case err := <-loopErr:
		logger.Info("shutting down")
		return err
	}
}
