package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"wakeclock/internal/config"
	"wakeclock/internal/logging"
)

type flags struct {
	configPath string
	logLevel   string
	sim        bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	fs := pflag.NewFlagSet("wakeclock", pflag.ContinueOnError)
	fs.StringVarP(&f.configPath, "config", "c", "", "Path to YAML config (defaults apply when empty)")
	fs.StringVar(&f.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	fs.BoolVar(&f.sim, "sim", false, "Run against the simulated receiver and clock")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}
	return f, nil
}

func loadConfig(f flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return config.Config{}, fmt.Errorf("config load %s: %w", f.configPath, err)
		}
	}
	if f.sim {
		cfg.EnableSim()
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if err == pflag.ErrHelp {
			return
		}
		log.Fatal("wakeclock: bad arguments", "err", err)
	}

	cfg, err := loadConfig(f)
	if err != nil {
		log.Fatal("wakeclock: config load failed", "err", err)
	}

	lg, err := logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		log.Fatal("wakeclock: logger init failed", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	lg.Info("wakeclock: starting", "gps", cfg.GPS.Driver, "display", cfg.Display.Driver, "sim", cfg.Sim.Enable)
	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("wakeclock: stopped", "err", err)
	}
	lg.Info("wakeclock: stopping")
}
