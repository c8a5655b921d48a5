// Command ecsloopd is a small demo/ops CLI around an ecsloop App: "run"
// drives the demo loop to completion, "doctor" prints one line per
// registered node (stage, depth, avg_ms, token, name) and exits without
// looping.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/brightforge/ecsloop"
	"github.com/brightforge/ecsloop/internal/config"
	"github.com/brightforge/ecsloop/internal/debugserver"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	ticks      int
)

func main() {
	root := &cobra.Command{
		Use:     "ecsloopd",
		Short:   "ecsloop demo application driver",
		Version: "0.1.0",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (defaults built in if unset)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "force debug-level logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "start the demo app loop",
		RunE:  runRun,
	}
	runCmd.Flags().IntVar(&ticks, "ticks", 5, "number of main-loop ticks before exiting")

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "print registered nodes with their stage and depth and exit without looping",
		RunE:  runDoctor,
	}

	root.AddCommand(runCmd, doctorCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	if configPath == "" {
		return config.Default()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func buildLogger(cfg *config.Config) *zap.Logger {
	lc := ecsloop.LoggingConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if verbose {
		lc.Level = "debug"
	}
	z, err := ecsloop.NewZapLogger(lc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: building logger: %v\n", err)
		os.Exit(1)
	}
	return z
}

func buildApp(cfg *config.Config, z *zap.Logger) *ecsloop.App {
	world := ecsloop.NewWorld()
	opts := []ecsloop.AppOption{ecsloop.WithZapLogger(z)}
	if cfg.Scheduler.Workers > 0 {
		opts = append(opts, ecsloop.WithWorkers(cfg.Scheduler.Workers))
	}
	app := ecsloop.NewApp(world, opts...)
	app.AddPlugin(demoPlugin{maxTicks: ticks})
	return app
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	z := buildLogger(cfg)
	defer z.Sync()

	if cfg.Profiling.Mode != "" {
		stop := startProfile(cfg.Profiling.Mode)
		defer stop()
	}

	app := buildApp(cfg, z)

	if cfg.Debug.Enabled {
		srv := debugserver.New(app)
		go func() {
			z.Info("debug server listening", zap.String("addr", cfg.Debug.BindAddress))
			if err := http.ListenAndServe(cfg.Debug.BindAddress, srv); err != nil {
				z.Warn("debug server stopped", zap.Error(err))
			}
		}()
	}

	app.Run()
	return nil
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	z := zap.NewNop()
	app := buildApp(cfg, z)

	for _, n := range ecsloop.Inspect(app) {
		fmt.Printf("%-8s depth=%-3d avg_ms=%-8.3f %-6s %s\n", n.Stage, n.Depth, n.AvgMs, n.Token, n.Name)
	}
	return nil
}

func startProfile(mode string) func() {
	var opt func(*profile.Profile)
	switch mode {
	case "cpu":
		opt = profile.CPUProfile
	case "mem":
		opt = profile.MemProfileAllocs
	case "goroutine":
		opt = profile.GoroutineProfile
	default:
		return func() {}
	}
	p := profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook)
	return p.Stop
}
