package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/veesix-networks/osvrouter/internal/dataplane"
	_ "github.com/veesix-networks/osvrouter/internal/exporter"
	"github.com/veesix-networks/osvrouter/internal/router"
	"github.com/veesix-networks/osvrouter/pkg/component"
	"github.com/veesix-networks/osvrouter/pkg/config"
	"github.com/veesix-networks/osvrouter/pkg/events/local"
	"github.com/veesix-networks/osvrouter/pkg/logger"
	"github.com/veesix-networks/osvrouter/pkg/version"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "osvrouterd",
		Short:         "SDN router control plane",
		Version:       version.Full(),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(newValidateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	components := make(map[string]logger.LogLevel, len(cfg.Logging.Components))
	for name, level := range cfg.Logging.Components {
		components[name] = logger.LogLevel(level)
	}
	logger.Configure(cfg.Logging.Format, logger.LogLevel(cfg.Logging.Level), components)

	return cfg, nil
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mainLog := logger.Get(logger.Main)
	mainLog.Info("Starting osvrouter", version.Attrs()...)
	logger.Get(logger.Config).Info("Loaded configuration", "path", configPath, "name", cfg.Router.Name, "interfaces", len(cfg.Router.Interfaces), "transport", cfg.Dataplane.Transport)

	transport, err := openTransport(cfg)
	if err != nil {
		return fmt.Errorf("open %s transport: %w", cfg.Dataplane.Transport, err)
	}

	eventBus := local.NewBus()
	defer eventBus.Close()
	if len(cfg.Logging.DebugTopics) > 0 {
		eventBus.SetDebugTopics(cfg.Logging.DebugTopics)
	}

	deps := component.Dependencies{
		EventBus:  eventBus,
		Config:    cfg,
		Transport: transport,
		Registry:  prometheus.NewRegistry(),
	}

	dataplaneComp, err := dataplane.New(deps)
	if err != nil {
		transport.Close()
		return fmt.Errorf("create dataplane component: %w", err)
	}
	deps.RouterChan = dataplaneComp.RouterChan
	deps.Dataplane = dataplaneComp

	routerComp, err := router.NewComponent(deps)
	if err != nil {
		transport.Close()
		return fmt.Errorf("create router component: %w", err)
	}
	deps.State = routerComp.Engine()

	orch := component.NewOrchestrator()
	orch.Register(routerComp)
	orch.Register(dataplaneComp)

	pluginComponents, err := component.LoadAll(deps)
	if err != nil {
		transport.Close()
		return fmt.Errorf("load plugin components: %w", err)
	}
	for _, comp := range pluginComponents {
		if comp != nil {
			mainLog.Info("Loaded plugin component", "name", comp.Name())
			orch.Register(comp)
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := orch.Start(ctx); err != nil {
		orch.Stop(context.Background())
		return fmt.Errorf("start components: %w", err)
	}

	mainLog.Info("osvrouter started successfully")

	<-ctx.Done()

	mainLog.Info("Shutting down osvrouter...")

	if err := orch.Stop(context.Background()); err != nil {
		mainLog.Error("Error stopping components", "error", err)
	}

	mainLog.Info("osvrouter stopped")
	return nil
}
