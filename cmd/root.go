package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/featserve/app"
	"github.com/kilianp07/featserve/config"
	"github.com/kilianp07/featserve/infra/logger"
	"github.com/kilianp07/featserve/infra/monitoring"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "featserve",
	Short:        "Feature serving configuration service",
	SilenceUsage: true,
	RunE:         serve,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the configuration and run the serving components",
	RunE:  serve,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New("main")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry(), cfg.Version())
	if err != nil {
		log.Warnf("sentry disabled: %v", err)
	} else {
		monitoring.Init(mon)
	}
	defer monitoring.Flush(2 * time.Second)
	defer monitoring.Recover()

	svc, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		monitoring.CaptureException(err, map[string]string{"stage": "startup"})
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()
	if err := svc.Run(ctx); err != nil {
		monitoring.CaptureException(err, map[string]string{"stage": "run"})
		return err
	}
	return nil
}
