package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mhc-gc/mhc-site/backend/go-api/internal/config"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		logger.Fatalf("%v", err)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mhc-api",
		Short:         "MH Construction lead-generation API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context())
			},
		},
		hashPasswordCmd(),
		migrateCmd(),
		mailWorkerCmd(),
	)
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger.Infof("config loaded: store=%s redis=%v mail=%v queue=%v minio=%v",
		cfg.Store.Driver, cfg.Redis.Host != "", cfg.Mail.Host != "", cfg.Queue.URL != "", cfg.MinIO.Endpoint != "")
	return cfg, nil
}
