package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thereayou/roomchat/internal/config"
	"github.com/thereayou/roomchat/internal/logger"
	"github.com/thereayou/roomchat/internal/server"
)

var rootCmd = &cobra.Command{
	Use:          "roomchat-server",
	Short:        "Rooms, messages, identity and a live change feed for roomchat clients",
	SilenceUsage: true,
	RunE:         runServer,
}

var (
	flagPort     string
	flagDBDriver string
	flagDBURL    string
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagPort, "port", "", "HTTP port (overrides PORT)")
	flags.StringVar(&flagDBDriver, "db-driver", "", "postgres or sqlite (overrides DB_DRIVER)")
	flags.StringVar(&flagDBURL, "db-url", "", "database DSN (overrides DATABASE_URL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, loaded := config.Load()
	if flagPort != "" {
		cfg.App.Port = flagPort
	}
	if flagDBDriver != "" {
		cfg.Database.Driver = flagDBDriver
	}
	if flagDBURL != "" {
		cfg.Database.URL = flagDBURL
	}

	log := logger.New(cfg.App.LogFilePath, cfg.IsProduction())
	defer log.Sync()

	if !loaded {
		log.Info(".env not found, using environment variables")
	}

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		log.Error("server init failed", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
