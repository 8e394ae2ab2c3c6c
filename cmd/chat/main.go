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
	"github.com/thereayou/roomchat/pkg/backend"
	"github.com/thereayou/roomchat/pkg/chat"
)

var rootCmd = &cobra.Command{
	Use:          "roomchat",
	Short:        "Terminal client for roomchat rooms",
	SilenceUsage: true,
	RunE:         runChat,
}

var (
	flagAPIURL      string
	flagEmail       string
	flagPassword    string
	flagSignUp      bool
	flagLogFile     string
	flagSessionFile string
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagAPIURL, "api-url", "", "roomchat server URL (overrides CHAT_API_URL)")
	flags.StringVar(&flagEmail, "email", "", "sign in with this email")
	flags.StringVar(&flagPassword, "password", "", "password for --email")
	flags.BoolVar(&flagSignUp, "signup", false, "create the account given by --email")
	flags.StringVar(&flagLogFile, "log-file", "", "write debug logs to this file")
	flags.StringVar(&flagSessionFile, "session-file", defaultSessionFile(), "where the access token is kept between runs")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, _ := config.Load()
	if flagAPIURL != "" {
		cfg.Client.APIURL = flagAPIURL
	}
	logPath := cfg.App.LogFilePath
	if flagLogFile != "" {
		logPath = flagLogFile
	}

	log := logger.NewFileOnly(logPath)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be := backend.New(backend.Config{
		BaseURL: cfg.Client.APIURL,
		Timeout: cfg.Client.RequestTimeout,
		Log:     log,
	})

	tokens := sessionFile(flagSessionFile)
	if token := tokens.load(); token != "" {
		be.SetToken(token)
	}

	client := chat.NewClient(be, be, be, log)
	defer client.Close()

	client.Session.Subscribe(func(s *chat.Session) {
		var err error
		if s == nil {
			err = tokens.clear()
		} else {
			err = tokens.save(be.Token())
		}
		if err != nil {
			log.Warn("session file", zap.Error(err))
		}
	})

	if err := client.Start(ctx); err != nil {
		log.Warn("restore session failed", zap.Error(err))
	}

	a := newApp(client, os.Stdin, cmd.OutOrStdout(), log)
	if flagEmail != "" {
		a.autoLogin(ctx, flagEmail, flagPassword, flagSignUp)
	}
	return a.run(ctx)
}
