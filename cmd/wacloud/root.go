package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/wacloud/internal/config"
	client "github.com/mamadbah2/wacloud/pkg/clients/whatsapp"
	"github.com/mamadbah2/wacloud/pkg/logger"
)

type rootOptions struct {
	envFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "wacloud",
		Short:         "WhatsApp Cloud API toolbox",
		Long:          "Sends messages through the WhatsApp Cloud API and inspects webhook payloads.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "path to a .env file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newSendTextCmd(opts),
		newParseCmd(),
		newPhoneNumberCmd(opts),
	)
	return root
}

// apiClient loads the client configuration and builds a logger for it.
func (o *rootOptions) apiClient() (*client.APIClient, *zap.Logger, error) {
	cfg, err := config.LoadClient(o.envFile)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	log, err := logger.New(level)
	if err != nil {
		return nil, nil, err
	}

	return client.NewClient(cfg.WhatsApp.ClientConfig(), client.WithLogger(log.Named("client.whatsapp"))), log, nil
}
