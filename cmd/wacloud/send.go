package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	client "github.com/mamadbah2/wacloud/pkg/clients/whatsapp"
)

func newSendTextCmd(root *rootOptions) *cobra.Command {
	var (
		previewURL bool
		replyTo    string
	)

	cmd := &cobra.Command{
		Use:   "send-text <to> <body...>",
		Short: "Send a text message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, log, err := root.apiClient()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			resp, err := api.SendTextMessage(cmd.Context(), client.SendTextMessageRequest{
				To:         args[0],
				Body:       strings.Join(args[1:], " "),
				PreviewURL: previewURL,
				ReplyTo:    replyTo,
			})
			if err != nil {
				log.Error("send failed", zap.Error(err))
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.MessageID())
			return err
		},
	}

	cmd.Flags().BoolVar(&previewURL, "preview-url", false, "render a link preview")
	cmd.Flags().StringVar(&replyTo, "reply-to", "", "message id to quote")
	return cmd
}
