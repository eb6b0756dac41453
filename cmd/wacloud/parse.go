package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/wacloud/pkg/webhook"
)

// eventLine is one line of parse output.
type eventLine struct {
	Kind  webhook.Kind  `json:"kind"`
	Event webhook.Event `json:"event"`
}

func newParseCmd() *cobra.Command {
	var skipSent bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Normalize a webhook payload into events",
		Long:  "Reads a webhook body from the file (or stdin when omitted or \"-\") and prints one JSON event per line.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			events, err := webhook.Parse(data, webhook.WithSentStatuses(!skipSent))
			if err != nil {
				return err
			}
			return writeEvents(cmd.OutOrStdout(), events)
		},
	}

	cmd.Flags().BoolVar(&skipSent, "skip-sent", false, "drop \"sent\" statuses")
	return cmd
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

func writeEvents(w io.Writer, events []webhook.Event) error {
	enc := json.NewEncoder(w)
	for _, ev := range events {
		if err := enc.Encode(eventLine{Kind: ev.Kind(), Event: ev}); err != nil {
			return err
		}
	}
	return nil
}
