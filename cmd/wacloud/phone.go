package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newPhoneNumberCmd(root *rootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "phone-number",
		Short: "Show the configured phone number",
		Long:  "Prints the configured phone number, or with --list every number of the business account.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, log, err := root.apiClient()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if list {
				resp, err := api.ListPhoneNumbers(cmd.Context(), "")
				if err != nil {
					return err
				}
				return enc.Encode(resp.Data)
			}

			phone, err := api.GetPhoneNumber(cmd.Context())
			if err != nil {
				return err
			}
			return enc.Encode(phone)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list every number of the business account")
	return cmd
}
