package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"fraudshield/internal/domain"
)

func newClassifyCmd(configPath *string) *cobra.Command {
	var (
		channel string
		userID  string
	)

	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify and record one message",
		Long:  "Runs one message through the gateway, records it and prints the verdict as JSON.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, *configPath, userID, channel, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&channel, "channel", string(domain.ChannelSMS), "EMAIL, SMS or CALL")
	cmd.Flags().StringVar(&userID, "user", "", "user the message belongs to")
	return cmd
}

func runClassify(cmd *cobra.Command, configPath, userID, channel, text string) error {
	ctx := cmd.Context()

	a, err := setup(ctx, configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	req := domain.ClassificationRequest{Message: text, Channel: domain.Channel(channel)}
	if ch, ok := domain.ParseChannel(channel); ok {
		req.Channel = ch
	}

	resp, msg, err := a.gateway.ClassifyAndRecord(ctx, userID, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		ID string `json:"id"`
		domain.ClassificationResponse
	}{ID: msg.ID, ClassificationResponse: *resp})
}
