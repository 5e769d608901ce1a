package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"framereel/internal/logging"
	"framereel/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to every configured channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.NtfyTopic == "" && !cfg.MQTT.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "No notification channel configured (set notifications.ntfy_topic or enable mqtt)")
				return nil
			}
			service := notifications.NewService(cfg, logging.NewNop())
			defer service.Close()

			sendCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			if err := service.Publish(sendCtx, notifications.EventTest, notifications.Payload{}); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
