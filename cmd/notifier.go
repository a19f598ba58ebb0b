/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/supportdesk/apiserver/config"
	"github.com/supportdesk/apiserver/internal/events"
	"github.com/spf13/cobra"
)

// notifierCmd consumes ticket events from the broker and logs them. It is
// the hook point for staff notification delivery (mail, chat, pager).
var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Consume and log ticket events from the message broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		backend, err := events.NewBackend(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("init event backend: %w", err)
		}
		if backend == nil {
			return errors.New("MQ_BACKEND is required for the notifier")
		}

		publisher := events.NewPublisher(backend, cfg.MQ.Channel)
		defer func() {
			_ = publisher.Close()
		}()

		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		logger.Info("notifier started", "channel", cfg.MQ.Channel, "backend", cfg.MQ.Backend)

		err = publisher.Subscribe(cmd.Context(), func(ctx context.Context, event events.TicketEvent) error {
			logger.Info("ticket event",
				"type", event.Type,
				"ticket_id", event.TicketID,
				"owner_id", event.OwnerID,
				"product", event.Product,
				"status", event.Status,
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}
