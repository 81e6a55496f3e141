/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roomatch/apiserver/config"
	"github.com/roomatch/apiserver/internal/mq"
	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/types"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumes analytics events from the event bus",
	Long: `Consumes analytics events from the configured message broker and
logs them. Usage:

	roomatch worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()

		var backend mq.Backend
		switch cfg.MQBackend {
		case "rabbitmq":
			client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
			if err != nil {
				return err
			}
			backend = client
		case "pubsub":
			client, err := mq.NewPubSubClient(cmd.Context(), cfg.PubSub)
			if err != nil {
				return err
			}
			backend = client
		default:
			return fmt.Errorf("worker requires MQ_BACKEND to be rabbitmq or pubsub, got %q", cfg.MQBackend)
		}

		bus := mq.New(backend)
		defer func() {
			_ = bus.Close()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info().Str("channel", services.EventsChannel).Msg("worker started")
		err := bus.Subscribe(ctx, services.EventsChannel, func(ctx context.Context, msg mq.Message) error {
			var event types.AnalyticsEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				logger.Warn().Err(err).Str("message_id", msg.ID).Msg("skipping undecodable event")
				return nil
			}
			logger.Info().
				Str("event_id", event.ID).
				Str("type", string(event.Type)).
				Time("created_at", event.CreatedAt).
				Interface("properties", event.Properties).
				Msg("event received")
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
