package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"auctionbook/internal/export"
	"auctionbook/internal/models"
	"auctionbook/pkg/rabbitmq"
)

func newHealthCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API and its database answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := c.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			db := "unreachable"
			if status.HasDBConnection {
				db = "connected"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API: %s, database: %s\n", status.Status, db)
			return nil
		},
	}
}

func newEventsCmd(c *cli) *cobra.Command {
	var queue, binding string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow auction lifecycle events published on RabbitMQ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !c.cfg.RabbitMQ.Enabled() {
				return errors.New("RABBITMQ_URL is not set")
			}
			mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: c.cfg.RabbitMQ.URL, Exchange: c.cfg.RabbitMQ.Exchange})
			if err != nil {
				return err
			}
			defer mq.Close()

			out := cmd.OutOrStdout()
			err = mq.ConsumeAuctionEvents(cmd.Context(), queue, binding, func(event models.AuctionEvent) error {
				return printEvent(out, event)
			})
			if errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&queue, "queue", "", "durable queue to consume from (default a temporary queue)")
	cmd.Flags().StringVar(&binding, "binding", rabbitmq.RoutingKeyAll, "routing key pattern, e.g. auction.paid")
	return cmd
}

func printEvent(out io.Writer, event models.AuctionEvent) error {
	_, err := fmt.Fprintf(out, "%s  %-16s %s  %s  total %s  items %d  paid %t\n",
		event.OccurredAt.Local().Format(export.TimestampLayout),
		event.Type,
		export.ShortID(event.AuctionID),
		event.PersonName,
		event.TotalAmount,
		event.ItemCount,
		event.IsPaid,
	)
	return err
}
