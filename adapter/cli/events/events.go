// Package events holds the commands that watch task events on the broker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasktrack/adapter/cli"
	"github.com/felixgeelhaar/tasktrack/internal/app"
	"github.com/felixgeelhaar/tasktrack/internal/shared/infrastructure/eventbus"
)

// Cmd is the events command group.
var Cmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect task events published to RabbitMQ",
}

var tailJSON bool

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print task events as they are published",
	Long: `Bind a temporary queue to the task exchange and print every task
event until interrupted. Needs RABBITMQ_URL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.Config()
		if err != nil {
			return err
		}
		if cfg.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is not set")
		}
		logger := cli.Logger()

		registry := eventbus.NewConsumerRegistry(logger)
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:       cfg.RabbitMQURL,
			Exchange:  eventbus.ExchangeName,
			Transient: true,
			Logger:    logger,
		}, registry)
		if err != nil {
			return err
		}
		defer consumer.Close()

		consumer.RegisterConsumer(newPrintConsumer(cmd.OutOrStdout(), tailJSON))

		err = consumer.Start(cmd.Context())
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	tailCmd.Flags().BoolVar(&tailJSON, "json", false, "print each event as a JSON line")
	Cmd.AddCommand(tailCmd)
}

// printConsumer writes every task event it receives to out.
type printConsumer struct {
	mu     sync.Mutex
	out    io.Writer
	asJSON bool
}

func newPrintConsumer(out io.Writer, asJSON bool) *printConsumer {
	return &printConsumer{out: out, asJSON: asJSON}
}

func (p *printConsumer) EventTypes() []string {
	return app.TaskRoutingKeys
}

func (p *printConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.asJSON {
		line, err := json.Marshal(event)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.out, string(line))
		return err
	}

	_, err := fmt.Fprintf(p.out, "%s %s task=%s correlation=%s %s\n",
		event.OccurredAt.UTC().Format("2006-01-02T15:04:05Z"),
		event.RoutingKey,
		event.AggregateID,
		event.Metadata.CorrelationID,
		string(event.Data),
	)
	return err
}
