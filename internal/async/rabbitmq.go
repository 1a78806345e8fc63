package async

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConsumer delivers jobs from a durable queue one at a time. Messages
// are acked only after the dispatcher settles them, so a crashed worker leads
// to redelivery.
type RabbitMQConsumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *slog.Logger
}

func NewRabbitMQConsumer(amqpURL, queueName string, logger *slog.Logger) (*RabbitMQConsumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, ch, err := dialQueue(amqpURL, queueName)
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &RabbitMQConsumer{conn: conn, channel: ch, queue: queueName, logger: logger}, nil
}

// Run consumes until ctx ends or the channel closes.
func (c *RabbitMQConsumer) Run(ctx context.Context, h Handler) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.Info("rabbitmq consumer started", "queue", c.queue)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq delivery channel closed")
			}
			settle(ctx, h, d.Body, d, c.logger)
		}
	}
}

func (c *RabbitMQConsumer) Close() {
	closeQueue(c.conn, c.channel, c.logger)
}

// acknowledger is the part of amqp.Delivery settle needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(ctx context.Context, h Handler, body []byte, ack acknowledger, logger *slog.Logger) Outcome {
	job, err := DecodeJob(body)
	if err != nil {
		logger.Error("rabbitmq.job.rejected", "error", err)
		if nerr := ack.Nack(false, false); nerr != nil {
			logger.Error("rabbitmq.nack.failed", "error", nerr)
		}
		return OutcomeError
	}
	outcome := h.Handle(ctx, job)
	if outcome == OutcomeRequeue {
		if err := ack.Nack(false, true); err != nil {
			logger.Error("rabbitmq.nack.failed", "media_id", job.MediaID, "error", err)
		}
		return outcome
	}
	if err := ack.Ack(false); err != nil {
		logger.Error("rabbitmq.ack.failed", "media_id", job.MediaID, "error", err)
	}
	return outcome
}

// RabbitMQProducer publishes persistent job messages.
type RabbitMQProducer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *slog.Logger
}

func NewRabbitMQProducer(amqpURL, queueName string, logger *slog.Logger) (*RabbitMQProducer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, ch, err := dialQueue(amqpURL, queueName)
	if err != nil {
		return nil, err
	}
	return &RabbitMQProducer{conn: conn, ch: ch, queue: queueName, logger: logger}, nil
}

func (p *RabbitMQProducer) Submit(ctx context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	body, err := job.Encode()
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.MediaID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	p.logger.Info("published job", "queue", p.queue, "media_id", job.MediaID)
	return nil
}

func (p *RabbitMQProducer) Close() {
	closeQueue(p.conn, p.ch, p.logger)
}

func dialQueue(amqpURL, queueName string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	return conn, ch, nil
}

func closeQueue(conn *amqp.Connection, ch *amqp.Channel, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Warn("rabbitmq channel close", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Warn("rabbitmq connection close", "error", err)
		}
	}
	logger.Info("rabbitmq closed")
}
