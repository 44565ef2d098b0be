package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"budgettracker/logging"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AMQPClient publishes budget checks to RabbitMQ and consumes them in the
// worker process.
type AMQPClient struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	mu           sync.Mutex
}

func NewAMQPClient(url, exchangeName, queueName string) (*AMQPClient, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &AMQPClient{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *AMQPClient) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name.
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Dispatch publishes msg as a persistent message.
func (c *AMQPClient) Dispatch(ctx context.Context, msg BudgetCheck) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	err = c.channel.PublishWithContext(
		pubCtx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	c.mu.Unlock()

	log := logging.FromContext(ctx).
		WithField(logging.FieldComponent, logging.ComponentQueue).
		WithField(logging.FieldProjectID, msg.ProjectID).
		WithField(logging.FieldReason, msg.Reason).
		WithField(logging.FieldQueue, c.queueName)
	if err != nil {
		log.WithError(err).Error("Budget check not published")
		return fmt.Errorf("publish message: %w", err)
	}
	log.Debug("Published budget check")
	return nil
}

// Consume runs checker for every delivery until ctx is cancelled or the
// channel closes. Malformed messages are rejected without requeue. Failed
// checks are logged and acknowledged so a broken project cannot loop.
func (c *AMQPClient) Consume(ctx context.Context, checker Checker) error {
	c.mu.Lock()
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	log := logging.FromContext(ctx).
		WithField(logging.FieldComponent, logging.ComponentWorker).
		WithField(logging.FieldQueue, c.queueName)
	log.Info("Started consuming budget checks")

	for {
		select {
		case <-ctx.Done():
			log.WithField(logging.FieldReason, ctx.Err()).Info("Stopping message consumption")
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			switch handleDelivery(ctx, checker, delivery.Body, log) {
			case outcomeReject:
				delivery.Nack(false, false)
			default:
				delivery.Ack(false)
			}
		}
	}
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeReject
)

func handleDelivery(ctx context.Context, checker Checker, body []byte, log *logrus.Entry) outcome {
	msg, err := BudgetCheckFromJSON(body)
	if err != nil {
		log.WithError(err).Error("Failed to unmarshal budget check")
		return outcomeReject
	}
	// run already captured the failure; the message is still acknowledged.
	_ = run(ctx, checker, msg, log)
	return outcomeAck
}

func (c *AMQPClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
