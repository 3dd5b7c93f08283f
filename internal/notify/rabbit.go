package notify

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const routingPrefix = "notify."

// RabbitQueue publishes messages as JSON to a topic exchange
type RabbitQueue struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewRabbitQueue connects and declares the exchange
func NewRabbitQueue(url, exchange string) (*RabbitQueue, error) {
	conn, ch, err := dialExchange(url, exchange)
	if err != nil {
		return nil, err
	}
	return &RabbitQueue{conn: conn, channel: ch, exchange: exchange}, nil
}

func dialExchange(url, exchange string) (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}
	return conn, ch, nil
}

// Enqueue publishes msg with routing key notify.<template>
func (q *RabbitQueue) Enqueue(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}
	err = q.channel.PublishWithContext(ctx, q.exchange, routingPrefix+string(msg.Template), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Body:         body,
	})
	return errors.Wrap(err, "publish message")
}

// Close terminates the connection
func (q *RabbitQueue) Close() error {
	if q == nil {
		return nil
	}
	_ = q.channel.Close()
	return q.conn.Close()
}

// RabbitConsumer reads messages from a durable queue bound to the exchange
type RabbitConsumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
	logger  *zap.SugaredLogger
}

// NewRabbitConsumer declares and binds the queue
func NewRabbitConsumer(url, exchange, queue string, logger *zap.SugaredLogger) (*RabbitConsumer, error) {
	conn, ch, err := dialExchange(url, exchange)
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "declare queue %s", queue)
	}
	if err := ch.QueueBind(q.Name, routingPrefix+"*", exchange, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "bind queue %s", queue)
	}
	return &RabbitConsumer{conn: conn, channel: ch, queue: q.Name, logger: logger}, nil
}

// Consume feeds deliveries to handle until ctx is done. Each delivery is
// acked after handling; undecodable payloads are rejected without requeue.
func (c *RabbitConsumer) Consume(ctx context.Context, handle func(context.Context, Message) error) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "start consuming")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			var msg Message
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				c.logger.Warnw("Dropping undecodable notification", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = handle(ctx, msg)
			_ = d.Ack(false)
		}
	}
}

// Close terminates the connection
func (c *RabbitConsumer) Close() error {
	if c == nil {
		return nil
	}
	_ = c.channel.Close()
	return c.conn.Close()
}
