package rabbitmq

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"cafeteria-system/internal/config"
)

// Topology for the change-event fan-out. Every committed change is
// published to EventsExchange; the in-process subscriber drains
// EventsQueue and forwards to connected viewers.
const (
	EventsExchange = "cafeteria.events"
	EventsQueue    = "cafeteria.events.q"
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	acks <-chan amqp.Confirmation // publisher confirms
	mu   sync.Mutex               // serializes Publish while waiting for a confirm
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Dial connects with publisher confirms enabled. A `tls: true` in the
// rabbitmq config section switches to amqps.
func Dial(cfg config.MQ) (*Client, error) {
	vhost := cfg.VHost
	if vhost == "" {
		vhost = "/"
	}

	var (
		conn *amqp.Connection
		err  error
	)
	if cfg.UseTLS {
		url := fmt.Sprintf("amqps://%s:%s@%s:%d/%s", cfg.User, cfg.Password, cfg.Host, cfg.Port, vhost)
		conn, err = amqp.DialTLS(url, &tls.Config{MinVersion: tls.VersionTLS12})
	} else {
		url := fmt.Sprintf("amqp://%s:%s@%s:%d/%s", cfg.User, cfg.Password, cfg.Host, cfg.Port, vhost)
		conn, err = amqp.Dial(url)
	}
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	return &Client{conn: conn, ch: ch, acks: acks}, nil
}

func (c *Client) Ping() error {
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// DeclareTopology declares the fanout exchange and its queue. Idempotent.
func (c *Client) DeclareTopology() error {
	if c == nil || c.ch == nil {
		return errors.New("nil channel")
	}
	if err := c.ch.ExchangeDeclare(EventsExchange, "fanout", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare(EventsQueue, true, false, false, false, nil); err != nil {
		return err
	}
	return c.ch.QueueBind(EventsQueue, "", EventsExchange, false, nil)
}

// Publish sends body and waits for the broker's ack. Calls are serialized
// so confirms match their publish.
func (c *Client) Publish(ctx context.Context, exchange, key string, body []byte, contentType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ch.PublishWithContext(
		ctx,
		exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Transient,
			ContentType:  contentType,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	); err != nil {
		return err
	}

	select {
	case conf := <-c.acks:
		if conf.Ack {
			return nil
		}
		return errors.New("publish NACK from broker")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume starts delivering from queue with manual acks.
func (c *Client) Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.ch.Consume(queue, consumer, false, false, false, false, nil)
}
