package notify

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"cafeteria-system/internal/connections/rabbitmq"
	"cafeteria-system/internal/domain"
)

// Subscriber drains the service's fanout queue and republishes each
// event into the Hub for connected viewers.
type Subscriber struct {
	client *rabbitmq.Client
	hub    *Hub
	log    *logrus.Entry
}

func NewSubscriber(client *rabbitmq.Client, hub *Hub, log *logrus.Entry) *Subscriber {
	return &Subscriber{client: client, hub: hub, log: log}
}

// Run consumes until ctx is canceled or the delivery channel closes.
func (s *Subscriber) Run(ctx context.Context, queue string) error {
	deliveries, err := s.client.Consume(queue, "event-subscriber", 1)
	if err != nil {
		return err
	}
	s.log.WithField("queue", queue).Info("event subscriber started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			var ev domain.Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				s.log.WithError(err).Error("malformed event payload")
				_ = d.Nack(false, false)
				continue
			}
			s.hub.Publish(ev.Kind)
			_ = d.Ack(false)
		}
	}
}
