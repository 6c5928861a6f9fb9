package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"cafeteria-system/internal/connections/rabbitmq"
	"cafeteria-system/internal/domain"
	"cafeteria-system/internal/metrics"
)

const publishTTL = 5 * time.Second

// Publisher fans change events out through the RabbitMQ fanout exchange.
// Broadcast is fire-and-forget: a broken broker degrades to "viewers
// refresh on their next fetch" and never fails the transaction that
// triggered the event.
type Publisher struct {
	client  *rabbitmq.Client
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Entry
}

func NewPublisher(client *rabbitmq.Client, log *logrus.Entry) *Publisher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "event-publish",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			log.WithFields(logrus.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("circuit breaker state changed")
		},
	})
	return &Publisher{client: client, breaker: cb, log: log}
}

// Broadcast publishes kind to the fanout exchange on its own goroutine
// with its own deadline, so the calling request never waits on the
// broker.
func (p *Publisher) Broadcast(kind domain.EventKind) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTTL)
		defer cancel()

		body, err := json.Marshal(domain.Event{Kind: kind})
		if err != nil {
			p.log.WithError(err).Error("marshal event")
			return
		}
		_, err = p.breaker.Execute(func() (any, error) {
			return nil, p.client.Publish(ctx, rabbitmq.EventsExchange, "", body, "application/json")
		})
		if err != nil {
			metrics.EventsPublished.WithLabelValues(string(kind), "error").Inc()
			p.log.WithField("event", string(kind)).WithError(err).Error("event publish failed")
			return
		}
		metrics.EventsPublished.WithLabelValues(string(kind), "ok").Inc()
	}()
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
