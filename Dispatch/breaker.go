package Dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// NewBreaker trips after more than three consecutive failures and lets a
// trial call through after timeout.
func NewBreaker(name string, timeout time.Duration, log logrus.FieldLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Info("circuit breaker state changed")
			}
		},
	})
}

// Guarded routes a sink's calls through a circuit breaker so a failing
// transport stops being called for a while.
type Guarded struct {
	Sink    NotificationSink
	Breaker *gobreaker.CircuitBreaker
}

func (g Guarded) Notify(ctx context.Context, n Notice) error {
	_, err := g.Breaker.Execute(func() (interface{}, error) {
		return nil, g.Sink.Notify(ctx, n)
	})
	return err
}

// Fanout delivers to every sink and reports all failures together.
type Fanout []NotificationSink

func (f Fanout) Notify(ctx context.Context, n Notice) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
