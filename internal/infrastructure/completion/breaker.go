package completion

import (
	"context"

	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/entity"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/resilience"
)

// Client is implemented by every completion protocol.
type Client interface {
	Complete(ctx context.Context, prompt entity.Prompt) (string, error)
	Protocol() string
}

// GuardedClient fails fast while the completion service is known to be down.
type GuardedClient struct {
	next    Client
	breaker *resilience.CircuitBreaker
}

// WithCircuitBreaker wraps next with breaker.
func WithCircuitBreaker(next Client, breaker *resilience.CircuitBreaker) *GuardedClient {
	return &GuardedClient{next: next, breaker: breaker}
}

// Protocol returns the wrapped client's protocol.
func (g *GuardedClient) Protocol() string {
	return g.next.Protocol()
}

// Complete calls the wrapped client unless the circuit is open.
func (g *GuardedClient) Complete(ctx context.Context, prompt entity.Prompt) (string, error) {
	var answer string
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		answer, err = g.next.Complete(ctx, prompt)
		return err
	})
	return answer, err
}
