package async

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/code-payments/custody-server/pkg/metrics"
)

type Service interface {
	Start(ctx context.Context, interval time.Duration) error
}

// StartTransaction begins a New Relic transaction for a single worker cycle.
// The returned transaction is nil when ctx carries no application, which is
// safe to use.
func StartTransaction(ctx context.Context, name string) (context.Context, *newrelic.Transaction) {
	nr, ok := metrics.FromContext(ctx)
	if !ok {
		return ctx, nil
	}

	m := nr.StartTransaction(name)
	return newrelic.NewContext(ctx, m), m
}
