package metrics

import (
	"context"
)

// RecordEvent records a custom event on the New Relic application in ctx, if any
func RecordEvent(ctx context.Context, eventName string, kvPairs map[string]interface{}) {
	if app, ok := FromContext(ctx); ok {
		app.RecordCustomEvent(eventName, kvPairs)
	}
}
