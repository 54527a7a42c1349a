package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/data/account"
	"github.com/code-payments/custody-server/pkg/metrics"
)

const (
	metricsStructName = "ledger.executor"
)

// Receipt describes a committed transition
type Receipt struct {
	Id        string
	Signers   Signers
	Timestamp time.Time
	Events    []*Event
}

// Executor runs transitions against the account store. Each transition either
// commits all of its effects or none of them. Conflicting concurrent
// transitions fail with custody.ErrStaleAccountState and are never retried
// here.
type Executor struct {
	log   *logrus.Entry
	store account.Store
	clock Clock
}

func NewExecutor(store account.Store, clock Clock) *Executor {
	if clock == nil {
		clock = SystemClock()
	}

	return &Executor{
		log:   logrus.StandardLogger().WithField("type", "custody/ledger/executor"),
		store: store,
		clock: clock,
	}
}

// Execute runs fn within a new transaction and commits its effects
func (e *Executor) Execute(ctx context.Context, signers Signers, fn func(tx *Transaction) error) (*Receipt, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Execute")
	defer tracer.End()

	id := uuid.New().String()
	tracer.AddAttribute("tx", id)

	log := e.log.WithFields(logrus.Fields{
		"method":  "Execute",
		"tx":      id,
		"signers": signers.StringSlice(),
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tx := newTransaction(ctx, id, e.store, signers, e.clock.Now())
	if err := fn(tx); err != nil {
		log.WithError(err).Debug("transition rejected")
		tracer.OnError(err)
		return nil, err
	}

	changes := tx.changes()
	tracer.AddAttributes(map[string]interface{}{
		"changes": len(changes),
		"events":  len(tx.events),
	})
	if len(changes) > 0 {
		err := e.store.Apply(ctx, changes...)
		if err == account.ErrStaleState {
			log.Info("transition conflicted with a concurrent update")
			return nil, custody.ErrStaleAccountState
		} else if err != nil {
			log.WithError(err).Warn("failure committing transition")
			tracer.OnError(err)
			return nil, err
		}
	}

	for _, event := range tx.events {
		log.WithFields(logrus.Fields(event.Attributes)).WithField("event", event.Name).Info("event emitted")

		attributes := make(map[string]interface{}, len(event.Attributes)+1)
		for k, v := range event.Attributes {
			attributes[k] = v
		}
		attributes["tx"] = id
		metrics.RecordEvent(ctx, event.Name, attributes)
	}

	return &Receipt{
		Id:        id,
		Signers:   signers,
		Timestamp: tx.now,
		Events:    tx.events,
	}, nil
}

// View runs a read-only function against the ledger.
// Any writes staged by fn are discarded.
func (e *Executor) View(ctx context.Context, fn func(tx *Transaction) error) error {
	tx := newTransaction(ctx, uuid.New().String(), e.store, nil, e.clock.Now())
	return fn(tx)
}

// Clock returns the executor's clock
func (e *Executor) Clock() Clock {
	return e.clock
}
