package worker

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/app"
	"github.com/code-payments/custody-server/pkg/currency/coingecko"
	"github.com/code-payments/custody-server/pkg/custody/async"
	"github.com/code-payments/custody-server/pkg/custody/async/monitor"
	pricefeed_service "github.com/code-payments/custody-server/pkg/custody/async/pricefeed"
	"github.com/code-payments/custody-server/pkg/custody/data/account"
	memory_account_store "github.com/code-payments/custody-server/pkg/custody/data/account/memory"
	postgres_account_store "github.com/code-payments/custody-server/pkg/custody/data/account/postgres"
	"github.com/code-payments/custody-server/pkg/custody/exchange"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	"github.com/code-payments/custody-server/pkg/custody/pricefeed"
	"github.com/code-payments/custody-server/pkg/custody/tokens"
	"github.com/code-payments/custody-server/pkg/custody/vesting"
	pg "github.com/code-payments/custody-server/pkg/database/postgres"
	"github.com/code-payments/custody-server/pkg/metrics"
)

// Programs is the set of custody programs sharing a single ledger
type Programs struct {
	Executor  *ledger.Executor
	Tokens    *tokens.Adapter
	Exchange  *exchange.Program
	Vesting   *vesting.Program
	PriceFeed *pricefeed.Program
}

// NewPrograms wires every custody program to the store, with configuration
// pulled from the environment
func NewPrograms(store account.Store, clock ledger.Clock) *Programs {
	executor := ledger.NewExecutor(store, clock)
	adapter := tokens.NewAdapter()

	return &Programs{
		Executor:  executor,
		Tokens:    adapter,
		Exchange:  exchange.New(executor, adapter, exchange.WithEnvConfigs()),
		Vesting:   vesting.New(executor, adapter, vesting.WithEnvConfigs()),
		PriceFeed: pricefeed.New(executor, pricefeed.WithEnvConfigs()),
	}
}

type worker struct {
	log *logrus.Entry

	config   *Config
	db       *sql.DB
	store    account.Store
	programs *Programs

	cancel     context.CancelFunc
	wg         sync.WaitGroup
	shutdownCh chan struct{}
	stopOnce   sync.Once
	shutdown   sync.Once
}

// New returns the application running the custody background services
func New() app.App {
	return &worker{
		log:        logrus.StandardLogger().WithField("type", "custody/worker"),
		shutdownCh: make(chan struct{}),
	}
}

func (w *worker) Init(raw app.Config, metricsProvider *newrelic.Application) error {
	config, err := decodeConfig(raw)
	if err != nil {
		return err
	}
	w.config = config

	switch config.Storage {
	case StoragePostgres:
		w.db, err = pg.Open(config.Postgres.toDatabaseConfig())
		if err != nil {
			return errors.Wrap(err, "error connecting to postgres")
		}
		w.store = postgres_account_store.New(w.db)
	default:
		w.store = memory_account_store.New()
	}

	w.programs = NewPrograms(w.store, ledger.SystemClock())

	ctx, cancel := context.WithCancel(context.Background())
	if metricsProvider != nil {
		ctx = metrics.WithNewRelic(ctx, metricsProvider)
	}
	w.cancel = cancel

	if config.EnablePriceFeedService {
		var opts []coingecko.Option
		if len(config.CoinGeckoBaseUrl) > 0 {
			opts = append(opts, coingecko.WithBaseUrl(config.CoinGeckoBaseUrl))
		}
		opts = append(opts, coingecko.WithRequestsPerSecond(config.CoinGeckoRequestsPerSecond))

		w.startService(ctx, "price_feed", config.PriceFeedInterval, pricefeed_service.New(
			w.programs.PriceFeed,
			coingecko.NewClient(opts...),
			ledger.SystemClock(),
			pricefeed_service.WithEnvConfigs(),
		))
	}

	if config.EnableMonitorService {
		w.startService(ctx, "monitor", config.MonitorInterval, monitor.New(
			w.store,
			w.programs.Exchange,
			w.programs.Vesting,
			monitor.WithEnvConfigs(),
		))
	}

	w.log.WithField("storage", config.Storage).Info("custody worker started")
	return nil
}

func (w *worker) startService(ctx context.Context, name string, interval time.Duration, service async.Service) {
	log := w.log.WithField("service", name)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		err := service.Start(ctx, interval)
		if err == nil || err == context.Canceled {
			log.Info("service stopped")
			return
		}

		log.WithError(err).Error("service terminated unexpectedly")
		w.shutdown.Do(func() {
			close(w.shutdownCh)
		})
	}()
}

// Programs exposes the wired programs once Init has returned
func (w *worker) Programs() *Programs {
	return w.programs
}

func (w *worker) ShutdownChan() <-chan struct{} {
	return w.shutdownCh
}

func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
		w.wg.Wait()

		if w.db != nil {
			if err := w.db.Close(); err != nil {
				w.log.WithError(err).Warn("failed to close database")
			}
		}
	})
}
