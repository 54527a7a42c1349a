package pricefeed

import (
	"context"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/custody-server/pkg/currency"
	"github.com/code-payments/custody-server/pkg/custody"
	"github.com/code-payments/custody-server/pkg/custody/async"
	"github.com/code-payments/custody-server/pkg/custody/ledger"
	"github.com/code-payments/custody-server/pkg/custody/pricefeed"
	"github.com/code-payments/custody-server/pkg/metrics"
	"github.com/code-payments/custody-server/pkg/retry"
	"github.com/code-payments/custody-server/pkg/retry/backoff"
	price_feed "github.com/code-payments/custody-server/pkg/solana/pricefeed"
	striped_sync "github.com/code-payments/custody-server/pkg/sync"
)

const (
	feedLockStripes = 64

	publishCountMetricName = "PriceFeedService%PublishedPrices"
)

var (
	ErrPublisherNotConfigured = errors.New("price feed publisher is not configured")
)

type service struct {
	log    *logrus.Entry
	conf   *conf
	feeds  *pricefeed.Program
	client currency.Client
	clock  ledger.Clock

	// Serializes publishes per feed when cycles overlap
	feedLocks *striped_sync.StripedLock
}

// New returns a worker that keeps price update records in sync with an
// external exchange rate provider
func New(feeds *pricefeed.Program, client currency.Client, clock ledger.Clock, configProvider ConfigProvider) async.Service {
	return &service{
		log:       logrus.StandardLogger().WithField("service", "pricefeed"),
		conf:      configProvider(),
		feeds:     feeds,
		client:    client,
		clock:     clock,
		feedLocks: striped_sync.NewStripedLock(feedLockStripes),
	}
}

func (p *service) Start(serviceCtx context.Context, interval time.Duration) error {
	for {
		_, err := retry.Retry(
			func() error {
				p.log.Trace("publishing latest prices")

				tracedCtx, m := async.StartTransaction(serviceCtx, "async__price_feed_service")
				defer m.End()

				err := p.PublishLatestPrices(tracedCtx)
				if err != nil {
					m.NoticeError(err)
					p.log.WithError(err).Warn("failed to publish latest prices")
				}

				return err
			},
			retry.NonRetriableErrors(context.Canceled, ErrPublisherNotConfigured),
			retry.Context(serviceCtx),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), interval, 0.1),
		)
		if err != nil {
			if serviceCtx.Err() != nil {
				return serviceCtx.Err()
			}

			if err != context.Canceled {
				p.log.WithError(err).Warn("unexpected error when publishing latest prices")
			}

			return err
		}

		select {
		case <-serviceCtx.Done():
			return serviceCtx.Err()
		case <-time.After(interval):
		}
	}
}

// PublishLatestPrices publishes the current rate of every configured feed
func (p *service) PublishLatestPrices(ctx context.Context) error {
	sources, err := parseFeeds(p.conf.feeds.Get(ctx))
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	errs := make([]error, len(sources))
	for i, source := range sources {
		wg.Add(1)
		go func(i int, source *feedSource) {
			defer wg.Done()
			errs[i] = p.publishLatestPrice(ctx, source)
		}(i, source)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *service) publishLatestPrice(ctx context.Context, source *feedSource) error {
	log := p.log.WithFields(logrus.Fields{
		"method": "publishLatestPrice",
		"feed":   source.id.String(),
		"base":   source.base,
		"quote":  source.quote,
	})

	unlock := p.feedLocks.Lock(source.id[:])
	defer unlock()

	publisher := p.conf.publisherPublicKey.Get(ctx)
	if len(publisher) == 0 {
		return ErrPublisherNotConfigured
	}
	signers := ledger.NewSigners(publisher)

	address, _, err := price_feed.GetPriceUpdateAddress(&price_feed.GetPriceUpdateAddressArgs{
		FeedId: source.id,
	})
	if err != nil {
		return errors.Wrap(err, "error deriving price update address")
	}
	log = log.WithField("price_update", base58.Encode(address))

	var lastPublishTime uint64
	current, err := p.feeds.GetPriceUpdate(ctx, address)
	switch err {
	case nil:
		lastPublishTime = current.PublishTime
	case custody.ErrStalePriceFeed:
		_, err = p.feeds.Initialize(ctx, signers, &pricefeed.InitializeAccounts{
			Authority:   publisher,
			PriceUpdate: address,
		}, &pricefeed.InitializeArgs{
			FeedId: source.id,
		})
		if err != nil && err != custody.ErrAlreadyInitialized {
			return errors.Wrap(err, "error initializing price feed")
		}
		log.Info("initialized price feed")
	default:
		return errors.Wrap(err, "error getting price update")
	}

	data, err := p.client.GetCurrentRates(ctx, source.base)
	if err == currency.ErrRateLimited {
		log.Debug("rate limited by exchange rate provider")
		return nil
	} else if err != nil {
		return errors.Wrap(err, "error getting current rates")
	}

	rate, ok := data.Rate(source.quote)
	if !ok {
		return errors.Errorf("no %s rate for %s", source.quote, source.base)
	}

	exponent := int32(p.conf.priceExponent.Get(ctx))
	price, err := toFixedPoint(rate, exponent)
	if err != nil {
		return err
	}

	publishTime := data.Timestamp
	if publishTime.IsZero() {
		publishTime = p.clock.Now()
	}
	if publishTime.Unix() <= 0 || uint64(publishTime.Unix()) <= lastPublishTime {
		log.Trace("no new price to publish")
		return nil
	}

	_, err = p.feeds.Publish(ctx, signers, &pricefeed.PublishAccounts{
		Authority:   publisher,
		PriceUpdate: address,
	}, &pricefeed.PublishArgs{
		Price:       price,
		Exponent:    exponent,
		PublishTime: uint64(publishTime.Unix()),
	})
	if err != nil {
		return errors.Wrap(err, "error publishing price")
	}

	metrics.RecordCount(ctx, publishCountMetricName, 1)

	log.WithField("price", rate).Debug("published price")
	return nil
}

// toFixedPoint converts a rate into an integer price scaled by 10^-exponent
func toFixedPoint(rate float64, exponent int32) (uint64, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return 0, errors.Errorf("invalid rate: %v", rate)
	}
	if exponent > 0 || exponent < -18 {
		return 0, errors.Errorf("unsupported price exponent: %d", exponent)
	}

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-exponent)), nil))
	scaled := new(big.Float).Mul(big.NewFloat(rate), scale)

	// Round half up
	scaled.Add(scaled, big.NewFloat(0.5))
	price, _ := scaled.Int(nil)
	if !price.IsUint64() || price.Uint64() == 0 {
		return 0, errors.Errorf("rate %v cannot be represented with exponent %d", rate, exponent)
	}
	return price.Uint64(), nil
}
