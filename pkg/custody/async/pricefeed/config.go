package pricefeed

import (
	"crypto/ed25519"
	"strings"

	"github.com/pkg/errors"

	"github.com/code-payments/custody-server/pkg/config"
	"github.com/code-payments/custody-server/pkg/config/env"
	"github.com/code-payments/custody-server/pkg/config/memory"
	"github.com/code-payments/custody-server/pkg/config/wrapper"
	price_feed "github.com/code-payments/custody-server/pkg/solana/pricefeed"
)

const (
	envConfigPrefix = "PRICE_FEED_SERVICE_"

	PublisherPublicKeyConfigEnvName = envConfigPrefix + "PUBLISHER_PUBLIC_KEY"

	FeedsConfigEnvName = envConfigPrefix + "FEEDS"
	defaultFeeds       = "ef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d=solana/usd"

	PriceExponentConfigEnvName = envConfigPrefix + "PRICE_EXPONENT"
	defaultPriceExponent       = -8
)

var (
	defaultPublisherPublicKey ed25519.PublicKey
)

type conf struct {
	publisherPublicKey config.PublicKey
	feeds              config.String
	priceExponent      config.Int64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			publisherPublicKey: env.NewPublicKeyConfig(PublisherPublicKeyConfigEnvName, defaultPublisherPublicKey),
			feeds:              env.NewStringConfig(FeedsConfigEnvName, defaultFeeds),
			priceExponent:      env.NewInt64Config(PriceExponentConfigEnvName, defaultPriceExponent),
		}
	}
}

type testOverrides struct {
	publisherPublicKey ed25519.PublicKey
	feeds              string
	priceExponent      int64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	if len(overrides.feeds) == 0 {
		overrides.feeds = defaultFeeds
	}
	if overrides.priceExponent == 0 {
		overrides.priceExponent = defaultPriceExponent
	}

	var publisher interface{}
	if len(overrides.publisherPublicKey) > 0 {
		publisher = overrides.publisherPublicKey
	}

	return func() *conf {
		return &conf{
			publisherPublicKey: wrapper.NewPublicKeyConfig(memory.NewConfig(publisher), defaultPublisherPublicKey),
			feeds:              wrapper.NewStringConfig(memory.NewConfig(overrides.feeds), defaultFeeds),
			priceExponent:      wrapper.NewInt64Config(memory.NewConfig(overrides.priceExponent), defaultPriceExponent),
		}
	}
}

// feedSource maps a price feed to the currency pair it publishes
type feedSource struct {
	id    price_feed.FeedId
	base  string
	quote string
}

// parseFeeds parses a comma separated list of <feed id hex>=<base>/<quote>
func parseFeeds(value string) ([]*feedSource, error) {
	var res []*feedSource
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if len(entry) == 0 {
			continue
		}

		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, errors.Errorf("invalid feed entry: %s", entry)
		}

		id, err := price_feed.FeedIdFromHex(parts[0])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid feed entry: %s", entry)
		}

		pair := strings.SplitN(parts[1], "/", 2)
		if len(pair) != 2 || len(pair[0]) == 0 || len(pair[1]) == 0 {
			return nil, errors.Errorf("invalid currency pair in feed entry: %s", entry)
		}

		res = append(res, &feedSource{
			id:    id,
			base:  strings.ToLower(pair[0]),
			quote: strings.ToLower(pair[1]),
		})
	}
	return res, nil
}
