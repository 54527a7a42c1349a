package exchange

import (
	"crypto/ed25519"
	"time"

	"github.com/code-payments/custody-server/pkg/config"
	"github.com/code-payments/custody-server/pkg/config/env"
	"github.com/code-payments/custody-server/pkg/config/memory"
	"github.com/code-payments/custody-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "EXCHANGE_PROGRAM_"

	AdminPublicKeyConfigEnvName = envConfigPrefix + "ADMIN_PUBLIC_KEY"

	PriceFeedIdConfigEnvName = envConfigPrefix + "PRICE_FEED_ID"
	defaultPriceFeedId       = "ef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d" // SOL/USD

	MaxPriceAgeConfigEnvName = envConfigPrefix + "MAX_PRICE_AGE"
	defaultMaxPriceAge       = 10 * time.Minute

	MaxPurchaseTokensConfigEnvName = envConfigPrefix + "MAX_PURCHASE_TOKENS"
	defaultMaxPurchaseTokens       = 1_000_000

	PaymentDecimalsConfigEnvName = envConfigPrefix + "PAYMENT_DECIMALS"
	defaultPaymentDecimals       = 9

	QuoteDecimalsConfigEnvName = envConfigPrefix + "QUOTE_DECIMALS"
	defaultQuoteDecimals       = 6
)

var (
	defaultAdminPublicKey ed25519.PublicKey
)

type conf struct {
	adminPublicKey    config.PublicKey
	priceFeedId       config.String
	maxPriceAge       config.Duration
	maxPurchaseTokens config.Uint64
	paymentDecimals   config.Uint64
	quoteDecimals     config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			adminPublicKey:    env.NewPublicKeyConfig(AdminPublicKeyConfigEnvName, defaultAdminPublicKey),
			priceFeedId:       env.NewStringConfig(PriceFeedIdConfigEnvName, defaultPriceFeedId),
			maxPriceAge:       env.NewDurationConfig(MaxPriceAgeConfigEnvName, defaultMaxPriceAge),
			maxPurchaseTokens: env.NewUint64Config(MaxPurchaseTokensConfigEnvName, defaultMaxPurchaseTokens),
			paymentDecimals:   env.NewUint64Config(PaymentDecimalsConfigEnvName, defaultPaymentDecimals),
			quoteDecimals:     env.NewUint64Config(QuoteDecimalsConfigEnvName, defaultQuoteDecimals),
		}
	}
}

type testOverrides struct {
	adminPublicKey    ed25519.PublicKey
	priceFeedId       string
	maxPriceAge       time.Duration
	maxPurchaseTokens uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	if overrides.priceFeedId == "" {
		overrides.priceFeedId = defaultPriceFeedId
	}

	if overrides.maxPriceAge == 0 {
		overrides.maxPriceAge = defaultMaxPriceAge
	}

	if overrides.maxPurchaseTokens == 0 {
		overrides.maxPurchaseTokens = defaultMaxPurchaseTokens
	}

	var admin interface{}
	if len(overrides.adminPublicKey) > 0 {
		admin = overrides.adminPublicKey
	}

	return func() *conf {
		return &conf{
			adminPublicKey:    wrapper.NewPublicKeyConfig(memory.NewConfig(admin), defaultAdminPublicKey),
			priceFeedId:       wrapper.NewStringConfig(memory.NewConfig(overrides.priceFeedId), defaultPriceFeedId),
			maxPriceAge:       wrapper.NewDurationConfig(memory.NewConfig(overrides.maxPriceAge), defaultMaxPriceAge),
			maxPurchaseTokens: wrapper.NewUint64Config(memory.NewConfig(overrides.maxPurchaseTokens), defaultMaxPurchaseTokens),
			paymentDecimals:   wrapper.NewUint64Config(memory.NewConfig(uint64(defaultPaymentDecimals)), defaultPaymentDecimals),
			quoteDecimals:     wrapper.NewUint64Config(memory.NewConfig(uint64(defaultQuoteDecimals)), defaultQuoteDecimals),
		}
	}
}

// WithAdmin returns the default configuration with vault creation restricted
// to the provided key
func WithAdmin(admin ed25519.PublicKey) ConfigProvider {
	return withManualTestOverrides(&testOverrides{
		adminPublicKey: admin,
	})
}
