package vesting

import (
	"crypto/ed25519"
	"time"

	"github.com/code-payments/custody-server/pkg/config"
	"github.com/code-payments/custody-server/pkg/config/env"
	"github.com/code-payments/custody-server/pkg/config/memory"
	"github.com/code-payments/custody-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "VESTING_PROGRAM_"

	AdminPublicKeyConfigEnvName = envConfigPrefix + "ADMIN_PUBLIC_KEY"

	PeriodLengthConfigEnvName = envConfigPrefix + "PERIOD_LENGTH"
	defaultPeriodLength       = 30 * 24 * time.Hour
)

var (
	defaultAdminPublicKey ed25519.PublicKey
)

type conf struct {
	adminPublicKey config.PublicKey
	periodLength   config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			adminPublicKey: env.NewPublicKeyConfig(AdminPublicKeyConfigEnvName, defaultAdminPublicKey),
			periodLength:   env.NewDurationConfig(PeriodLengthConfigEnvName, defaultPeriodLength),
		}
	}
}

type testOverrides struct {
	adminPublicKey ed25519.PublicKey
	periodLength   time.Duration
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	if overrides.periodLength == 0 {
		overrides.periodLength = defaultPeriodLength
	}

	var admin interface{}
	if len(overrides.adminPublicKey) > 0 {
		admin = overrides.adminPublicKey
	}

	return func() *conf {
		return &conf{
			adminPublicKey: wrapper.NewPublicKeyConfig(memory.NewConfig(admin), defaultAdminPublicKey),
			periodLength:   wrapper.NewDurationConfig(memory.NewConfig(overrides.periodLength), defaultPeriodLength),
		}
	}
}

// WithAdmin returns the default configuration with vesting account creation
// restricted to the provided key
func WithAdmin(admin ed25519.PublicKey) ConfigProvider {
	return withManualTestOverrides(&testOverrides{
		adminPublicKey: admin,
	})
}
