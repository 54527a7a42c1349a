package pricefeed

import (
	"crypto/ed25519"

	"github.com/code-payments/custody-server/pkg/config"
	"github.com/code-payments/custody-server/pkg/config/env"
	"github.com/code-payments/custody-server/pkg/config/memory"
	"github.com/code-payments/custody-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "PRICE_FEED_PROGRAM_"

	AdminPublicKeyConfigEnvName = envConfigPrefix + "ADMIN_PUBLIC_KEY"
)

var (
	defaultAdminPublicKey ed25519.PublicKey
)

type conf struct {
	adminPublicKey config.PublicKey
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			adminPublicKey: env.NewPublicKeyConfig(AdminPublicKeyConfigEnvName, defaultAdminPublicKey),
		}
	}
}

// WithAdmin returns configuration that only permits the provided key to
// create feeds
func WithAdmin(admin ed25519.PublicKey) ConfigProvider {
	var value interface{}
	if len(admin) > 0 {
		value = admin
	}

	return func() *conf {
		return &conf{
			adminPublicKey: wrapper.NewPublicKeyConfig(memory.NewConfig(value), defaultAdminPublicKey),
		}
	}
}
