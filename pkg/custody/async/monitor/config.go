package monitor

import (
	"github.com/code-payments/custody-server/pkg/config"
	"github.com/code-payments/custody-server/pkg/config/env"
	"github.com/code-payments/custody-server/pkg/config/memory"
	"github.com/code-payments/custody-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "MONITOR_SERVICE_"

	BatchSizeConfigEnvName = envConfigPrefix + "BATCH_SIZE"
	defaultBatchSize       = 100
)

type conf struct {
	batchSize config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			batchSize: env.NewUint64Config(BatchSizeConfigEnvName, defaultBatchSize),
		}
	}
}

type testOverrides struct {
	batchSize uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	if overrides.batchSize == 0 {
		overrides.batchSize = defaultBatchSize
	}

	return func() *conf {
		return &conf{
			batchSize: wrapper.NewUint64Config(memory.NewConfig(overrides.batchSize), defaultBatchSize),
		}
	}
}
