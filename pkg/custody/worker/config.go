package worker

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/code-payments/custody-server/pkg/app"
	pg "github.com/code-payments/custody-server/pkg/database/postgres"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is decoded from the app section of the process config
type Config struct {
	Storage  string          `mapstructure:"storage"`
	Postgres *PostgresConfig `mapstructure:"postgres"`

	EnablePriceFeedService bool          `mapstructure:"enable_price_feed_service"`
	PriceFeedInterval      time.Duration `mapstructure:"price_feed_interval"`

	EnableMonitorService bool          `mapstructure:"enable_monitor_service"`
	MonitorInterval      time.Duration `mapstructure:"monitor_interval"`

	CoinGeckoBaseUrl           string  `mapstructure:"coingecko_base_url"`
	CoinGeckoRequestsPerSecond float64 `mapstructure:"coingecko_requests_per_second"`
}

type PostgresConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	DbName    string `mapstructure:"db_name"`
	UseAwsIam bool   `mapstructure:"use_aws_iam"`

	MaxOpenConnections int `mapstructure:"max_open_connections"`
	MaxIdleConnections int `mapstructure:"max_idle_connections"`
}

func (c *PostgresConfig) toDatabaseConfig() *pg.Config {
	return &pg.Config{
		User:               c.User,
		Host:               c.Host,
		Password:           c.Password,
		Port:               c.Port,
		DbName:             c.DbName,
		UseAwsIam:          c.UseAwsIam,
		MaxOpenConnections: c.MaxOpenConnections,
		MaxIdleConnections: c.MaxIdleConnections,
	}
}

var defaultConfig = Config{
	Storage: StorageMemory,

	EnablePriceFeedService: true,
	PriceFeedInterval:      time.Minute,

	EnableMonitorService: true,
	MonitorInterval:      5 * time.Minute,

	CoinGeckoRequestsPerSecond: 0.5,
}

func decodeConfig(raw app.Config) (*Config, error) {
	config := defaultConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(map[string]interface{}(raw)); err != nil {
		return nil, errors.Wrap(err, "invalid app config")
	}

	switch config.Storage {
	case StorageMemory:
	case StoragePostgres:
		if config.Postgres == nil {
			return nil, errors.New("postgres storage requires a postgres section")
		}
	default:
		return nil, errors.Errorf("unknown storage backend %q", config.Storage)
	}

	if config.EnablePriceFeedService && config.PriceFeedInterval <= 0 {
		return nil, errors.New("price feed interval must be positive")
	}
	if config.EnableMonitorService && config.MonitorInterval <= 0 {
		return nil, errors.New("monitor interval must be positive")
	}

	return &config, nil
}
