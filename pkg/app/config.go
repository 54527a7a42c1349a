package app

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the free-form `app` section of the config file. Applications
// decode it themselves, typically with mapstructure.
type Config map[string]interface{}

// BaseConfig holds the process level settings shared by every binary.
type BaseConfig struct {
	AppName  string `mapstructure:"app_name"`
	LogLevel string `mapstructure:"log_level"`

	DebugListenAddress string `mapstructure:"debug_listen_address"`
	EnablePprof        bool   `mapstructure:"enable_pprof"`
	EnableExpvar       bool   `mapstructure:"enable_expvar"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	// BallastCapacity is a fraction of available memory, capped at 0.5
	EnableBallast   bool    `mapstructure:"enable_ballast"`
	BallastCapacity float32 `mapstructure:"ballast_capacity"`

	// Restarts the process on a schedule to bound slow leaks
	EnableMemoryLeakCron   bool   `mapstructure:"enable_memory_leak_cron"`
	MemoryLeakCronSchedule string `mapstructure:"memory_leak_cron_schedule"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	AppConfig Config `mapstructure:"app"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	DebugListenAddress: ":8123",
	EnablePprof:        true,
	EnableExpvar:       true,

	ShutdownGracePeriod: 30 * time.Second,

	EnableBallast:   true,
	BallastCapacity: 0.333,

	MemoryLeakCronSchedule: "0 5 * * *",
}

// envBoundKeys can be overridden by the upper cased environment variable of
// the same name, e.g. LOG_LEVEL.
var envBoundKeys = []string{
	"app_name",
	"log_level",
	"debug_listen_address",
	"enable_pprof",
	"enable_expvar",
	"shutdown_grace_period",
	"enable_ballast",
	"ballast_capacity",
	"enable_memory_leak_cron",
	"memory_leak_cron_schedule",
	"new_relic_license_key",
}

func init() {
	for _, key := range envBoundKeys {
		_ = viper.BindEnv(key, strings.ToUpper(key))
	}
}
