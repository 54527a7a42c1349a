package app

import (
	"expvar"
	"flag"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/code-payments/custody-server/pkg/metrics"
	"github.com/code-payments/custody-server/pkg/osutil"
)

// App is a process-lifetime application driven by Run.
type App interface {
	// Init starts the application. Background work is running once it returns.
	// metricsProvider is nil when New Relic is not configured.
	Init(config Config, metricsProvider *newrelic.Application) error

	// ShutdownChan is closed if the application stops on its own
	ShutdownChan() <-chan struct{}

	// Stop releases all resources. It must be safe to call more than once.
	Stop()
}

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")

	osSigCh = make(chan os.Signal, 1)
)

func init() {
	signal.Notify(osSigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
}

// Run loads process config, sets up logging, metrics and the debug server,
// initializes app and blocks until a signal, the restart cron or the app
// itself asks for shutdown. It then gives app.Stop the configured grace period.
func Run(app App) error {
	flag.Parse()

	log := logrus.StandardLogger().WithField("type", "app")

	config, err := loadConfig(*configPath)
	if err != nil {
		return errors.Wrap(err, "error loading config")
	}

	metricsProvider, err := newMetricsProvider(config)
	if err != nil {
		return errors.Wrap(err, "error connecting to new relic")
	}

	configureLogger(config, metricsProvider)

	// pprof and expvar register on the default mux in their init, which must
	// never be served publicly
	http.DefaultServeMux = http.NewServeMux()
	if config.EnableExpvar || config.EnablePprof {
		go serveDebug(log, config.DebugListenAddress, newDebugMux(config))
	}

	var ballast []byte
	if config.EnableBallast {
		ballast = make([]byte, ballastSize(config.BallastCapacity, osutil.GetTotalMemory()))
	}
	defer runtime.KeepAlive(ballast)

	restartCh := make(chan struct{})
	if config.EnableMemoryLeakCron {
		scheduler := cron.New(cron.WithLocation(time.Local))
		var once sync.Once
		if _, err := scheduler.AddFunc(config.MemoryLeakCronSchedule, func() {
			once.Do(func() { close(restartCh) })
		}); err != nil {
			return errors.Wrap(err, "invalid memory leak cron schedule")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	if err := app.Init(config.AppConfig, metricsProvider); err != nil {
		return errors.Wrap(err, "error initializing application")
	}

	select {
	case sig := <-osSigCh:
		log.WithField("signal", sig.String()).Info("signal received, shutting down")
	case <-restartCh:
		log.Info("scheduled restart, shutting down")
	case <-app.ShutdownChan():
		log.Info("application stopped, shutting down")
	}

	stopped := make(chan struct{})
	go func() {
		app.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-time.After(config.ShutdownGracePeriod):
		return errors.Errorf("application did not stop within %v", config.ShutdownGracePeriod)
	}
}

func newMetricsProvider(config BaseConfig) (*newrelic.Application, error) {
	if len(config.NewRelicLicenseKey) == 0 {
		return nil, nil
	}

	return newrelic.NewApplication(
		newrelic.ConfigFromEnvironment(),
		newrelic.ConfigAppName(config.AppName),
		newrelic.ConfigLicense(config.NewRelicLicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
}

func serveDebug(log *logrus.Entry, address string, mux *http.ServeMux) {
	for {
		err := http.ListenAndServe(address, mux)
		log.WithError(err).Warn("debug http server failed, retrying in 5s")
		time.Sleep(5 * time.Second)
	}
}

// loadConfig reads the config file when present, layering env bindings and
// defaults underneath
func loadConfig(path string) (BaseConfig, error) {
	// A missing file is fine, but viper only reports ConfigFileNotFoundError
	// when searching, not for an explicit path
	if _, err := os.Stat(path); err == nil {
		viper.SetConfigFile(path)
	} else if !os.IsNotExist(err) {
		return BaseConfig{}, errors.Wrap(err, "failed to check if config exists")
	}

	err := viper.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return BaseConfig{}, errors.Wrap(err, "failed to read config")
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return BaseConfig{}, errors.New("must specify an application name")
	}
	return config, nil
}

func newDebugMux(config BaseConfig) *http.ServeMux {
	mux := http.NewServeMux()
	if config.EnableExpvar {
		mux.Handle("/debug/vars", expvar.Handler())
	}
	if config.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

// ballastSize is capped at half of the total memory
func ballastSize(capacity float32, totalMemory uint64) uint64 {
	if capacity > 0.5 {
		capacity = 0.5
	}
	if capacity <= 0 {
		return 0
	}
	return uint64(capacity * float32(totalMemory))
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewCustomNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stdout)
}
