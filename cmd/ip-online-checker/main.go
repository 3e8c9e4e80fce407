package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/gowinder/ip-online-checker/pkg/config"
	"github.com/gowinder/ip-online-checker/pkg/monitor"
	"github.com/gowinder/ip-online-checker/pkg/notify"
	"github.com/gowinder/ip-online-checker/pkg/version"
)

const defaultConfigPath = "config.yaml"

func main() {
	logger := newLogger()

	configPath := defaultConfigPath
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	logger.Infof("ip-online-checker %s starting", version.Build)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.OfflineThreshold < cfg.PingInterval {
		logger.Warnf("offline_threshold %ds is below ping_interval %ds, transitions will confirm on the second probe",
			cfg.OfflineThreshold, cfg.PingInterval)
	}

	notifier := newNotifier(cfg.Slack, logger)

	mon, err := monitor.FromConfig(*cfg, notifier, logger)
	if err != nil {
		logger.Fatalf("Failed to build monitor: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	mon.Start()
	logger.Info("Monitor is running. Press Ctrl+C to stop.")
	<-stop

	logger.Info("Shutting down...")
	mon.Stop()
	notifier.Close()
	logger.Info("Monitor stopped.")
}

// newLogger builds the console logger. LOG_LEVEL overrides the default
// info level.
func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

// newNotifier builds the Slack notifier when enabled, a Nop otherwise.
func newNotifier(cfg config.Slack, logger *logrus.Logger) notify.Notifier {
	if !cfg.Enabled {
		logger.Info("Slack notifications disabled")
		return notify.Nop{}
	}

	n, err := notify.NewSlack(cfg.WebhookURL, cfg.Channel, logger)
	if err != nil {
		logger.Fatalf("Failed to set up Slack notifier: %v", err)
	}
	return n
}
