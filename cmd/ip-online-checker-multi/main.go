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

const defaultConfigPath = "config_multi.yaml"

func main() {
	logger := newLogger()

	configPath := defaultConfigPath
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	logger.Infof("ip-online-checker-multi %s starting", version.Build)

	cfg, err := config.LoadMulti(configPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	notifier := newNotifier(cfg.Slack, logger)

	var monitors []*monitor.Monitor
	for _, entry := range cfg.Targets {
		if !entry.Enabled() {
			logger.Infof("Target %s is disabled, skipping", entry.IP)
			continue
		}

		mon, err := monitor.FromConfig(cfg.Resolve(entry), notifier, logger)
		if err != nil {
			logger.Fatalf("Failed to build monitor for %s: %v", entry.IP, err)
		}
		monitors = append(monitors, mon)
	}
	if len(monitors) == 0 {
		logger.Fatal("No enabled targets to monitor")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	for _, mon := range monitors {
		mon.Start()
	}
	logger.Infof("Monitoring %d targets. Press Ctrl+C to stop.", len(monitors))
	<-stop

	logger.Info("Shutting down...")
	for _, mon := range monitors {
		mon.Stop()
	}
	notifier.Close()
	logger.Info("All monitors stopped.")
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
