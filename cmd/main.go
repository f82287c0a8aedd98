package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"investment-alarm/config"
	"investment-alarm/internal/alert"
	"investment-alarm/internal/metrics"
	"investment-alarm/internal/monitor"
	"investment-alarm/internal/notify"
	"investment-alarm/internal/price"
	"investment-alarm/internal/schedule"
	"investment-alarm/lib/translation"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	configFile := pflag.String("config", "", "path to a config file with the watch list (yaml, json or toml)")
	validate := pflag.Bool("validate", false, "report missing secrets and exit")
	pflag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	setupLogging(cfg.Debug)

	if *validate {
		os.Exit(validateConfig(cfg))
	}

	translation.Configure(cfg.LocalesDir, cfg.Lang)
	log.Debugf("🌐 Messages language: %s", translation.GetLanguage())

	runMetrics := metrics.New()

	dispatchers, err := notify.FromNames(cfg.Notifiers, cfg.NotifySettings())
	if err != nil {
		log.Fatalf("Failed to set up notifiers: %v", err)
	}

	var task schedule.Task = monitor.NewSystem(
		schedule.NewGate(cfg.Weekend, cfg.Location),
		alert.NewProcessor(price.NewSource(cfg.PriceConfig()), runMetrics, alert.WithWorkers(cfg.Workers)),
		notify.NewFanout(runMetrics, dispatchers...),
		cfg.WatchList,
	)

	log.Infof("🚀 Starting %s", task.Name())
	if err := task.Run(context.Background()); err != nil {
		log.Errorf("❌ %s failed: %v", task.Name(), err)
	}
	runMetrics.LastRun.Set(float64(time.Now().Unix()))

	if cfg.PushgatewayURL != "" {
		if err := runMetrics.Push(cfg.PushgatewayURL); err != nil {
			log.Errorf("❌ %v", err)
		}
	}
}

func setupLogging(debug bool) {
	log.SetLevel(log.InfoLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.Debug("Starting investment alarm...")
}

func validateConfig(cfg config.Config) int {
	missing := cfg.Missing()
	if len(missing) > 0 {
		log.Errorf("Config errors, not set: %s", strings.Join(missing, ", "))
		return 1
	}
	fmt.Println("Config is valid")
	return 0
}
