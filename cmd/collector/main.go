package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/opensensor/enviro_collector/internal/app"
	"github.com/opensensor/enviro_collector/internal/compensation"
	"github.com/opensensor/enviro_collector/internal/config"
	"github.com/opensensor/enviro_collector/internal/sensors"
	"github.com/opensensor/enviro_collector/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "optional config.env file with KEY=VALUE settings")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	comp := compensation.New(compensation.ThermalZone{}, cfg.TempCompensationFactor, cfg.TempCompensationEnabled, log)
	writer := storage.NewParquetWriter(cfg.OutputDir, log)
	collector := app.NewCollector(cfg, openSensors(cfg, log), comp, writer, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := collector.Run(ctx); err != nil {
		log.Fatalf("collector: %v", err)
	}
	log.Info("sensor data collection stopped")
}

// openSensors probes the station hardware. Sensors that fail to open are
// logged and skipped; the collector records null fields for them.
func openSensors(cfg *config.Config, log *logrus.Logger) app.Sensors {
	var s app.Sensors

	if bme, err := sensors.OpenBME280(cfg.I2CBus); err != nil {
		log.WithError(err).Warn("BME280 unavailable, continuing without primary fields")
	} else {
		s.Primary = bme
	}

	if gas, err := sensors.OpenMICS6814(cfg.I2CBus); err != nil {
		log.WithError(err).Warn("gas sensor unavailable, continuing without gas fields")
	} else {
		s.Gas = gas
	}

	if light, err := sensors.OpenLTR559(cfg.I2CBus); err != nil {
		log.WithError(err).Warn("light sensor unavailable, continuing without light fields")
	} else {
		s.Light = light
	}

	if pms, err := sensors.OpenPMS5003(cfg.PMS5003Port); err != nil {
		log.WithError(err).Warn("particulate sensor unavailable, continuing without particulate fields")
	} else {
		s.Particulates = pms
	}

	return s
}
