package compensation

import (
	"github.com/sirupsen/logrus"
)

const (
	// historySize is the number of auxiliary samples smoothed over.
	historySize = 5
	// fallbackCPUTemp substitutes for an unreadable thermal zone so a broken
	// sysfs entry never stalls the reading cycle.
	fallbackCPUTemp = 40.0
)

// Source provides the auxiliary temperature used to cancel the heat the
// board itself radiates into the BME280.
type Source interface {
	ReadCPUTemperature() (float64, error)
}

// Compensator smooths the CPU temperature over a short rolling history and
// pulls the raw reading down proportionally. The history lives only in this
// struct and resets with the process.
type Compensator struct {
	source  Source
	factor  float64
	enabled bool
	history []float64
	log     logrus.FieldLogger
}

// New builds a compensator. factor must be positive; the caller validates it
// as part of configuration.
func New(source Source, factor float64, enabled bool, log logrus.FieldLogger) *Compensator {
	return &Compensator{source: source, factor: factor, enabled: enabled, log: log}
}

// Compensate adjusts one raw temperature reading. When disabled it returns
// the input untouched and leaves the history alone. Method adapted from
// Initial State's Enviro pHAT review.
func (c *Compensator) Compensate(raw float64) float64 {
	if !c.enabled {
		return raw
	}

	cpu, err := c.source.ReadCPUTemperature()
	if err != nil {
		c.log.WithError(err).Warn("CPU temperature unavailable, using fallback")
		cpu = fallbackCPUTemp
	}

	if len(c.history) == 0 {
		c.history = make([]float64, historySize)
		for i := range c.history {
			c.history[i] = cpu
		}
	} else {
		copy(c.history, c.history[1:])
		c.history[len(c.history)-1] = cpu
	}

	var sum float64
	for _, v := range c.history {
		sum += v
	}
	avg := sum / float64(len(c.history))

	return raw - (avg-raw)/c.factor
}
