// Package app wires sensors, compensation, batching and storage into the
// station's read/accumulate/flush cycle.
package app

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/opensensor/enviro_collector/internal/batch"
	"github.com/opensensor/enviro_collector/internal/compensation"
	"github.com/opensensor/enviro_collector/internal/config"
	"github.com/opensensor/enviro_collector/internal/sample"
	"github.com/opensensor/enviro_collector/internal/sensors"
	"github.com/opensensor/enviro_collector/internal/storage"
	"github.com/opensensor/enviro_collector/internal/window"
)

// Sensors carries the façades the collector reads each cycle. Any entry may
// be nil: that sensor's fields simply stay null in every row.
type Sensors struct {
	Primary      sensors.Primary
	Gas          sensors.Gas
	Light        sensors.Light
	Particulates sensors.Particulates
}

// Collector owns the single-threaded read/accumulate/flush loop. Nothing in
// it is touched from another goroutine, so the accumulator and compensator
// need no locking.
type Collector struct {
	cfg     *config.Config
	sensors Sensors
	comp    *compensation.Compensator
	writer  storage.Writer
	log     logrus.FieldLogger

	acc   batch.Accumulator
	sched *window.Scheduler

	// Injected for tests; real time by default.
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration)
	newBackOff func() backoff.BackOff
}

// NewCollector assembles a collector around the given collaborators.
func NewCollector(cfg *config.Config, s Sensors, comp *compensation.Compensator, w storage.Writer, log logrus.FieldLogger) *Collector {
	return &Collector{
		cfg:     cfg,
		sensors: s,
		comp:    comp,
		writer:  w,
		log:     log,
		now:     time.Now,
		sleep:   sleepContext,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 500 * time.Millisecond
			bo.MaxElapsedTime = 2 * time.Minute
			return bo
		},
	}
}

// Run executes the loop until ctx is cancelled. Rows still accumulated at
// shutdown are reported, not persisted: the final partial window is dropped
// in favor of partition-boundary consistency.
func (c *Collector) Run(ctx context.Context) error {
	start := c.now().UTC()
	c.sched = window.NewScheduler(window.Grid, c.cfg.BatchDuration, start)
	c.log.WithFields(logrus.Fields{
		"read_interval":  c.cfg.ReadInterval,
		"batch_duration": c.cfg.BatchDuration,
		"first_window":   c.sched.WindowEnd().Format(time.RFC3339),
	}).Info("starting sensor data collection")

	for ctx.Err() == nil {
		c.acc.Append(c.readCycle())

		if now := c.now().UTC(); c.sched.Due(now) {
			c.flush(ctx)
			c.sched.Advance()
		}

		c.sleep(ctx, c.sched.Sleep(c.now().UTC(), c.cfg.ReadInterval))
	}

	if n := c.acc.Len(); n > 0 {
		c.log.Warnf("stopping: %d rows in the current batch were not written to disk", n)
	}
	return nil
}

// readCycle calls each available façade once and assembles one row. All
// fields share a single timestamp; a failing sensor leaves its fields null
// and never aborts the cycle.
func (c *Collector) readCycle() sample.Row {
	row := sample.Row{Timestamp: c.now().UTC()}

	if c.sensors.Primary != nil {
		pr, err := c.sensors.Primary.ReadPrimary()
		if err != nil {
			c.log.WithError(err).Warn("primary sensor read failed")
		} else {
			row.RawTemperature = sample.Float(pr.Temperature)
			row.Temperature = sample.Float(c.comp.Compensate(pr.Temperature))
			row.Pressure = sample.Float(pr.Pressure)
			row.Humidity = sample.Float(pr.Humidity)
		}
	}

	if c.sensors.Gas != nil {
		gr, err := c.sensors.Gas.ReadGas()
		if err != nil {
			c.log.WithError(err).Warn("gas sensor read failed")
		} else {
			// Raw channel resistances arrive in ohms; the schema stores kΩ.
			row.Oxidised = sample.Float(gr.Oxidised / 1000.0)
			row.Reducing = sample.Float(gr.Reducing / 1000.0)
			row.NH3 = sample.Float(gr.NH3 / 1000.0)
		}
	}

	if c.sensors.Light != nil {
		lr, err := c.sensors.Light.ReadLight()
		if err != nil {
			c.log.WithError(err).Warn("light sensor read failed")
		} else {
			row.Lux = sample.Float(lr.Lux)
			row.Proximity = sample.Float(lr.Proximity)
		}
	}

	if c.sensors.Particulates != nil {
		pm, err := c.sensors.Particulates.ReadParticulates()
		if err != nil {
			c.log.WithError(err).Warn("particulate sensor read failed, recording nulls")
		} else {
			row.PM1 = sample.Float(pm.PM1)
			row.PM25 = sample.Float(pm.PM25)
			row.PM10 = sample.Float(pm.PM10)
			row.Particles03um = sample.Float(pm.Particles03um)
			row.Particles05um = sample.Float(pm.Particles05um)
			row.Particles10um = sample.Float(pm.Particles10um)
			row.Particles25um = sample.Float(pm.Particles25um)
			row.Particles50um = sample.Float(pm.Particles50um)
			row.Particles100um = sample.Float(pm.Particles100um)
		}
	}

	return row
}

// flush drains the accumulator and persists the batch under the key derived
// from the scheduled window end. Write failures are retried with backoff;
// exhaustion loses this batch but never ends the run.
func (c *Collector) flush(ctx context.Context) {
	end := c.sched.WindowEnd()
	rows := c.acc.Drain()
	if len(rows) == 0 {
		return
	}

	key := storage.KeyFor(c.cfg.StationID, end)
	write := func() error {
		return c.writer.WriteBatch(ctx, key, rows)
	}
	if err := backoff.Retry(write, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"rows":      len(rows),
			"partition": key.Path(),
		}).Error("batch lost: storage write failed after retries")
		return
	}

	c.log.WithFields(logrus.Fields{
		"rows":      len(rows),
		"partition": key.Path(),
	}).Info("wrote batch")
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
