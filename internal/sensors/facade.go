// Package sensors holds the narrow read-only façades the collector uses to
// obtain values from the Enviro+ hardware, plus the drivers behind them.
// Every façade is a single "read current values" call; failure modes stay
// inside the façade and surface only as an error for that cycle.
package sensors

import (
	"sync"

	"periph.io/x/host/v3"
)

// PrimaryReading is one BME280 sample.
type PrimaryReading struct {
	Temperature float64 // °C, uncompensated
	Pressure    float64 // hPa
	Humidity    float64 // %RH
}

// Primary reads temperature, pressure and humidity.
type Primary interface {
	ReadPrimary() (PrimaryReading, error)
}

// GasReading carries the raw MICS6814 channel resistances in ohms; the
// collector converts to kΩ when assembling the row.
type GasReading struct {
	Oxidised float64
	Reducing float64
	NH3      float64
}

// Gas reads the three gas sensor channels.
type Gas interface {
	ReadGas() (GasReading, error)
}

// LightReading is one LTR559 sample.
type LightReading struct {
	Lux       float64
	Proximity float64 // unitless counts, higher is closer
}

// Light reads ambient light and proximity. The sensor is optional hardware;
// an absent sensor means no Light façade at all, not an erroring one.
type Light interface {
	ReadLight() (LightReading, error)
}

// ParticulateReading mirrors one PMS5003 frame: standard (CF=1) particulate
// mass plus particle counts per 0.1L of air.
type ParticulateReading struct {
	PM1  float64
	PM25 float64
	PM10 float64

	Particles03um  float64
	Particles05um  float64
	Particles10um  float64
	Particles25um  float64
	Particles50um  float64
	Particles100um float64
}

// Particulates reads the PMS5003. A timeout returns ErrReadTimeout and
// leaves the sensor usable on the next cycle.
type Particulates interface {
	ReadParticulates() (ParticulateReading, error)
}

var (
	hostOnce    sync.Once
	hostInitErr error
)

// initHost loads the periph host drivers once for all bus-attached sensors.
func initHost() error {
	hostOnce.Do(func() {
		_, hostInitErr = host.Init()
	})
	return hostInitErr
}
