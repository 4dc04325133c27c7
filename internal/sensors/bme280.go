package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

// bme280Addr is where the Enviro+ board wires the BME280.
const bme280Addr = 0x76

// BME280 is the primary environmental sensor on the I2C bus.
type BME280 struct {
	dev *bmxx80.Dev
	bus i2c.BusCloser
}

// OpenBME280 opens the sensor on the named I2C bus. An empty name selects
// the first available bus.
func OpenBME280(busName string) (*BME280, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("BME280 I2C open: %w", err)
	}

	dev, err := bmxx80.NewI2C(bus, bme280Addr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("BME280 init: %w", err)
	}

	return &BME280{dev: dev, bus: bus}, nil
}

// ReadPrimary performs one sense cycle.
func (b *BME280) ReadPrimary() (PrimaryReading, error) {
	var e physic.Env
	if err := b.dev.Sense(&e); err != nil {
		return PrimaryReading{}, fmt.Errorf("BME280 sense: %w", err)
	}

	pressurePa := float64(e.Pressure) / float64(physic.Pascal)
	return PrimaryReading{
		Temperature: e.Temperature.Celsius(),
		Pressure:    pressurePa / 100.0, // 1 hPa = 100 Pa
		Humidity:    float64(e.Humidity) / float64(physic.PercentRH),
	}, nil
}

// Close halts the device and releases the bus.
func (b *BME280) Close() error {
	if err := b.dev.Halt(); err != nil {
		b.bus.Close()
		return err
	}
	return b.bus.Close()
}
