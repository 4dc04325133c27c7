package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// LTR559 register map (Lite-On datasheet v1.0).
const (
	ltr559Addr = 0x23

	regALSContr    = 0x80
	regPSContr     = 0x81
	regPSLED       = 0x82
	regPSNPulses   = 0x83
	regPSMeasRate  = 0x84
	regALSMeasRate = 0x85
	regPartID      = 0x86
	regALSDataCh1  = 0x88 // two bytes, low first
	regALSDataCh0  = 0x8A
	regPSData      = 0x8D // 11 bits across two registers

	ltr559PartID = 0x92

	// ALS active, 4x gain; PS active; 50ms integration / 50ms repeat.
	alsContrActive4x = 0x0D
	psContrActive    = 0x03
	psLEDDefault     = 0x7F
	psNPulsesDefault = 0x01
	psMeasRate100ms  = 0x02
	alsMeasRate50ms  = 0x01
)

// Gain and integration factors matching the configuration above, used to
// scale the raw lux computation.
const (
	alsGain        = 4.0
	alsIntegration = 0.5
)

// LTR559 is the optional light/proximity sensor.
type LTR559 struct {
	dev i2c.Dev
	bus i2c.BusCloser
}

// OpenLTR559 probes for the sensor on the named I2C bus and configures it
// for continuous ALS and PS measurement. A missing or foreign part yields an
// error; the station then simply runs without light fields.
func OpenLTR559(busName string) (*LTR559, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("LTR559 I2C open: %w", err)
	}

	l := &LTR559{dev: i2c.Dev{Bus: bus, Addr: ltr559Addr}, bus: bus}

	part, err := l.readReg(regPartID)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("LTR559 part ID read: %w", err)
	}
	if part != ltr559PartID {
		bus.Close()
		return nil, fmt.Errorf("LTR559 part ID mismatch: got 0x%02X, want 0x%02X", part, ltr559PartID)
	}

	setup := []struct{ reg, val byte }{
		{regALSContr, alsContrActive4x},
		{regPSContr, psContrActive},
		{regPSLED, psLEDDefault},
		{regPSNPulses, psNPulsesDefault},
		{regPSMeasRate, psMeasRate100ms},
		{regALSMeasRate, alsMeasRate50ms},
	}
	for _, s := range setup {
		if err := l.writeReg(s.reg, s.val); err != nil {
			bus.Close()
			return nil, fmt.Errorf("LTR559 configure 0x%02X: %w", s.reg, err)
		}
	}
	return l, nil
}

// ReadLight returns the current lux estimate and raw proximity counts.
func (l *LTR559) ReadLight() (LightReading, error) {
	// Channel 1 must be read before channel 0 to latch a coherent ALS pair.
	ch1, err := l.readReg16(regALSDataCh1)
	if err != nil {
		return LightReading{}, fmt.Errorf("LTR559 ALS ch1 read: %w", err)
	}
	ch0, err := l.readReg16(regALSDataCh0)
	if err != nil {
		return LightReading{}, fmt.Errorf("LTR559 ALS ch0 read: %w", err)
	}
	ps, err := l.readReg16(regPSData)
	if err != nil {
		return LightReading{}, fmt.Errorf("LTR559 PS read: %w", err)
	}

	return LightReading{
		Lux:       lux(ch0, ch1),
		Proximity: float64(ps & 0x07FF),
	}, nil
}

// Close releases the bus.
func (l *LTR559) Close() error {
	return l.bus.Close()
}

// lux converts the two ALS channels using the datasheet's ratio-banded
// coefficients, scaled by the configured gain and integration time.
func lux(ch0, ch1 uint16) float64 {
	c0 := float64(ch0)
	c1 := float64(ch1)
	if c0+c1 == 0 {
		return 0
	}

	ratio := c1 * 100 / (c0 + c1)
	var raw float64
	switch {
	case ratio < 45:
		raw = 1.7743*c0 + 1.1059*c1
	case ratio < 64:
		raw = 4.2785*c0 - 1.9548*c1
	case ratio < 85:
		raw = 0.5926*c0 + 0.1185*c1
	default:
		return 0
	}
	return raw / (alsGain * alsIntegration) / 100.0
}

func (l *LTR559) readReg(reg byte) (byte, error) {
	buf := make([]byte, 1)
	if err := l.dev.Tx([]byte{reg}, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (l *LTR559) readReg16(reg byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := l.dev.Tx([]byte{reg}, buf); err != nil {
		return 0, err
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

func (l *LTR559) writeReg(reg, val byte) error {
	return l.dev.Tx([]byte{reg, val}, nil)
}
