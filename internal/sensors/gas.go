package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

// The MICS6814 has no digital interface of its own; the Enviro+ routes its
// three sensing elements through an ADS1015, each in a voltage divider with
// a 56kΩ pull-up to the 3.3V rail. The element resistance is recovered from
// the measured voltage.
const (
	gasSupplyVolts = 3.3
	gasPullUpOhms  = 56000.0
)

// MICS6814 exposes the oxidising/reducing/NH3 gas channels.
type MICS6814 struct {
	oxidised analog.PinADC
	reducing analog.PinADC
	nh3      analog.PinADC
	bus      i2c.BusCloser
}

// OpenMICS6814 opens the gas sensor ADC on the named I2C bus.
func OpenMICS6814(busName string) (*MICS6814, error) {
	if err := initHost(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("gas ADC I2C open: %w", err)
	}

	adc, err := ads1x15.NewADS1015(bus, &ads1x15.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("gas ADC init: %w", err)
	}

	// ±4.096V full scale, matching the gain the reference firmware uses.
	pin := func(ch ads1x15.Channel) (analog.PinADC, error) {
		return adc.PinForChannel(ch, 4096*physic.MilliVolt, 1600*physic.Hertz, ads1x15.SaveEnergy)
	}

	m := &MICS6814{bus: bus}
	if m.oxidised, err = pin(ads1x15.Channel0); err != nil {
		bus.Close()
		return nil, fmt.Errorf("gas oxidised channel: %w", err)
	}
	if m.reducing, err = pin(ads1x15.Channel1); err != nil {
		bus.Close()
		return nil, fmt.Errorf("gas reducing channel: %w", err)
	}
	if m.nh3, err = pin(ads1x15.Channel2); err != nil {
		bus.Close()
		return nil, fmt.Errorf("gas nh3 channel: %w", err)
	}
	return m, nil
}

// ReadGas samples all three channels. Values are element resistances in ohms.
func (m *MICS6814) ReadGas() (GasReading, error) {
	ox, err := readResistance(m.oxidised)
	if err != nil {
		return GasReading{}, fmt.Errorf("gas oxidised read: %w", err)
	}
	red, err := readResistance(m.reducing)
	if err != nil {
		return GasReading{}, fmt.Errorf("gas reducing read: %w", err)
	}
	nh3, err := readResistance(m.nh3)
	if err != nil {
		return GasReading{}, fmt.Errorf("gas nh3 read: %w", err)
	}
	return GasReading{Oxidised: ox, Reducing: red, NH3: nh3}, nil
}

// Close releases the bus.
func (m *MICS6814) Close() error {
	return m.bus.Close()
}

func readResistance(pin analog.PinADC) (float64, error) {
	s, err := pin.Read()
	if err != nil {
		return 0, err
	}
	v := float64(s.V) / float64(physic.Volt)
	drop := gasSupplyVolts - v
	if drop <= 0 {
		// Rail-level reading, divider math would blow up.
		return 0, nil
	}
	return v * gasPullUpOhms / drop, nil
}
