package sample

import "time"

// Row is one reading cycle across all station sensors. Every field except the
// timestamp is a pointer: nil means the sensor produced no value this cycle,
// either because the hardware is absent or because the read failed. A Row is
// never modified after the cycle that built it.
type Row struct {
	Timestamp time.Time // UTC, captured once per cycle

	// BME280
	Temperature    *float64 // compensated, °C
	RawTemperature *float64 // °C
	Pressure       *float64 // hPa
	Humidity       *float64 // %RH

	// MICS6814, kΩ
	Oxidised *float64
	Reducing *float64
	NH3      *float64

	// LTR559
	Lux       *float64
	Proximity *float64

	// PMS5003, µg/m³
	PM1  *float64
	PM25 *float64
	PM10 *float64

	// PMS5003 particle counts per 0.1L of air
	Particles03um  *float64
	Particles05um  *float64
	Particles10um  *float64
	Particles25um  *float64
	Particles50um  *float64
	Particles100um *float64
}

// Float wraps a value for assignment to an optional Row field.
func Float(v float64) *float64 {
	return &v
}
