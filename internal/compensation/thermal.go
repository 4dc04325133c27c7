package compensation

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const defaultThermalZonePath = "/sys/class/thermal/thermal_zone0/temp"

// ThermalZone reads the SoC temperature the kernel exposes in millidegrees
// Celsius. An empty Path selects thermal_zone0.
type ThermalZone struct {
	Path string
}

func (t ThermalZone) ReadCPUTemperature() (float64, error) {
	path := t.Path
	if path == "" {
		path = defaultThermalZonePath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read thermal zone: %w", err)
	}
	milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse thermal zone value: %w", err)
	}
	return float64(milli) / 1000.0, nil
}
