package platform

import (
	"fmt"
	"path"
	"strings"
	"sync"
	"time"
)

const (
	hwmonPath      = "/sys/class/hwmon"
	powercapPath   = "/sys/class/powercap"
	raplZonePrefix = "intel-rapl:"
)

// energySample is one RAPL energy counter observation.
type energySample struct {
	microjoules uint64
	at          time.Time
}

// linuxSensorProvider implements SensorProvider over /sys/class/hwmon and
// the RAPL powercap zones.
type linuxSensorProvider struct {
	src fileSource
	now func() time.Time

	mu         sync.Mutex
	prevEnergy map[string]energySample
}

func newLinuxSensorProvider(src fileSource) *linuxSensorProvider {
	return &linuxSensorProvider{
		src:        src,
		now:        time.Now,
		prevEnergy: make(map[string]energySample),
	}
}

func (s *linuxSensorProvider) Temperatures() ([]SensorReading, error) {
	return s.readHwmon("temp", func(raw int64) float64 { return float64(raw) / 1000.0 }, "°C", true)
}

func (s *linuxSensorProvider) Fans() ([]SensorReading, error) {
	return s.readHwmon("fan", func(raw int64) float64 { return float64(raw) }, "RPM", false)
}

func (s *linuxSensorProvider) Voltages() ([]SensorReading, error) {
	return s.readHwmon("in", func(raw int64) float64 { return float64(raw) / 1000.0 }, "V", false)
}

// Power combines RAPL energy-counter deltas with hwmon power*_input channels.
func (s *linuxSensorProvider) Power() ([]SensorReading, error) {
	readings, err := s.readRAPL()
	if err != nil {
		return nil, err
	}
	hw, err := s.readHwmon("power", func(raw int64) float64 { return float64(raw) / 1e6 }, "W", false)
	if err != nil {
		return nil, err
	}
	return append(readings, hw...), nil
}

// readHwmon walks every hwmonN device and collects "<prefix>N_input" channels.
func (s *linuxSensorProvider) readHwmon(prefix string, convert func(int64) float64, unit string, withCrit bool) ([]SensorReading, error) {
	devices, err := s.src.ReadDir(hwmonPath)
	if err != nil {
		// No hwmon support
		return []SensorReading{}, nil
	}

	var readings []SensorReading
	for _, dev := range devices {
		if !strings.HasPrefix(dev, "hwmon") {
			continue
		}
		devicePath := path.Join(hwmonPath, dev)
		deviceReadings, err := s.readDeviceChannels(devicePath, prefix, convert, unit, withCrit)
		if err != nil {
			// Skip devices that fail to read
			continue
		}
		readings = append(readings, deviceReadings...)
	}
	return readings, nil
}

func (s *linuxSensorProvider) readDeviceChannels(devicePath, prefix string, convert func(int64) float64, unit string, withCrit bool) ([]SensorReading, error) {
	deviceName := s.readDeviceName(devicePath)

	entries, err := s.src.ReadDir(devicePath)
	if err != nil {
		return nil, fmt.Errorf("reading device directory: %w", err)
	}

	readings := make([]SensorReading, 0, len(entries)/4)
	for _, name := range entries {
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, "_input") {
			continue
		}
		// e.g. "temp1" from "temp1_input"; the rest must be the channel number
		channel := strings.TrimSuffix(name, "_input")
		if !isDigits(strings.TrimPrefix(channel, prefix)) {
			continue
		}

		raw, ok := readInt64(s.src, path.Join(devicePath, name))
		if !ok {
			continue
		}

		label, ok := readTrimmed(s.src, path.Join(devicePath, channel+"_label"))
		if !ok || label == "" {
			label = channel
		}

		reading := SensorReading{
			Device: path.Base(devicePath),
			Name:   deviceName,
			Label:  label,
			Value:  convert(raw),
			Unit:   unit,
		}
		if withCrit {
			if crit, ok := readInt64(s.src, path.Join(devicePath, channel+"_crit")); ok {
				reading.Critical = convert(crit)
			}
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

// readDeviceName reads the device name from the 'name' file.
func (s *linuxSensorProvider) readDeviceName(devicePath string) string {
	name, ok := readTrimmed(s.src, path.Join(devicePath, "name"))
	if !ok || name == "" {
		// Fallback: use the hwmon directory name
		return path.Base(devicePath)
	}
	return name
}

// readRAPL converts RAPL energy counters into average watts since the
// previous call. Zones seen for the first time produce no reading.
func (s *linuxSensorProvider) readRAPL() ([]SensorReading, error) {
	zones, err := s.src.ReadDir(powercapPath)
	if err != nil {
		return []SensorReading{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var readings []SensorReading
	for _, zone := range zones {
		if !strings.HasPrefix(zone, raplZonePrefix) {
			continue
		}
		zonePath := path.Join(powercapPath, zone)
		energy, ok := readUint64(s.src, path.Join(zonePath, "energy_uj"))
		if !ok {
			continue
		}
		label, ok := readTrimmed(s.src, path.Join(zonePath, "name"))
		if !ok {
			label = zone
		}

		prev, seen := s.prevEnergy[zone]
		s.prevEnergy[zone] = energySample{microjoules: energy, at: now}
		if !seen {
			continue
		}

		elapsed := now.Sub(prev.at).Seconds()
		if elapsed <= 0 {
			continue
		}

		delta := energy - prev.microjoules
		if energy < prev.microjoules {
			// counter wrapped
			maxRange, ok := readUint64(s.src, path.Join(zonePath, "max_energy_range_uj"))
			if !ok || maxRange < prev.microjoules {
				continue
			}
			delta = maxRange - prev.microjoules + energy
		}

		readings = append(readings, SensorReading{
			Device: "intel-rapl",
			Name:   "intel-rapl",
			Label:  label,
			Value:  float64(delta) / 1e6 / elapsed,
			Unit:   "W",
		})
	}
	return readings, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
