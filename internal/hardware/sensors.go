package hardware

import (
	"sort"
	"sync"

	"github.com/opd-ai/go-hwinfo/internal/platform"
)

type sensorKey struct {
	typ  SensorType
	name string
}

type sensorState struct {
	value    float64
	hasValue bool
	min, max float64
	seen     bool
}

// sensorSet keeps the sensors of one hardware item across updates. A sensor
// appears the first time it is set and keeps its slot afterwards; sensors
// not set during an update lose their value but keep min and max.
type sensorSet struct {
	mu     sync.RWMutex
	order  []sensorKey
	states map[sensorKey]*sensorState
}

func newSensorSet() *sensorSet {
	return &sensorSet{states: make(map[sensorKey]*sensorState)}
}

// begin clears current values ahead of an update.
func (s *sensorSet) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.states {
		st.hasValue = false
	}
}

func (s *sensorSet) set(typ SensorType, name string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sensorKey{typ: typ, name: name}
	st, ok := s.states[key]
	if !ok {
		st = &sensorState{}
		s.states[key] = st
		s.order = append(s.order, key)
	}
	st.value = value
	st.hasValue = true
	if !st.seen || value < st.min {
		st.min = value
	}
	if !st.seen || value > st.max {
		st.max = value
	}
	st.seen = true
}

// value returns the current value of a sensor.
func (s *sensorSet) value(typ SensorType, name string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[sensorKey{typ: typ, name: name}]
	if !ok || !st.hasValue {
		return 0, false
	}
	return st.value, true
}

// snapshot copies the sensors, ordered by type and then by first appearance.
func (s *sensorSet) snapshot() []Sensor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Sensor, 0, len(s.order))
	for _, key := range s.order {
		st := s.states[key]
		sensor := Sensor{Name: key.name, Type: key.typ}
		if st.hasValue {
			v := st.value
			sensor.Value = &v
		}
		if st.seen {
			lo, hi := st.min, st.max
			sensor.Min = &lo
			sensor.Max = &hi
		}
		out = append(out, sensor)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Type < out[j].Type
	})
	return out
}

// sensorFrame is one read of every sensor channel.
type sensorFrame struct {
	temperatures []platform.SensorReading
	fans         []platform.SensorReading
	voltages     []platform.SensorReading
	power        []platform.SensorReading
}

// sensorSampler shares one sensor read between all hardware items refreshed
// in the same update pass. RAPL power is derived from counter deltas, so
// reading it once per pass also keeps the measurement window equal to the
// update interval.
type sensorSampler struct {
	provider platform.SensorProvider

	mu       sync.Mutex
	pass     uint64
	readPass uint64
	frame    sensorFrame

	// nvidia-smi output, read at most once per pass like the frame.
	gpus    platform.GPUProvider
	gpuPass uint64
	gpuList []platform.NvidiaGPU
	gpuErr  error
}

func newSensorSampler(provider platform.SensorProvider) *sensorSampler {
	return &sensorSampler{provider: provider}
}

// nextPass invalidates the cached frame.
func (s *sensorSampler) nextPass() {
	s.mu.Lock()
	s.pass++
	s.mu.Unlock()
}

// sample returns the frame for the current pass, reading it on first use.
// Channels that fail to read are left empty.
func (s *sensorSampler) sample() sensorFrame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.provider == nil {
		return sensorFrame{}
	}
	if s.pass != 0 && s.readPass == s.pass {
		return s.frame
	}

	var frame sensorFrame
	if temps, err := s.provider.Temperatures(); err == nil {
		frame.temperatures = temps
	}
	if fans, err := s.provider.Fans(); err == nil {
		frame.fans = fans
	}
	if volts, err := s.provider.Voltages(); err == nil {
		frame.voltages = volts
	}
	if power, err := s.provider.Power(); err == nil {
		frame.power = power
	}
	s.frame = frame
	s.readPass = s.pass
	return frame
}

// nvidia returns the nvidia-smi result for the current pass.
func (s *sensorSampler) nvidia() ([]platform.NvidiaGPU, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gpus == nil {
		return nil, nil
	}
	if s.pass != 0 && s.gpuPass == s.pass {
		return s.gpuList, s.gpuErr
	}
	s.gpuList, s.gpuErr = s.gpus.NvidiaGPUs()
	s.gpuPass = s.pass
	return s.gpuList, s.gpuErr
}
