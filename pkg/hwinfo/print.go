package hwinfo

import (
	"bufio"
	"fmt"
	"io"

	"github.com/opd-ai/go-hwinfo/internal/hardware"
)

// PrintAllHardware writes one line per sensor that has a value:
//
//	Hardware: <name>, HardwareType: <type>, Sensor: <name>, Value: <value>, Type: <sensor type>
//
// Without polling, all hardware is refreshed first.
func (h *HardwareInfo) PrintAllHardware(w io.Writer) error {
	if !h.isPolling() {
		if err := h.SaveAllHardware(); err != nil {
			if AsUpdateError(err) == nil {
				return err
			}
			h.logger.Warn("hardware refresh incomplete", "error", err)
		}
	}
	return writeSensorLines(w, h.Snapshot())
}

func writeSensorLines(w io.Writer, snap hardware.Snapshot) error {
	bw := bufio.NewWriter(w)
	for _, item := range snap.Hardware {
		for _, s := range item.Sensors {
			if s.Value == nil {
				continue
			}
			fmt.Fprintf(bw, "Hardware: %s, HardwareType: %s, Sensor: %s, Value: %s, Type: %s\n",
				item.Name, item.Type, s.Name, formatValue(*s.Value), s.Type)
		}
	}
	return bw.Flush()
}
