package server

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// processStats reports CPU and RAM usage percentages, generalized from the
// teacher's getSystemStats: a short 100ms CPU sample so a run/current poll
// stays fast, paired with an instant memory read.
func (s *Server) processStats() (cpuPercent, memPercent float64) {
	percents, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read cpu percentage")
	} else if len(percents) > 0 {
		cpuPercent = percents[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read memory stats")
		return cpuPercent, 0
	}
	return cpuPercent, memStat.UsedPercent
}
