package labtest

import (
	"sort"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

// bottleneckShare is the fraction of all processes a stage must exceed,
// in addition to being the most populous, before it is flagged as a
// bottleneck. A heuristic signal for backlogs, not a statistical test.
const bottleneckShare = 0.3

// ComputeStatistics buckets a collection of processes by current stage and
// flags stages that are disproportionately backed up
func ComputeStatistics(processes []*types.TestProcess) *types.TestStatistics {
	stats := &types.TestStatistics{
		Total:       len(processes),
		ByStage:     make(map[types.Stage]int),
		Bottlenecks: []string{},
	}

	if len(processes) == 0 {
		return stats
	}

	maxCount := 0
	for _, p := range processes {
		stats.ByStage[p.CurrentStage]++
		if stats.ByStage[p.CurrentStage] > maxCount {
			maxCount = stats.ByStage[p.CurrentStage]
		}
	}

	threshold := bottleneckShare * float64(stats.Total)
	for stage, count := range stats.ByStage {
		if count == maxCount && float64(count) > threshold {
			stats.Bottlenecks = append(stats.Bottlenecks, StageLabel(stage))
		}
	}
	sort.Strings(stats.Bottlenecks)

	return stats
}
