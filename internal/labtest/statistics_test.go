package labtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

func processesInStages(stages ...types.Stage) []*types.TestProcess {
	processes := make([]*types.TestProcess, 0, len(stages))
	for i, stage := range stages {
		processes = append(processes, &types.TestProcess{
			ID:           string(rune('a' + i)),
			CurrentStage: stage,
		})
	}
	return processes
}

func TestComputeStatistics_Empty(t *testing.T) {
	stats := ComputeStatistics(nil)

	assert.Equal(t, 0, stats.Total)
	assert.Empty(t, stats.ByStage)
	assert.Empty(t, stats.Bottlenecks)
}

func TestComputeStatistics_BottleneckDetected(t *testing.T) {
	// 5 of 10 processes stuck in PROCESSING, the rest spread thin
	processes := processesInStages(
		types.StageProcessing,
		types.StageProcessing,
		types.StageProcessing,
		types.StageProcessing,
		types.StageProcessing,
		types.StageOrdered,
		types.StageOrdered,
		types.StageSampleCollected,
		types.StageResultReady,
		types.StageCompleted,
	)

	stats := ComputeStatistics(processes)

	require.Equal(t, 10, stats.Total)
	assert.Equal(t, 5, stats.ByStage[types.StageProcessing])
	assert.Equal(t, 2, stats.ByStage[types.StageOrdered])
	assert.Equal(t, []string{"Processing"}, stats.Bottlenecks)
}

func TestComputeStatistics_MaxBelowThresholdIsNotABottleneck(t *testing.T) {
	// Max count is 3 of 10 = 30%, which does not exceed the threshold
	processes := processesInStages(
		types.StageProcessing,
		types.StageProcessing,
		types.StageProcessing,
		types.StageOrdered,
		types.StageOrdered,
		types.StageSampleCollected,
		types.StageSampleCollected,
		types.StageResultReady,
		types.StageResultDelivered,
		types.StageCompleted,
	)

	stats := ComputeStatistics(processes)

	assert.Equal(t, 3, stats.ByStage[types.StageProcessing])
	assert.Empty(t, stats.Bottlenecks)
}

func TestComputeStatistics_TiedBottlenecks(t *testing.T) {
	// Two stages tied at the max, both above 30% of the total
	processes := processesInStages(
		types.StageProcessing,
		types.StageProcessing,
		types.StageOrdered,
		types.StageOrdered,
		types.StageCompleted,
	)

	stats := ComputeStatistics(processes)

	assert.Equal(t, []string{"Processing", "Test Ordered"}, stats.Bottlenecks)
}

func TestComputeStatistics_SingleProcess(t *testing.T) {
	stats := ComputeStatistics(processesInStages(types.StageOrdered))

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, []string{"Test Ordered"}, stats.Bottlenecks)
}
