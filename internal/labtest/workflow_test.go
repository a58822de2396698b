package labtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

// declaredEdges is the authoritative edge list the graph must match exactly
var declaredEdges = map[types.Stage][]types.Stage{
	types.StageOrdered:                   {types.StageSampleCollectionScheduled, types.StageCancelled},
	types.StageSampleCollectionScheduled: {types.StageSampleCollected, types.StageCancelled},
	types.StageSampleCollected:           {types.StageProcessing},
	types.StageProcessing:                {types.StageResultReady},
	types.StageResultReady:               {types.StageResultDelivered},
	types.StageResultDelivered:           {types.StageConsultationRequired, types.StageFollowUpScheduled, types.StageCompleted},
	types.StageConsultationRequired:      {types.StageFollowUpScheduled, types.StageCompleted},
	types.StageFollowUpScheduled:         {types.StageCompleted},
	types.StageCompleted:                 {},
	types.StageCancelled:                 {},
}

func TestCanTransition_ExhaustiveTable(t *testing.T) {
	allStages := make([]types.Stage, 0, len(declaredEdges))
	for stage := range declaredEdges {
		allStages = append(allStages, stage)
	}

	for from, edges := range declaredEdges {
		allowed := make(map[types.Stage]bool, len(edges))
		for _, to := range edges {
			allowed[to] = true
		}

		// Every pair, including self-loops, must match the declared list
		for _, to := range allStages {
			got := CanTransition(from, to)
			if allowed[to] {
				assert.True(t, got, "expected %s -> %s to be legal", from, to)
			} else {
				assert.False(t, got, "expected %s -> %s to be illegal", from, to)
			}
		}
	}
}

func TestNextStepsOf_TerminalStagesHaveNoEdges(t *testing.T) {
	assert.Empty(t, NextStepsOf(types.StageCompleted))
	assert.Empty(t, NextStepsOf(types.StageCancelled))
}

func TestNextStepsOf_UnknownStage(t *testing.T) {
	assert.Nil(t, NextStepsOf(types.Stage("NOT_A_STAGE")))
	assert.False(t, CanTransition(types.Stage("NOT_A_STAGE"), types.StageOrdered))
}

func TestWorkflowDefinition_CoversEveryStageOnce(t *testing.T) {
	definition := WorkflowDefinition()
	require.Len(t, definition, len(declaredEdges))

	seen := make(map[types.Stage]bool)
	for _, step := range definition {
		assert.False(t, seen[step.Stage], "stage %s listed twice", step.Stage)
		seen[step.Stage] = true

		assert.NotEmpty(t, step.DisplayName)
		assert.NotEmpty(t, step.EstimatedHours)
		assert.ElementsMatch(t, declaredEdges[step.Stage], step.NextSteps)
	}
}

func TestWorkflowDefinition_EvidenceDeclarations(t *testing.T) {
	expected := map[types.Stage][]string{
		types.StageSampleCollectionScheduled: {EvidenceAppointmentID},
		types.StageSampleCollected:           {EvidenceCollectedBy, EvidenceCollectionDate},
		types.StageProcessing:                {EvidenceProcessedBy},
		types.StageResultReady:               {EvidenceResultID},
		types.StageConsultationRequired:      {EvidenceConsultantID},
	}

	for stage, fields := range expected {
		step, ok := StepOf(stage)
		require.True(t, ok)
		assert.Equal(t, fields, step.RequiredEvidence, "evidence for %s", stage)
	}

	// No other stage requires evidence beyond graph legality
	for stage := range declaredEdges {
		if _, hasEvidence := expected[stage]; hasEvidence {
			continue
		}
		step, ok := StepOf(stage)
		require.True(t, ok)
		assert.Empty(t, step.RequiredEvidence, "stage %s should not require evidence", stage)
	}
}

func TestStageLabel(t *testing.T) {
	assert.Equal(t, "Processing", StageLabel(types.StageProcessing))
	assert.Equal(t, "NOT_A_STAGE", StageLabel(types.Stage("NOT_A_STAGE")))
}
