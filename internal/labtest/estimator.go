package labtest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

// ShortestPath runs a breadth-first search over the workflow graph and
// returns the first-discovered stage sequence from from to to, inclusive
// of both endpoints. Since edges are unweighted, BFS yields the
// fewest-hops path. An empty sequence means to is unreachable from from.
func ShortestPath(from, to types.Stage) []types.Stage {
	if _, ok := StepOf(from); !ok {
		return nil
	}
	if _, ok := StepOf(to); !ok {
		return nil
	}
	if from == to {
		return []types.Stage{from}
	}

	visited := map[types.Stage]bool{from: true}
	queue := [][]types.Stage{{from}}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		current := path[len(path)-1]
		for _, next := range NextStepsOf(current) {
			if visited[next] {
				continue
			}

			nextPath := make([]types.Stage, len(path), len(path)+1)
			copy(nextPath, path)
			nextPath = append(nextPath, next)

			if next == to {
				return nextPath
			}

			visited[next] = true
			queue = append(queue, nextPath)
		}
	}

	return nil
}

// EstimatedDuration renders the total estimated time along the shortest
// path between two stages. Each hop contributes the target stage's
// estimate; min-max ranges are averaged to their midpoint. Totals under
// 24 hours render as hours, anything longer as a ceiling-rounded day
// count.
func EstimatedDuration(from, to types.Stage) (string, error) {
	hours, err := EstimatedHoursBetween(from, to)
	if err != nil {
		return "", err
	}

	if hours < 24 {
		return fmt.Sprintf("%d hours", int(math.Round(hours))), nil
	}

	days := int(math.Ceil(hours / 24))
	return fmt.Sprintf("%d days", days), nil
}

// EstimatedHoursBetween sums hop estimates along the shortest path
func EstimatedHoursBetween(from, to types.Stage) (float64, error) {
	path := ShortestPath(from, to)
	if len(path) == 0 {
		return 0, types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("no path from %s to %s", from, to))
	}

	var total float64
	for _, stage := range path[1:] {
		step, ok := StepOf(stage)
		if !ok {
			continue
		}
		total += parseHourEstimate(step.EstimatedHours)
	}

	return total, nil
}

// parseHourEstimate reads a fixed hour count ("2") or a min-max range
// ("24-48", averaged to its midpoint). Malformed estimates count as zero.
func parseHourEstimate(estimate string) float64 {
	estimate = strings.TrimSpace(estimate)
	if estimate == "" {
		return 0
	}

	if strings.Contains(estimate, "-") {
		parts := strings.SplitN(estimate, "-", 2)
		min, errMin := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		max, errMax := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errMin != nil || errMax != nil {
			return 0
		}
		return (min + max) / 2
	}

	hours, err := strconv.ParseFloat(estimate, 64)
	if err != nil {
		return 0
	}
	return hours
}
