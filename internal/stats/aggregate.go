package stats

import (
	"math"

	"github.com/verte-zerg/typemaster/internal/model"
)

// Aggregate derives the dashboard summary from a full result list.
// Averages are rounded to the nearest integer. The most played difficulty is the
// first one, in order of first appearance, to reach the highest count.
func Aggregate(results []model.TypingResult) model.Summary {
	if len(results) == 0 {
		return model.EmptySummary()
	}
	var wpmSum, accSum int
	counts := make(map[model.Difficulty]int)
	var order []model.Difficulty
	for _, r := range results {
		wpmSum += r.WPM
		accSum += r.Accuracy
		if _, seen := counts[r.Difficulty]; !seen {
			order = append(order, r.Difficulty)
		}
		counts[r.Difficulty]++
	}

	most := order[0]
	for _, d := range order[1:] {
		if counts[d] > counts[most] {
			most = d
		}
	}

	n := float64(len(results))
	return model.Summary{
		AverageWPM:           int(math.Round(float64(wpmSum) / n)),
		AverageAccuracy:      int(math.Round(float64(accSum) / n)),
		TestsTaken:           len(results),
		MostPlayedDifficulty: string(most),
	}
}
