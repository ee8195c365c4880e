package readiness

import (
	"math"

	"github.com/certprep/backend/internal/models"
)

// Final score weighting: performance dominates, coverage and consistency
// temper it.
const (
	coverageWeight    = 0.2
	performanceWeight = 0.6
	consistencyWeight = 0.2
)

// CoverageScore returns the percentage of the available question pool the
// learner has ever attempted, capped at 100.
func CoverageScore(seenQuestions, totalQuestions int) float64 {
	if totalQuestions == 0 {
		return 0
	}
	pct := float64(seenQuestions) / float64(totalQuestions) * 100
	return math.Min(100, pct)
}

// ConsistencyScore measures how evenly the learner practices across
// categories. Half the score is the fraction of categories touched at
// all; the other half penalizes uneven attempt counts via the
// coefficient of variation among practiced categories.
func ConsistencyScore(categoryAttempts map[int64]int, totalCategories int) float64 {
	if totalCategories == 0 {
		return 0
	}

	var practiced []float64
	for _, attempts := range categoryAttempts {
		if attempts > 0 {
			practiced = append(practiced, float64(attempts))
		}
	}
	practicedRatio := float64(len(practiced)) / float64(totalCategories)

	cv := 0.0
	if len(practiced) > 1 {
		mean := 0.0
		for _, n := range practiced {
			mean += n
		}
		mean /= float64(len(practiced))

		variance := 0.0
		for _, n := range practiced {
			variance += (n - mean) * (n - mean)
		}
		variance /= float64(len(practiced))

		cv = math.Sqrt(variance) / mean
	}
	balance := math.Max(0, 100-cv*50)

	return practicedRatio*100*0.5 + balance*0.5
}

// ComputeScore combines the sub-scores into the final readiness score,
// rounded to one decimal.
func ComputeScore(coverage, performance, consistency float64) float64 {
	score := coverage*coverageWeight + performance*performanceWeight + consistency*consistencyWeight
	return math.Round(score*10) / 10
}

// StatusFor maps a readiness score to its qualitative status.
func StatusFor(score float64) models.ReadinessStatus {
	switch {
	case score >= 85:
		return models.StatusReady
	case score >= 70:
		return models.StatusAlmostReady
	case score >= 50:
		return models.StatusInProgress
	default:
		return models.StatusNotReady
	}
}

// TopicPriority ranks a category for revision: heavily weighted exam
// topics with weak scores and thin coverage come first.
func TopicPriority(weight int, averageScore, coverage float64) float64 {
	return float64(weight)*2 + (100-averageScore)*0.5 + (100-coverage)*0.3
}

// Snapshot derives a readiness snapshot from learner-level aggregates.
// successRate is the overall historical percentage of correct answers,
// counting repeats.
func Snapshot(totalQuestions, seenQuestions int, successRate float64, categoryAttempts map[int64]int, totalCategories int) models.ReadinessSnapshot {
	coverage := CoverageScore(seenQuestions, totalQuestions)
	performance := successRate
	consistency := ConsistencyScore(categoryAttempts, totalCategories)
	score := ComputeScore(coverage, performance, consistency)

	return models.ReadinessSnapshot{
		CoverageScore:    coverage,
		PerformanceScore: performance,
		ConsistencyScore: consistency,
		Score:            score,
		Status:           StatusFor(score),
	}
}
