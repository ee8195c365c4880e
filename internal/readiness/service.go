package readiness

import (
	"fmt"
	"sort"

	"github.com/certprep/backend/internal/models"
)

// Store supplies the historical aggregates the scorer runs on.
type Store interface {
	CountQuestions() (int, error)
	CountCategories() (int, error)
	CountSeenQuestions(userID int64) (int, error)
	OverallSuccessRate(userID int64) (float64, error)
	CategoryAttemptCounts(userID int64) (map[int64]int, error)
	CategoryTopicStats(userID int64) ([]models.TopicScore, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ComputeReadiness derives the learner's current certification-readiness
// snapshot. Nothing is persisted; the snapshot is recomputed on demand.
func (s *Service) ComputeReadiness(userID int64) (*models.ReadinessSnapshot, error) {
	totalQuestions, err := s.store.CountQuestions()
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	totalCategories, err := s.store.CountCategories()
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	seenQuestions, err := s.store.CountSeenQuestions(userID)
	if err != nil {
		return nil, fmt.Errorf("count seen questions: %w", err)
	}
	successRate, err := s.store.OverallSuccessRate(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch success rate: %w", err)
	}
	categoryAttempts, err := s.store.CategoryAttemptCounts(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch category attempts: %w", err)
	}

	snapshot := Snapshot(totalQuestions, seenQuestions, successRate, categoryAttempts, totalCategories)
	return &snapshot, nil
}

// RevisionPlan orders all categories by revision priority, highest
// first, so the learner knows what to study next.
func (s *Service) RevisionPlan(userID int64) ([]models.TopicScore, error) {
	topics, err := s.store.CategoryTopicStats(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch topic stats: %w", err)
	}

	for i := range topics {
		topics[i].Priority = TopicPriority(topics[i].Weight, topics[i].AverageScore, topics[i].Coverage)
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Priority > topics[j].Priority
	})
	return topics, nil
}
