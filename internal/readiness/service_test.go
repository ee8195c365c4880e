package readiness

import (
	"testing"

	"github.com/certprep/backend/internal/models"
)

type fakeStore struct {
	totalQuestions  int
	totalCategories int
	seenQuestions   int
	successRate     float64
	attempts        map[int64]int
	topicStats      []models.TopicScore
}

func (f *fakeStore) CountQuestions() (int, error)  { return f.totalQuestions, nil }
func (f *fakeStore) CountCategories() (int, error) { return f.totalCategories, nil }
func (f *fakeStore) CountSeenQuestions(userID int64) (int, error) {
	return f.seenQuestions, nil
}
func (f *fakeStore) OverallSuccessRate(userID int64) (float64, error) {
	return f.successRate, nil
}
func (f *fakeStore) CategoryAttemptCounts(userID int64) (map[int64]int, error) {
	return f.attempts, nil
}
func (f *fakeStore) CategoryTopicStats(userID int64) ([]models.TopicScore, error) {
	return append([]models.TopicScore(nil), f.topicStats...), nil
}

func TestComputeReadiness(t *testing.T) {
	store := &fakeStore{
		totalQuestions:  200,
		totalCategories: 4,
		seenQuestions:   50,
		successRate:     80,
		attempts:        map[int64]int{1: 10, 2: 10, 3: 10, 4: 10},
	}
	service := NewService(store)

	snap, err := service.ComputeReadiness(1)
	if err != nil {
		t.Fatalf("ComputeReadiness failed: %v", err)
	}
	if snap.Score != 73.0 {
		t.Errorf("expected score 73.0, got %f", snap.Score)
	}
	if snap.Status != models.StatusAlmostReady {
		t.Errorf("expected almost-ready, got %s", snap.Status)
	}
}

func TestRevisionPlanOrdering(t *testing.T) {
	store := &fakeStore{
		topicStats: []models.TopicScore{
			{CategoryID: 1, CategoryName: "Networking", Weight: 5, AverageScore: 100, Coverage: 100},
			{CategoryID: 2, CategoryName: "Security", Weight: 3, AverageScore: 40, Coverage: 20},
			{CategoryID: 3, CategoryName: "Storage", Weight: 5, AverageScore: 0, Coverage: 0},
		},
	}
	service := NewService(store)

	plan, err := service.RevisionPlan(1)
	if err != nil {
		t.Fatalf("RevisionPlan failed: %v", err)
	}
	if len(plan) != 3 {
		t.Fatalf("expected 3 topics, got %d", len(plan))
	}

	// Untouched heavyweight first, weak mid-weight second, mastered last.
	wantOrder := []int64{3, 2, 1}
	for i, want := range wantOrder {
		if plan[i].CategoryID != want {
			t.Errorf("position %d: got category %d, want %d", i, plan[i].CategoryID, want)
		}
	}

	// Priorities: 5*2+50+30=90, 3*2+30+24=60, 5*2+0+0=10.
	wantPriority := []float64{90, 60, 10}
	for i, want := range wantPriority {
		if !almostEqual(plan[i].Priority, want) {
			t.Errorf("position %d: priority %f, want %f", i, plan[i].Priority, want)
		}
	}
}

func TestRevisionPlanEmpty(t *testing.T) {
	service := NewService(&fakeStore{})

	plan, err := service.RevisionPlan(1)
	if err != nil {
		t.Fatalf("RevisionPlan failed: %v", err)
	}
	if len(plan) != 0 {
		t.Errorf("expected an empty plan, got %d topics", len(plan))
	}
}
