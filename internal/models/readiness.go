package models

type ReadinessStatus string

const (
	StatusReady       ReadinessStatus = "ready"
	StatusAlmostReady ReadinessStatus = "almost-ready"
	StatusInProgress  ReadinessStatus = "in-progress"
	StatusNotReady    ReadinessStatus = "not-ready"
)

// ReadinessSnapshot is derived on demand from historical statistics and
// never stored.
type ReadinessSnapshot struct {
	CoverageScore    float64         `json:"coverage_score"`
	PerformanceScore float64         `json:"performance_score"`
	ConsistencyScore float64         `json:"consistency_score"`
	Score            float64         `json:"score"`
	Status           ReadinessStatus `json:"status"`
}

// TopicScore ranks one category for revision planning. Higher priority
// means the category should be revised sooner.
type TopicScore struct {
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Weight       int     `json:"weight"`
	AverageScore float64 `json:"average_score"`
	Coverage     float64 `json:"coverage"`
	Priority     float64 `json:"priority"`
}

type RevisionPlanResponse struct {
	Topics []TopicScore `json:"topics"`
}
