package models

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

type SessionMode string

const (
	ModeRandom        SessionMode = "random"
	ModeCategory      SessionMode = "category"
	ModeSubcategory   SessionMode = "subcategory"
	ModeCertification SessionMode = "certification"
)

var ValidSessionModes = map[SessionMode]bool{
	ModeRandom:        true,
	ModeCategory:      true,
	ModeSubcategory:   true,
	ModeCertification: true,
}

// QuizSession is one timed attempt at a fixed, ordered list of questions.
// The question order is decided once at creation and never changes; the
// session record itself carries it so no transport-layer state is needed.
type QuizSession struct {
	ID               int64         `json:"id"`
	UserID           int64         `json:"user_id"`
	CategoryID       *int64        `json:"category_id,omitempty"`
	SubcategoryID    *int64        `json:"subcategory_id,omitempty"`
	Mode             SessionMode   `json:"mode"`
	QuestionIDs      []int64       `json:"question_ids"`
	CurrentIndex     int           `json:"current_index"`
	CorrectAnswers   int           `json:"correct_answers"`
	IncorrectAnswers int           `json:"incorrect_answers"`
	Status           SessionStatus `json:"status"`
	Score            *float64      `json:"score,omitempty"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	LastAnswerAt     *time.Time    `json:"last_answer_at,omitempty"`
	ElapsedSeconds   float64       `json:"elapsed_seconds"`
}

func (s *QuizSession) TotalQuestions() int {
	return len(s.QuestionIDs)
}

// UserAnswer records one submission. It is written exactly once per
// question per session and never mutated afterwards.
type UserAnswer struct {
	ID                int64     `json:"id"`
	SessionID         int64     `json:"session_id"`
	QuestionID        int64     `json:"question_id"`
	SelectedAnswerIDs []int64   `json:"selected_answer_ids"`
	Correct           bool      `json:"correct"`
	TimeSpentSeconds  float64   `json:"time_spent_seconds"`
	AnsweredAt        time.Time `json:"answered_at"`
}

// ── Request Types ─────────────────────────────────────

type StartSessionRequest struct {
	Mode          SessionMode `json:"mode"`
	CategoryID    *int64      `json:"category_id,omitempty"`
	SubcategoryID *int64      `json:"subcategory_id,omitempty"`
	QuestionCount int         `json:"question_count"`
}

type SubmitAnswerRequest struct {
	SelectedAnswerIDs []int64 `json:"selected_answer_ids"`
}

// ── Response Types ────────────────────────────────────

type SessionProgress struct {
	SessionID      int64   `json:"session_id"`
	CurrentIndex   int     `json:"current_index"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
}

type SubmitAnswerResponse struct {
	Correct          bool            `json:"correct"`
	CorrectAnswerIDs []int64         `json:"correct_answer_ids"`
	SessionCompleted bool            `json:"session_completed"`
	Score            *float64        `json:"score,omitempty"`
	Progress         SessionProgress `json:"progress"`
}

type SessionResults struct {
	Session   QuizSession  `json:"session"`
	Questions []Question   `json:"questions"`
	Answers   []UserAnswer `json:"answers"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
