package models

import "time"

type QuestionType string

const (
	TypeSingleChoice   QuestionType = "single_choice"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
)

var ValidQuestionTypes = map[QuestionType]bool{
	TypeSingleChoice:   true,
	TypeMultipleChoice: true,
	TypeTrueFalse:      true,
}

// ── Core Structs ───────────────────────────────────────

type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Active bool   `json:"active"`
}

type Subcategory struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

type Question struct {
	ID                    int64        `json:"id"`
	Text                  string       `json:"text"`
	Type                  QuestionType `json:"type"`
	CategoryID            int64        `json:"category_id"`
	SubcategoryID         *int64       `json:"subcategory_id,omitempty"`
	Active                bool         `json:"active"`
	CertificationEligible bool         `json:"certification_eligible"`
	Answers               []Answer     `json:"answers"`
	CreatedAt             time.Time    `json:"created_at"`
}

type Answer struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

// CorrectAnswerIDs returns the identifiers of the correct answers,
// in answer order.
func (q *Question) CorrectAnswerIDs() []int64 {
	var ids []int64
	for _, a := range q.Answers {
		if a.IsCorrect {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// ── Serving Types (strip correctness for presentation) ──

type QuizQuestion struct {
	ID      int64        `json:"id"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Answers []QuizAnswer `json:"answers"`
}

type QuizAnswer struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// ToQuizQuestion strips correctness flags so the question can be served
// to a learner mid-session.
func (q *Question) ToQuizQuestion() QuizQuestion {
	out := QuizQuestion{
		ID:   q.ID,
		Text: q.Text,
		Type: q.Type,
	}
	for _, a := range q.Answers {
		out.Answers = append(out.Answers, QuizAnswer{ID: a.ID, Text: a.Text})
	}
	return out
}
