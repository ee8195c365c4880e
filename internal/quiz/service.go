package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/certprep/backend/internal/models"
)

var (
	// ErrNoQuestions means the scope filter matched nothing; no session
	// is created in that case.
	ErrNoQuestions = errors.New("no questions match the requested scope")

	// ErrNoActiveSession means the learner has no in-progress session.
	ErrNoActiveSession = errors.New("no active quiz session")

	// ErrSessionNotFound means the session does not exist or belongs to
	// another learner.
	ErrSessionNotFound = errors.New("session not found")
)

// Store is what the engine needs from persistence: the question pool,
// the learner's progress history, and session/answer records. Writes are
// immediate; there is no batching.
type Store interface {
	// Pool provider.
	ActiveQuestionIDs(mode models.SessionMode, categoryID, subcategoryID *int64) ([]int64, error)
	QuestionsByID(ids []int64) ([]models.Question, error)

	// Progress provider.
	SeenQuestionIDs(userID int64) (map[int64]bool, error)
	FailureRates(userID int64) (map[int64]float64, error)

	// Session persistence.
	ActiveSession(userID int64) (*models.QuizSession, error)
	SessionByID(sessionID int64) (*models.QuizSession, error)
	CreateSession(session *models.QuizSession) error
	UpdateSession(session *models.QuizSession) error
	InsertAnswer(answer *models.UserAnswer) error
	SessionAnswers(sessionID int64) ([]models.UserAnswer, error)
}

// Service owns the quiz session lifecycle: question sequencing, answer
// recording, completion and abandonment, score computation.
//
// The engine assumes one request at a time per learner. Callers running
// concurrent requests for the same learner must serialize them; the
// storage layer's single-active-session constraint catches start races
// but submit counters are read-modify-write on the session row.
type Service struct {
	store Store
	rng   *rand.Rand
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
	}
}

// NewServiceWithRand is NewService with an explicit random source and
// clock, for deterministic tests.
func NewServiceWithRand(store Store, rng *rand.Rand, now func() time.Time) *Service {
	return &Service{store: store, rng: rng, now: now}
}

// ── Session Lifecycle ───────────────────────────────────

// StartSession creates a new in-progress session for the learner,
// abandoning any existing one. A question_count of 0 means "all matching
// questions". The selected ids are shuffled once more before being fixed
// as the presentation order.
func (s *Service) StartSession(userID int64, req models.StartSessionRequest) (*models.QuizSession, error) {
	if req.QuestionCount < 0 {
		return nil, fmt.Errorf("question_count must be >= 0, got %d", req.QuestionCount)
	}
	mode := req.Mode
	if mode == "" {
		mode = models.ModeRandom
	}
	if !models.ValidSessionModes[mode] {
		return nil, fmt.Errorf("invalid session mode %q", mode)
	}

	categoryID := req.CategoryID
	subcategoryID := req.SubcategoryID
	if mode == models.ModeRandom || mode == models.ModeCertification {
		// Both modes draw from the whole pool; a scope supplied with
		// them is not applied, so it must not be recorded either.
		categoryID = nil
		subcategoryID = nil
	}

	pool, err := s.store.ActiveQuestionIDs(mode, categoryID, subcategoryID)
	if err != nil {
		return nil, fmt.Errorf("fetch question pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrNoQuestions
	}

	seen, err := s.store.SeenQuestionIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch seen questions: %w", err)
	}
	failureRates, err := s.store.FailureRates(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch failure rates: %w", err)
	}

	questionIDs := SelectQuestions(s.rng, pool, seen, failureRates, req.QuestionCount)

	// Presentation shuffle: selection order carries bucket bias, the
	// order shown to the learner must not.
	s.rng.Shuffle(len(questionIDs), func(i, j int) {
		questionIDs[i], questionIDs[j] = questionIDs[j], questionIDs[i]
	})

	// Abandon only after the pool lookup succeeded, so a failed start
	// leaves the previous session untouched.
	if err := s.abandonActive(userID); err != nil {
		return nil, err
	}

	session := &models.QuizSession{
		UserID:        userID,
		CategoryID:    categoryID,
		SubcategoryID: subcategoryID,
		Mode:          mode,
		QuestionIDs:   questionIDs,
		Status:        models.SessionInProgress,
		StartedAt:     s.now(),
	}
	if err := s.store.CreateSession(session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// CurrentQuestion returns the learner's active session and the question
// at its current index.
func (s *Service) CurrentQuestion(userID int64) (*models.Question, *models.QuizSession, error) {
	session, err := s.activeSession(userID)
	if err != nil {
		return nil, nil, err
	}
	if session.CurrentIndex >= session.TotalQuestions() {
		// A full session is completed by its final submit; an index at
		// the end with status in_progress should not occur.
		return nil, nil, ErrNoActiveSession
	}

	question, err := s.questionByID(session.QuestionIDs[session.CurrentIndex])
	if err != nil {
		return nil, nil, err
	}
	return question, session, nil
}

// SubmitAnswer evaluates the learner's selection against the current
// question, records it, and advances the session. The final submission
// completes the session and computes its score exactly once.
func (s *Service) SubmitAnswer(userID int64, selectedIDs []int64) (*models.SubmitAnswerResponse, error) {
	session, err := s.activeSession(userID)
	if err != nil {
		return nil, err
	}
	if session.CurrentIndex >= session.TotalQuestions() {
		return nil, ErrNoActiveSession
	}

	question, err := s.questionByID(session.QuestionIDs[session.CurrentIndex])
	if err != nil {
		return nil, err
	}

	selected := SanitizeAnswerIDs(selectedIDs)
	correct := Evaluate(question, selected)

	now := s.now()
	previous := session.StartedAt
	if session.LastAnswerAt != nil {
		previous = *session.LastAnswerAt
	}
	spent := now.Sub(previous).Seconds()

	answer := &models.UserAnswer{
		SessionID:         session.ID,
		QuestionID:        question.ID,
		SelectedAnswerIDs: selected,
		Correct:           correct,
		TimeSpentSeconds:  spent,
		AnsweredAt:        now,
	}
	// The answer record is written before the session advances: a failed
	// write leaves counters and index untouched.
	if err := s.store.InsertAnswer(answer); err != nil {
		return nil, fmt.Errorf("record answer: %w", err)
	}

	if correct {
		session.CorrectAnswers++
	} else {
		session.IncorrectAnswers++
	}
	session.CurrentIndex++
	session.LastAnswerAt = &now
	session.ElapsedSeconds += spent

	completed := session.CurrentIndex == session.TotalQuestions()
	if completed {
		session.Status = models.SessionCompleted
		session.CompletedAt = &now
		score := float64(session.CorrectAnswers) / float64(session.TotalQuestions()) * 100
		session.Score = &score
	}

	if err := s.store.UpdateSession(session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	return &models.SubmitAnswerResponse{
		Correct:          correct,
		CorrectAnswerIDs: question.CorrectAnswerIDs(),
		SessionCompleted: completed,
		Score:            session.Score,
		Progress:         progressOf(session),
	}, nil
}

// Abandon moves the learner's in-progress session to abandoned. It is a
// no-op when no session is active or the session is already terminal.
func (s *Service) Abandon(userID int64) error {
	return s.abandonActive(userID)
}

// Progress reports how far the active session has advanced.
func (s *Service) Progress(userID int64) (*models.SessionProgress, error) {
	session, err := s.activeSession(userID)
	if err != nil {
		return nil, err
	}
	p := progressOf(session)
	return &p, nil
}

// Results returns a session with its answers and its questions in
// presentation order. Works on terminal sessions too.
func (s *Service) Results(userID, sessionID int64) (*models.SessionResults, error) {
	session, err := s.store.SessionByID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	if session == nil || session.UserID != userID {
		return nil, ErrSessionNotFound
	}

	answers, err := s.store.SessionAnswers(sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch answers: %w", err)
	}

	questions, err := s.store.QuestionsByID(session.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	byID := make(map[int64]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	ordered := make([]models.Question, 0, len(session.QuestionIDs))
	for _, id := range session.QuestionIDs {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}

	return &models.SessionResults{
		Session:   *session,
		Questions: ordered,
		Answers:   answers,
	}, nil
}

// ── Helpers ─────────────────────────────────────────────

func (s *Service) activeSession(userID int64) (*models.QuizSession, error) {
	session, err := s.store.ActiveSession(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active session: %w", err)
	}
	if session == nil || session.Status != models.SessionInProgress {
		return nil, ErrNoActiveSession
	}
	return session, nil
}

func (s *Service) abandonActive(userID int64) error {
	session, err := s.store.ActiveSession(userID)
	if err != nil {
		return fmt.Errorf("fetch active session: %w", err)
	}
	if session == nil || session.Status != models.SessionInProgress {
		return nil
	}
	session.Status = models.SessionAbandoned
	if err := s.store.UpdateSession(session); err != nil {
		return fmt.Errorf("abandon session: %w", err)
	}
	return nil
}

func (s *Service) questionByID(id int64) (*models.Question, error) {
	questions, err := s.store.QuestionsByID([]int64{id})
	if err != nil {
		return nil, fmt.Errorf("fetch question %d: %w", id, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question %d not found", id)
	}
	return &questions[0], nil
}

func progressOf(session *models.QuizSession) models.SessionProgress {
	total := session.TotalQuestions()
	pct := 0.0
	if total > 0 {
		pct = float64(session.CurrentIndex) / float64(total) * 100
	}
	return models.SessionProgress{
		SessionID:      session.ID,
		CurrentIndex:   session.CurrentIndex,
		TotalQuestions: total,
		Percentage:     pct,
	}
}
