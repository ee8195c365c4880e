package quiz

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/certprep/backend/internal/models"
)

// ── Fake Store ──────────────────────────────────────────

type fakeStore struct {
	pool      []int64
	questions map[int64]models.Question
	seen      map[int64]bool
	rates     map[int64]float64

	sessions      map[int64]*models.QuizSession
	answers       []models.UserAnswer
	nextSessionID int64
	nextAnswerID  int64
}

func newFakeStore(questionCount int) *fakeStore {
	fs := &fakeStore{
		questions: make(map[int64]models.Question),
		seen:      make(map[int64]bool),
		rates:     make(map[int64]float64),
		sessions:  make(map[int64]*models.QuizSession),
	}
	for i := 1; i <= questionCount; i++ {
		qid := int64(i)
		fs.pool = append(fs.pool, qid)
		fs.questions[qid] = models.Question{
			ID:         qid,
			Text:       "question",
			Type:       models.TypeSingleChoice,
			CategoryID: 1,
			Active:     true,
			Answers: []models.Answer{
				{ID: qid*10 + 1, QuestionID: qid, IsCorrect: true},
				{ID: qid*10 + 2, QuestionID: qid},
				{ID: qid*10 + 3, QuestionID: qid},
				{ID: qid*10 + 4, QuestionID: qid},
			},
		}
	}
	return fs
}

func cloneSession(s *models.QuizSession) *models.QuizSession {
	c := *s
	c.QuestionIDs = append([]int64(nil), s.QuestionIDs...)
	return &c
}

func (f *fakeStore) ActiveQuestionIDs(mode models.SessionMode, categoryID, subcategoryID *int64) ([]int64, error) {
	return append([]int64(nil), f.pool...), nil
}

func (f *fakeStore) QuestionsByID(ids []int64) ([]models.Question, error) {
	var out []models.Question
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeStore) SeenQuestionIDs(userID int64) (map[int64]bool, error) {
	return f.seen, nil
}

func (f *fakeStore) FailureRates(userID int64) (map[int64]float64, error) {
	return f.rates, nil
}

func (f *fakeStore) ActiveSession(userID int64) (*models.QuizSession, error) {
	for _, s := range f.sessions {
		if s.UserID == userID && s.Status == models.SessionInProgress {
			return cloneSession(s), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SessionByID(sessionID int64) (*models.QuizSession, error) {
	if s, ok := f.sessions[sessionID]; ok {
		return cloneSession(s), nil
	}
	return nil, nil
}

func (f *fakeStore) CreateSession(session *models.QuizSession) error {
	f.nextSessionID++
	session.ID = f.nextSessionID
	f.sessions[session.ID] = cloneSession(session)
	return nil
}

func (f *fakeStore) UpdateSession(session *models.QuizSession) error {
	f.sessions[session.ID] = cloneSession(session)
	return nil
}

func (f *fakeStore) InsertAnswer(answer *models.UserAnswer) error {
	f.nextAnswerID++
	answer.ID = f.nextAnswerID
	f.answers = append(f.answers, *answer)
	return nil
}

func (f *fakeStore) SessionAnswers(sessionID int64) ([]models.UserAnswer, error) {
	var out []models.UserAnswer
	for _, a := range f.answers {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

// ── Test Setup ──────────────────────────────────────────

// fakeClock advances 30 seconds every time it is read.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(30 * time.Second)
	return c.t
}

func newTestService(store *fakeStore) *Service {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewServiceWithRand(store, rand.New(rand.NewSource(1)), clock.now)
}

func correctAnswerID(questionID int64) int64 {
	return questionID*10 + 1
}

// ── Tests ───────────────────────────────────────────────

func TestStartSessionEmptyPool(t *testing.T) {
	store := newFakeStore(0)
	service := newTestService(store)

	_, err := service.StartSession(1, models.StartSessionRequest{Mode: models.ModeRandom, QuestionCount: 5})
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	if len(store.sessions) != 0 {
		t.Errorf("no session must be created when the pool is empty, found %d", len(store.sessions))
	}
}

func TestStartSessionFixesQuestionOrder(t *testing.T) {
	store := newFakeStore(10)
	service := newTestService(store)

	session, err := service.StartSession(1, models.StartSessionRequest{Mode: models.ModeRandom, QuestionCount: 5})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	if session.TotalQuestions() != 5 {
		t.Errorf("expected 5 questions, got %d", session.TotalQuestions())
	}
	if session.Status != models.SessionInProgress {
		t.Errorf("expected in_progress, got %s", session.Status)
	}
	if session.CurrentIndex != 0 {
		t.Errorf("expected index 0, got %d", session.CurrentIndex)
	}
	if session.Score != nil {
		t.Error("score must be unset on a fresh session")
	}

	unique := make(map[int64]bool)
	for _, id := range session.QuestionIDs {
		if unique[id] {
			t.Errorf("question %d appears twice in the session", id)
		}
		unique[id] = true
	}
}

func TestStartSessionUnscopedModesDropScope(t *testing.T) {
	store := newFakeStore(4)
	service := newTestService(store)

	categoryID := int64(7)
	subcategoryID := int64(9)

	for _, mode := range []models.SessionMode{models.ModeRandom, models.ModeCertification} {
		session, err := service.StartSession(1, models.StartSessionRequest{
			Mode:          mode,
			CategoryID:    &categoryID,
			SubcategoryID: &subcategoryID,
			QuestionCount: 2,
		})
		if err != nil {
			t.Fatalf("StartSession in %s mode failed: %v", mode, err)
		}
		// These modes draw from the whole pool, so the session must not
		// record a scope that was never applied.
		if session.CategoryID != nil {
			t.Errorf("%s mode: category %d recorded on the session", mode, *session.CategoryID)
		}
		if session.SubcategoryID != nil {
			t.Errorf("%s mode: subcategory %d recorded on the session", mode, *session.SubcategoryID)
		}
	}
}

func TestStartSessionAbandonsPrevious(t *testing.T) {
	store := newFakeStore(10)
	service := newTestService(store)

	first, err := service.StartSession(1, models.StartSessionRequest{QuestionCount: 3})
	if err != nil {
		t.Fatalf("first StartSession failed: %v", err)
	}
	second, err := service.StartSession(1, models.StartSessionRequest{QuestionCount: 3})
	if err != nil {
		t.Fatalf("second StartSession failed: %v", err)
	}

	inProgress := 0
	for _, s := range store.sessions {
		if s.Status == models.SessionInProgress {
			inProgress++
		}
	}
	if inProgress != 1 {
		t.Errorf("expected exactly one in-progress session, got %d", inProgress)
	}
	if store.sessions[first.ID].Status != models.SessionAbandoned {
		t.Errorf("first session should be abandoned, got %s", store.sessions[first.ID].Status)
	}
	if store.sessions[second.ID].Status != models.SessionInProgress {
		t.Errorf("second session should be in progress, got %s", store.sessions[second.ID].Status)
	}
}

func TestSessionLifecycleAllCorrect(t *testing.T) {
	store := newFakeStore(10)
	service := newTestService(store)

	session, err := service.StartSession(1, models.StartSessionRequest{QuestionCount: 5})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	var lastResp *models.SubmitAnswerResponse
	for i := 0; i < 5; i++ {
		question, _, err := service.CurrentQuestion(1)
		if err != nil {
			t.Fatalf("CurrentQuestion at step %d failed: %v", i, err)
		}

		resp, err := service.SubmitAnswer(1, []int64{correctAnswerID(question.ID)})
		if err != nil {
			t.Fatalf("SubmitAnswer at step %d failed: %v", i, err)
		}
		if !resp.Correct {
			t.Errorf("step %d: expected a correct evaluation", i)
		}

		// Counter invariant holds after every submission.
		current := store.sessions[session.ID]
		if current.CorrectAnswers+current.IncorrectAnswers != current.CurrentIndex {
			t.Errorf("step %d: correct(%d)+incorrect(%d) != index(%d)",
				i, current.CorrectAnswers, current.IncorrectAnswers, current.CurrentIndex)
		}
		if current.CurrentIndex > current.TotalQuestions() {
			t.Errorf("step %d: index %d beyond total %d", i, current.CurrentIndex, current.TotalQuestions())
		}
		if i < 4 && current.Score != nil {
			t.Errorf("step %d: score must stay unset while in progress", i)
		}
		lastResp = resp
	}

	final := store.sessions[session.ID]
	if final.Status != models.SessionCompleted {
		t.Errorf("expected completed, got %s", final.Status)
	}
	if final.CorrectAnswers != 5 {
		t.Errorf("expected 5 correct answers, got %d", final.CorrectAnswers)
	}
	if final.Score == nil || *final.Score != 100.0 {
		t.Errorf("expected score 100.0, got %v", final.Score)
	}
	if final.CompletedAt == nil {
		t.Error("completed session must carry a completion timestamp")
	}
	if !lastResp.SessionCompleted {
		t.Error("final submission should report session completion")
	}

	// Each answer took one 30s clock tick.
	if final.ElapsedSeconds != 150 {
		t.Errorf("expected 150 elapsed seconds, got %f", final.ElapsedSeconds)
	}
}

func TestSubmitMixedAnswers(t *testing.T) {
	store := newFakeStore(4)
	service := newTestService(store)

	session, err := service.StartSession(1, models.StartSessionRequest{QuestionCount: 2})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	// Wrong answer first: pick a known-incorrect choice.
	question, _, err := service.CurrentQuestion(1)
	if err != nil {
		t.Fatalf("CurrentQuestion failed: %v", err)
	}
	resp, err := service.SubmitAnswer(1, []int64{question.ID*10 + 2})
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if resp.Correct {
		t.Error("incorrect choice must evaluate as wrong")
	}

	question, _, err = service.CurrentQuestion(1)
	if err != nil {
		t.Fatalf("CurrentQuestion failed: %v", err)
	}
	if _, err := service.SubmitAnswer(1, []int64{correctAnswerID(question.ID)}); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	final := store.sessions[session.ID]
	if final.Status != models.SessionCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if final.CorrectAnswers != 1 || final.IncorrectAnswers != 1 {
		t.Errorf("expected 1 correct / 1 incorrect, got %d/%d", final.CorrectAnswers, final.IncorrectAnswers)
	}
	if final.Score == nil || *final.Score != 50.0 {
		t.Errorf("expected score 50.0, got %v", final.Score)
	}
}

func TestSubmitEmptySelection(t *testing.T) {
	store := newFakeStore(2)
	service := newTestService(store)

	if _, err := service.StartSession(1, models.StartSessionRequest{QuestionCount: 1}); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	// An empty submission is valid and evaluates as incorrect.
	resp, err := service.SubmitAnswer(1, nil)
	if err != nil {
		t.Fatalf("SubmitAnswer with empty selection failed: %v", err)
	}
	if resp.Correct {
		t.Error("empty selection must evaluate as incorrect")
	}
}

func TestSubmitFiltersMalformedIDs(t *testing.T) {
	store := newFakeStore(2)
	service := newTestService(store)

	if _, err := service.StartSession(1, models.StartSessionRequest{QuestionCount: 1}); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	question, _, err := service.CurrentQuestion(1)
	if err != nil {
		t.Fatalf("CurrentQuestion failed: %v", err)
	}

	// Non-positive ids are discarded before evaluation.
	resp, err := service.SubmitAnswer(1, []int64{-3, 0, correctAnswerID(question.ID)})
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if !resp.Correct {
		t.Error("selection should be correct after malformed ids are filtered")
	}

	if len(store.answers) != 1 {
		t.Fatalf("expected one recorded answer, got %d", len(store.answers))
	}
	recorded := store.answers[0].SelectedAnswerIDs
	if len(recorded) != 1 || recorded[0] != correctAnswerID(question.ID) {
		t.Errorf("recorded selection should contain only the cleaned id, got %v", recorded)
	}
}

func TestSubmitWithoutActiveSession(t *testing.T) {
	store := newFakeStore(3)
	service := newTestService(store)

	if _, err := service.SubmitAnswer(1, []int64{11}); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession, got %v", err)
	}

	// Completing a session puts the learner back into the no-session state.
	if _, err := service.StartSession(1, models.StartSessionRequest{QuestionCount: 1}); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	question, _, err := service.CurrentQuestion(1)
	if err != nil {
		t.Fatalf("CurrentQuestion failed: %v", err)
	}
	if _, err := service.SubmitAnswer(1, []int64{correctAnswerID(question.ID)}); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if _, err := service.SubmitAnswer(1, []int64{11}); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession after completion, got %v", err)
	}
}

func TestAbandonIsIdempotent(t *testing.T) {
	store := newFakeStore(3)
	service := newTestService(store)

	// No active session: still a no-op, not an error.
	if err := service.Abandon(1); err != nil {
		t.Fatalf("Abandon with no session should be a no-op, got %v", err)
	}

	session, err := service.StartSession(1, models.StartSessionRequest{QuestionCount: 2})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := service.Abandon(1); err != nil {
		t.Fatalf("Abandon failed: %v", err)
	}
	if store.sessions[session.ID].Status != models.SessionAbandoned {
		t.Errorf("expected abandoned, got %s", store.sessions[session.ID].Status)
	}
	if err := service.Abandon(1); err != nil {
		t.Fatalf("second Abandon should be a no-op, got %v", err)
	}
	if store.sessions[session.ID].Status != models.SessionAbandoned {
		t.Errorf("terminal state must not change, got %s", store.sessions[session.ID].Status)
	}
}

func TestProgress(t *testing.T) {
	store := newFakeStore(8)
	service := newTestService(store)

	if _, err := service.Progress(1); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("expected ErrNoActiveSession, got %v", err)
	}

	if _, err := service.StartSession(1, models.StartSessionRequest{QuestionCount: 4}); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	question, _, err := service.CurrentQuestion(1)
	if err != nil {
		t.Fatalf("CurrentQuestion failed: %v", err)
	}
	if _, err := service.SubmitAnswer(1, []int64{correctAnswerID(question.ID)}); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}

	progress, err := service.Progress(1)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if progress.CurrentIndex != 1 || progress.TotalQuestions != 4 {
		t.Errorf("expected 1/4, got %d/%d", progress.CurrentIndex, progress.TotalQuestions)
	}
	if progress.Percentage != 25.0 {
		t.Errorf("expected 25%%, got %f", progress.Percentage)
	}
}

func TestResults(t *testing.T) {
	store := newFakeStore(6)
	service := newTestService(store)

	session, err := service.StartSession(1, models.StartSessionRequest{QuestionCount: 3})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		question, _, err := service.CurrentQuestion(1)
		if err != nil {
			t.Fatalf("CurrentQuestion failed: %v", err)
		}
		if _, err := service.SubmitAnswer(1, []int64{correctAnswerID(question.ID)}); err != nil {
			t.Fatalf("SubmitAnswer failed: %v", err)
		}
	}

	results, err := service.Results(1, session.ID)
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if len(results.Answers) != 3 {
		t.Errorf("expected 3 answers, got %d", len(results.Answers))
	}
	if len(results.Questions) != 3 {
		t.Errorf("expected 3 questions, got %d", len(results.Questions))
	}
	// Questions come back in presentation order.
	for i, q := range results.Questions {
		if q.ID != results.Session.QuestionIDs[i] {
			t.Errorf("question %d out of order: got id %d, want %d", i, q.ID, results.Session.QuestionIDs[i])
		}
	}

	// Results must not leak across learners.
	if _, err := service.Results(2, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound for another learner, got %v", err)
	}
}
