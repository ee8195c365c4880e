package quiz

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/certprep/backend/internal/models"
)

// PostgresStore backs the engine with the questions, quiz_sessions and
// user_answers tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ── Pool Provider ───────────────────────────────────────

func (s *PostgresStore) ActiveQuestionIDs(mode models.SessionMode, categoryID, subcategoryID *int64) ([]int64, error) {
	query := `SELECT id FROM questions WHERE active = TRUE`
	args := []interface{}{}

	switch mode {
	case models.ModeCertification:
		query += ` AND certification_eligible = TRUE`
	case models.ModeCategory:
		if categoryID != nil {
			query += ` AND category_id = $1`
			args = append(args, *categoryID)
		}
	case models.ModeSubcategory:
		if subcategoryID != nil {
			query += ` AND subcategory_id = $1`
			args = append(args, *subcategoryID)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch question ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) QuestionsByID(ids []int64) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(
		`SELECT q.id, q.text, q.qtype, q.category_id, q.subcategory_id,
		        q.active, q.certification_eligible, q.created_at,
		        a.id, a.answer_text, a.is_correct
		 FROM questions q
		 JOIN question_answers a ON a.question_id = q.id
		 WHERE q.id = ANY($1)
		 ORDER BY q.id, a.id`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer rows.Close()

	questionMap := make(map[int64]*models.Question)
	var order []int64

	for rows.Next() {
		var q models.Question
		var a models.Answer
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &q.CategoryID, &q.SubcategoryID,
			&q.Active, &q.CertificationEligible, &q.CreatedAt,
			&a.ID, &a.Text, &a.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		a.QuestionID = q.ID

		if existing, ok := questionMap[q.ID]; ok {
			existing.Answers = append(existing.Answers, a)
		} else {
			q.Answers = []models.Answer{a}
			questionMap[q.ID] = &q
			order = append(order, q.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	questions := make([]models.Question, 0, len(order))
	for _, id := range order {
		questions = append(questions, *questionMap[id])
	}
	return questions, nil
}

// ── Progress Provider ───────────────────────────────────

func (s *PostgresStore) SeenQuestionIDs(userID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT ua.question_id
		 FROM user_answers ua
		 JOIN quiz_sessions qs ON qs.id = ua.session_id
		 WHERE qs.user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch seen questions: %w", err)
	}
	defer rows.Close()

	seen := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seen question: %w", err)
		}
		seen[id] = true
	}
	return seen, rows.Err()
}

func (s *PostgresStore) FailureRates(userID int64) (map[int64]float64, error) {
	rows, err := s.db.Query(
		`SELECT ua.question_id,
		        100.0 * COUNT(*) FILTER (WHERE NOT ua.correct) / COUNT(*)
		 FROM user_answers ua
		 JOIN quiz_sessions qs ON qs.id = ua.session_id
		 WHERE qs.user_id = $1
		 GROUP BY ua.question_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch failure rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[int64]float64)
	for rows.Next() {
		var id int64
		var rate float64
		if err := rows.Scan(&id, &rate); err != nil {
			return nil, fmt.Errorf("scan failure rate: %w", err)
		}
		rates[id] = rate
	}
	return rates, rows.Err()
}

// ── Session Persistence ─────────────────────────────────

const sessionColumns = `id, user_id, category_id, subcategory_id, mode, question_ids,
	current_index, correct_answers, incorrect_answers, status, score,
	started_at, completed_at, last_answer_at, elapsed_seconds`

func (s *PostgresStore) ActiveSession(userID int64) (*models.QuizSession, error) {
	row := s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM quiz_sessions WHERE user_id = $1 AND status = $2`, sessionColumns),
		userID, models.SessionInProgress,
	)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch active session: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) SessionByID(sessionID int64) (*models.QuizSession, error) {
	row := s.db.QueryRow(
		fmt.Sprintf(`SELECT %s FROM quiz_sessions WHERE id = $1`, sessionColumns),
		sessionID,
	)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	return session, nil
}

func scanSession(row *sql.Row) (*models.QuizSession, error) {
	var session models.QuizSession
	var questionIDs pq.Int64Array
	err := row.Scan(&session.ID, &session.UserID, &session.CategoryID, &session.SubcategoryID,
		&session.Mode, &questionIDs,
		&session.CurrentIndex, &session.CorrectAnswers, &session.IncorrectAnswers,
		&session.Status, &session.Score,
		&session.StartedAt, &session.CompletedAt, &session.LastAnswerAt, &session.ElapsedSeconds)
	if err != nil {
		return nil, err
	}
	session.QuestionIDs = []int64(questionIDs)
	return &session, nil
}

func (s *PostgresStore) CreateSession(session *models.QuizSession) error {
	err := s.db.QueryRow(
		`INSERT INTO quiz_sessions
		 (user_id, category_id, subcategory_id, mode, question_ids, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		session.UserID, session.CategoryID, session.SubcategoryID, session.Mode,
		pq.Array(session.QuestionIDs), session.Status, session.StartedAt,
	).Scan(&session.ID)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateSession(session *models.QuizSession) error {
	_, err := s.db.Exec(
		`UPDATE quiz_sessions
		 SET current_index = $1, correct_answers = $2, incorrect_answers = $3,
		     status = $4, score = $5, completed_at = $6, last_answer_at = $7,
		     elapsed_seconds = $8
		 WHERE id = $9`,
		session.CurrentIndex, session.CorrectAnswers, session.IncorrectAnswers,
		session.Status, session.Score, session.CompletedAt, session.LastAnswerAt,
		session.ElapsedSeconds, session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertAnswer(answer *models.UserAnswer) error {
	err := s.db.QueryRow(
		`INSERT INTO user_answers
		 (session_id, question_id, selected_answer_ids, correct, time_spent_seconds, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		answer.SessionID, answer.QuestionID, pq.Array(answer.SelectedAnswerIDs),
		answer.Correct, answer.TimeSpentSeconds, answer.AnsweredAt,
	).Scan(&answer.ID)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

func (s *PostgresStore) SessionAnswers(sessionID int64) ([]models.UserAnswer, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, question_id, selected_answer_ids, correct,
		        time_spent_seconds, answered_at
		 FROM user_answers WHERE session_id = $1 ORDER BY answered_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch session answers: %w", err)
	}
	defer rows.Close()

	var answers []models.UserAnswer
	for rows.Next() {
		var a models.UserAnswer
		var selected pq.Int64Array
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &selected,
			&a.Correct, &a.TimeSpentSeconds, &a.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		a.SelectedAnswerIDs = []int64(selected)
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
