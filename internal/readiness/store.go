package readiness

import (
	"database/sql"
	"fmt"

	"github.com/certprep/backend/internal/models"
)

// PostgresStore aggregates answer history across all of a learner's
// sessions. Readiness never reads a single session.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CountQuestions() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM questions WHERE active = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountCategories() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM categories WHERE active = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountSeenQuestions(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(DISTINCT ua.question_id)
		 FROM user_answers ua
		 JOIN quiz_sessions qs ON qs.id = ua.session_id
		 WHERE qs.user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count seen questions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) OverallSuccessRate(userID int64) (float64, error) {
	var rate float64
	err := s.db.QueryRow(
		`SELECT COALESCE(100.0 * COUNT(*) FILTER (WHERE ua.correct) / NULLIF(COUNT(*), 0), 0)
		 FROM user_answers ua
		 JOIN quiz_sessions qs ON qs.id = ua.session_id
		 WHERE qs.user_id = $1`,
		userID,
	).Scan(&rate)
	if err != nil {
		return 0, fmt.Errorf("fetch success rate: %w", err)
	}
	return rate, nil
}

func (s *PostgresStore) CategoryAttemptCounts(userID int64) (map[int64]int, error) {
	rows, err := s.db.Query(
		`SELECT q.category_id, COUNT(*)
		 FROM user_answers ua
		 JOIN quiz_sessions qs ON qs.id = ua.session_id
		 JOIN questions q ON q.id = ua.question_id
		 WHERE qs.user_id = $1
		 GROUP BY q.category_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch category attempts: %w", err)
	}
	defer rows.Close()

	attempts := make(map[int64]int)
	for rows.Next() {
		var categoryID int64
		var count int
		if err := rows.Scan(&categoryID, &count); err != nil {
			return nil, fmt.Errorf("scan category attempts: %w", err)
		}
		attempts[categoryID] = count
	}
	return attempts, rows.Err()
}

func (s *PostgresStore) CategoryTopicStats(userID int64) ([]models.TopicScore, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.name, c.weight,
		        COALESCE(100.0 * COUNT(ua.id) FILTER (WHERE ua.correct) / NULLIF(COUNT(ua.id), 0), 0),
		        COALESCE(100.0 * COUNT(DISTINCT ua.question_id) /
		                 NULLIF((SELECT COUNT(*) FROM questions q2
		                         WHERE q2.category_id = c.id AND q2.active = TRUE), 0), 0)
		 FROM categories c
		 LEFT JOIN questions q ON q.category_id = c.id AND q.active = TRUE
		 LEFT JOIN user_answers ua ON ua.question_id = q.id
		      AND ua.session_id IN (SELECT id FROM quiz_sessions WHERE user_id = $1)
		 WHERE c.active = TRUE
		 GROUP BY c.id, c.name, c.weight
		 ORDER BY c.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch topic stats: %w", err)
	}
	defer rows.Close()

	var topics []models.TopicScore
	for rows.Next() {
		var t models.TopicScore
		if err := rows.Scan(&t.CategoryID, &t.CategoryName, &t.Weight, &t.AverageScore, &t.Coverage); err != nil {
			return nil, fmt.Errorf("scan topic stats: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}
