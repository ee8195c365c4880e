package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/certprep/backend/internal/config"
)

func Connect(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS categories (
		id     BIGSERIAL PRIMARY KEY,
		name   VARCHAR(255) NOT NULL,
		weight INT NOT NULL DEFAULT 1,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS subcategories (
		id          BIGSERIAL PRIMARY KEY,
		category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		name        VARCHAR(255) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_subcategories_category ON subcategories(category_id);

	CREATE TABLE IF NOT EXISTS questions (
		id                     BIGSERIAL PRIMARY KEY,
		text                   TEXT NOT NULL,
		qtype                  VARCHAR(20) NOT NULL,
		category_id            BIGINT NOT NULL REFERENCES categories(id),
		subcategory_id         BIGINT REFERENCES subcategories(id),
		active                 BOOLEAN NOT NULL DEFAULT TRUE,
		certification_eligible BOOLEAN NOT NULL DEFAULT TRUE,
		created_at             TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category_id, active);
	CREATE INDEX IF NOT EXISTS idx_questions_subcategory ON questions(subcategory_id) WHERE subcategory_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_questions_certification ON questions(certification_eligible) WHERE active = TRUE;

	CREATE TABLE IF NOT EXISTS question_answers (
		id          BIGSERIAL PRIMARY KEY,
		question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		answer_text TEXT NOT NULL,
		is_correct  BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_answers_question ON question_answers(question_id);

	CREATE TABLE IF NOT EXISTS quiz_sessions (
		id                BIGSERIAL PRIMARY KEY,
		user_id           BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		category_id       BIGINT REFERENCES categories(id),
		subcategory_id    BIGINT REFERENCES subcategories(id),
		mode              VARCHAR(20) NOT NULL,
		question_ids      BIGINT[] NOT NULL,
		current_index     INT NOT NULL DEFAULT 0,
		correct_answers   INT NOT NULL DEFAULT 0,
		incorrect_answers INT NOT NULL DEFAULT 0,
		status            VARCHAR(20) NOT NULL DEFAULT 'in_progress',
		score             DOUBLE PRECISION,
		started_at        TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		completed_at      TIMESTAMP WITH TIME ZONE,
		last_answer_at    TIMESTAMP WITH TIME ZONE,
		elapsed_seconds   DOUBLE PRECISION NOT NULL DEFAULT 0,
		CHECK (correct_answers + incorrect_answers = current_index)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user ON quiz_sessions(user_id, started_at DESC);

	CREATE TABLE IF NOT EXISTS user_answers (
		id                  BIGSERIAL PRIMARY KEY,
		session_id          BIGINT NOT NULL REFERENCES quiz_sessions(id) ON DELETE CASCADE,
		question_id         BIGINT NOT NULL REFERENCES questions(id),
		selected_answer_ids BIGINT[] NOT NULL DEFAULT '{}',
		correct             BOOLEAN NOT NULL,
		time_spent_seconds  DOUBLE PRECISION NOT NULL DEFAULT 0,
		answered_at         TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		UNIQUE(session_id, question_id)
	);

	CREATE INDEX IF NOT EXISTS idx_user_answers_session ON user_answers(session_id);
	CREATE INDEX IF NOT EXISTS idx_user_answers_question ON user_answers(question_id);
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// One in-progress session per learner, enforced by the database so
	// concurrent starts cannot race past the service-level check.
	_, err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active
		ON quiz_sessions(user_id) WHERE status = 'in_progress'`)
	if err != nil {
		return fmt.Errorf("create active-session index: %w", err)
	}

	return nil
}
