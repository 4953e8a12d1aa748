package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

// schema is applied in order on every Open. Each statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id           INTEGER PRIMARY KEY,
		username          TEXT NOT NULL DEFAULT '',
		correct_answers   INTEGER NOT NULL DEFAULT 0,
		total_answers     INTEGER NOT NULL DEFAULT 0,
		registration_date DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		question_id         TEXT PRIMARY KEY,
		unit_number         INTEGER NOT NULL,
		skill_id            TEXT NOT NULL,
		question_text       TEXT NOT NULL,
		options             TEXT,
		correct_answer      TEXT NOT NULL,
		explanation         TEXT NOT NULL,
		representation_type TEXT NOT NULL,
		difficulty          TEXT NOT NULL,
		calculator_active   BOOLEAN NOT NULL DEFAULT 0,
		generated_at        DATETIME NOT NULL,
		is_disabled         BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS questions_unit_skill ON questions (unit_number, skill_id)`,
	`CREATE TABLE IF NOT EXISTS reports (
		report_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id TEXT NOT NULL REFERENCES questions (question_id) ON DELETE CASCADE,
		user_id     INTEGER NOT NULL REFERENCES users (user_id),
		reason      TEXT NOT NULL,
		report_date DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		answer_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER NOT NULL REFERENCES users (user_id),
		question_id TEXT NOT NULL REFERENCES questions (question_id) ON DELETE CASCADE,
		is_correct  BOOLEAN NOT NULL,
		user_answer TEXT NOT NULL,
		timestamp   DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS answers_user ON answers (user_id)`,
	`CREATE TABLE IF NOT EXISTS llm_requests (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id      TEXT NOT NULL UNIQUE,
		created_at    DATETIME NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
}

func migrate(ctx context.Context, drv *entsql.Driver) error {
	for _, stmt := range schema {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("apply %.40q: %w", stmt, err)
		}
	}
	return nil
}
