package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type userRepo struct {
	drv *entsql.Driver
}

var userColumns = []string{"user_id", "username", "correct_answers", "total_answers", "registration_date"}

func (r *userRepo) EnsureUser(ctx context.Context, userID int64, username string) error {
	return ensureUser(ctx, r.drv, userID, username, true)
}

// ensureUser inserts the user row. With rename set, an existing row gets
// the new username; otherwise it is left untouched.
func ensureUser(ctx context.Context, conn dialect.ExecQuerier, userID int64, username string, rename bool) error {
	resolve := entsql.DoNothing()
	if rename {
		resolve = entsql.ResolveWith(func(u *entsql.UpdateSet) {
			u.SetExcluded("username")
		})
	}
	query, args := builder().Insert("users").
		Columns("user_id", "username", "registration_date").
		Values(userID, username, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("user_id"), resolve).
		Query()

	if err := conn.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}
	return nil
}

func (r *userRepo) RecordAnswer(ctx context.Context, userID int64, questionID string, correct bool, answer string) error {
	tx, err := r.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := recordAnswer(ctx, tx, userID, questionID, correct, answer); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit answer: %w", err)
	}
	return nil
}

func recordAnswer(ctx context.Context, tx dialect.Tx, userID int64, questionID string, correct bool, answer string) error {
	if err := ensureUser(ctx, tx, userID, "", false); err != nil {
		return err
	}

	query, args := builder().Insert("answers").
		Columns("user_id", "question_id", "is_correct", "user_answer", "timestamp").
		Values(userID, questionID, correct, answer, time.Now().UTC()).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}

	inc := 0
	if correct {
		inc = 1
	}
	query, args = builder().Update("users").
		Add("total_answers", 1).
		Add("correct_answers", inc).
		Where(entsql.EQ("user_id", userID)).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("update user totals: %w", err)
	}
	return nil
}

func (r *userRepo) UserStats(ctx context.Context, userID int64) (*UserStats, error) {
	sel := builder().Select(userColumns...).
		From(builder().Table("users")).
		Where(entsql.EQ("user_id", userID))

	users, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return &users[0], nil
}

func (r *userRepo) Leaderboard(ctx context.Context, limit int) ([]UserStats, error) {
	sel := builder().Select(userColumns...).
		From(builder().Table("users")).
		Where(entsql.GT("total_answers", 0)).
		OrderBy(entsql.Desc("correct_answers"), "total_answers", "user_id")
	if limit > 0 {
		sel.Limit(limit)
	}
	return r.query(ctx, sel)
}

func (r *userRepo) query(ctx context.Context, sel *entsql.Selector) ([]UserStats, error) {
	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []UserStats
	for rows.Next() {
		var (
			u    UserStats
			name sql.NullString
		)
		if err := rows.Scan(&u.UserID, &name, &u.Correct, &u.Total, &u.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Username = name.String
		out = append(out, u)
	}
	return out, rows.Err()
}
