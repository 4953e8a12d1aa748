package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const snippetLen = 150

var questionColumns = []string{
	"question_id",
	"unit_number",
	"skill_id",
	"question_text",
	"options",
	"correct_answer",
	"explanation",
	"representation_type",
	"difficulty",
	"calculator_active",
	"is_disabled",
	"generated_at",
}

type questionRepo struct {
	drv *entsql.Driver
}

func (r *questionRepo) AddQuestion(ctx context.Context, q *Question) (bool, error) {
	var options any
	if q.Options != nil {
		raw, err := json.Marshal(q.Options)
		if err != nil {
			return false, fmt.Errorf("encode options: %w", err)
		}
		options = string(raw)
	}
	generated := q.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}

	query, args := builder().Insert("questions").
		Columns(questionColumns...).
		Values(q.ID, q.Unit, q.SkillID, q.Text, options, q.CorrectAnswer, q.Explanation,
			string(q.Kind), string(q.Difficulty), q.Calculator, q.Disabled, generated).
		OnConflict(entsql.ConflictColumns("question_id"), entsql.DoNothing()).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return false, fmt.Errorf("insert question %s: %w", q.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert question %s: %w", q.ID, err)
	}
	return n == 1, nil
}

func (r *questionRepo) GetQuestion(ctx context.Context, id string) (*Question, error) {
	sel := builder().Select(questionColumns...).
		From(builder().Table("questions")).
		Where(entsql.EQ("question_id", id))

	qs, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return qs[0], nil
}

func (r *questionRepo) QuestionsByUnits(ctx context.Context, units []int) ([]*Question, error) {
	if len(units) == 0 {
		return nil, nil
	}
	args := make([]any, len(units))
	for i, u := range units {
		args[i] = u
	}
	sel := enabledQuestions().Where(entsql.In("unit_number", args...))
	return r.query(ctx, sel)
}

func (r *questionRepo) QuestionsBySkill(ctx context.Context, unit int, skillID string) ([]*Question, error) {
	sel := enabledQuestions().
		Where(entsql.EQ("unit_number", unit)).
		Where(entsql.EQ("skill_id", skillID))
	return r.query(ctx, sel)
}

func (r *questionRepo) RandomQuestion(ctx context.Context, f QuestionFilter) (*Question, error) {
	sel := applyFilter(enabledQuestions(), f).
		OrderExpr(entsql.Expr("RANDOM()")).
		Limit(1)

	qs, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, nil
	}
	return qs[0], nil
}

func (r *questionRepo) SetDisabled(ctx context.Context, id string, disabled bool) error {
	query, args := builder().Update("questions").
		Set("is_disabled", disabled).
		Where(entsql.EQ("question_id", id)).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("update question %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *questionRepo) DeleteAllQuestions(ctx context.Context) (int64, error) {
	query, args := builder().Delete("questions").Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("delete questions: %w", err)
	}
	return res.RowsAffected()
}

func (r *questionRepo) CountQuestions(ctx context.Context) (int, error) {
	query, args := builder().Select(entsql.Count("*")).
		From(builder().Table("questions")).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("count questions: %w", err)
		}
	}
	return n, rows.Err()
}

func (r *questionRepo) RecentQuestions(ctx context.Context, limit int, f QuestionFilter) ([]QuestionSummary, error) {
	sel := applyFilter(builder().Select(questionColumns...).From(builder().Table("questions")), f).
		OrderBy(entsql.Desc("generated_at"), entsql.Desc("question_id"))
	if limit > 0 {
		sel.Limit(limit)
	}

	qs, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}

	out := make([]QuestionSummary, len(qs))
	for i, q := range qs {
		out[i] = QuestionSummary{
			ID:          q.ID,
			Unit:        q.Unit,
			SkillID:     q.SkillID,
			Kind:        q.Kind,
			Difficulty:  q.Difficulty,
			Disabled:    q.Disabled,
			Snippet:     snippet(q.Text, snippetLen),
			GeneratedAt: q.GeneratedAt,
		}
	}
	return out, nil
}

func (r *questionRepo) query(ctx context.Context, sel *entsql.Selector) ([]*Question, error) {
	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []*Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuestion(rows *entsql.Rows) (*Question, error) {
	var (
		q          Question
		options    sql.NullString
		kind, diff string
	)
	err := rows.Scan(&q.ID, &q.Unit, &q.SkillID, &q.Text, &options, &q.CorrectAnswer,
		&q.Explanation, &kind, &diff, &q.Calculator, &q.Disabled, &q.GeneratedAt)
	if err != nil {
		return nil, fmt.Errorf("scan question: %w", err)
	}
	q.Kind = Kind(kind)
	q.Difficulty = Difficulty(diff)

	if options.Valid && options.String != "" {
		if err := json.Unmarshal([]byte(options.String), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", q.ID, err)
		}
	}
	return &q, nil
}

func enabledQuestions() *entsql.Selector {
	return builder().Select(questionColumns...).
		From(builder().Table("questions")).
		Where(entsql.EQ("is_disabled", false))
}

func applyFilter(sel *entsql.Selector, f QuestionFilter) *entsql.Selector {
	if f.Unit > 0 {
		sel.Where(entsql.EQ("unit_number", f.Unit))
	}
	if f.SkillID != "" {
		sel.Where(entsql.EQ("skill_id", f.SkillID))
	}
	if f.EnabledOnly {
		sel.Where(entsql.EQ("is_disabled", false))
	}
	return sel
}

// snippet shortens s to at most n runes, marking the cut with "...".
func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
