package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type reportRepo struct {
	drv *entsql.Driver
}

func (r *reportRepo) ReportQuestion(ctx context.Context, questionID string, userID int64, reason string) error {
	if _, err := (&questionRepo{drv: r.drv}).GetQuestion(ctx, questionID); err != nil {
		return err
	}
	if err := ensureUser(ctx, r.drv, userID, "", false); err != nil {
		return err
	}

	query, args := builder().Insert("reports").
		Columns("question_id", "user_id", "reason", "report_date").
		Values(questionID, userID, reason, time.Now().UTC()).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *reportRepo) ActiveReports(ctx context.Context) ([]Report, error) {
	b := builder()
	rep := b.Table("reports")
	q := b.Table("questions")
	query, args := b.Select(
		rep.C("report_id"),
		rep.C("question_id"),
		rep.C("user_id"),
		rep.C("reason"),
		rep.C("report_date"),
		q.C("question_text"),
	).
		From(rep).
		LeftJoin(q).On(rep.C("question_id"), q.C("question_id")).
		OrderBy(rep.C("question_id"), rep.C("report_id")).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var (
			rp   Report
			text sql.NullString
		)
		if err := rows.Scan(&rp.ID, &rp.QuestionID, &rp.UserID, &rp.Reason, &rp.ReportedAt, &text); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		rp.QuestionText = text.String
		out = append(out, rp)
	}
	return out, rows.Err()
}

func (r *reportRepo) ClearReports(ctx context.Context, questionID string) (int64, error) {
	query, args := builder().Delete("reports").
		Where(entsql.EQ("question_id", questionID)).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return 0, fmt.Errorf("clear reports of %s: %w", questionID, err)
	}
	return res.RowsAffected()
}
