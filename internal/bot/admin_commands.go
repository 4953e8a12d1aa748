package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/abhisek/calcbot/internal/curriculum"
	"github.com/abhisek/calcbot/internal/metrics"
	"github.com/abhisek/calcbot/internal/questiongen"
	"github.com/abhisek/calcbot/internal/store"
)

const (
	maxPopulate         = 50
	defaultOverviewSize = 10
	maxOverviewSize     = 50
)

func (b *Bot) populate(ctx context.Context, req *request) {
	if len(req.args) != 2 {
		b.usage(req, "populatedb")
		return
	}
	if b.deps.Generator == nil {
		b.reply(req.chatID, "❌ Question generation is not configured.")
		return
	}
	unit, err := strconv.Atoi(req.args[0])
	if err != nil {
		b.usage(req, "populatedb")
		return
	}
	if _, err := curriculum.GetUnit(unit); err != nil {
		b.reply(req.chatID, fmt.Sprintf("❌ Invalid unit number: %d. Choose from %s.", unit, unitList()))
		return
	}
	n, err := strconv.Atoi(req.args[1])
	if err != nil || n <= 0 {
		b.reply(req.chatID, "❌ Number of questions must be positive.")
		return
	}
	if n > maxPopulate {
		b.reply(req.chatID, fmt.Sprintf("❌ At most %d questions can be generated at once.", maxPopulate))
		return
	}
	if !b.populating.CompareAndSwap(false, true) {
		b.reply(req.chatID, "⏳ A population run is already in progress.")
		return
	}

	b.reply(req.chatID, fmt.Sprintf("⏳ Generating %d questions for Unit %d. This may take a while...", n, unit))
	b.log.Info("population started", "admin", req.userID, "unit", unit, "count", n)

	b.background.Add(1)
	go func() {
		defer b.background.Done()
		defer b.populating.Store(false)
		b.runPopulate(ctx, req.chatID, unit, n)
	}()
}

func (b *Bot) runPopulate(ctx context.Context, chatID int64, unit, n int) {
	b.rngMu.Lock()
	rng := newRand(b.rng)
	b.rngMu.Unlock()

	progress := func(done, total int, _ questiongen.PopulateResult, err error) {
		if err != nil {
			b.log.Warn("question generation failed", "unit", unit, "attempt", done, "error", err)
			b.reply(chatID, fmt.Sprintf("⚠️ Question %d/%d failed. Check the logs for details.", done, total))
			return
		}
		b.reply(chatID, fmt.Sprintf("✅ Question %d/%d done.", done, total))
	}

	res, err := questiongen.Populate(ctx, b.deps.Generator, b.deps.Questions, unit, n, rng, progress)
	if b.deps.Metrics != nil {
		b.deps.Metrics.Populated(res.Created, res.Duplicates, res.Failed)
	}
	if err != nil {
		b.log.Warn("population interrupted", "unit", unit, "error", err)
		b.reply(chatID, fmt.Sprintf("⚠️ Population for Unit %d was interrupted after %d questions.", unit, res.Total()))
		return
	}

	b.log.Info("population finished", "unit", unit, "created", res.Created, "duplicates", res.Duplicates, "failed", res.Failed)
	b.reply(chatID, fmt.Sprintf("🎉 Population complete for Unit %d! Added %d questions (%d duplicates, %d failed).",
		unit, res.Created, res.Duplicates, res.Failed))
}

func (b *Bot) viewReports(ctx context.Context, req *request) {
	reports, err := b.deps.Reports.ActiveReports(ctx)
	if err != nil {
		b.log.Error("failed to load reports", "error", err)
		b.reply(req.chatID, msgTransient)
		return
	}
	if len(reports) == 0 {
		b.reply(req.chatID, "✅ No active question reports at this time.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Active question reports</b> (%d)\n", len(reports))
	for i, r := range reports {
		if i == 0 || reports[i-1].QuestionID != r.QuestionID {
			fmt.Fprintf(&sb, "\n<b>%s</b> %s\n", code(r.QuestionID), escape(snippet(r.QuestionText, 80)))
		}
		fmt.Fprintf(&sb, "• user %d on %s: %s\n", r.UserID, r.ReportedAt.Format("2006-01-02"), escape(r.Reason))
	}
	sb.WriteString("\nUse /clearreport &lt;id&gt; to clear reports or /disablequestion &lt;id&gt; to disable a question.")
	b.reply(req.chatID, sb.String())
}

func (b *Bot) clearReport(ctx context.Context, req *request) {
	if len(req.args) != 1 {
		b.usage(req, "clearreport")
		return
	}
	id := req.args[0]
	n, err := b.deps.Reports.ClearReports(ctx, id)
	if err != nil {
		b.log.Error("failed to clear reports", "id", id, "error", err)
		b.reply(req.chatID, msgTransient)
		return
	}
	if n == 0 {
		b.reply(req.chatID, fmt.Sprintf("⚠️ No active reports found for question %s.", code(id)))
		return
	}
	b.log.Info("reports cleared", "id", id, "count", n, "admin", req.userID)
	b.reply(req.chatID, fmt.Sprintf("✅ Cleared %d report(s) for question %s.", n, code(id)))
}

func (b *Bot) disableQuestion(ctx context.Context, req *request) {
	if len(req.args) < 1 || len(req.args) > 2 {
		b.usage(req, "disablequestion")
		return
	}
	id := req.args[0]
	disable := true
	if len(req.args) == 2 {
		v, err := strconv.ParseBool(req.args[1])
		if err != nil {
			b.usage(req, "disablequestion")
			return
		}
		disable = v
	}

	err := b.deps.Questions.SetDisabled(ctx, id, disable)
	if errors.Is(err, store.ErrNotFound) {
		b.reply(req.chatID, fmt.Sprintf("❌ Question %s not found.", code(id)))
		return
	}
	if err != nil {
		b.log.Error("failed to update question", "id", id, "error", err)
		b.reply(req.chatID, msgTransient)
		return
	}
	action := "disabled"
	if !disable {
		action = "enabled"
	}
	b.log.Info("question "+action, "id", id, "admin", req.userID)
	b.reply(req.chatID, fmt.Sprintf("✅ Question %s has been %s.", code(id), action))
}

func (b *Bot) deleteAll(ctx context.Context, req *request) {
	if len(req.args) != 1 || req.args[0] != "confirm" {
		b.reply(req.chatID, "⚠️ This deletes every question and its reports. Run "+code("/deleteall confirm")+" to proceed.")
		return
	}
	// Running quizzes hold questions that are about to disappear.
	for _, e := range b.deps.Engine.EndAll() {
		b.observeEnd(metrics.EndStopped)
		b.reply(e.Channel, formatSummary("🚫 Quiz stopped because the question bank was cleared.", e.Summary))
	}

	n, err := b.deps.Questions.DeleteAllQuestions(ctx)
	if err != nil {
		b.log.Error("failed to delete questions", "error", err)
		b.reply(req.chatID, "❌ An error occurred while deleting the questions.")
		return
	}
	b.log.Warn("question bank deleted", "admin", req.userID, "count", n)
	b.reply(req.chatID, fmt.Sprintf("✅ Deleted %d questions.", n))
}

func (b *Bot) questionOverview(ctx context.Context, req *request) {
	limit := defaultOverviewSize
	filter := store.QuestionFilter{EnabledOnly: true}
	if len(req.args) > 0 {
		n, err := strconv.Atoi(req.args[0])
		if err != nil || n <= 0 {
			b.usage(req, "questionoverview")
			return
		}
		limit = min(n, maxOverviewSize)
	}
	if len(req.args) > 1 {
		u, err := strconv.Atoi(req.args[1])
		if err != nil {
			b.usage(req, "questionoverview")
			return
		}
		filter.Unit = u
	}
	if len(req.args) > 2 {
		filter.SkillID = req.args[2]
	}

	qs, err := b.deps.Questions.RecentQuestions(ctx, limit, filter)
	if err != nil {
		b.log.Error("failed to list questions", "error", err)
		b.reply(req.chatID, msgTransient)
		return
	}
	total, err := b.deps.Questions.CountQuestions(ctx)
	if err != nil {
		b.log.Error("failed to count questions", "error", err)
		b.reply(req.chatID, msgTransient)
		return
	}
	if len(qs) == 0 {
		b.reply(req.chatID, "No questions found matching the criteria.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Question bank overview</b>: latest %d of %d\n\n", len(qs), total)
	for i, q := range qs {
		fmt.Fprintf(&sb, "%d. %s (U%d/S%s, %s): %s\n",
			i+1, code(q.ID), q.Unit, escape(q.SkillID), q.Kind, escape(q.Snippet))
	}
	b.reply(req.chatID, sb.String())
}

// newRand derives an independent generator for a background job.
func newRand(src *rand.Rand) *rand.Rand {
	return rand.New(rand.NewPCG(src.Uint64(), src.Uint64()))
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
