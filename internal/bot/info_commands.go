package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/calcbot/internal/curriculum"
	"github.com/abhisek/calcbot/internal/store"
)

const leaderboardSize = 10

func (b *Bot) listSkills(_ context.Context, req *request) {
	units := curriculum.Units()
	if len(req.args) > 0 {
		n, err := strconv.Atoi(req.args[0])
		if err != nil {
			b.usage(req, "listskills")
			return
		}
		u, err := curriculum.GetUnit(n)
		if err != nil {
			b.reply(req.chatID, fmt.Sprintf("Unit %d not found. Available units: %s.", n, unitList()))
			return
		}
		units = []curriculum.Unit{u}
	}

	var sb strings.Builder
	sb.WriteString("<b>AP Calculus BC Units &amp; Skills</b>\n")
	for _, u := range units {
		fmt.Fprintf(&sb, "\n<b>%s</b>\n", escape(u.Title()))
		for _, s := range u.Skills {
			fmt.Fprintf(&sb, "#%d %s %s\n", s.Number, code(s.ID), escape(s.Name))
		}
	}
	sb.WriteString("\nStart a skill quiz with /skillquiz &lt;id or #&gt;.")
	b.reply(req.chatID, sb.String())
}

func (b *Bot) getQuestion(ctx context.Context, req *request) {
	if len(req.args) != 1 {
		b.usage(req, "getquestion")
		return
	}
	q, err := b.deps.Questions.GetQuestion(ctx, req.args[0])
	if errors.Is(err, store.ErrNotFound) {
		b.reply(req.chatID, fmt.Sprintf("❌ Question %s not found.", code(req.args[0])))
		return
	}
	if err != nil {
		b.log.Error("failed to load question", "id", req.args[0], "error", err)
		b.reply(req.chatID, msgTransient)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Question</b> %s\n\n%s\n", code(q.ID), escape(q.Text))
	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "%c. %s\n", 'A'+i, escape(opt))
	}
	fmt.Fprintf(&sb, "\nUnit: %d\nSkill: %s\nType: %s\nDifficulty: %s\nCalculator: %s\nDisabled: %s\n",
		q.Unit, escape(q.SkillID), q.Kind, q.Difficulty, yesNo(q.Calculator), yesNo(q.Disabled))
	if req.admin {
		fmt.Fprintf(&sb, "\n<b>Correct answer:</b> <tg-spoiler>%s</tg-spoiler>\n<b>Explanation:</b> %s",
			escape(q.CorrectAnswer), escape(q.Explanation))
	} else {
		sb.WriteString("\n<i>Answer and explanation are for admins only.</i>")
	}
	b.reply(req.chatID, sb.String())
}

func (b *Bot) reportQuestion(ctx context.Context, req *request) {
	if len(req.args) < 2 {
		b.reply(req.chatID, "❌ Please provide a question id and a reason.\nUsage: "+code(b.commands["report"].usage))
		return
	}
	id := req.args[0]
	reason := strings.TrimSpace(strings.TrimPrefix(req.rest, id))

	err := b.deps.Reports.ReportQuestion(ctx, id, req.userID, reason)
	switch {
	case errors.Is(err, store.ErrNotFound):
		b.reply(req.chatID, fmt.Sprintf("❌ Question %s not found.", code(id)))
	case err != nil:
		b.log.Error("failed to report question", "id", id, "user", req.userID, "error", err)
		b.reply(req.chatID, fmt.Sprintf("❌ Failed to report question %s. Please try again later.", code(id)))
	default:
		b.log.Info("question reported", "id", id, "user", req.userID, "reason", reason)
		b.reply(req.chatID, fmt.Sprintf("✅ Question %s has been reported for review. Thank you for helping improve the question bank!", code(id)))
	}
}

func (b *Bot) stats(ctx context.Context, req *request) {
	userID := req.userID
	if len(req.args) > 0 {
		id, err := strconv.ParseInt(req.args[0], 10, 64)
		if err != nil {
			b.usage(req, "stats")
			return
		}
		userID = id
	}

	st, err := b.deps.Users.UserStats(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		b.reply(req.chatID, "No statistics recorded for that user yet.")
		return
	}
	if err != nil {
		b.log.Error("failed to load stats", "user", userID, "error", err)
		b.reply(req.chatID, msgTransient)
		return
	}

	name := st.Username
	if name == "" {
		name = strconv.FormatInt(st.UserID, 10)
	}
	b.reply(req.chatID, fmt.Sprintf("<b>Stats for %s</b>\nCorrect: %d\nAnswered: %d\nAccuracy: %.1f%%\nPlaying since: %s",
		escape(name), st.Correct, st.Total, st.Accuracy()*100, st.RegisteredAt.Format("2006-01-02")))
}

func (b *Bot) leaderboard(ctx context.Context, req *request) {
	top, err := b.deps.Users.Leaderboard(ctx, leaderboardSize)
	if err != nil {
		b.log.Error("failed to load leaderboard", "error", err)
		b.reply(req.chatID, msgTransient)
		return
	}
	if len(top) == 0 {
		b.reply(req.chatID, "Nobody has answered a question yet. Start a quiz with /quiz!")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏆 <b>Leaderboard</b>\n\n")
	for i, u := range top {
		name := u.Username
		if name == "" {
			name = strconv.FormatInt(u.UserID, 10)
		}
		fmt.Fprintf(&sb, "%d. %s: %d/%d (%.0f%%)\n", i+1, escape(name), u.Correct, u.Total, u.Accuracy()*100)
	}
	b.reply(req.chatID, sb.String())
}
