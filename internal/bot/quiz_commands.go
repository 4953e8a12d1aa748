package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/calcbot/internal/curriculum"
	"github.com/abhisek/calcbot/internal/metrics"
	"github.com/abhisek/calcbot/internal/quiz"
	"github.com/abhisek/calcbot/internal/store"
)

// questionCount parses the optional count argument at args[i]. Counts
// above the configured maximum are capped, and capped is set.
func (b *Bot) questionCount(args []string, i int) (n int, capped bool, err error) {
	n = b.deps.Config.Quiz.DefaultQuestions
	if len(args) > i {
		n, err = strconv.Atoi(args[i])
		if err != nil {
			return 0, false, fmt.Errorf("%q is not a number of questions", args[i])
		}
	}
	if n <= 0 {
		return 0, false, errors.New("please provide a positive number of questions")
	}
	if n > b.deps.Config.Quiz.MaxQuestions {
		return b.deps.Config.Quiz.MaxQuestions, true, nil
	}
	return n, false, nil
}

func (b *Bot) startUnitQuiz(ctx context.Context, req *request) {
	if len(req.args) == 0 {
		b.usage(req, "quiz")
		return
	}
	n, capped, err := b.questionCount(req.args, 1)
	if err != nil {
		b.reply(req.chatID, escape(capitalize(err.Error()))+".")
		return
	}
	if capped {
		b.reply(req.chatID, fmt.Sprintf("Quizzes are limited to %d questions.", n))
	}

	sel := strings.ToLower(req.args[0])
	if sel == "all" || sel == "random" {
		b.startRandomQuiz(ctx, req, n)
		return
	}

	units, err := curriculum.ParseUnitSelector(sel)
	if err != nil {
		b.reply(req.chatID, fmt.Sprintf("Invalid unit selection %s. Use a unit number (e.g. 1), a range (e.g. 1-3) or all. Units: %s.",
			code(req.args[0]), unitList()))
		return
	}

	pool, err := b.deps.Questions.QuestionsByUnits(ctx, units)
	if err != nil {
		b.log.Error("failed to load questions", "units", units, "error", err)
		b.reply(req.chatID, msgTransient)
		return
	}
	b.shuffle(pool)
	if len(pool) > 0 && len(pool) < n {
		b.reply(req.chatID, fmt.Sprintf("I could only find %d questions for %s. Starting a quiz with these questions.",
			len(pool), formatUnits(units)))
	}

	b.beginQuiz(ctx, req, quiz.StartRequest{
		Channel: req.chatID,
		User:    req.userID,
		Units:   units,
		Plan:    pool,
		Target:  n,
	}, "unit", formatUnits(units))
}

func (b *Bot) startRandomQuiz(ctx context.Context, req *request, n int) {
	q, err := b.deps.Questions.RandomQuestion(ctx, store.QuestionFilter{})
	if err != nil {
		b.log.Error("failed to draw question", "error", err)
		b.reply(req.chatID, msgTransient)
		return
	}
	var plan []*store.Question
	if q != nil {
		plan = append(plan, q)
	}
	b.beginQuiz(ctx, req, quiz.StartRequest{
		Channel: req.chatID,
		User:    req.userID,
		Plan:    plan,
		Target:  n,
		Refill:  true,
	}, "random", "any unit")
}

func (b *Bot) startSkillQuiz(ctx context.Context, req *request) {
	if len(req.args) == 0 {
		b.usage(req, "skillquiz")
		return
	}
	skill, err := resolveSkill(req.args[0])
	if err != nil {
		b.reply(req.chatID, fmt.Sprintf("Unknown skill %s. Use /listskills to see available skills.", code(req.args[0])))
		return
	}
	n, capped, err := b.questionCount(req.args, 1)
	if err != nil {
		b.reply(req.chatID, escape(capitalize(err.Error()))+".")
		return
	}
	if capped {
		b.reply(req.chatID, fmt.Sprintf("Quizzes are limited to %d questions.", n))
	}

	pool, err := b.deps.Questions.QuestionsBySkill(ctx, skill.Unit, skill.ID)
	if err != nil {
		b.log.Error("failed to load questions", "skill", skill.ID, "error", err)
		b.reply(req.chatID, msgTransient)
		return
	}
	b.shuffle(pool)

	b.beginQuiz(ctx, req, quiz.StartRequest{
		Channel: req.chatID,
		User:    req.userID,
		Units:   []int{skill.Unit},
		SkillID: skill.ID,
		Plan:    pool,
		Target:  n,
		Refill:  true,
	}, "skill", fmt.Sprintf("Skill %s: %s", skill.ID, skill.Name))
}

// resolveSkill accepts a skill id ("1.3") or a curriculum-wide number.
func resolveSkill(arg string) (curriculum.Skill, error) {
	if s, err := curriculum.LookupSkill(arg); err == nil {
		return s, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return curriculum.Skill{}, curriculum.ErrUnknownSkill
	}
	return curriculum.SkillByNumber(n)
}

func (b *Bot) beginQuiz(ctx context.Context, req *request, start quiz.StartRequest, scope, label string) {
	snap, err := b.deps.Engine.Start(start)
	if err != nil {
		if errors.Is(err, quiz.ErrEmptyQuestionPool) {
			b.reply(req.chatID, fmt.Sprintf("Sorry, I couldn't find any questions for %s. Please ask an admin to generate some with /populatedb.",
				escape(label)))
			return
		}
		b.replyEngineError(req.chatID, err)
		return
	}
	if b.deps.Metrics != nil {
		b.deps.Metrics.QuizStarted(scope)
	}

	b.reply(req.chatID, fmt.Sprintf("Starting a %d-question quiz from %s. Good luck!", snap.Limit, escape(label)))
	b.presentNext(ctx, req.chatID)
}

// presentNext sends the next question, or the summary when the quiz is
// over.
func (b *Bot) presentNext(ctx context.Context, chatID int64) {
	p, err := b.deps.Engine.PresentNext(ctx, chatID)
	if err != nil {
		b.replyEngineError(chatID, err)
		return
	}
	if p.Ended {
		b.observeEnd(metrics.EndCompleted)
		b.reply(chatID, formatSummary("🎉 Quiz complete!", p.Summary))
		return
	}

	var markup any
	if len(p.Options) > 0 {
		markup = answerKeyboard(p.Question.ID, p.Options)
	}
	b.send(chatID, formatQuestion(p), markup)
}

func (b *Bot) answer(ctx context.Context, req *request) {
	if req.rest == "" {
		b.usage(req, "answer")
		return
	}
	b.submit(ctx, req, "")
}

// submit grades req.rest against questionID, or against whatever question
// is current when questionID is empty.
func (b *Bot) submit(ctx context.Context, req *request, questionID string) {
	b.typing(req.chatID)
	v, err := b.deps.Engine.SubmitAnswerTo(ctx, req.chatID, req.userID, questionID, req.rest)
	if err != nil {
		b.replyEngineError(req.chatID, err)
		return
	}
	if b.deps.Metrics != nil {
		result := "incorrect"
		switch {
		case v.Correct:
			result = "correct"
		case v.Note != "":
			result = "unclear"
		}
		b.deps.Metrics.Answer(string(v.Kind), result)
	}
	b.reply(req.chatID, formatVerdict(v))

	done, err := b.deps.Engine.IsComplete(req.chatID)
	if err != nil {
		b.replyEngineError(req.chatID, err)
		return
	}
	if !done {
		b.presentNext(ctx, req.chatID)
		return
	}
	if sum, ok := b.deps.Engine.End(req.chatID); ok {
		b.observeEnd(metrics.EndCompleted)
		b.reply(req.chatID, formatSummary("🎉 Quiz complete!", sum))
	}
}

func (b *Bot) stopQuiz(_ context.Context, req *request) {
	snap, err := b.deps.Engine.Status(req.chatID)
	if err != nil {
		b.reply(req.chatID, "There is no active quiz in this chat to stop.")
		return
	}
	if snap.User != req.userID && !req.admin {
		b.reply(req.chatID, "You can only stop quizzes that you started.")
		return
	}
	sum, ok := b.deps.Engine.End(req.chatID)
	if !ok {
		b.reply(req.chatID, "There is no active quiz in this chat to stop.")
		return
	}
	b.observeEnd(metrics.EndStopped)
	b.reply(req.chatID, formatSummary("🚫 Quiz stopped!", sum))
}

func (b *Bot) quizStatus(_ context.Context, req *request) {
	snap, err := b.deps.Engine.Status(req.chatID)
	if err != nil {
		b.replyEngineError(req.chatID, err)
		return
	}
	scope := formatUnits(snap.Units)
	if snap.SkillID != "" {
		scope = "Skill " + snap.SkillID
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Quiz in progress</b> (%s)\n", escape(scope))
	fmt.Fprintf(&sb, "Question %d of %d\n", snap.Asked, snap.Limit)
	fmt.Fprintf(&sb, "Correct: %d | Incorrect: %d\n", snap.Correct, snap.Incorrect)
	if snap.CurrentQuestionID != "" {
		fmt.Fprintf(&sb, "Waiting for an answer to %s", code(snap.CurrentQuestionID))
	}
	b.reply(req.chatID, sb.String())
}

const msgTransient = "Something went wrong on my side. Please try again in a moment."

func (b *Bot) replyEngineError(chatID int64, err error) {
	var msg string
	switch {
	case errors.Is(err, quiz.ErrAlreadyActive):
		msg = "A quiz is already active in this chat. Finish it or use /stopquiz."
	case errors.Is(err, quiz.ErrNoActiveSession):
		msg = "There is no active quiz in this chat. Start one with /quiz or /skillquiz."
	case errors.Is(err, quiz.ErrNoCurrentQuestion):
		msg = "There is no question waiting for an answer right now."
	case errors.Is(err, quiz.ErrStaleQuestion):
		msg = "That question is no longer active."
	case errors.Is(err, quiz.ErrAnswerPending):
		msg = "Still grading the previous answer, one moment."
	case errors.Is(err, quiz.ErrEmptyQuestionPool):
		msg = "Sorry, I couldn't find any questions for that selection."
	case errors.Is(err, quiz.ErrExternalCall):
		b.log.Warn("quiz operation failed", "chat", chatID, "error", err)
		msg = "I couldn't process that just now. Please try again."
	default:
		b.log.Error("unexpected quiz error", "chat", chatID, "error", err)
		msg = msgTransient
	}
	b.reply(chatID, msg)
}

func unitList() string {
	nums := curriculum.UnitNumbers()
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
