package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/calcbot/internal/config"
	"github.com/abhisek/calcbot/internal/grader"
	"github.com/abhisek/calcbot/internal/metrics"
	"github.com/abhisek/calcbot/internal/questiongen"
	"github.com/abhisek/calcbot/internal/quiz"
	"github.com/abhisek/calcbot/internal/store"
)

const (
	testChat  int64 = 500
	testUser  int64 = 7
	testAdmin int64 = 1
)

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		s.messages = append(s.messages, m)
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *fakeSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Text
	}
	return out
}

func (s *fakeSender) last() string {
	t := s.texts()
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

func (s *fakeSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.requests = nil
}

type stubGrader struct {
	result grader.Result
}

func (g stubGrader) GradeFreeResponse(context.Context, grader.Input) (grader.Result, error) {
	return g.result, nil
}

type stubGenerator struct {
	mu   sync.Mutex
	n    int
	fail bool
}

func (g *stubGenerator) Generate(_ context.Context, in questiongen.Input) (*store.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return nil, errors.New("model unavailable")
	}
	g.n++
	return &store.Question{
		ID:            fmt.Sprintf("gen-%d", g.n),
		Unit:          in.Skill.Unit,
		SkillID:       in.Skill.ID,
		Text:          "Evaluate the limit of sin(x)/x as x approaches 0.",
		CorrectAnswer: "1",
		Explanation:   "Standard limit.",
		Kind:          store.KindFRQ,
		Difficulty:    in.Difficulty,
		GeneratedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

type testBot struct {
	*Bot
	api     *fakeSender
	store   *store.Store
	metrics *metrics.Metrics
}

func newTestBot(t *testing.T, gen questiongen.Generator) *testBot {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(fmt.Sprintf("file:bot_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	engine := quiz.NewEngine(
		stubGrader{result: grader.Result{Verdict: grader.Pass, Feedback: "Nicely done."}},
		s.Users(),
		quiz.WithRand(rand.New(rand.NewPCG(1, 2))),
		quiz.WithRefiller(s.Questions()),
	)
	m := metrics.New()
	api := &fakeSender{}
	b := New(api, Deps{
		Questions: s.Questions(),
		Users:     s.Users(),
		Reports:   s.Reports(),
		Engine:    engine,
		Generator: gen,
		Metrics:   m,
		Config: config.Config{
			Quiz:         config.QuizConfig{MaxQuestions: 5, DefaultQuestions: 3},
			AdminUserIDs: []int64{testAdmin},
		},
	})
	return &testBot{Bot: b, api: api, store: s, metrics: m}
}

func (tb *testBot) addQuestion(t *testing.T, q *store.Question) {
	t.Helper()
	added, err := tb.store.Questions().AddQuestion(context.Background(), q)
	require.NoError(t, err)
	require.True(t, added)
}

func (tb *testBot) say(user int64, text string) {
	tb.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: user, UserName: fmt.Sprintf("user%d", user)},
			Chat: &tgbotapi.Chat{ID: testChat},
			Text: text,
		},
	})
}

func derivativeMCQ(id string) *store.Question {
	return &store.Question{
		ID:            id,
		Unit:          1,
		SkillID:       "1.1",
		Text:          "What is the derivative of x^2?",
		Options:       []string{"2x", "x", "x^2", "2"},
		CorrectAnswer: "A",
		Explanation:   "Power rule.",
		Kind:          store.KindMCQ,
		Difficulty:    store.DifficultyEasy,
		GeneratedAt:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text     string
		wantName string
		wantRest string
		wantOK   bool
	}{
		{"/quiz 1 5", "quiz", "1 5", true},
		{"!Quiz all", "quiz", "all", true},
		{"/answer@CalcBot  the answer is 2x ", "answer", "the answer is 2x", true},
		{"/help", "help", "", true},
		{"hello there", "", "", false},
		{"/", "", "", false},
		{"/@bot", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, rest, ok := parseCommand(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestChunkText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, ChunkText("hello", 10))
	})

	t.Run("splits on lines", func(t *testing.T) {
		got := ChunkText("aaaa\nbbbb\ncccc", 10)
		assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, got)
	})

	t.Run("long line is hard split", func(t *testing.T) {
		got := ChunkText(strings.Repeat("x", 25), 10)
		require.Len(t, got, 3)
		assert.Equal(t, strings.Repeat("x", 10), got[0])
		assert.Equal(t, strings.Repeat("x", 5), got[2])
	})

	t.Run("counts runes", func(t *testing.T) {
		got := ChunkText(strings.Repeat("∫", 12), 10)
		require.Len(t, got, 2)
		assert.Equal(t, strings.Repeat("∫", 10), got[0])
	})

	t.Run("keeps entities whole", func(t *testing.T) {
		got := ChunkText(strings.Repeat("a", 8)+"&amp;bbb", 10)
		assert.Equal(t, []string{strings.Repeat("a", 8), "&amp;bbb"}, got)
	})
}

func TestChunkText_HTML(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{
			name: "tag reopened after cut",
			text: "<b>" + strings.Repeat("x", 50) + "</b>",
			max:  40,
			want: []string{
				"<b>" + strings.Repeat("x", 27) + "</b>",
				"<b>" + strings.Repeat("x", 23) + "</b>",
			},
		},
		{
			name: "nested tags",
			text: "<i><b>" + strings.Repeat("x", 40) + "</b></i>",
			max:  40,
			want: []string{
				"<i><b>" + strings.Repeat("x", 24) + "</b></i>",
				"<i><b>" + strings.Repeat("x", 16) + "</b></i>",
			},
		},
		{
			name: "spoiler across lines",
			text: "<tg-spoiler>" + strings.Repeat("y", 30) + "\n" + strings.Repeat("z", 30) + "</tg-spoiler>",
			max:  60,
			want: []string{
				"<tg-spoiler>" + strings.Repeat("y", 30) + "</tg-spoiler>",
				"<tg-spoiler>" + strings.Repeat("z", 30) + "</tg-spoiler>",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkText(tt.text, tt.max)
			assert.Equal(t, tt.want, got)
			for _, c := range got {
				assert.LessOrEqual(t, len([]rune(c)), tt.max)
			}
		})
	}
}

func TestChunkText_EntityAtMessageLimit(t *testing.T) {
	text := strings.Repeat("a", maxMessageRunes-2) + "&amp;<b>x</b>"
	got := ChunkText(text, maxMessageRunes)
	require.Len(t, got, 2)
	for _, c := range got {
		assert.LessOrEqual(t, len([]rune(c)), maxMessageRunes)
		assert.Equal(t, strings.Count(c, "&"), strings.Count(c, ";"), "entity split in %q", c[max(0, len(c)-20):])
		assert.Equal(t, strings.Count(c, "<b>"), strings.Count(c, "</b>"))
	}
	assert.True(t, strings.HasSuffix(got[1], "&amp;<b>x</b>"))
	assert.Equal(t, text, strings.Join(got, ""))
}

func TestParseAnswerData(t *testing.T) {
	tests := []struct {
		data       string
		questionID string
		label      string
		ok         bool
	}{
		{"ans:1-1.1-0123abcd:B", "1-1.1-0123abcd", "B", true},
		{"ans:q1:A", "q1", "A", true},
		{"ans:A", "", "", false},
		{"ans:q1:", "", "", false},
		{"ans::A", "", "", false},
		{"other:q1:A", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			qid, label, ok := parseAnswerData(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.questionID, qid)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestQuizFlow(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.addQuestion(t, derivativeMCQ("q1"))

	tb.say(testUser, "/quiz 1 1")
	texts := tb.api.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "Starting a 1-question quiz from Unit 1. Good luck!", texts[0])
	assert.Contains(t, texts[1], "What is the derivative of x^2?")
	assert.NotNil(t, tb.api.messages[1].ReplyMarkup, "multiple choice needs an answer keyboard")

	tb.say(testUser, "/answer 2x")
	texts = tb.api.texts()
	require.Len(t, texts, 4)
	assert.Contains(t, texts[2], "✅ <b>Correct!</b>")
	assert.Contains(t, texts[2], "Score: 1/1")
	assert.Equal(t, "🎉 Quiz complete! You answered 1 out of 1 questions correctly.", texts[3])
	assert.Zero(t, tb.deps.Engine.Active())

	tb.say(testUser, "/stats")
	assert.Contains(t, tb.api.last(), "Correct: 1")
	assert.Contains(t, tb.api.last(), "Accuracy: 100.0%")
}

func TestQuizFlow_CallbackAnswer(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.addQuestion(t, derivativeMCQ("q1"))
	tb.say(testUser, "/quiz 1 1")

	markup, ok := tb.api.messages[1].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 4)
	data := *markup.InlineKeyboard[0][0].CallbackData
	qid, _, ok := parseAnswerData(data)
	require.True(t, ok)
	assert.Equal(t, "q1", qid)

	tb.HandleUpdate(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			From:    &tgbotapi.User{ID: testUser},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChat}},
			Data:    data,
		},
	})

	texts := tb.api.texts()
	require.GreaterOrEqual(t, len(texts), 4)
	assert.Contains(t, texts[len(texts)-1], "You answered")
	assert.NotEmpty(t, tb.api.requests, "callback must be acknowledged")
}

func (tb *testBot) tap(user int64, data string) {
	tb.HandleUpdate(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: user},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChat}},
			Data:    data,
		},
	})
}

// keyboardData returns the first button's data of the i-th sent message.
func (tb *testBot) keyboardData(t *testing.T, i int) string {
	t.Helper()
	tb.api.mu.Lock()
	defer tb.api.mu.Unlock()
	require.Greater(t, len(tb.api.messages), i)
	markup, ok := tb.api.messages[i].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "message %d has no answer keyboard", i)
	return *markup.InlineKeyboard[0][0].CallbackData
}

func TestQuizFlow_StaleKeyboardTap(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.addQuestion(t, derivativeMCQ("q1"))
	tb.addQuestion(t, derivativeMCQ("q2"))

	tb.say(testUser, "/quiz 1 2")
	firstData := tb.keyboardData(t, 1)
	firstID, _, ok := parseAnswerData(firstData)
	require.True(t, ok)

	tb.say(testUser, "/answer 2x")
	texts := tb.api.texts()
	require.Len(t, texts, 4)
	assert.Contains(t, texts[2], "✅ <b>Correct!</b>")
	secondData := tb.keyboardData(t, 3)
	secondID, _, ok := parseAnswerData(secondData)
	require.True(t, ok)
	require.NotEqual(t, firstID, secondID)

	tb.tap(testUser, firstData)
	assert.Equal(t, "That question is no longer active.", tb.api.last())

	snap, err := tb.deps.Engine.Status(testChat)
	require.NoError(t, err)
	assert.Equal(t, secondID, snap.CurrentQuestionID, "the second question must still be waiting")
	assert.Equal(t, 1, snap.Correct)
	assert.Zero(t, snap.Incorrect)

	tb.tap(testUser, secondData)
	assert.Contains(t, tb.api.last(), "out of 2 questions correctly")
	assert.Zero(t, tb.deps.Engine.Active())
}

func TestQuiz_EmptyPool(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.say(testUser, "/quiz 2")
	assert.Contains(t, tb.api.last(), "couldn't find any questions for Unit 2")
	assert.Zero(t, tb.deps.Engine.Active())
}

func TestQuiz_InvalidCount(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.say(testUser, "/quiz 1 zero")
	assert.Equal(t, "&#34;zero&#34; is not a number of questions.", tb.api.last())

	tb.say(testUser, "/quiz 1 -2")
	assert.Equal(t, "Please provide a positive number of questions.", tb.api.last())
}

func TestQuiz_CountIsCapped(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.addQuestion(t, derivativeMCQ("q1"))
	tb.say(testUser, "/quiz 1 50")
	assert.Contains(t, tb.api.texts(), "Quizzes are limited to 5 questions.")
}

func TestStopQuiz_Permissions(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.addQuestion(t, derivativeMCQ("q1"))
	tb.addQuestion(t, derivativeMCQ("q2"))
	tb.say(testUser, "/quiz 1 2")

	tb.say(99, "/stopquiz")
	assert.Equal(t, "You can only stop quizzes that you started.", tb.api.last())
	assert.Equal(t, 1, tb.deps.Engine.Active())

	tb.say(testAdmin, "/stopquiz")
	assert.Equal(t, "🚫 Quiz stopped! You answered 0 out of 1 questions correctly.", tb.api.last())
	assert.Zero(t, tb.deps.Engine.Active())

	tb.say(testUser, "/stopquiz")
	assert.Equal(t, "There is no active quiz in this chat to stop.", tb.api.last())
}

func TestAdminGating(t *testing.T) {
	tb := newTestBot(t, nil)
	for _, cmd := range []string{"/populatedb 1 2", "/viewreports", "/deleteall confirm", "/disablequestion q1"} {
		tb.api.reset()
		tb.say(testUser, cmd)
		assert.Equal(t, "You do not have administrative permissions to use this command.", tb.api.last(), cmd)
	}
}

func TestUnknownCommand(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.say(testUser, "/frobnicate")
	assert.Equal(t, "Unknown command. Use /help to see what I can do.", tb.api.last())

	tb.api.reset()
	tb.say(testUser, "just chatting")
	assert.Empty(t, tb.api.texts())
}

func TestHelp_AdminSection(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.say(testUser, "/help")
	assert.NotContains(t, tb.api.last(), "/populatedb")
	assert.Contains(t, tb.api.last(), "/quiz")

	tb.say(testAdmin, "/help")
	assert.Contains(t, tb.api.last(), "/populatedb")
	assert.NotContains(t, tb.api.last(), "/deleteall")
}

func TestGetQuestion(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.addQuestion(t, derivativeMCQ("q1"))

	tb.say(testUser, "/getquestion q1")
	assert.Contains(t, tb.api.last(), "A. 2x")
	assert.NotContains(t, tb.api.last(), "tg-spoiler")

	tb.say(testAdmin, "/getquestion q1")
	assert.Contains(t, tb.api.last(), "<tg-spoiler>A</tg-spoiler>")

	tb.say(testUser, "/getquestion <nope>")
	assert.Equal(t, "❌ Question <code>&lt;nope&gt;</code> not found.", tb.api.last())
}

func TestReportAndClear(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.addQuestion(t, derivativeMCQ("q1"))

	tb.say(testUser, "/report q1")
	assert.Contains(t, tb.api.last(), "Please provide a question id and a reason")

	tb.say(testUser, "/report q1 two options are <equal>")
	assert.Equal(t, "✅ Question <code>q1</code> has been reported for review. Thank you for helping improve the question bank!", tb.api.last())

	tb.say(testUser, "/report missing bad")
	assert.Equal(t, "❌ Question <code>missing</code> not found.", tb.api.last())

	tb.say(testAdmin, "/viewreports")
	assert.Contains(t, tb.api.last(), "two options are &lt;equal&gt;")

	tb.say(testAdmin, "/clearreport q1")
	assert.Equal(t, "✅ Cleared 1 report(s) for question <code>q1</code>.", tb.api.last())

	tb.say(testAdmin, "/clearreport q1")
	assert.Equal(t, "⚠️ No active reports found for question <code>q1</code>.", tb.api.last())

	tb.say(testAdmin, "/viewreports")
	assert.Equal(t, "✅ No active question reports at this time.", tb.api.last())
}

func TestDisableQuestion(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.addQuestion(t, derivativeMCQ("q1"))

	tb.say(testAdmin, "/disablequestion q1")
	assert.Equal(t, "✅ Question <code>q1</code> has been disabled.", tb.api.last())

	tb.say(testUser, "/quiz 1")
	assert.Contains(t, tb.api.last(), "couldn't find any questions")

	tb.say(testAdmin, "/disablequestion q1 false")
	assert.Equal(t, "✅ Question <code>q1</code> has been enabled.", tb.api.last())

	tb.say(testAdmin, "/disablequestion q1 maybe")
	assert.Contains(t, tb.api.last(), "Usage:")
}

func TestDeleteAll_RequiresConfirm(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.addQuestion(t, derivativeMCQ("q1"))

	tb.say(testAdmin, "/deleteall")
	assert.Contains(t, tb.api.last(), "/deleteall confirm")

	tb.say(testAdmin, "/deleteall confirm")
	assert.Equal(t, "✅ Deleted 1 questions.", tb.api.last())
}

func TestDeleteAll_EndsRunningQuizzes(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.addQuestion(t, derivativeMCQ("q1"))
	tb.say(testUser, "/quiz 1 1")
	require.Equal(t, 1, tb.deps.Engine.Active())
	tb.api.reset()

	tb.say(testAdmin, "/deleteall confirm")
	texts := tb.api.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "🚫 Quiz stopped because the question bank was cleared. You answered 0 out of 1 questions correctly.", texts[0])
	assert.Equal(t, "✅ Deleted 1 questions.", texts[1])
	assert.Zero(t, tb.deps.Engine.Active())

	tb.say(testUser, "/answer 2x")
	assert.Equal(t, "There is no active quiz in this chat. Start one with /quiz or /skillquiz.", tb.api.last())
}

func TestQuestionOverview(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.say(testAdmin, "/questionoverview")
	assert.Equal(t, "No questions found matching the criteria.", tb.api.last())

	tb.addQuestion(t, derivativeMCQ("q1"))
	tb.say(testAdmin, "/questionoverview 5 1")
	assert.Contains(t, tb.api.last(), "latest 1 of 1")
	assert.Contains(t, tb.api.last(), "<code>q1</code>")

	tb.addQuestion(t, derivativeMCQ("q2"))
	require.NoError(t, tb.store.Questions().SetDisabled(context.Background(), "q2", true))
	tb.say(testAdmin, "/questionoverview 5 1")
	assert.Contains(t, tb.api.last(), "<code>q1</code>")
	assert.NotContains(t, tb.api.last(), "<code>q2</code>", "disabled questions are not listed")
}

func TestPopulate(t *testing.T) {
	gen := &stubGenerator{}
	tb := newTestBot(t, gen)

	tb.say(testAdmin, "/populatedb 2 3")
	tb.background.Wait()

	texts := tb.api.texts()
	require.NotEmpty(t, texts)
	assert.Equal(t, "⏳ Generating 3 questions for Unit 2. This may take a while...", texts[0])
	assert.Equal(t, "🎉 Population complete for Unit 2! Added 3 questions (0 duplicates, 0 failed).", texts[len(texts)-1])

	n, err := tb.store.Questions().CountQuestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, tb.populating.Load())
}

func TestPopulate_Failures(t *testing.T) {
	tb := newTestBot(t, &stubGenerator{fail: true})

	tb.say(testAdmin, "/populatedb 1 2")
	tb.background.Wait()

	assert.Equal(t, "🎉 Population complete for Unit 1! Added 0 questions (0 duplicates, 2 failed).", tb.api.last())
	assert.Contains(t, tb.api.texts(), "⚠️ Question 1/2 failed. Check the logs for details.")
}

func TestPopulate_Validation(t *testing.T) {
	tests := []struct {
		name string
		gen  questiongen.Generator
		cmd  string
		want string
	}{
		{"no generator", nil, "/populatedb 1 2", "❌ Question generation is not configured."},
		{"bad unit", &stubGenerator{}, "/populatedb 42 2", "❌ Invalid unit number: 42."},
		{"zero count", &stubGenerator{}, "/populatedb 1 0", "❌ Number of questions must be positive."},
		{"too many", &stubGenerator{}, "/populatedb 1 500", "❌ At most 50 questions can be generated at once."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := newTestBot(t, tt.gen)
			tb.say(testAdmin, tt.cmd)
			tb.background.Wait()
			assert.Contains(t, tb.api.last(), tt.want)
		})
	}
}

func TestLeaderboard(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.say(testUser, "/leaderboard")
	assert.Contains(t, tb.api.last(), "Nobody has answered")

	tb.addQuestion(t, derivativeMCQ("q1"))
	ctx := context.Background()
	require.NoError(t, tb.store.Users().EnsureUser(ctx, 11, "ada"))
	require.NoError(t, tb.store.Users().RecordAnswer(ctx, 11, "q1", true, "2x"))

	tb.say(testUser, "/leaderboard")
	assert.Contains(t, tb.api.last(), "1. ada: 1/1 (100%)")
}

func TestListSkills(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.say(testUser, "/listskills 1")
	assert.Contains(t, tb.api.last(), "<code>1.1</code>")
	assert.NotContains(t, tb.api.last(), "<code>2.1</code>")

	tb.say(testUser, "/listskills 99")
	assert.Contains(t, tb.api.last(), "Unit 99 not found")
}

func TestQuizExpired(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.QuizExpired(context.Background(), quiz.Expired{
		Channel: testChat,
		Summary: quiz.Summary{Correct: 1, Asked: 2},
	})
	assert.Equal(t,
		"Your quiz in this channel has timed out due to inactivity. You answered 1 out of 2 questions correctly.",
		tb.api.last())
}
