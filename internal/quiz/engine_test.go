package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/calcbot/internal/grader"
	"github.com/abhisek/calcbot/internal/store"
)

const testChannel int64 = 100

type fakeGrader struct {
	result grader.Result
	err    error

	// started receives a value when grading begins; block, when set, is
	// waited on before returning.
	started chan struct{}
	block   chan struct{}
}

func (g *fakeGrader) GradeFreeResponse(ctx context.Context, in grader.Input) (grader.Result, error) {
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.block != nil {
		<-g.block
	}
	return g.result, g.err
}

type recordedAnswer struct {
	user    int64
	qid     string
	correct bool
	raw     string
}

type fakeRecorder struct {
	mu      sync.Mutex
	answers []recordedAnswer
	err     error
}

func (r *fakeRecorder) RecordAnswer(_ context.Context, user int64, qid string, correct bool, raw string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.answers = append(r.answers, recordedAnswer{user, qid, correct, raw})
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func mcq(id, correct string, options ...string) *store.Question {
	return &store.Question{
		ID:            id,
		Unit:          1,
		SkillID:       "1.1",
		Text:          "Question " + id,
		Options:       options,
		CorrectAnswer: correct,
		Explanation:   "Explanation for " + id,
		Kind:          store.KindMCQ,
	}
}

func frq(id, answer string) *store.Question {
	return &store.Question{
		ID:            id,
		Unit:          1,
		SkillID:       "1.2",
		Text:          "Free response " + id,
		CorrectAnswer: answer,
		Explanation:   "Explanation for " + id,
		Kind:          store.KindFRQ,
	}
}

func unitOnePlan() []*store.Question {
	return []*store.Question{
		mcq("1-1.1-aaaaaaaa", "1", "0", "1", "2", "Does not exist"),
		mcq("1-1.1-bbbbbbbb", "2x", "2x", "x", "x^2", "2"),
		mcq("1-1.1-cccccccc", "e", "1", "e", "0", "Infinity"),
	}
}

type testEngine struct {
	*Engine
	grader   *fakeGrader
	recorder *fakeRecorder
	clock    *fakeClock
}

func newTestEngine(opts ...Option) *testEngine {
	g := &fakeGrader{result: grader.Result{Verdict: grader.Pass, Feedback: "Correct! Nice."}}
	r := &fakeRecorder{}
	c := newFakeClock()
	opts = append([]Option{WithClock(c.Now), WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return &testEngine{Engine: NewEngine(g, r, opts...), grader: g, recorder: r, clock: c}
}

func (te *testEngine) start(t *testing.T, plan []*store.Question, target int) {
	t.Helper()
	_, err := te.Start(StartRequest{Channel: testChannel, User: 7, Units: []int{1}, Plan: plan, Target: target})
	require.NoError(t, err)
}

// correctLabelOf returns the label presenting the question's correct answer.
func correctLabelOf(t *testing.T, p *Presentation) string {
	t.Helper()
	for _, o := range p.Options {
		if o.Text == p.Question.CorrectAnswer {
			return o.Label
		}
	}
	t.Fatalf("correct answer %q not among options %v", p.Question.CorrectAnswer, p.Options)
	return ""
}

func TestEndToEnd_UnitOneThreeQuestions(t *testing.T) {
	te := newTestEngine()
	te.start(t, unitOnePlan(), 3)
	ctx := context.Background()

	snap, err := te.Status(testChannel)
	require.NoError(t, err)
	assert.Zero(t, snap.Asked, "asked must be 0 before the first presentation")

	answers := []bool{true, false, true}
	for i, answerCorrectly := range answers {
		p, err := te.PresentNext(ctx, testChannel)
		require.NoError(t, err)
		require.False(t, p.Ended)
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, 3, p.Total)

		raw := "Z"
		if answerCorrectly {
			raw = correctLabelOf(t, p)
		}
		v, err := te.SubmitAnswer(ctx, testChannel, 7, raw)
		require.NoError(t, err)
		assert.Equal(t, answerCorrectly, v.Correct)
		assert.Equal(t, v.Progress.Asked, v.Progress.Correct+v.Progress.Incorrect)

		done, err := te.IsComplete(testChannel)
		require.NoError(t, err)
		assert.Equal(t, i == 2, done)
	}

	sum, ok := te.End(testChannel)
	require.True(t, ok)
	assert.Equal(t, Summary{Correct: 2, Incorrect: 1, Asked: 3}, sum)
	assert.Zero(t, te.Active())

	_, err = te.Status(testChannel)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.Len(t, te.recorder.answers, 3)
}

func TestPresentNext_EndsWhenPlanExhausted(t *testing.T) {
	te := newTestEngine()
	te.start(t, unitOnePlan()[:1], 3)
	ctx := context.Background()

	_, err := te.PresentNext(ctx, testChannel)
	require.NoError(t, err)
	_, err = te.SubmitAnswer(ctx, testChannel, 7, "A")
	require.NoError(t, err)

	p, err := te.PresentNext(ctx, testChannel)
	require.NoError(t, err)
	assert.True(t, p.Ended)
	assert.Equal(t, 1, p.Summary.Asked)
	assert.Zero(t, te.Active())
}

func TestPresentNext_RepeatsUnansweredQuestion(t *testing.T) {
	te := newTestEngine()
	te.start(t, unitOnePlan(), 3)
	ctx := context.Background()

	first, err := te.PresentNext(ctx, testChannel)
	require.NoError(t, err)
	again, err := te.PresentNext(ctx, testChannel)
	require.NoError(t, err)

	assert.Equal(t, first.Question.ID, again.Question.ID)
	assert.Equal(t, first.Options, again.Options)
	assert.Equal(t, 1, again.Number)
}

func TestStart_Errors(t *testing.T) {
	te := newTestEngine()
	_, err := te.Start(StartRequest{Channel: testChannel, User: 7})
	assert.ErrorIs(t, err, ErrEmptyQuestionPool)
	assert.Zero(t, te.Active())

	te.start(t, unitOnePlan(), 3)
	ctx := context.Background()
	p, err := te.PresentNext(ctx, testChannel)
	require.NoError(t, err)
	_, err = te.SubmitAnswer(ctx, testChannel, 7, correctLabelOf(t, p))
	require.NoError(t, err)

	_, err = te.Start(StartRequest{Channel: testChannel, User: 8, Plan: unitOnePlan(), Target: 3})
	assert.ErrorIs(t, err, ErrAlreadyActive)

	snap, err := te.Status(testChannel)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Asked)
	assert.Equal(t, 1, snap.Correct)
	assert.Equal(t, int64(7), snap.User)
}

func TestStart_TruncatesPlan(t *testing.T) {
	te := newTestEngine()
	snap, err := te.Start(StartRequest{Channel: testChannel, Plan: unitOnePlan(), Target: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Limit)
}

func TestSubmitAnswer_Errors(t *testing.T) {
	te := newTestEngine()
	ctx := context.Background()

	_, err := te.SubmitAnswer(ctx, testChannel, 7, "A")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	te.start(t, unitOnePlan(), 3)
	_, err = te.SubmitAnswer(ctx, testChannel, 7, "A")
	assert.ErrorIs(t, err, ErrNoCurrentQuestion)

	_, err = te.PresentNext(ctx, testChannel)
	require.NoError(t, err)
	_, err = te.SubmitAnswer(ctx, testChannel, 7, "A")
	require.NoError(t, err)

	_, err = te.SubmitAnswer(ctx, testChannel, 7, "A")
	assert.ErrorIs(t, err, ErrNoCurrentQuestion, "an answered question cannot be answered twice")

	_, err = te.PresentNext(ctx, 999)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	_, err = te.IsComplete(999)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestSubmitAnswer_LiteralTextAndUnrelated(t *testing.T) {
	te := newTestEngine()
	plan := []*store.Question{
		mcq("1-1.1-aaaaaaaa", "Does not exist", "0", "1", "2", "Does not exist"),
		mcq("1-1.1-bbbbbbbb", "2x", "2x", "x", "x^2", "2"),
	}
	te.start(t, plan, 2)
	ctx := context.Background()

	_, err := te.PresentNext(ctx, testChannel)
	require.NoError(t, err)
	v, err := te.SubmitAnswer(ctx, testChannel, 7, "  does NOT exist ")
	require.NoError(t, err)
	assert.True(t, v.Correct, "literal option text should be accepted")

	_, err = te.PresentNext(ctx, testChannel)
	require.NoError(t, err)
	v, err = te.SubmitAnswer(ctx, testChannel, 7, "the derivative is a banana")
	require.NoError(t, err)
	assert.False(t, v.Correct)
	assert.Equal(t, "Explanation for 1-1.1-bbbbbbbb", v.Explanation)
	assert.Equal(t, "2x", v.CorrectAnswer)
	assert.Regexp(t, `^[A-D]\) 2x$`, v.CorrectDisplay)
}

func TestSubmitAnswer_LabelNormalization(t *testing.T) {
	for _, form := range []string{"%s", "%s.", " %s ", "lower"} {
		t.Run(form, func(t *testing.T) {
			te := newTestEngine()
			te.start(t, unitOnePlan(), 3)
			ctx := context.Background()

			p, err := te.PresentNext(ctx, testChannel)
			require.NoError(t, err)
			label := correctLabelOf(t, p)

			raw := fmt.Sprintf(form, label)
			if form == "lower" {
				raw = string(label[0] | 0x20)
			}
			v, err := te.SubmitAnswer(ctx, testChannel, 7, raw)
			require.NoError(t, err)
			assert.True(t, v.Correct, "answer %q should select label %s", raw, label)
		})
	}
}

func TestSubmitAnswer_FreeResponse(t *testing.T) {
	tests := []struct {
		name    string
		result  grader.Result
		correct bool
		note    string
	}{
		{"pass", grader.Result{Verdict: grader.Pass, Feedback: "Correct! Good."}, true, ""},
		{"fail", grader.Result{Verdict: grader.Fail, Feedback: "Incorrect. Sign."}, false, ""},
		{"unclear", grader.Result{Verdict: grader.Unclear, Feedback: "Hmm."}, false, UnclearNote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEngine()
			te.grader.result = tt.result
			te.start(t, []*store.Question{frq("1-1.2-dddddddd", "3x^2")}, 1)
			ctx := context.Background()

			p, err := te.PresentNext(ctx, testChannel)
			require.NoError(t, err)
			assert.Nil(t, p.Options)

			v, err := te.SubmitAnswer(ctx, testChannel, 7, "3x^2")
			require.NoError(t, err)
			assert.Equal(t, tt.correct, v.Correct)
			assert.Equal(t, tt.result.Feedback, v.Feedback)
			assert.Equal(t, tt.note, v.Note)
			assert.Equal(t, "3x^2", v.CorrectDisplay)
			assert.Equal(t, 1, v.Progress.Asked)
		})
	}
}

func TestSubmitAnswer_GraderFailureLeavesStateUnchanged(t *testing.T) {
	te := newTestEngine()
	te.grader.err = errors.New("provider down")
	te.start(t, []*store.Question{frq("1-1.2-dddddddd", "3x^2")}, 1)
	ctx := context.Background()

	_, err := te.PresentNext(ctx, testChannel)
	require.NoError(t, err)

	_, err = te.SubmitAnswer(ctx, testChannel, 7, "3x^2")
	require.ErrorIs(t, err, ErrExternalCall)

	snap, err := te.Status(testChannel)
	require.NoError(t, err)
	assert.Equal(t, Summary{Asked: 1}, snap.Summary)
	assert.Equal(t, "1-1.2-dddddddd", snap.CurrentQuestionID, "question still awaits an answer")
	assert.Empty(t, te.recorder.answers)

	te.grader.err = nil
	v, err := te.SubmitAnswer(ctx, testChannel, 7, "3x^2")
	require.NoError(t, err, "a retry after a grader failure succeeds")
	assert.True(t, v.Correct)
}

func TestSubmitAnswer_RecorderFailure(t *testing.T) {
	te := newTestEngine()
	te.recorder.err = errors.New("disk full")
	te.start(t, unitOnePlan(), 3)
	ctx := context.Background()

	_, err := te.PresentNext(ctx, testChannel)
	require.NoError(t, err)
	_, err = te.SubmitAnswer(ctx, testChannel, 7, "A")
	require.ErrorIs(t, err, ErrExternalCall)

	snap, err := te.Status(testChannel)
	require.NoError(t, err)
	assert.Zero(t, snap.Correct+snap.Incorrect)
	assert.NotEmpty(t, snap.CurrentQuestionID)
}

func TestSubmitAnswer_PendingAndSweptMidGrade(t *testing.T) {
	te := newTestEngine()
	te.grader.started = make(chan struct{}, 1)
	te.grader.block = make(chan struct{})
	te.start(t, []*store.Question{frq("1-1.2-dddddddd", "3x^2")}, 1)
	ctx := context.Background()

	_, err := te.PresentNext(ctx, testChannel)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := te.SubmitAnswer(ctx, testChannel, 7, "3x^2")
		done <- err
	}()

	<-te.grader.started
	_, err = te.SubmitAnswer(ctx, testChannel, 7, "again")
	require.ErrorIs(t, err, ErrAnswerPending)

	te.clock.Advance(10 * time.Minute)
	expired := te.SweepTimedOut(5 * time.Minute)
	require.Len(t, expired, 1)

	close(te.grader.block)
	assert.ErrorIs(t, <-done, ErrNoActiveSession)
	assert.Empty(t, te.recorder.answers, "a swept quiz records nothing")
	assert.Equal(t, Summary{Asked: 1}, expired[0].Summary)
}

func TestEnd_Idempotent(t *testing.T) {
	te := newTestEngine()
	_, ok := te.End(testChannel)
	assert.False(t, ok)

	te.start(t, unitOnePlan(), 3)
	_, ok = te.End(testChannel)
	assert.True(t, ok)
	_, ok = te.End(testChannel)
	assert.False(t, ok)
}

func TestSubmitAnswerTo_StaleQuestion(t *testing.T) {
	tests := []struct {
		name       string
		questionID string
		err        error
	}{
		{name: "current question", questionID: "1-1.1-bbbbbbbb"},
		{name: "any question", questionID: ""},
		{name: "answered question", questionID: "1-1.1-aaaaaaaa", err: ErrStaleQuestion},
		{name: "unknown question", questionID: "1-1.1-zzzzzzzz", err: ErrStaleQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEngine()
			te.start(t, unitOnePlan(), 3)
			ctx := context.Background()

			p, err := te.PresentNext(ctx, testChannel)
			require.NoError(t, err)
			_, err = te.SubmitAnswerTo(ctx, testChannel, 7, p.Question.ID, correctLabelOf(t, p))
			require.NoError(t, err)
			p, err = te.PresentNext(ctx, testChannel)
			require.NoError(t, err)
			require.Equal(t, "1-1.1-bbbbbbbb", p.Question.ID)

			_, err = te.SubmitAnswerTo(ctx, testChannel, 7, tt.questionID, correctLabelOf(t, p))
			snap, serr := te.Status(testChannel)
			require.NoError(t, serr)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Equal(t, "1-1.1-bbbbbbbb", snap.CurrentQuestionID, "a stale answer leaves the current question waiting")
				assert.Equal(t, 1, snap.Correct)
				assert.Len(t, te.recorder.answers, 1)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, snap.CurrentQuestionID)
			assert.Equal(t, 2, snap.Correct)
		})
	}
}

func TestSubmitAnswerTo_StaleBetweenQuestions(t *testing.T) {
	te := newTestEngine()
	te.start(t, unitOnePlan(), 3)
	ctx := context.Background()

	p, err := te.PresentNext(ctx, testChannel)
	require.NoError(t, err)
	_, err = te.SubmitAnswerTo(ctx, testChannel, 7, p.Question.ID, "A")
	require.NoError(t, err)

	_, err = te.SubmitAnswerTo(ctx, testChannel, 7, p.Question.ID, "A")
	assert.ErrorIs(t, err, ErrStaleQuestion)
}

func TestEndAll(t *testing.T) {
	te := newTestEngine()
	assert.Empty(t, te.EndAll())

	ctx := context.Background()
	for _, ch := range []int64{1, 2, 3} {
		_, err := te.Start(StartRequest{Channel: ch, User: ch * 10, Plan: unitOnePlan(), Target: 3})
		require.NoError(t, err)
	}
	p, err := te.PresentNext(ctx, 2)
	require.NoError(t, err)
	_, err = te.SubmitAnswer(ctx, 2, 20, correctLabelOf(t, p))
	require.NoError(t, err)

	ended := te.EndAll()
	require.Len(t, ended, 3)
	assert.Equal(t, 0, te.Active())

	byChannel := make(map[int64]Expired)
	for _, e := range ended {
		byChannel[e.Channel] = e
	}
	assert.Equal(t, int64(20), byChannel[2].User)
	assert.Equal(t, 1, byChannel[2].Summary.Correct)
	assert.Equal(t, 0, byChannel[1].Summary.Asked)

	_, err = te.SubmitAnswer(ctx, 2, 20, "A")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestIsComplete_Monotonic(t *testing.T) {
	te := newTestEngine()
	te.start(t, unitOnePlan()[:2], 2)
	ctx := context.Background()

	var seen []bool
	for range 2 {
		_, err := te.PresentNext(ctx, testChannel)
		require.NoError(t, err)
		done, _ := te.IsComplete(testChannel)
		seen = append(seen, done)
		_, err = te.SubmitAnswer(ctx, testChannel, 7, "A")
		require.NoError(t, err)
		done, _ = te.IsComplete(testChannel)
		seen = append(seen, done)
	}
	done, _ := te.IsComplete(testChannel)
	seen = append(seen, done)

	assert.Equal(t, []bool{false, false, true, true, true}, seen)
}

type fakeRefiller struct {
	questions []*store.Question
	filters   []store.QuestionFilter
	err       error
}

func (r *fakeRefiller) RandomQuestion(_ context.Context, f store.QuestionFilter) (*store.Question, error) {
	r.filters = append(r.filters, f)
	if r.err != nil {
		return nil, r.err
	}
	if len(r.questions) == 0 {
		return nil, nil
	}
	q := r.questions[0]
	r.questions = r.questions[1:]
	return q, nil
}

func TestRefill_SkillQuiz(t *testing.T) {
	first := mcq("1-1.1-aaaaaaaa", "1", "0", "1", "2", "3")
	second := mcq("1-1.1-bbbbbbbb", "x", "x", "y", "z", "w")
	refiller := &fakeRefiller{questions: []*store.Question{first, second}}
	te := newTestEngine(WithRefiller(refiller))

	_, err := te.Start(StartRequest{
		Channel: testChannel, User: 7, Units: []int{1}, SkillID: "1.1",
		Plan: []*store.Question{first}, Target: 3, Refill: true,
	})
	require.NoError(t, err)
	ctx := context.Background()

	var ids []string
	for {
		p, err := te.PresentNext(ctx, testChannel)
		require.NoError(t, err)
		if p.Ended {
			assert.Equal(t, 2, p.Summary.Asked)
			break
		}
		ids = append(ids, p.Question.ID)
		_, err = te.SubmitAnswer(ctx, testChannel, 7, "A")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{first.ID, second.ID}, ids, "repeated draw of an asked question is skipped")
	assert.Equal(t, store.QuestionFilter{Unit: 1, SkillID: "1.1"}, refiller.filters[0])
}

func TestRefill_StopsAtTarget(t *testing.T) {
	refiller := &fakeRefiller{questions: []*store.Question{
		mcq("q2", "a", "a", "b"), mcq("q3", "a", "a", "b"), mcq("q4", "a", "a", "b"),
	}}
	te := newTestEngine(WithRefiller(refiller))
	_, err := te.Start(StartRequest{Channel: testChannel, Plan: []*store.Question{mcq("q1", "a", "a", "b")}, Target: 2, Refill: true})
	require.NoError(t, err)
	ctx := context.Background()

	for range 2 {
		_, err := te.PresentNext(ctx, testChannel)
		require.NoError(t, err)
		_, err = te.SubmitAnswer(ctx, testChannel, 7, "a")
		require.NoError(t, err)
	}
	done, err := te.IsComplete(testChannel)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, store.QuestionFilter{}, refiller.filters[0], "random quiz draws from every unit")
}

func TestRefill_StoreError(t *testing.T) {
	refiller := &fakeRefiller{err: errors.New("db locked")}
	te := newTestEngine(WithRefiller(refiller))
	_, err := te.Start(StartRequest{Channel: testChannel, Plan: []*store.Question{mcq("q1", "a", "a", "b")}, Target: 2, Refill: true})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = te.PresentNext(ctx, testChannel)
	require.NoError(t, err)
	_, err = te.SubmitAnswer(ctx, testChannel, 7, "a")
	require.NoError(t, err)

	_, err = te.PresentNext(ctx, testChannel)
	require.ErrorIs(t, err, ErrExternalCall)
	assert.Equal(t, 1, te.Active(), "quiz survives a failed draw")
}

func TestConcurrentChannels(t *testing.T) {
	te := newTestEngine()
	ctx := context.Background()

	var wg sync.WaitGroup
	for ch := range int64(20) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := te.Start(StartRequest{Channel: ch, User: ch, Plan: unitOnePlan(), Target: 3})
			assert.NoError(t, err)
			for range 3 {
				_, err := te.PresentNext(ctx, ch)
				assert.NoError(t, err)
				_, err = te.SubmitAnswer(ctx, ch, ch, "A")
				assert.NoError(t, err)
			}
			sum, ok := te.End(ch)
			assert.True(t, ok)
			assert.Equal(t, 3, sum.Asked)
		}()
	}
	wg.Wait()
	assert.Zero(t, te.Active())
}
