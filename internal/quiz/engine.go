// Package quiz runs per-channel quiz sessions: sequencing planned
// questions, shuffling multiple-choice options, grading answers and
// expiring idle quizzes.
package quiz

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/calcbot/internal/grader"
	"github.com/abhisek/calcbot/internal/logger"
	"github.com/abhisek/calcbot/internal/store"
)

// UnclearNote is attached to verdicts the grader could not decide.
const UnclearNote = "This answer could not be graded clearly"

// maxRefillAttempts bounds the random draws made to find a question not
// yet asked in this quiz.
const maxRefillAttempts = 5

// Recorder persists answers. store.UserRepo satisfies it.
type Recorder interface {
	RecordAnswer(ctx context.Context, userID int64, questionID string, correct bool, answer string) error
}

// Refiller draws a random question for quizzes that fetch questions on
// demand. store.QuestionRepo satisfies it.
type Refiller interface {
	RandomQuestion(ctx context.Context, f store.QuestionFilter) (*store.Question, error)
}

// StartRequest describes a new quiz.
type StartRequest struct {
	Channel int64
	User    int64

	// Units and SkillID record the quiz scope. With Refill, a single unit
	// and the skill also filter the questions drawn on demand.
	Units   []int
	SkillID string

	// Plan is the ordered list of questions. It is truncated to Target.
	Plan   []*store.Question
	Target int

	// Refill keeps drawing random questions from the Refiller once the
	// plan is used up, until Target questions were asked.
	Refill bool
}

// Presentation is the next question to show, or the final summary when
// the quiz ended.
type Presentation struct {
	Ended   bool
	Summary Summary

	Question *store.Question
	Options  OptionMap // nil for free-response
	Number   int       // 1-based position of this question
	Total    int
}

// Verdict is the graded result of one answer.
type Verdict struct {
	QuestionID string
	Kind       store.Kind
	Correct    bool

	// CorrectAnswer is the plain correct answer. CorrectDisplay prefixes
	// it with its label for multiple-choice questions, e.g. "B) 2x".
	CorrectAnswer  string
	CorrectDisplay string

	Explanation string
	Feedback    string // grader feedback, free-response only
	Note        string

	Progress Summary
	Limit    int
}

// Engine owns the registry of running quizzes, one per channel.
//
// Lock order is session before registry. The registry lock is never
// held while acquiring a session lock.
type Engine struct {
	grader   grader.Grader
	recorder Recorder
	refiller Refiller
	log      *logger.Logger
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu       sync.Mutex
	sessions map[int64]*session
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand sets the source used to shuffle options.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithRefiller enables on-demand question draws for Refill quizzes.
func WithRefiller(r Refiller) Option {
	return func(e *Engine) { e.refiller = r }
}

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an Engine with no running quizzes.
func NewEngine(g grader.Grader, recorder Recorder, opts ...Option) *Engine {
	e := &Engine{
		grader:   g,
		recorder: recorder,
		log:      logger.Nop(),
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		sessions: make(map[int64]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start registers a new quiz for req.Channel.
func (e *Engine) Start(req StartRequest) (*Snapshot, error) {
	plan := req.Plan
	if req.Target > 0 && len(plan) > req.Target {
		plan = plan[:req.Target]
	}
	target := req.Target
	if target <= 0 {
		target = len(plan)
	}

	now := e.now()
	s := &session{
		channel:   req.Channel,
		user:      req.User,
		units:     append([]int(nil), req.Units...),
		skillID:   req.SkillID,
		plan:      append([]*store.Question(nil), plan...),
		target:    target,
		refill:    req.Refill && e.refiller != nil,
		askedIDs:  make(map[string]bool),
		startedAt: now,
	}
	s.touch(now)

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sessions[req.Channel]; ok {
		return nil, ErrAlreadyActive
	}
	if len(s.plan) == 0 {
		return nil, ErrEmptyQuestionPool
	}
	e.sessions[req.Channel] = s

	e.log.Info("quiz started", "channel", req.Channel, "user", req.User,
		"units", req.Units, "skill", req.SkillID, "limit", s.limit())
	return s.snapshot(), nil
}

// PresentNext advances the quiz in channel to its next question. When the
// quiz has run its course it is ended and the returned Presentation has
// Ended set. A question still awaiting an answer is returned again
// unchanged.
func (e *Engine) PresentNext(ctx context.Context, channel int64) (*Presentation, error) {
	s := e.lookup(channel)
	if s == nil {
		return nil, ErrNoActiveSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !e.registered(s) {
		return nil, ErrNoActiveSession
	}
	if s.current != nil {
		return s.presentation(), nil
	}

	q, err := e.nextQuestion(ctx, s)
	if err != nil {
		return nil, err
	}
	if q == nil {
		e.remove(s)
		e.log.Info("quiz finished", "channel", channel, "correct", s.correct, "asked", s.asked)
		return &Presentation{Ended: true, Summary: s.summary()}, nil
	}

	s.current = q
	s.options, s.correctLabel = nil, ""
	if q.Kind == store.KindMCQ {
		e.rngMu.Lock()
		s.options, s.correctLabel = ShuffleOptions(q.Options, q.CorrectAnswer, e.rng)
		e.rngMu.Unlock()
		if s.correctLabel == "" {
			e.log.Warn("correct answer matches no option", "question", q.ID)
		}
	}
	s.asked++
	s.seq++
	s.askedIDs[q.ID] = true
	s.touch(e.now())

	return s.presentation(), nil
}

// nextQuestion returns the next planned question, a refilled one, or nil
// when the quiz is over. s.mu must be held.
func (e *Engine) nextQuestion(ctx context.Context, s *session) (*store.Question, error) {
	if s.asked >= s.limit() {
		return nil, nil
	}
	if s.asked < len(s.plan) {
		return s.plan[s.asked], nil
	}

	filter := store.QuestionFilter{SkillID: s.skillID}
	if len(s.units) == 1 {
		filter.Unit = s.units[0]
	}
	for range maxRefillAttempts {
		q, err := e.refiller.RandomQuestion(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("%w: drawing question: %w", ErrExternalCall, err)
		}
		if q == nil {
			return nil, nil
		}
		if !s.askedIDs[q.ID] {
			return q, nil
		}
	}
	return nil, nil
}

// SubmitAnswer grades raw as user's answer to the current question.
//
// The grader runs without any lock held. Its result is applied only if
// the quiz is still registered and still on the same question; a quiz
// swept or stopped meanwhile yields ErrNoActiveSession.
func (e *Engine) SubmitAnswer(ctx context.Context, channel, user int64, raw string) (*Verdict, error) {
	return e.SubmitAnswerTo(ctx, channel, user, "", raw)
}

// SubmitAnswerTo is SubmitAnswer pinned to questionID. An answer to a
// question that is no longer current yields ErrStaleQuestion and leaves
// the quiz untouched. An empty questionID matches any current question.
func (e *Engine) SubmitAnswerTo(ctx context.Context, channel, user int64, questionID, raw string) (*Verdict, error) {
	s := e.lookup(channel)
	if s == nil {
		return nil, ErrNoActiveSession
	}

	s.mu.Lock()
	if questionID != "" && (s.current == nil || s.current.ID != questionID) {
		s.mu.Unlock()
		return nil, ErrStaleQuestion
	}
	if s.current == nil {
		s.mu.Unlock()
		return nil, ErrNoCurrentQuestion
	}
	if s.grading {
		s.mu.Unlock()
		return nil, ErrAnswerPending
	}
	s.touch(e.now())
	q, options, correctLabel, seq := s.current, s.options, s.correctLabel, s.seq
	s.grading = true
	s.mu.Unlock()

	v, err := e.judge(ctx, q, options, correctLabel, raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == seq {
		s.grading = false
	}
	if err != nil {
		return nil, err
	}
	if s.seq != seq || !e.registered(s) {
		return nil, ErrNoActiveSession
	}

	if err := e.recorder.RecordAnswer(ctx, user, q.ID, v.Correct, raw); err != nil {
		return nil, fmt.Errorf("%w: recording answer: %w", ErrExternalCall, err)
	}

	if v.Correct {
		s.correct++
	} else {
		s.incorrect++
	}
	s.current, s.options, s.correctLabel = nil, nil, ""
	s.touch(e.now())

	v.Progress = s.summary()
	v.Limit = s.limit()
	return v, nil
}

// judge decides correctness without touching session state.
func (e *Engine) judge(ctx context.Context, q *store.Question, options OptionMap, correctLabel, raw string) (*Verdict, error) {
	v := &Verdict{
		QuestionID:     q.ID,
		Kind:           q.Kind,
		CorrectAnswer:  q.CorrectAnswer,
		CorrectDisplay: q.CorrectAnswer,
		Explanation:    q.Explanation,
	}

	if q.Kind == store.KindMCQ {
		correctText := strings.TrimSpace(q.CorrectAnswer)
		if text, ok := options.Lookup(correctLabel); ok {
			correctText = text
			v.CorrectAnswer = text
			v.CorrectDisplay = fmt.Sprintf("%s) %s", correctLabel, text)
		}
		v.Correct = matchChoice(options, correctText, raw)
		return v, nil
	}

	res, err := e.grader.GradeFreeResponse(ctx, grader.Input{
		QuestionText:  q.Text,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		UserAnswer:    raw,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: grading answer: %w", ErrExternalCall, err)
	}
	v.Feedback = res.Feedback
	switch res.Verdict {
	case grader.Pass:
		v.Correct = true
	case grader.Unclear:
		v.Note = UnclearNote
	}
	return v, nil
}

// IsComplete reports whether the quiz in channel has asked all its
// questions. Once true it stays true until the quiz ends.
func (e *Engine) IsComplete(channel int64) (bool, error) {
	s := e.lookup(channel)
	if s == nil {
		return false, ErrNoActiveSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asked >= s.limit(), nil
}

// End removes the quiz in channel and returns its tally. ok is false when
// there was nothing to end.
func (e *Engine) End(channel int64) (sum Summary, ok bool) {
	e.mu.Lock()
	s, ok := e.sessions[channel]
	delete(e.sessions, channel)
	e.mu.Unlock()
	if !ok {
		return Summary{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.log.Info("quiz ended", "channel", channel, "correct", s.correct, "asked", s.asked)
	return s.summary(), true
}

// EndAll removes every running quiz and returns their tallies. Answers
// still being graded for a removed quiz yield ErrNoActiveSession.
func (e *Engine) EndAll() []Expired {
	e.mu.Lock()
	removed := make([]*session, 0, len(e.sessions))
	for ch, s := range e.sessions {
		removed = append(removed, s)
		delete(e.sessions, ch)
	}
	e.mu.Unlock()

	ended := make([]Expired, 0, len(removed))
	for _, s := range removed {
		s.mu.Lock()
		ended = append(ended, Expired{Channel: s.channel, User: s.user, Summary: s.summary()})
		s.mu.Unlock()
	}
	if len(ended) > 0 {
		e.log.Info("all quizzes ended", "count", len(ended))
	}
	return ended
}

// Status returns a snapshot of the quiz in channel.
func (e *Engine) Status(channel int64) (*Snapshot, error) {
	s := e.lookup(channel)
	if s == nil {
		return nil, ErrNoActiveSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Active returns the number of running quizzes.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func (e *Engine) lookup(channel int64) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[channel]
}

// registered reports whether s is still the quiz of its channel.
func (e *Engine) registered(s *session) bool {
	return e.lookup(s.channel) == s
}

// remove unregisters s unless another quiz has replaced it.
func (e *Engine) remove(s *session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sessions[s.channel] == s {
		delete(e.sessions, s.channel)
	}
}
