package quiz

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abhisek/calcbot/internal/store"
)

// Summary is the tally of a quiz.
type Summary struct {
	Correct   int
	Incorrect int
	Asked     int
}

// Snapshot is a read-only view of a running quiz.
type Snapshot struct {
	Channel int64
	User    int64
	Units   []int
	SkillID string

	Summary
	Limit int

	// CurrentQuestionID is set while a question awaits an answer.
	CurrentQuestionID string

	StartedAt    time.Time
	LastActivity time.Time
}

// session is the state of one channel's quiz. mu guards every field
// except lastActivity, which the sweeper reads without taking mu.
type session struct {
	mu sync.Mutex

	channel int64
	user    int64
	units   []int
	skillID string

	plan   []*store.Question
	target int
	refill bool

	asked     int
	correct   int
	incorrect int
	askedIDs  map[string]bool

	current      *store.Question
	options      OptionMap
	correctLabel string
	seq          uint64
	grading      bool

	startedAt    time.Time
	lastActivity atomic.Int64 // unix nanoseconds
}

// limit is the number of questions the quiz runs to.
func (s *session) limit() int {
	if s.refill {
		return s.target
	}
	return len(s.plan)
}

func (s *session) touch(now time.Time) {
	s.lastActivity.Store(now.UnixNano())
}

func (s *session) idleSince() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *session) summary() Summary {
	return Summary{Correct: s.correct, Incorrect: s.incorrect, Asked: s.asked}
}

func (s *session) snapshot() *Snapshot {
	snap := &Snapshot{
		Channel:      s.channel,
		User:         s.user,
		Units:        slices.Clone(s.units),
		SkillID:      s.skillID,
		Summary:      s.summary(),
		Limit:        s.limit(),
		StartedAt:    s.startedAt,
		LastActivity: s.idleSince(),
	}
	if s.current != nil {
		snap.CurrentQuestionID = s.current.ID
	}
	return snap
}

// presentation builds the view of the current question.
func (s *session) presentation() *Presentation {
	return &Presentation{
		Question: s.current,
		Options:  s.options,
		Number:   s.asked,
		Total:    s.limit(),
	}
}
