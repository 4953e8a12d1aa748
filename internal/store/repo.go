package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Kind is the representation type of a question.
type Kind string

const (
	KindMCQ Kind = "MCQ"
	KindFRQ Kind = "FRQ"
)

// Difficulty labels used by the generator and stored with each question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties returns every difficulty label in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// Question is one stored question bank entry.
type Question struct {
	ID            string
	Unit          int
	SkillID       string
	Text          string
	Options       []string // nil for free-response
	CorrectAnswer string
	Explanation   string
	Kind          Kind
	Difficulty    Difficulty
	Calculator    bool
	Disabled      bool
	GeneratedAt   time.Time
}

// QuestionSummary is a row of the question overview listing.
type QuestionSummary struct {
	ID          string
	Unit        int
	SkillID     string
	Kind        Kind
	Difficulty  Difficulty
	Disabled    bool
	Snippet     string
	GeneratedAt time.Time
}

// QuestionFilter narrows question queries. Zero values mean "any".
type QuestionFilter struct {
	Unit    int
	SkillID string

	// EnabledOnly drops disabled questions from RecentQuestions. Quiz
	// draws never return disabled questions.
	EnabledOnly bool
}

// QuestionRepo manages the question bank.
type QuestionRepo interface {
	// AddQuestion stores q. It reports false when a question with the
	// same id already exists.
	AddQuestion(ctx context.Context, q *Question) (bool, error)

	// GetQuestion returns a question by id, disabled or not.
	GetQuestion(ctx context.Context, id string) (*Question, error)

	// QuestionsByUnits returns the enabled questions of the given units.
	QuestionsByUnits(ctx context.Context, units []int) ([]*Question, error)

	// QuestionsBySkill returns the enabled questions of one skill.
	QuestionsBySkill(ctx context.Context, unit int, skillID string) ([]*Question, error)

	// RandomQuestion returns one enabled question matching f, or nil.
	RandomQuestion(ctx context.Context, f QuestionFilter) (*Question, error)

	SetDisabled(ctx context.Context, id string, disabled bool) error
	DeleteAllQuestions(ctx context.Context) (int64, error)
	CountQuestions(ctx context.Context) (int, error)

	// RecentQuestions lists the newest questions first. Disabled ones are
	// included unless f.EnabledOnly is set.
	RecentQuestions(ctx context.Context, limit int, f QuestionFilter) ([]QuestionSummary, error)
}

// UserStats is the accumulated answer tally of one user.
type UserStats struct {
	UserID       int64
	Username     string
	Correct      int
	Total        int
	RegisteredAt time.Time
}

// Accuracy returns the fraction of correct answers, 0 when none were given.
func (u UserStats) Accuracy() float64 {
	if u.Total == 0 {
		return 0
	}
	return float64(u.Correct) / float64(u.Total)
}

// UserRepo tracks users and their answers.
type UserRepo interface {
	// EnsureUser registers the user or refreshes the stored username.
	EnsureUser(ctx context.Context, userID int64, username string) error

	// RecordAnswer appends an answer log entry and updates the user's totals.
	RecordAnswer(ctx context.Context, userID int64, questionID string, correct bool, answer string) error

	UserStats(ctx context.Context, userID int64) (*UserStats, error)
	Leaderboard(ctx context.Context, limit int) ([]UserStats, error)
}

// Report is a user complaint about a question.
type Report struct {
	ID           int64
	QuestionID   string
	UserID       int64
	Reason       string
	ReportedAt   time.Time
	QuestionText string
}

// ReportRepo manages question reports.
type ReportRepo interface {
	ReportQuestion(ctx context.Context, questionID string, userID int64, reason string) error

	// ActiveReports returns every open report ordered by question.
	ActiveReports(ctx context.Context) ([]Report, error)

	// ClearReports deletes all reports of a question and returns how many were removed.
	ClearReports(ctx context.Context, questionID string) (int64, error)
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match ("" = any)
	From    time.Time // created_at >= From
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request.
type LLMRequestEvent struct {
	ID        int64
	EventID   string
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates LLM events under one key (a purpose or a model).
type LLMUsage struct {
	Key          string
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
