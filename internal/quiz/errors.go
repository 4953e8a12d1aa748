package quiz

import "errors"

var (
	// ErrAlreadyActive is returned by Start when the channel already has a quiz.
	ErrAlreadyActive = errors.New("a quiz is already active in this channel")

	// ErrNoActiveSession is returned when the channel has no quiz.
	ErrNoActiveSession = errors.New("no active quiz in this channel")

	// ErrNoCurrentQuestion is returned by SubmitAnswer when no question is
	// awaiting an answer.
	ErrNoCurrentQuestion = errors.New("no question is awaiting an answer")

	// ErrStaleQuestion is returned by SubmitAnswerTo when the answer names
	// a question that is no longer awaiting an answer.
	ErrStaleQuestion = errors.New("that question is no longer active")

	// ErrEmptyQuestionPool is returned by Start when the plan is empty.
	ErrEmptyQuestionPool = errors.New("no questions match the requested scope")

	// ErrAnswerPending is returned when another answer to the same
	// question is still being graded.
	ErrAnswerPending = errors.New("an answer to this question is already being graded")

	// ErrExternalCall wraps grader, recorder and refill failures. Session
	// state is unchanged when it is returned.
	ErrExternalCall = errors.New("external call failed")
)
