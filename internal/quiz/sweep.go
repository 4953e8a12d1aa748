package quiz

import (
	"context"
	"fmt"
	"time"
)

// Expired is a quiz removed by the idle sweep.
type Expired struct {
	Channel int64
	User    int64
	Summary Summary
}

// TimeoutMessage is the channel notice for an expired quiz.
func TimeoutMessage(sum Summary) string {
	return fmt.Sprintf("Your quiz in this channel has timed out due to inactivity. You answered %d out of %d questions correctly.",
		sum.Correct, sum.Asked)
}

// SweepTimedOut removes and returns every quiz idle for longer than
// maxIdle. Removal happens under the registry lock, so a concurrent
// operation on a swept quiz sees ErrNoActiveSession.
func (e *Engine) SweepTimedOut(maxIdle time.Duration) []Expired {
	now := e.now()

	e.mu.Lock()
	var swept []*session
	for ch, s := range e.sessions {
		if now.Sub(s.idleSince()) > maxIdle {
			swept = append(swept, s)
			delete(e.sessions, ch)
		}
	}
	e.mu.Unlock()

	expired := make([]Expired, 0, len(swept))
	for _, s := range swept {
		s.mu.Lock()
		exp := Expired{Channel: s.channel, User: s.user, Summary: s.summary()}
		s.mu.Unlock()
		e.log.Info("quiz timed out", "channel", exp.Channel, "correct", exp.Summary.Correct, "asked", exp.Summary.Asked)
		expired = append(expired, exp)
	}
	return expired
}

// RunSweeper calls SweepTimedOut every interval until ctx is done, passing
// each expired quiz to notify.
func (e *Engine) RunSweeper(ctx context.Context, interval, maxIdle time.Duration, notify func(Expired)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, exp := range e.SweepTimedOut(maxIdle) {
				if notify != nil {
					notify(exp)
				}
			}
		}
	}
}
