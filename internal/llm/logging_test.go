package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/calcbot/internal/logger"
	"github.com/abhisek/calcbot/internal/store"
)

func openEventRepo(t *testing.T) store.EventRepo {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	repo := openEventRepo(t)
	mock := NewMockProvider(MockResponse{
		Content: []byte("Correct! Well done."),
		Usage:   Usage{InputTokens: 12, OutputTokens: 4},
	})

	var observed []string
	p := WithLogging(mock, ProviderGroq, repo, logger.Nop(), WithObserver(func(purpose string, success bool, _ time.Duration) {
		observed = append(observed, fmt.Sprintf("%s:%v", purpose, success))
	}))

	ctx := WithPurpose(context.Background(), PurposeGrading)
	_, err := p.Generate(ctx, Request{
		System:   "grader",
		Messages: []Message{{Role: RoleUser, Content: "Student answer: 2x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"grading:true"}, observed)

	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, ProviderGroq, ev.Provider)
	assert.Equal(t, PurposeGrading, ev.Purpose)
	assert.True(t, ev.Success)
	assert.Equal(t, 12, ev.InputTokens)
	assert.Contains(t, ev.RequestBody, "[system]\ngrader")
	assert.Contains(t, ev.RequestBody, "Student answer: 2x")
	assert.Equal(t, "Correct! Well done.", ev.ResponseBody)
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	repo := openEventRepo(t)
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("boom")}})
	p := WithLogging(mock, ProviderOpenAI, repo, logger.Nop())

	_, err := p.Generate(WithPurpose(context.Background(), PurposeQuestionGen), Request{})
	require.Error(t, err)

	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{Purpose: PurposeQuestionGen})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Contains(t, events[0].ErrorMessage, "boom")
}

func TestLoggingProvider_NilRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockText("ok")), ProviderMock, nil, logger.Nop())
	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
	assert.Equal(t, "mock", p.ModelID())
}

func TestPurposeFrom_Default(t *testing.T) {
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
}
