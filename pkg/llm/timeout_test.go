package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GontrandL/autoweave-agents/pkg/llm/llmerrors"
)

// slowClient blocks until its context is cancelled.
type slowClient struct{}

func (slowClient) Complete(ctx context.Context, _ CompletionRequest) (CompletionResponse, error) {
	<-ctx.Done()
	return CompletionResponse{}, ctx.Err()
}

func (slowClient) ModelName() string { return "slow" }

func TestWithTimeout_DeadlineClassifiedTransient(t *testing.T) {
	client := WithTimeout(slowClient{}, 10*time.Millisecond)

	_, err := client.Complete(context.Background(), NewCompletionRequest(
		[]CompletionMessage{NewUserMessage("hello")}))
	require.Error(t, err)
	assert.Equal(t, llmerrors.ErrorTypeTransient, llmerrors.TypeOf(err))
}

func TestWithTimeout_PassthroughSuccess(t *testing.T) {
	mock := NewMockClient([]CompletionResponse{{Content: "ok"}}, nil)
	client := WithTimeout(mock, time.Second)

	resp, err := client.Complete(context.Background(), NewCompletionRequest(
		[]CompletionMessage{NewUserMessage("hello")}))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, "mock", client.ModelName())
}

func TestMockClient_ExhaustedResponses(t *testing.T) {
	mock := NewMockClient(nil, nil)
	_, err := mock.Complete(context.Background(), CompletionRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, mock.Calls())
}
