// Package scheduler provides the Redis-backed background task queue: task
// definitions, the enqueue client, and the worker server.
package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeStatusRetry replays a provider status callback that raced ahead of the
// send that logs its message.
const TypeStatusRetry = "conversations.status.retry"

// StatusRetryPayload carries the deferred callback.
type StatusRetryPayload struct {
	ProviderMessageID string `json:"providerMessageId"`
	Status            string `json:"status"`
}

// NewStatusRetryTask builds the retry task.
func NewStatusRetryTask(providerMessageID, status string) (*asynq.Task, error) {
	payload, err := json.Marshal(StatusRetryPayload{
		ProviderMessageID: providerMessageID,
		Status:            status,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal status retry payload: %w", err)
	}
	return asynq.NewTask(TypeStatusRetry, payload), nil
}

func parseStatusRetryPayload(data []byte) (StatusRetryPayload, error) {
	var payload StatusRetryPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return StatusRetryPayload{}, fmt.Errorf("unmarshal status retry payload: %w", err)
	}
	if payload.ProviderMessageID == "" {
		return StatusRetryPayload{}, fmt.Errorf("status retry payload missing provider message id")
	}
	return payload, nil
}
