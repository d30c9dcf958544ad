package scheduler

import (
	"testing"
)

func TestStatusRetryTaskRoundTrip(t *testing.T) {
	task, err := NewStatusRetryTask("SM123", "delivered")
	if err != nil {
		t.Fatalf("NewStatusRetryTask() error = %v", err)
	}
	if task.Type() != TypeStatusRetry {
		t.Errorf("task type = %q, want %q", task.Type(), TypeStatusRetry)
	}

	payload, err := parseStatusRetryPayload(task.Payload())
	if err != nil {
		t.Fatalf("parseStatusRetryPayload() error = %v", err)
	}
	if payload.ProviderMessageID != "SM123" || payload.Status != "delivered" {
		t.Errorf("payload = %+v, want SM123/delivered", payload)
	}
}

func TestParseStatusRetryPayloadRejectsGarbage(t *testing.T) {
	if _, err := parseStatusRetryPayload([]byte("not-json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
