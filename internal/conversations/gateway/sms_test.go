package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"recruitflow_backend/internal/conversations/domain"
	"recruitflow_backend/platform/config"
	"recruitflow_backend/platform/logger"
)

func smsClientFor(t *testing.T, server *httptest.Server) *SMSClient {
	t.Helper()

	cfg := &config.Config{
		SMSAccountSID: "AC123",
		SMSAuthToken:  "token",
		SMSAPIBaseURL: server.URL,
		SMSFromNumber: "+15550001111",
	}
	client := NewSMSClient(cfg, logger.New("development"))
	if client == nil {
		t.Fatal("NewSMSClient() returned nil with credentials set")
	}
	return client
}

func TestSMSSendAccepted(t *testing.T) {
	var gotPath, gotTo string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotTo = r.PostFormValue("To")

		if user, pass, ok := r.BasicAuth(); !ok || user != "AC123" || pass != "token" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42","status":"queued"}`))
	}))
	defer server.Close()

	client := smsClientFor(t, server)
	result, err := client.Send(context.Background(), Message{
		To:   "(555) 555-1234",
		Body: "hello",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotPath != "/Accounts/AC123/Messages.json" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotTo != "+15555551234" {
		t.Errorf("To = %q, want normalized +15555551234", gotTo)
	}
	if !result.Ok {
		t.Error("result not accepted")
	}
	if result.ProviderMessageID != "SM42" {
		t.Errorf("provider message id = %q, want SM42", result.ProviderMessageID)
	}
	if result.Status != domain.StatusSent {
		t.Errorf("status = %q, want sent for a queued accept", result.Status)
	}
}

func TestSMSSendRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"invalid 'To' number"}`))
	}))
	defer server.Close()

	client := smsClientFor(t, server)
	result, err := client.Send(context.Background(), Message{To: "bogus", Body: "hello"})
	if err != nil {
		t.Fatalf("Send() error = %v, rejections must come back as results", err)
	}

	if result.Ok {
		t.Error("rejected send reported as accepted")
	}
	if result.Status != domain.StatusFailed {
		t.Errorf("status = %q, want failed", result.Status)
	}
	if result.Detail != "invalid 'To' number" {
		t.Errorf("detail = %q", result.Detail)
	}
}

func TestNilSMSClientRejects(t *testing.T) {
	var client *SMSClient

	result, err := client.Send(context.Background(), Message{To: "+15555551234", Body: "x"})
	if err != nil {
		t.Fatalf("nil client Send() error = %v", err)
	}
	if result.Ok {
		t.Error("nil client accepted a send")
	}
}

func TestNewSMSClientDisabledWithoutCredentials(t *testing.T) {
	if client := NewSMSClient(&config.Config{}, logger.New("development")); client != nil {
		t.Error("client created without credentials")
	}
}
