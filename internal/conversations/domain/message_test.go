package domain

import "testing"

func TestNormalizeProviderStatus(t *testing.T) {
	tests := []struct {
		provider string
		want     Status
	}{
		{"queued", StatusSent},
		{"accepted", StatusSent},
		{"sending", StatusSent},
		{"sent", StatusSent},
		{"delivered", StatusDelivered},
		{"read", StatusDelivered},
		{"failed", StatusFailed},
		{"undelivered", StatusFailed},
		{"canceled", StatusFailed},
		{"something-new", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeProviderStatus(tt.provider); got != tt.want {
			t.Errorf("NormalizeProviderStatus(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestIsKnownChannel(t *testing.T) {
	if !IsKnownChannel("sms") || !IsKnownChannel("email") {
		t.Error("sms and email must be known channels")
	}
	if IsKnownChannel("carrier-pigeon") {
		t.Error("unknown channel accepted")
	}
}
