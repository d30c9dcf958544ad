package phone

import "testing"

func TestMatchKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+15555551234", "5555551234"},
		{"(555) 555-1234", "5555551234"},
		{"555.555.1234", "5555551234"},
		{"15555551234", "5555551234"},
		{"5551234", "5551234"},
		{"", ""},
		{"+31 6 1234 5678", "0612345678"},
	}

	for _, tc := range tests {
		if got := MatchKey(tc.input); got != tc.want {
			t.Errorf("MatchKey(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatOutbound(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"(555) 555-1234", "+15555551234"},
		{"+1 555 555 1234", "+15555551234"},
		{"+1 (555) 555-1234", "+15555551234"},
		{"555-555-1234", "+15555551234"},
	}

	for _, tc := range tests {
		got := FormatOutbound(tc.input)
		if got != tc.want {
			t.Errorf("FormatOutbound(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+1 (555) 555-0000 ext. 9"); got != "155555500009" {
		t.Errorf("Digits() = %q", got)
	}
}
