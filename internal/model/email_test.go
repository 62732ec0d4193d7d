package model

import "testing"

func TestSeen(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
		want  bool
	}{
		{"seen", []string{`\Seen`}, true},
		{"seen among others", []string{`\Answered`, `\Seen`}, true},
		{"unseen", []string{`\Answered`}, false},
		{"no flags", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &EmailMessage{Flags: tt.flags}
			if got := msg.Seen(); got != tt.want {
				t.Errorf("Seen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	results := []BulkResult{
		{Recipient: "a@example.com", Success: true},
		{Recipient: "b@example.com", Success: false, Error: "rejected"},
		{Recipient: "c@example.com", Success: true},
	}

	summary := Summarize(results)

	if summary.Sent != 2 {
		t.Errorf("Sent = %d, want 2", summary.Sent)
	}
	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}
	if summary.Sent+summary.Failed != len(summary.Results) {
		t.Error("Sent + Failed must partition Results")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	if summary.Sent != 0 || summary.Failed != 0 {
		t.Errorf("Summarize(nil) = %d/%d, want 0/0", summary.Sent, summary.Failed)
	}
}
