package gen

import "testing"

func TestResultFinished(t *testing.T) {
	tests := []struct {
		name   string
		reason string
		want   bool
	}{
		{"Empty", "", true},
		{"Stop", "STOP", true},
		{"MaxTokens", "MAX_TOKENS", false},
		{"Safety", "SAFETY", false},
		{"Recitation", "RECITATION", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Result{FinishReason: tt.reason}
			if got := r.Finished(); got != tt.want {
				t.Errorf("Finished() with reason %q = %v, want %v", tt.reason, got, tt.want)
			}
		})
	}
}
