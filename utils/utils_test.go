package utils

import (
	"testing"
	"time"
)

func TestTimeAgo(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"two hours", now.Add(-2 * time.Hour), "2 hours ago"},
		{"same hour", now.Add(-10 * time.Minute), "0 hours ago"},
		{"yesterday", now.Add(-30 * time.Hour), "Yesterday"},
		{"three days", now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{"ten days", now.Add(-10*24*time.Hour - time.Hour), "10 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeAgo(tt.t); got != tt.want {
				t.Errorf("TimeAgo() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateRateLimitKey(t *testing.T) {
	got := GenerateRateLimitKey("1.2.3.4", "a@example.com", "/auth/login")
	want := "rl:1.2.3.4:a@example.com:/auth/login"
	if got != want {
		t.Errorf("GenerateRateLimitKey() = %q, want %q", got, want)
	}
}
