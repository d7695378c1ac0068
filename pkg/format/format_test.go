package format

import (
	"testing"
	"time"
)

func TestDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "2025-12-09T10:00:00Z", want: "2025-12-09"},
		{in: "2025-12-09T23:30:00-02:00", want: "2025-12-10"},
		{in: "2025-12-09", want: "2025-12-09"},
		{in: "2025-12-09 08:15:00", want: "2025-12-09"},
		{in: "", want: "-"},
		{in: "yesterday", want: "-"},
	}
	for _, tc := range cases {
		if got := Date(tc.in, time.UTC); got != tc.want {
			t.Fatalf("Date(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDateTime(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	if got := DateTime("2025-12-09T10:05:59Z", shanghai); got != "2025-12-09 18:05" {
		t.Fatalf("unexpected %q", got)
	}
	if got := DateTime(" ", nil); got != Placeholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestStatus(t *testing.T) {
	if b := Status("borrowed", false); b.Label != "借阅中" || b.Class != "badge-primary" {
		t.Fatalf("unexpected badge %+v", b)
	}
	if b := Status("borrowed", true); b.Label != "已逾期" || b.Class != "badge-danger" {
		t.Fatalf("overdue must win, got %+v", b)
	}
	if b := Status("lost", false); b.Label != "lost" || b.Class != "badge-secondary" {
		t.Fatalf("unexpected fallback %+v", b)
	}
	if b := Status("admin", false); b.Class != "badge-dark" {
		t.Fatalf("unexpected role badge %+v", b)
	}
}
