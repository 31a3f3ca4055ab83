package trading

import (
	"errors"
	"testing"
	"time"

	errs "dhan-trader/internal/errors"
)

func mustGuard(t *testing.T) *WindowGuard {
	t.Helper()
	guard, err := NewWindowGuard("09:15", "15:30", time.UTC)
	if err != nil {
		t.Fatalf("NewWindowGuard: %v", err)
	}
	return guard
}

func TestWindowBoundaries(t *testing.T) {
	guard := mustGuard(t)
	// 2026-08-24 is a Monday.
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		clock string
		open  bool
	}{
		{"09:14", false},
		{"09:15", true},
		{"12:00", true},
		{"15:29", true},
		{"15:30", false},
		{"16:00", false},
	}
	for _, tc := range cases {
		var h, m int
		if _, err := parseSplit(tc.clock, &h, &m); err != nil {
			t.Fatal(err)
		}
		now := day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
		if got := guard.IsOpen(now); got != tc.open {
			t.Errorf("IsOpen(%s) = %v, want %v", tc.clock, got, tc.open)
		}
	}
}

// parseSplit splits HH:MM for test cases.
func parseSplit(value string, h, m *int) (int, error) {
	minutes, err := parseClock(value)
	if err != nil {
		return 0, err
	}
	*h = minutes / 60
	*m = minutes % 60
	return minutes, nil
}

func TestWindowWeekendClosed(t *testing.T) {
	guard := mustGuard(t)
	guard.SetCalendar(WeekdayCalendar{})

	// 2026-08-22 is a Saturday.
	saturday := time.Date(2026, 8, 22, 11, 0, 0, 0, time.UTC)
	if guard.IsOpen(saturday) {
		t.Error("Saturday inside session hours must be closed")
	}

	monday := time.Date(2026, 8, 24, 11, 0, 0, 0, time.UTC)
	if !guard.IsOpen(monday) {
		t.Error("Monday inside session hours must be open")
	}
}

func TestWindowOverride(t *testing.T) {
	guard := mustGuard(t)
	guard.SetOverride(true)

	midnight := time.Date(2026, 8, 24, 2, 0, 0, 0, time.UTC)
	if !guard.IsOpen(midnight) {
		t.Error("override must bypass the window check")
	}
}

func TestWindowRejectsBadBounds(t *testing.T) {
	cases := []struct{ start, end string }{
		{"0915", "15:30"},
		{"09:15", "25:00"},
		{"09:15", "09:15"},
		{"15:30", "09:15"},
	}
	for _, tc := range cases {
		_, err := NewWindowGuard(tc.start, tc.end, time.UTC)
		if err == nil {
			t.Errorf("NewWindowGuard(%q, %q): expected error", tc.start, tc.end)
			continue
		}
		if !errors.Is(err, errs.ErrInvalidConfiguration) {
			t.Errorf("NewWindowGuard(%q, %q): expected ErrInvalidConfiguration, got %v", tc.start, tc.end, err)
		}
	}
}

func TestWindowTimezoneConversion(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	guard, err := NewWindowGuard("09:15", "15:30", ist)
	if err != nil {
		t.Fatal(err)
	}

	// 05:00 UTC on a weekday is 10:30 IST, inside the session.
	if !guard.IsOpen(time.Date(2026, 8, 24, 5, 0, 0, 0, time.UTC)) {
		t.Error("10:30 IST must be open")
	}
	// 11:00 UTC is 16:30 IST, after close.
	if guard.IsOpen(time.Date(2026, 8, 24, 11, 0, 0, 0, time.UTC)) {
		t.Error("16:30 IST must be closed")
	}
}
