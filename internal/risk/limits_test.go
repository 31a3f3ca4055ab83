package risk

import (
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDailyLimitPerSymbol(t *testing.T) {
	tracker := NewDailyLimitTracker(2, 10)
	tracker.SetClock(fixedClock(time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)))

	if !tracker.Allows("11536") {
		t.Fatal("fresh tracker must allow")
	}
	tracker.Record("11536")
	if !tracker.Allows("11536") {
		t.Fatal("one trade recorded, one slot left")
	}
	tracker.Record("11536")
	if tracker.Allows("11536") {
		t.Error("per-symbol limit reached, must reject")
	}
	if !tracker.Allows("2885") {
		t.Error("another symbol must still be allowed")
	}
}

func TestDailyLimitTotal(t *testing.T) {
	tracker := NewDailyLimitTracker(10, 3)
	tracker.SetClock(fixedClock(time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)))

	tracker.Record("A")
	tracker.Record("B")
	tracker.Record("C")
	if tracker.Allows("D") {
		t.Error("aggregate limit reached, must reject every symbol")
	}
}

func TestDailyLimitRollover(t *testing.T) {
	tracker := NewDailyLimitTracker(1, 1)
	day1 := time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC)
	tracker.SetClock(fixedClock(day1))

	tracker.Record("11536")
	if tracker.Allows("11536") {
		t.Fatal("limit consumed on day one")
	}

	tracker.SetClock(fixedClock(day1.Add(24 * time.Hour)))
	if !tracker.Allows("11536") {
		t.Error("counters must reset on the next trading day")
	}
	perSymbol, total := tracker.Remaining("11536")
	if perSymbol != 1 || total != 1 {
		t.Errorf("expected full allowance after rollover, got %d/%d", perSymbol, total)
	}
}

func TestDailyLimitDisabled(t *testing.T) {
	tracker := NewDailyLimitTracker(0, 0)

	for i := 0; i < 50; i++ {
		tracker.Record("11536")
	}
	if !tracker.Allows("11536") {
		t.Error("zero limits mean unbounded")
	}
	perSymbol, total := tracker.Remaining("11536")
	if perSymbol != -1 || total != -1 {
		t.Errorf("disabled limits must report -1, got %d/%d", perSymbol, total)
	}
}
