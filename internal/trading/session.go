// Package trading provides the trade-decision pipeline and its safety
// guards.
package trading

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	errs "dhan-trader/internal/errors"
)

// Calendar answers whether a date is a trading day. Holiday awareness is an
// external collaborator; absent one, only the time-of-day window applies.
type Calendar interface {
	IsTradingDay(t time.Time) bool
}

// WindowGuard checks whether a wall-clock instant falls inside the
// configured trading session. The window is start-inclusive and
// end-exclusive: with a 09:15-15:30 session, 09:15 trades and 15:30 does
// not.
type WindowGuard struct {
	startMinutes int
	endMinutes   int
	location     *time.Location
	calendar     Calendar
	override     bool
}

// NewWindowGuard parses "HH:MM" session bounds. location defaults to
// Asia/Kolkata when nil.
func NewWindowGuard(start, end string, location *time.Location) (*WindowGuard, error) {
	startMin, err := parseClock(start)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrInvalidConfiguration, "trading window start %q: %v", start, err)
	}
	endMin, err := parseClock(end)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrInvalidConfiguration, "trading window end %q: %v", end, err)
	}
	if endMin <= startMin {
		return nil, errs.Wrapf(errs.ErrInvalidConfiguration, "trading window %s-%s is empty", start, end)
	}
	if location == nil {
		location, _ = time.LoadLocation("Asia/Kolkata")
	}
	return &WindowGuard{startMinutes: startMin, endMinutes: endMin, location: location}, nil
}

// SetCalendar attaches a trading-day calendar collaborator.
func (g *WindowGuard) SetCalendar(calendar Calendar) {
	g.calendar = calendar
}

// SetOverride disables the window check entirely. Only permissible in
// non-production configuration; config validation rejects it for live runs.
func (g *WindowGuard) SetOverride(override bool) {
	g.override = override
}

// IsOpen reports whether now falls inside the permitted session.
func (g *WindowGuard) IsOpen(now time.Time) bool {
	if g.override {
		return true
	}
	local := now.In(g.location)
	if g.calendar != nil && !g.calendar.IsTradingDay(local) {
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= g.startMinutes && minutes < g.endMinutes
}

func parseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("want HH:MM")
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("out of range")
	}
	return hours*60 + minutes, nil
}

// WeekdayCalendar is the built-in calendar: Monday through Friday are
// trading days. Exchange holidays need an external calendar.
type WeekdayCalendar struct{}

// IsTradingDay reports whether t is a weekday.
func (WeekdayCalendar) IsTradingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}
