// Package reminder emails each barangay a digest of its pending reports that
// are due soon or overdue.
package reminder

import (
	"fmt"
	"time"
)

// Fact describes one pending submission worth reminding about. Facts are
// derived on every run and never stored.
type Fact struct {
	BarangayName string    `json:"barangay_name"`
	ReportPeriod string    `json:"report_period"`
	DueDate      time.Time `json:"due_date"`
	DaysLeft     int       `json:"days_left"`
}

func (f Fact) Overdue() bool { return f.DaysLeft < 0 }

// Describe renders the deadline relative to the run date.
func (f Fact) Describe() string {
	if f.Overdue() {
		return "overdue by " + pluralDays(-f.DaysLeft)
	}
	return "due in " + pluralDays(f.DaysLeft)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// Mode selects what a run reports. Every mode dispatches when facts exist;
// ModeCheck additionally prints the run report.
type Mode int

const (
	ModeDefault Mode = iota
	ModeCheck
	ModeSend
)

func (m Mode) String() string {
	switch m {
	case ModeCheck:
		return "check"
	case ModeSend:
		return "send"
	default:
		return "default"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ModeFromFlags collapses the --check and --send flags. Check wins when both
// are set since it is the only mode with extra output.
func ModeFromFlags(check, send bool) Mode {
	switch {
	case check:
		return ModeCheck
	case send:
		return ModeSend
	default:
		return ModeDefault
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "default":
		return ModeDefault, nil
	case "check":
		return ModeCheck, nil
	case "send":
		return ModeSend, nil
	default:
		return ModeDefault, fmt.Errorf("unknown reminder mode %q: want check, send or default", s)
	}
}

// Clock supplies the run date.
type Clock interface {
	Today() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Today() time.Time { return f() }

// SystemClock reads the wall clock and returns the calendar date in loc.
func SystemClock(loc *time.Location) Clock {
	return ClockFunc(func() time.Time { return CivilDate(time.Now(), loc) })
}

// FixedClock always returns the calendar date of t.
func FixedClock(t time.Time) Clock {
	d := CivilDate(t, t.Location())
	return ClockFunc(func() time.Time { return d })
}

// CivilDate returns the calendar date of t as seen in loc, as midnight UTC,
// so day arithmetic never crosses a zone offset. A nil loc means UTC.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
