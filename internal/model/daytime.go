package model

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// DayTime is a minute-precision time of day, stored as minutes since midnight.
// Valid range is [00:00, 24:00).
type DayTime int

const minutesPerDay = 24 * 60

// ParseDayTime parses "15:04" (or "15:04:05", seconds are dropped).
func ParseDayTime(s string) (DayTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		t, err = time.Parse("15:04:05", s)
		if err != nil {
			return 0, fmt.Errorf("parse day time %q: %w", s, err)
		}
	}
	return DayTime(t.Hour()*60 + t.Minute()), nil
}

func (t DayTime) Hour() int   { return int(t) / 60 }
func (t DayTime) Minute() int { return int(t) % 60 }

func (t DayTime) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

func (t DayTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t DayTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *DayTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDayTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Date is a calendar date without time or timezone.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) Time() time.Time { return d.t }
func (d Date) IsZero() bool    { return d.t.IsZero() }

// Weekday returns the ISO weekday, 1 = Monday .. 7 = Sunday.
func (d Date) Weekday() int {
	wd := int(d.t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

func (d Date) String() string {
	return d.t.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
