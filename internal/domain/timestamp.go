package domain

import (
	"fmt"
	"time"
)

// Precision tells which part of a listing timestamp was printed
type Precision int

const (
	// PrecisionTime: month, day and time of day; the year was not printed
	PrecisionTime Precision = iota
	// PrecisionYear: month, day and year; the time of day was not printed
	PrecisionYear
)

// String returns the string representation of the precision
func (p Precision) String() string {
	switch p {
	case PrecisionTime:
		return "time"
	case PrecisionYear:
		return "year"
	default:
		return "unknown"
	}
}

// MarshalText encodes the precision by name
func (p Precision) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Timestamp is the partial modification time printed by ls.
// Only the fields selected by Precision carry observed data.
type Timestamp struct {
	Precision Precision  `json:"precision" yaml:"precision"`
	Month     time.Month `json:"month" yaml:"month"`
	Day       int        `json:"day" yaml:"day"`

	// Hour and Minute are set when Precision is PrecisionTime
	Hour   int `json:"hour,omitempty" yaml:"hour,omitempty"`
	Minute int `json:"minute,omitempty" yaml:"minute,omitempty"`

	// Year is set when Precision is PrecisionYear
	Year int `json:"year,omitempty" yaml:"year,omitempty"`
}

// WithTime builds a timestamp whose year is unknown
func WithTime(month time.Month, day, hour, minute int) Timestamp {
	return Timestamp{Precision: PrecisionTime, Month: month, Day: day, Hour: hour, Minute: minute}
}

// WithYear builds a timestamp whose time of day is unknown
func WithYear(month time.Month, day, year int) Timestamp {
	return Timestamp{Precision: PrecisionYear, Month: month, Day: day, Year: year}
}

// HasTime reports whether the time of day was printed
func (t Timestamp) HasTime() bool {
	return t.Precision == PrecisionTime
}

// HasYear reports whether the year was printed
func (t Timestamp) HasYear() bool {
	return t.Precision == PrecisionYear
}

// String renders the timestamp in the same shape ls printed it
func (t Timestamp) String() string {
	mon := t.Month.String()
	if len(mon) > 3 {
		mon = mon[:3]
	}
	if t.HasYear() {
		return fmt.Sprintf("%s %2d  %04d", mon, t.Day, t.Year)
	}
	return fmt.Sprintf("%s %2d %02d:%02d", mon, t.Day, t.Hour, t.Minute)
}

// Resolve turns the partial timestamp into a full time in loc.
//
// This is an inference, not observed data:
//   - PrecisionYear resolves to midnight of that day
//   - PrecisionTime takes the year of now, stepping back one year when the
//     result would lie more than a day in the future (ls prints the time only
//     for recent entries)
func (t Timestamp) Resolve(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if t.HasYear() {
		return time.Date(t.Year, t.Month, t.Day, 0, 0, 0, 0, loc)
	}

	now = now.In(loc)
	resolved := time.Date(now.Year(), t.Month, t.Day, t.Hour, t.Minute, 0, 0, loc)
	if resolved.After(now.Add(24 * time.Hour)) {
		resolved = time.Date(now.Year()-1, t.Month, t.Day, t.Hour, t.Minute, 0, 0, loc)
	}
	return resolved
}

// Equal compares only the observed fields
func (t Timestamp) Equal(o Timestamp) bool {
	if t.Precision != o.Precision || t.Month != o.Month || t.Day != o.Day {
		return false
	}
	if t.HasYear() {
		return t.Year == o.Year
	}
	return t.Hour == o.Hour && t.Minute == o.Minute
}
