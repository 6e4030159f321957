package types

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the human-readable form used for reading timestamps on the dashboard
const TimestampLayout = "2006-01-02 15:04:05"

// Flag is a coarse classification of a reading against a fixed threshold
type Flag string

const (
	FlagNone   Flag = ""
	FlagCooler Flag = "cooler"
	FlagWarmer Flag = "warmer"
)

// Describe returns the phrase shown under the current temperature
func (f Flag) Describe() string {
	switch f {
	case FlagCooler:
		return "cooler than usual"
	case FlagWarmer:
		return "warmer than usual"
	}
	return ""
}

// Classify returns FlagWarmer for values at or above threshold and FlagCooler otherwise
func Classify(value, threshold float64) Flag {
	if value >= threshold {
		return FlagWarmer
	}
	return FlagCooler
}

// Reading is a single simulated temperature sample.  Readings are passed by value
// and never modified after the sampler creates them.
type Reading struct {
	Value     float64   `json:"temp"`
	Timestamp time.Time `json:"timestamp"`
	Flag      Flag      `json:"flag,omitempty"`
}

// FormattedTimestamp renders the capture time the way the dashboard displays it
func (r Reading) FormattedTimestamp() string {
	return r.Timestamp.Format(TimestampLayout)
}

// Session identifies one run of the process.  The reading history lives exactly
// as long as the session.
type Session struct {
	ID      uuid.UUID `json:"id"`
	Started time.Time `json:"started"`
}

// NewSession starts a session with a random ID
func NewSession(now time.Time) Session {
	return Session{
		ID:      uuid.New(),
		Started: now,
	}
}
