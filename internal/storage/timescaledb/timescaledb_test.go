package timescaledb

import (
	"testing"
	"time"

	"github.com/chrissnell/livetemp/internal/types"
)

func TestNewReadingRecord(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	session := types.NewSession(time.Now())
	r := types.Reading{
		Value:     88.412,
		Timestamp: time.Date(2024, 7, 4, 13, 0, 5, 0, loc),
		Flag:      types.FlagWarmer,
	}

	rec := NewReadingRecord(session, r)

	if rec.SessionID != session.ID.String() {
		t.Errorf("SessionID = %q", rec.SessionID)
	}
	if rec.Time.Location() != time.UTC || !rec.Time.Equal(r.Timestamp) {
		t.Errorf("Time = %v, expected %v in UTC", rec.Time, r.Timestamp)
	}
	if rec.Temp != 88.412 || rec.Flag != "warmer" {
		t.Errorf("record = %+v", rec)
	}
	if (ReadingRecord{}).TableName() != "livetemp_readings" {
		t.Errorf("TableName() = %q", (ReadingRecord{}).TableName())
	}
}
