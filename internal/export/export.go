// Package export dumps archived readings from a storage backend to CSV or JSON.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Format is an output encoding for an export
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a -format flag value
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid format %q: must be csv or json", s)
}

// Record is one archived reading
type Record struct {
	SessionID string    `json:"session_id"`
	Time      time.Time `json:"time"`
	Temp      float64   `json:"temp"`
	Flag      string    `json:"flag,omitempty"`
}

// Filter narrows an export.  Zero values match everything.
type Filter struct {
	SessionID string
	Since     time.Time
}

// Source reads archived readings in time order
type Source interface {
	Count(ctx context.Context, f Filter) (int64, error)
	Scan(ctx context.Context, f Filter, fn func(Record) error) error
	Close() error
}

// ProgressFunc is called after every written record
type ProgressFunc func(done, total int64)

// Write streams every record matching f from src to w and returns the number written
func Write(ctx context.Context, src Source, f Filter, format Format, w io.Writer, progress ProgressFunc) (int64, error) {
	total, err := src.Count(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("failed to get record count: %w", err)
	}

	var enc recordEncoder
	switch format {
	case FormatCSV:
		enc = newCSVEncoder(w)
	case FormatJSON:
		enc = newJSONEncoder(w)
	default:
		return 0, fmt.Errorf("unsupported format %q", format)
	}

	if err := enc.begin(); err != nil {
		return 0, err
	}

	var count int64
	err = src.Scan(ctx, f, func(r Record) error {
		if err := enc.encode(r); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		count++
		if progress != nil {
			progress(count, total)
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	return count, enc.end()
}

type recordEncoder interface {
	begin() error
	encode(Record) error
	end() error
}

type csvEncoder struct {
	w *csv.Writer
}

func newCSVEncoder(w io.Writer) *csvEncoder {
	return &csvEncoder{w: csv.NewWriter(w)}
}

func (e *csvEncoder) begin() error {
	return e.w.Write([]string{"session_id", "time", "temp", "flag"})
}

func (e *csvEncoder) encode(r Record) error {
	return e.w.Write([]string{
		r.SessionID,
		r.Time.UTC().Format(time.RFC3339),
		strconv.FormatFloat(r.Temp, 'f', -1, 64),
		r.Flag,
	})
}

func (e *csvEncoder) end() error {
	e.w.Flush()
	return e.w.Error()
}

// jsonEncoder writes a single JSON array, one record per line
type jsonEncoder struct {
	w     io.Writer
	first bool
}

func newJSONEncoder(w io.Writer) *jsonEncoder {
	return &jsonEncoder{w: w, first: true}
}

func (e *jsonEncoder) begin() error {
	_, err := io.WriteString(e.w, "[")
	return err
}

func (e *jsonEncoder) encode(r Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}

	sep := ",\n  "
	if e.first {
		sep = "\n  "
		e.first = false
	}
	if _, err := io.WriteString(e.w, sep); err != nil {
		return err
	}
	_, err = e.w.Write(b)
	return err
}

func (e *jsonEncoder) end() error {
	tail := "\n]\n"
	if e.first {
		tail = "]\n"
	}
	_, err := io.WriteString(e.w, tail)
	return err
}
