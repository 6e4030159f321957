package restserver

import (
	"time"

	"github.com/chrissnell/livetemp/internal/types"
)

// placeholder is shown wherever a value is not available yet
const placeholder = "--"

// ReadingResponse represents a reading for JSON/MessagePack output
type ReadingResponse struct {
	Temp      float64 `json:"temp"`
	Timestamp int64   `json:"ts"`
	Time      string  `json:"time"`
	Flag      string  `json:"flag,omitempty"`
}

// HistoryResponse is the tabular view of the rolling history
type HistoryResponse struct {
	Readings []ReadingResponse `json:"readings"`
	Count    int               `json:"count"`
	Capacity int               `json:"capacity"`
	Unit     string            `json:"unit"`
}

// LatestResponse feeds the current temperature and date/time widgets
type LatestResponse struct {
	Available   bool             `json:"available"`
	Reading     *ReadingResponse `json:"reading"`
	DisplayTemp string           `json:"display_temp"`
	DisplayTime string           `json:"display_time"`
	FlagText    string           `json:"flag_text"`
}

// PlotPoint is one scatter point.  X is the sample index the trend line is fitted against.
type PlotPoint struct {
	X         int     `json:"x"`
	Timestamp int64   `json:"ts"`
	Time      string  `json:"time"`
	Temp      float64 `json:"temp"`
}

// TrendResponse is the fitted line evaluated at every point
type TrendResponse struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	Values    []float64 `json:"values"`
}

// PlotResponse is the chart widget's data: scatter points plus an optional trend line
type PlotResponse struct {
	Points []PlotPoint    `json:"points"`
	Trend  *TrendResponse `json:"trend"`
	Unit   string         `json:"unit"`
}

// StatusResponse describes the running session
type StatusResponse struct {
	SessionID       string    `json:"session_id"`
	Started         time.Time `json:"started"`
	UptimeSeconds   int64     `json:"uptime_seconds"`
	IntervalSeconds float64   `json:"interval_seconds"`
	Capacity        int       `json:"capacity"`
	Count           int       `json:"count"`
	SamplerState    string    `json:"sampler_state"`
	Ticks           uint64    `json:"ticks"`
	Version         string    `json:"version"`
}

func newReadingResponse(r types.Reading) ReadingResponse {
	return ReadingResponse{
		Temp:      r.Value,
		Timestamp: r.Timestamp.Unix(),
		Time:      r.FormattedTimestamp(),
		Flag:      string(r.Flag),
	}
}
