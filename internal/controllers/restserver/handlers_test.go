package restserver

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/livetemp/internal/history"
	"github.com/chrissnell/livetemp/internal/metrics"
	"github.com/chrissnell/livetemp/internal/sampler"
	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
	"github.com/chrissnell/livetemp/pkg/responseformat"
	"go.uber.org/zap"
)

type fakeStatus struct {
	state    sampler.State
	ticks    uint64
	interval time.Duration
}

func (f fakeStatus) State() sampler.State    { return f.state }
func (f fakeStatus) Ticks() uint64           { return f.ticks }
func (f fakeStatus) Interval() time.Duration { return f.interval }

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, values ...float64) (*Controller, *history.History) {
	t.Helper()

	cfg := config.DefaultConfig()
	h := history.New(cfg.History.Capacity)
	for i, v := range values {
		ts := testStart.Add(time.Duration(i) * 2 * time.Second)
		h.Append(types.Reading{
			Value:     v,
			Timestamp: ts,
			Flag:      types.Classify(v, cfg.Sampler.FlagThreshold),
		})
	}

	status := fakeStatus{state: sampler.Sampling, ticks: uint64(len(values)), interval: cfg.Sampler.Interval}
	session := types.NewSession(testStart)

	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, cfg, h, status, metrics.New(), session, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	ctrl.now = func() time.Time { return testStart.Add(90 * time.Second) }
	return ctrl, h
}

func serve(ctrl *Controller, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestNewControllerRequiresHistory(t *testing.T) {
	_, err := NewController(context.Background(), &sync.WaitGroup{}, config.DefaultConfig(), nil, nil, nil, types.Session{}, zap.NewNop().Sugar())
	if err == nil {
		t.Fatal("expected an error without a history")
	}
}

func TestEmptyHistory(t *testing.T) {
	ctrl, _ := newTestController(t)

	t.Run("latest", func(t *testing.T) {
		var resp LatestResponse
		decode(t, serve(ctrl, "/api/latest"), &resp)
		if resp.Available || resp.Reading != nil {
			t.Errorf("expected no reading, got %+v", resp)
		}
		if resp.DisplayTemp != placeholder || resp.DisplayTime != placeholder {
			t.Errorf("expected placeholders, got %q / %q", resp.DisplayTemp, resp.DisplayTime)
		}
	})

	t.Run("history", func(t *testing.T) {
		rec := serve(ctrl, "/api/history")
		var resp HistoryResponse
		decode(t, rec, &resp)
		if resp.Count != 0 || resp.Capacity != config.DefaultCapacity {
			t.Errorf("count/capacity = %d/%d", resp.Count, resp.Capacity)
		}
		if !strings.Contains(rec.Body.String(), `"readings":[]`) {
			t.Errorf("expected an empty list, got %s", rec.Body.String())
		}
	})

	t.Run("plot", func(t *testing.T) {
		var resp PlotResponse
		decode(t, serve(ctrl, "/api/plot"), &resp)
		if len(resp.Points) != 0 || resp.Trend != nil {
			t.Errorf("expected no points and no trend, got %+v", resp)
		}
	})

	t.Run("page", func(t *testing.T) {
		rec := serve(ctrl, "/")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{"Waiting for first reading", "Southern Florida Explorer", "Current Temperature", "Current Date and Time", placeholder} {
			if !strings.Contains(body, want) {
				t.Errorf("page missing %q", want)
			}
		}
	})
}

func TestLatest(t *testing.T) {
	ctrl, _ := newTestController(t, 70.5, 91.25)

	var resp LatestResponse
	decode(t, serve(ctrl, "/api/latest"), &resp)

	if !resp.Available || resp.Reading == nil {
		t.Fatalf("expected a reading, got %+v", resp)
	}
	if resp.Reading.Temp != 91.25 {
		t.Errorf("temp = %v, want 91.25", resp.Reading.Temp)
	}
	if resp.DisplayTemp != "91.250 °F" {
		t.Errorf("display temp = %q", resp.DisplayTemp)
	}
	if resp.DisplayTime != "2024-03-01 12:00:02" {
		t.Errorf("display time = %q", resp.DisplayTime)
	}
	if resp.FlagText != "warmer than usual" {
		t.Errorf("flag text = %q", resp.FlagText)
	}
}

func TestHistoryOrder(t *testing.T) {
	ctrl, _ := newTestController(t, 71, 72, 73)

	var resp HistoryResponse
	decode(t, serve(ctrl, "/api/history"), &resp)

	if resp.Count != 3 {
		t.Fatalf("count = %d, want 3", resp.Count)
	}
	for i, want := range []float64{71, 72, 73} {
		if resp.Readings[i].Temp != want {
			t.Errorf("readings[%d] = %v, want %v", i, resp.Readings[i].Temp, want)
		}
	}
	if resp.Readings[0].Time != "2024-03-01 12:00:00" {
		t.Errorf("first time = %q", resp.Readings[0].Time)
	}
}

func TestPlotTrend(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		wantTrend bool
		slope     float64
		intercept float64
	}{
		{"single point", []float64{80}, false, 0, 0},
		{"rising", []float64{70, 72, 74, 76}, true, 2, 70},
		{"flat", []float64{75, 75, 75}, true, 0, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, _ := newTestController(t, tt.values...)

			var resp PlotResponse
			decode(t, serve(ctrl, "/api/plot"), &resp)

			if len(resp.Points) != len(tt.values) {
				t.Fatalf("points = %d, want %d", len(resp.Points), len(tt.values))
			}
			for i, p := range resp.Points {
				if p.X != i || p.Temp != tt.values[i] {
					t.Errorf("point %d = %+v", i, p)
				}
			}

			if !tt.wantTrend {
				if resp.Trend != nil {
					t.Errorf("expected no trend, got %+v", resp.Trend)
				}
				return
			}
			if resp.Trend == nil {
				t.Fatal("expected a trend")
			}
			if math.Abs(resp.Trend.Slope-tt.slope) > 1e-9 || math.Abs(resp.Trend.Intercept-tt.intercept) > 1e-9 {
				t.Errorf("trend = %v*x + %v, want %v*x + %v", resp.Trend.Slope, resp.Trend.Intercept, tt.slope, tt.intercept)
			}
			if len(resp.Trend.Values) != len(tt.values) {
				t.Errorf("trend values = %d, want %d", len(resp.Trend.Values), len(tt.values))
			}
		})
	}
}

func TestStatus(t *testing.T) {
	ctrl, _ := newTestController(t, 80, 81)

	var resp StatusResponse
	decode(t, serve(ctrl, "/api/status"), &resp)

	if resp.SessionID != ctrl.session.ID.String() {
		t.Errorf("session id = %q", resp.SessionID)
	}
	if resp.UptimeSeconds != 90 {
		t.Errorf("uptime = %d, want 90", resp.UptimeSeconds)
	}
	if resp.IntervalSeconds != 2 {
		t.Errorf("interval = %v, want 2", resp.IntervalSeconds)
	}
	if resp.Count != 2 || resp.Ticks != 2 {
		t.Errorf("count/ticks = %d/%d", resp.Count, resp.Ticks)
	}
	if resp.SamplerState != sampler.Sampling.String() {
		t.Errorf("state = %q", resp.SamplerState)
	}
}

func TestMsgPackNegotiation(t *testing.T) {
	ctrl, _ := newTestController(t, 80)

	rec := serve(ctrl, "/api/latest?format=msgpack")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != responseformat.ContentTypeMsgPack {
		t.Errorf("content type = %q", ct)
	}
}

func TestUnknownAPIPath(t *testing.T) {
	ctrl, _ := newTestController(t)

	rec := serve(ctrl, "/api/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no such endpoint") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestDashboardJS(t *testing.T) {
	ctrl, _ := newTestController(t)

	rec := serve(ctrl, "/js/dashboard.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "const POLL_INTERVAL_MS = 2000;") {
		t.Errorf("poll interval not rendered into script")
	}
}

func TestPageRendersHistory(t *testing.T) {
	ctrl, _ := newTestController(t, 77.5)

	body := serve(ctrl, "/").Body.String()
	for _, want := range []string{"77.500 °F", "2024-03-01 12:00:00", "cooler than usual"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	ctrl, _ := newTestController(t)

	rec := serve(ctrl, "/css/dashboard.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPageTableUsesConfiguredPrecision(t *testing.T) {
	ctrl, _ := newTestController(t, 84.1, 70)

	body := serve(ctrl, "/").Body.String()
	for _, want := range []string{"<td>84.100</td>", "<td>70.000</td>"} {
		if !strings.Contains(body, want) {
			t.Errorf("page table missing %q", want)
		}
	}
	if strings.Contains(body, "<td>84.1</td>") {
		t.Error("page table rendered a raw value")
	}
}

func TestTemplateSourcesAreNotServed(t *testing.T) {
	ctrl, _ := newTestController(t)

	for _, path := range []string{"/index.html.tmpl", "/js/dashboard.js.tmpl", "/css/../index.html.tmpl"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(ctrl, path)
			if rec.Code == http.StatusOK {
				t.Errorf("%s served with status 200", path)
			}
			if strings.Contains(rec.Body.String(), "{{") {
				t.Errorf("%s leaked template source", path)
			}
		})
	}
}

func TestRequestsAreCounted(t *testing.T) {
	ctrl, _ := newTestController(t)

	serve(ctrl, "/api/latest")
	serve(ctrl, "/api/latest")

	body := serve(ctrl, "/metrics").Body.String()
	if !strings.Contains(body, `livetemp_http_requests_total{path="/api/latest",status="200"} 2`) {
		t.Errorf("request counter missing from exposition:\n%s", body)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/api/plot", "/api/plot"},
		{"/metrics", "/metrics"},
		{"/css/dashboard.css", "other"},
		{"/api/../../etc/passwd", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := routeLabel(tt.path); got != tt.want {
				t.Errorf("routeLabel(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
