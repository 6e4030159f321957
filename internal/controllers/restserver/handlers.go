package restserver

import (
	"fmt"
	htmltemplate "html/template"
	"net/http"
	"text/template"

	"github.com/chrissnell/livetemp/internal/constants"
	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
	"github.com/chrissnell/livetemp/pkg/responseformat"
	"github.com/chrissnell/livetemp/pkg/trend"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// formatValue renders a value at the configured precision, matching the page script's toFixed
func (h *Handlers) formatValue(v float64) string {
	return fmt.Sprintf("%.*f", h.controller.samplerConfig.Precision, v)
}

// formatTemp renders a value at the configured precision with its unit
func (h *Handlers) formatTemp(v float64) string {
	unit := h.controller.samplerConfig.Unit
	if unit == "" {
		return h.formatValue(v)
	}
	return h.formatValue(v) + " " + unit
}

// buildLatest converts the newest reading into the scalar widget view.  An empty
// history yields placeholders rather than an error.
func (h *Handlers) buildLatest() LatestResponse {
	r, ok := h.controller.history.Latest()
	if !ok {
		return LatestResponse{
			Available:   false,
			DisplayTemp: placeholder,
			DisplayTime: placeholder,
		}
	}

	rr := newReadingResponse(r)
	return LatestResponse{
		Available:   true,
		Reading:     &rr,
		DisplayTemp: h.formatTemp(r.Value),
		DisplayTime: r.FormattedTimestamp(),
		FlagText:    r.Flag.Describe(),
	}
}

// buildPlot converts a snapshot into scatter points and, with two or more points,
// the least-squares trend line over the sample index
func (h *Handlers) buildPlot(readings []types.Reading) PlotResponse {
	resp := PlotResponse{
		Points: make([]PlotPoint, len(readings)),
		Unit:   h.controller.samplerConfig.Unit,
	}

	ys := make([]float64, len(readings))
	for i, r := range readings {
		resp.Points[i] = PlotPoint{
			X:         i,
			Timestamp: r.Timestamp.Unix(),
			Time:      r.FormattedTimestamp(),
			Temp:      r.Value,
		}
		ys[i] = r.Value
	}

	line, err := trend.Fit(ys)
	if err != nil {
		// Fewer than two points: the chart shows the scatter only
		return resp
	}

	resp.Trend = &TrendResponse{
		Slope:     line.Slope,
		Intercept: line.Intercept,
		Values:    line.Values(len(ys)),
	}
	return resp
}

// GetHistory returns the rolling history, oldest reading first
func (h *Handlers) GetHistory(w http.ResponseWriter, req *http.Request) {
	readings := h.controller.history.Snapshot()

	resp := HistoryResponse{
		Readings: make([]ReadingResponse, len(readings)),
		Count:    len(readings),
		Capacity: h.controller.history.Capacity(),
		Unit:     h.controller.samplerConfig.Unit,
	}
	for i, r := range readings {
		resp.Readings[i] = newReadingResponse(r)
	}

	h.writeResponse(w, req, resp)
}

// GetLatest returns the most recent reading formatted for the value box and the date/time card
func (h *Handlers) GetLatest(w http.ResponseWriter, req *http.Request) {
	h.writeResponse(w, req, h.buildLatest())
}

// GetPlot returns the chart data for the current history
func (h *Handlers) GetPlot(w http.ResponseWriter, req *http.Request) {
	h.writeResponse(w, req, h.buildPlot(h.controller.history.Snapshot()))
}

// GetStatus reports on the running session and the sampler
func (h *Handlers) GetStatus(w http.ResponseWriter, req *http.Request) {
	c := h.controller
	now := c.now()

	resp := StatusResponse{
		SessionID:     c.session.ID.String(),
		Started:       c.session.Started,
		UptimeSeconds: int64(now.Sub(c.session.Started).Seconds()),
		Capacity:      c.history.Capacity(),
		Count:         c.history.Len(),
		Version:       constants.Version,
	}
	if c.status != nil {
		resp.IntervalSeconds = c.status.Interval().Seconds()
		resp.SamplerState = c.status.State().String()
		resp.Ticks = c.status.Ticks()
	} else {
		resp.IntervalSeconds = c.samplerConfig.Interval.Seconds()
	}

	h.writeResponse(w, req, resp)
}

// NotFound answers unknown API paths in the negotiated format
func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	if err := h.formatter.WriteError(w, req, http.StatusNotFound, "no such endpoint: "+req.URL.Path); err != nil {
		h.controller.logger.Errorf("error writing not-found response: %v", err)
	}
}

func (h *Handlers) writeResponse(w http.ResponseWriter, req *http.Request, data any) {
	if err := h.formatter.WriteResponse(w, req, http.StatusOK, data); err != nil {
		h.controller.logger.Errorf("error encoding %v response: %v", req.URL.Path, err)
	}
}

// tableRow is one server-rendered row of the readings table
type tableRow struct {
	Time string
	Temp string
}

// indexTemplateData is what index.html.tmpl renders from
type indexTemplateData struct {
	PageTitle   string
	Heading     string
	Description string
	Links       []config.LinkData
	Latest      LatestResponse
	Readings    []tableRow
	Unit        string
}

// ServeIndexTemplate serves the dashboard page with the current history rendered in
func (h *Handlers) ServeIndexTemplate(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}

	view, err := htmltemplate.New("index.html.tmpl").ParseFS(h.controller.FS, "index.html.tmpl")
	if err != nil {
		h.controller.logger.Errorf("error parsing index template: %v", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	readings := h.controller.history.Snapshot()
	data := indexTemplateData{
		PageTitle:   h.controller.dashboard.PageTitle,
		Heading:     h.controller.dashboard.Heading,
		Description: h.controller.dashboard.Description,
		Links:       h.controller.dashboard.Links,
		Latest:      h.buildLatest(),
		Readings:    make([]tableRow, len(readings)),
		Unit:        h.controller.samplerConfig.Unit,
	}
	for i, r := range readings {
		data.Readings[i] = tableRow{
			Time: r.FormattedTimestamp(),
			Temp: h.formatValue(r.Value),
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Execute(w, data); err != nil {
		h.controller.logger.Errorf("error executing index template: %v", err)
	}
}

// ServeDashboardJS serves the page script with the poll interval baked in
func (h *Handlers) ServeDashboardJS(w http.ResponseWriter, req *http.Request) {
	view, err := template.New("dashboard.js.tmpl").ParseFS(h.controller.FS, "js/dashboard.js.tmpl")
	if err != nil {
		h.controller.logger.Errorf("error parsing dashboard JavaScript template: %v", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	interval := h.controller.samplerConfig.Interval
	if h.controller.status != nil {
		interval = h.controller.status.Interval()
	}

	jsTemplateData := struct {
		PollIntervalMs int64
		Unit           string
		Precision      int
		Placeholder    string
	}{
		PollIntervalMs: interval.Milliseconds(),
		Unit:           h.controller.samplerConfig.Unit,
		Precision:      h.controller.samplerConfig.Precision,
		Placeholder:    placeholder,
	}

	w.Header().Set("Content-Type", "text/javascript")
	if err := view.Execute(w, jsTemplateData); err != nil {
		h.controller.logger.Errorf("error executing dashboard JavaScript template: %v", err)
	}
}
