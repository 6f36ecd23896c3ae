package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"plus-monitoring/general-healthcheck/pkg/history"
	"plus-monitoring/general-healthcheck/pkg/monitor"
	"plus-monitoring/general-healthcheck/pkg/server/middleware"
)

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Services  []monitor.ServiceStatus `json:"services"`
	Healthy   int                     `json:"healthy"`
	Unhealthy int                     `json:"unhealthy"`
	Timestamp time.Time               `json:"timestamp"`
}

// HistoryResponse is the body of GET /api/v1/history.
type HistoryResponse struct {
	Records []*history.Record `json:"records"`
	Count   int               `json:"count"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.opts.Status == nil {
		middleware.WriteError(w, r, http.StatusServiceUnavailable, middleware.CodeUnavailable,
			"monitor not running")
		return
	}

	resp := StatusResponse{
		Services:  s.opts.Status.Status(),
		Timestamp: time.Now().UTC(),
	}
	for _, st := range resp.Services {
		if st.Healthy {
			resp.Healthy++
		} else {
			resp.Unhealthy++
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleHistory answers GET /api/v1/history?service=&healthy=&since=&limit=.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		middleware.WriteError(w, r, http.StatusNotFound, middleware.CodeNotFound,
			"check history is disabled")
		return
	}

	filter, err := s.parseHistoryFilter(r)
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.CodeBadRequest, err.Error())
		return
	}

	records, err := s.opts.History.Query(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "history query failed", "error", err)
		middleware.WriteError(w, r, http.StatusInternalServerError, middleware.CodeInternal,
			"history query failed")
		return
	}
	if records == nil {
		records = []*history.Record{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Records: records, Count: len(records)})
}

func (s *Server) parseHistoryFilter(r *http.Request) (history.Filter, error) {
	q := r.URL.Query()
	filter := history.Filter{
		Service: q.Get("service"),
		Limit:   s.opts.HistoryLimit,
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, errBadParam("limit", v)
		}
		filter.Limit = min(n, s.opts.HistoryLimit)
	}

	if v := q.Get("healthy"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errBadParam("healthy", v)
		}
		filter.Healthy = &b
	}

	if v := q.Get("since"); v != "" {
		since, err := parseSince(v)
		if err != nil {
			return filter, errBadParam("since", v)
		}
		filter.Since = since
	}

	return filter, nil
}

// parseSince accepts RFC 3339 timestamps or a duration relative to now.
func parseSince(v string) (time.Time, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return time.Now().Add(-d), nil
	}
	return time.Parse(time.RFC3339, v)
}

type paramError struct {
	name, value string
}

func (e *paramError) Error() string {
	return "invalid " + e.name + " parameter: " + strconv.Quote(e.value)
}

func errBadParam(name, value string) error {
	return &paramError{name: name, value: value}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, r, http.StatusNotFound, middleware.CodeNotFound,
		"no such endpoint: "+r.URL.Path)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
