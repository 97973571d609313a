package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/camreach/internal/analysis"
	"github.com/banshee-data/camreach/internal/batch"
	"github.com/banshee-data/camreach/internal/httputil"
	"github.com/banshee-data/camreach/internal/report"
	"github.com/banshee-data/camreach/internal/store"
	"github.com/banshee-data/camreach/internal/units"
	"github.com/banshee-data/camreach/internal/version"
)

// writeAnalysisError maps analysis errors onto status codes.
func writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrValidation):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, analysis.ErrImpossibleConstraint):
		httputil.UnprocessableEntity(w, err.Error())
	default:
		logf("analysis failed: %v", err)
		httputil.InternalServerError(w, err.Error())
	}
}

// requestFromQuery reads the per-request rig overrides shared by every
// analysis endpoint. gap is required.
func requestFromQuery(r *http.Request) (analysis.Request, error) {
	var req analysis.Request
	var err error
	if req.MinPixelGap, err = httputil.RequiredFloatParam(r, "gap"); err != nil {
		return req, err
	}
	if req.CameraHeightMeters, err = httputil.FloatParam(r, "height", 0); err != nil {
		return req, err
	}
	if req.MarkerGapMeters, err = httputil.FloatParam(r, "marker_gap", 0); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) unitFor(r *http.Request) (string, error) {
	unit := r.URL.Query().Get("units")
	if unit == "" {
		return s.units, nil
	}
	if !units.IsValid(unit) {
		return "", fmt.Errorf("invalid units %q, must be one of: %s", unit, units.GetValidUnitsString())
	}
	return unit, nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	req, err := requestFromQuery(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.ZoomLevel, err = httputil.RequiredFloatParam(r, "zoom"); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	res, err := s.analyzer.Analyze(req)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	httputil.WriteJSONOK(w, res.Record())
}

// batchRow is the JSON form of one batch row.
type batchRow struct {
	Zoom float64 `json:"zoom"`
	analysis.Record
	TiltConverged bool   `json:"tiltConverged"`
	Error         string `json:"error,omitempty"`
}

func toBatchRows(rows []batch.Row) []batchRow {
	out := make([]batchRow, len(rows))
	for i, r := range rows {
		out[i] = batchRow{Zoom: r.Zoom, Record: r.Analysis.Record(), TiltConverged: r.Analysis.TiltConverged}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

// runBatch parses zooms/gap/overrides and runs the batch. It writes the
// error response itself and returns ok=false on failure.
func (s *Server) runBatch(w http.ResponseWriter, r *http.Request) (analysis.Request, []batch.Row, bool) {
	req, err := requestFromQuery(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return req, nil, false
	}
	zooms, err := batch.ParseZoomList(r.URL.Query().Get("zooms"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return req, nil, false
	}

	runner := &batch.Runner{
		Analyzer:           s.analyzer,
		Workers:            s.workers,
		CameraHeightMeters: req.CameraHeightMeters,
		MarkerGapMeters:    req.MarkerGapMeters,
	}
	rows, err := runner.Run(r.Context(), zooms, req.MinPixelGap)
	if err != nil {
		writeAnalysisError(w, err)
		return req, nil, false
	}
	return req, rows, true
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	req, rows, ok := s.runBatch(w, r)
	if !ok {
		return
	}

	if s.store != nil {
		run := store.NewRun(s.analyzer.ConfigFor(req), req.MinPixelGap, rows)
		if err := s.store.SaveRun(r.Context(), run); err != nil {
			logf("failed to save run: %v", err)
		} else {
			w.Header().Set("X-Run-ID", run.ID)
		}
	}
	httputil.WriteJSONOK(w, toBatchRows(rows))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "run store not configured")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "run store not configured")
		return
	}
	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, run)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	resp := versionResponse{Info: version.Current()}
	if s.store != nil {
		v, dirty, err := s.store.MigrateVersion()
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		resp.SchemaVersion, resp.SchemaDirty = &v, dirty
	}
	httputil.WriteJSONOK(w, resp)
}

// versionResponse adds the run store's schema version when one is attached.
type versionResponse struct {
	version.Info
	SchemaVersion *uint `json:"schema_version,omitempty"`
	SchemaDirty   bool  `json:"schema_dirty,omitempty"`
}

func (s *Server) handleReachChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	unit, err := s.unitFor(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	_, rows, ok := s.runBatch(w, r)
	if !ok {
		return
	}

	var buf strings.Builder
	if err := report.RenderReachChart(&buf, rows, unit); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(buf.String()))
}

func (s *Server) handleStrip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	req, err := requestFromQuery(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.ZoomLevel, err = httputil.RequiredFloatParam(r, "zoom"); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	extra, err := httputil.FloatParam(r, "extra", report.DefaultExtraMarkings)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := report.ValidateExtra(extra); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	res, err := s.analyzer.Analyze(req)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	opts := report.StripOptions{Extra: int(extra)}
	if opts.Extra == 0 {
		opts.Extra = -1
	}
	var buf strings.Builder
	if err := report.RenderStrip(&buf, s.analyzer.ConfigFor(req), res, 0, opts); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(buf.String()))
}
