package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/internal/batch"
	"github.com/chrissnell/notealign/internal/storage"
	"github.com/chrissnell/notealign/internal/types"
	"github.com/chrissnell/notealign/pkg/responseformat"
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

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteResponse(w, req, status, data); err != nil {
		h.controller.logger.Errorw("error encoding response", "path", req.URL.Path, "error", err)
	}
}

func (h *Handlers) fail(w http.ResponseWriter, req *http.Request, status int, err error) {
	if err := h.formatter.WriteError(w, req, status, err); err != nil {
		h.controller.logger.Errorw("error encoding response", "path", req.URL.Path, "error", err)
	}
}

// loadRun fetches the run named in the route, writing 404 or 500 itself on
// failure.
func (h *Handlers) loadRun(w http.ResponseWriter, req *http.Request) (*types.Run, bool) {
	id := mux.Vars(req)["id"]
	run, err := h.controller.store.GetRun(req.Context(), id)
	switch {
	case errors.Is(err, storage.ErrRunNotFound):
		h.fail(w, req, http.StatusNotFound, fmt.Errorf("run %s not found", id))
		return nil, false
	case err != nil:
		h.controller.logger.Errorw("error loading run", "run_id", id, "error", err)
		h.fail(w, req, http.StatusInternalServerError, errors.New("error loading run"))
		return nil, false
	}
	return run, true
}

// ListRuns handles GET /api/runs?limit=N
func (h *Handlers) ListRuns(w http.ResponseWriter, req *http.Request) {
	limit := storage.DefaultListLimit
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.fail(w, req, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := h.controller.store.ListRuns(req.Context(), limit)
	if err != nil {
		h.controller.logger.Errorw("error listing runs", "error", err)
		h.fail(w, req, http.StatusInternalServerError, errors.New("error listing runs"))
		return
	}
	if runs == nil {
		runs = []types.Run{}
	}
	h.write(w, req, http.StatusOK, RunList{Runs: runs, Count: len(runs)})
}

// GetRun handles GET /api/runs/{id}
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	if run, ok := h.loadRun(w, req); ok {
		h.write(w, req, http.StatusOK, run)
	}
}

// GetRunAnchors handles GET /api/runs/{id}/anchors
func (h *Handlers) GetRunAnchors(w http.ResponseWriter, req *http.Request) {
	if run, ok := h.loadRun(w, req); ok {
		anchors := run.Anchors
		if anchors == nil {
			anchors = []align.Anchor{}
		}
		h.write(w, req, http.StatusOK, AnchorList{RunID: run.ID, Anchors: anchors})
	}
}

// GetRunSegments handles GET /api/runs/{id}/segments
func (h *Handlers) GetRunSegments(w http.ResponseWriter, req *http.Request) {
	if run, ok := h.loadRun(w, req); ok {
		segs := run.Segments
		if segs == nil {
			segs = []align.Segment{}
		}
		h.write(w, req, http.StatusOK, SegmentList{RunID: run.ID, Segments: segs})
	}
}

// Align handles POST /api/align. The engine runs synchronously; the run is
// persisted whether or not alignment succeeds.
func (h *Handlers) Align(w http.ResponseWriter, req *http.Request) {
	var body AlignRequest
	if err := h.formatter.DecodeRequest(req, &body); err != nil {
		h.fail(w, req, http.StatusBadRequest, err)
		return
	}

	for i, n := range body.Reference {
		if err := n.Validate(); err != nil {
			h.fail(w, req, http.StatusBadRequest, fmt.Errorf("reference[%d]: %w", i, err))
			return
		}
	}
	for i, n := range body.Derived {
		if err := n.Validate(); err != nil {
			h.fail(w, req, http.StatusBadRequest, fmt.Errorf("derived[%d]: %w", i, err))
			return
		}
	}

	params := h.controller.params
	if body.Params != nil {
		params = body.Params.Apply(params)
	}
	name := body.Name
	if name == "" {
		name = "api"
	}

	aligner, err := align.NewAligner(params, h.controller.logger.With("run", name))
	if err != nil {
		h.fail(w, req, http.StatusBadRequest, err)
		return
	}

	run, aligned, alignErr := batch.AlignNotes(aligner, name, body.Reference, body.Derived, body.Overlap)

	if errors.Is(alignErr, align.ErrEmptyStream) {
		h.fail(w, req, http.StatusBadRequest, alignErr)
		return
	}

	if body.Persist == nil || *body.Persist {
		if err := h.controller.store.SaveRun(req.Context(), run); err != nil {
			h.controller.logger.Errorw("error saving run", "run_id", run.ID, "error", err)
			h.fail(w, req, http.StatusInternalServerError, errors.New("error saving run"))
			return
		}
	}

	if alignErr != nil {
		h.controller.logger.Warnw("alignment failed", "run_id", run.ID, "error", alignErr)
		h.write(w, req, http.StatusUnprocessableEntity, responseformat.ErrorResponse{
			Error:  alignErr.Error(),
			Status: http.StatusUnprocessableEntity,
			RunID:  run.ID,
		})
		return
	}

	h.write(w, req, http.StatusOK, AlignResponse{Run: run, Aligned: aligned})
}

// Healthz handles GET /healthz
func (h *Handlers) Healthz(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{Status: "ok", Stores: h.controller.health.All()}
	status := http.StatusOK
	for name := range resp.Stores {
		if !h.controller.health.IsHealthy(name, healthMaxAge) {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}
	h.write(w, req, status, resp)
}

// NotFound answers unknown routes in the API's error format.
func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	h.fail(w, req, http.StatusNotFound, fmt.Errorf("no route for %s", req.URL.Path))
}
