package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eidsvag/animere/internal/apperr"
	"github.com/eidsvag/animere/internal/studio"
	"github.com/eidsvag/animere/internal/theme"
)

// Handler holds API route handlers.
type Handler struct {
	svc *studio.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *studio.Service) *Handler {
	return &Handler{svc: svc}
}

// statusFor maps a pipeline error to an HTTP status. Diagram defects are the
// client's fault; collaborator and tool failures are upstream problems.
func statusFor(err error) int {
	if errors.Is(err, apperr.ErrNotFound) {
		return http.StatusNotFound
	}
	switch apperr.StageOf(err) {
	case apperr.StageValidate:
		return http.StatusUnprocessableEntity
	case apperr.StageSequence, apperr.StageRender:
		if apperr.CodeOf(err) == apperr.CodeCancelled {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case apperr.StageCompose:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody(err.Error())
	body.Stage = string(apperr.StageOf(err))
	body.Code = string(apperr.CodeOf(err))
	writeJSON(w, statusFor(err), body)
}

// Animate handles POST /api/animations.
//
//	@Summary		Run the animation pipeline for a diagram
//	@Tags			animations
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AnimateRequest	true	"Diagram to animate"
//	@Success		201		{object}	RunResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/animations [post]
func (h *Handler) Animate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req AnimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	res, err := h.svc.Animate(r.Context(), studio.Request{
		Name:        req.Name,
		Source:      req.Source,
		Description: req.Description,
		FrameHint:   req.FrameHint,
		Theme:       req.Theme,
	})
	if err != nil {
		slog.Error("animation run failed",
			slog.String("name", req.Name),
			slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, runResponse(res.Run))
}

// ListRuns handles GET /api/animations.
//
//	@Summary		List recorded animation runs
//	@Tags			animations
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			kind	query		string	false	"Filter by diagram kind"
//	@Success		200		{object}	RunListResponse
//	@Security		BearerAuth
//	@Router			/animations [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	kind := q.Get("kind")

	runs, total, err := h.svc.ListRuns(limit, offset, kind)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]RunResponse, len(runs))
	for i, run := range runs {
		items[i] = runResponse(run)
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: items, Total: total})
}

// GetRun handles GET /api/animations/{id}.
//
//	@Summary		Get one animation run
//	@Tags			animations
//	@Produce		json
//	@Param			id	path		string	true	"Run ID"
//	@Success		200	{object}	RunResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/animations/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse(*run))
}

// GetArtifact handles GET /api/animations/{id}/artifact.
//
//	@Summary		Download the composited animated SVG
//	@Tags			animations
//	@Produce		image/svg+xml
//	@Param			id	path	string	true	"Run ID"
//	@Success		200	"SVG document"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/animations/{id}/artifact [get]
func (h *Handler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	svg, err := h.svc.ReadArtifact(id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Disposition", `inline; filename="`+id+`.svg"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// DeleteRun handles DELETE /api/animations/{id}.
//
//	@Summary		Delete a run and its artifact
//	@Tags			animations
//	@Param			id	path	string	true	"Run ID"
//	@Success		204	"Run deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/animations/{id} [delete]
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteRun(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Validate handles POST /api/validate.
//
//	@Summary		Validate diagram text without animating it
//	@Tags			validation
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ValidateRequest	true	"Diagram to validate"
//	@Success		200		{object}	ValidateResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/validate [post]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	kind, err := h.svc.Validate(req.Source)
	if err != nil {
		// A defective diagram is a successful validation with a negative
		// outcome, not an API error.
		writeJSON(w, http.StatusOK, ValidateResponse{
			Valid: false,
			Code:  string(apperr.CodeOf(err)),
			Error: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: true, Kind: string(kind)})
}

// ListThemes handles GET /api/themes.
//
//	@Summary		List built-in themes
//	@Tags			themes
//	@Produce		json
//	@Success		200	{object}	ThemeListResponse
//	@Security		BearerAuth
//	@Router			/themes [get]
func (h *Handler) ListThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ThemeListResponse{Themes: theme.All()})
}
