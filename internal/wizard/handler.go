package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"

	"jobmate/intake-service/internal/intake"
)

// maxBodyBytes bounds a request body; room for the profile picture plus the
// other fields.
const maxBodyBytes = intake.MaxProfileImageBytes + 1<<20

// Handler exposes a Service over HTTP.
type Handler struct {
	svc  *Service
	form *FormDecoder
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, form: NewFormDecoder()}
}

// RegisterRoutes mounts the intake routes on mux.
//
//	POST   /sessions                → start a session
//	GET    /sessions/{id}           → current step, progress and saved answers
//	DELETE /sessions/{id}           → end the session
//	POST   /sessions/{id}/draft     → recompute derived fields of a draft
//	POST   /sessions/{id}/advance   → validate the active step and move on
//	POST   /sessions/{id}/retreat   → go back one step
//	GET    /sessions/{id}/review    → summary of a complete intake
//	POST   /sessions/{id}/submit    → confirm and submit
//	GET    /catalog                 → departments, skills, managers, relationships
//
// Drafts are accepted as JSON, url-encoded forms or multipart forms (the
// latter for the profile picture upload).
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/sessions", h.handleSessions)
	mux.HandleFunc("/sessions/", h.handleSession)
	mux.HandleFunc("/catalog", h.handleCatalog)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleSessions handles POST /sessions
func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jsonWrite(w, http.StatusCreated, h.svc.Start(r.Context()))
}

// handleSession handles /sessions/{id} and /sessions/{id}/{action}
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[1] == "" {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	id := parts[1]

	if len(parts) == 2 {
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.end(w, r, id)
		default:
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	action := parts[2]
	want := http.MethodPost
	if action == "review" {
		want = http.MethodGet
	}
	if r.Method != want {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "draft":
		h.draft(w, r, id)
	case "advance":
		h.advance(w, r, id)
	case "retreat":
		h.retreat(w, r, id)
	case "review":
		h.review(w, r, id)
	case "submit":
		h.submit(w, r, id)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

// handleCatalog handles GET /catalog
func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jsonOK(w, h.svc.Catalog())
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) get(w http.ResponseWriter, r *http.Request, id string) {
	v, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, v)
}

func (h *Handler) end(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.svc.End(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) draft(w http.ResponseWriter, r *http.Request, id string) {
	data, ok := h.decodeDraft(w, r, id)
	if !ok {
		return
	}
	out, hints, err := h.svc.Draft(r.Context(), id, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, map[string]any{"draft": out, "hints": hints})
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request, id string) {
	data, ok := h.decodeDraft(w, r, id)
	if !ok {
		return
	}
	v, fe, err := h.svc.Advance(r.Context(), id, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if fe != nil {
		jsonWrite(w, http.StatusUnprocessableEntity, map[string]any{"errors": fe, "session": v})
		return
	}
	jsonOK(w, v)
}

func (h *Handler) retreat(w http.ResponseWriter, r *http.Request, id string) {
	v, err := h.svc.Retreat(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, v)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, id string) {
	sum, err := h.svc.Review(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	jsonOK(w, sum)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, id string) {
	data, ok := h.decodeFor(w, r, intake.StepReview)
	if !ok {
		return
	}
	v, fe, err := h.svc.Submit(r.Context(), id, data.(intake.Confirmation).Confirm)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if fe != nil {
		jsonWrite(w, http.StatusUnprocessableEntity, map[string]any{"errors": fe, "session": v})
		return
	}
	jsonOK(w, v)
}

// ─── Decoding ────────────────────────────────────────────────────────────────

// decodeDraft decodes the body as the draft type of the session's active step.
func (h *Handler) decodeDraft(w http.ResponseWriter, r *http.Request, id string) (intake.StepData, bool) {
	v, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	if v.Step.IsTerminal() {
		writeServiceError(w, intake.ErrSubmitted)
		return nil, false
	}
	return h.decodeFor(w, r, v.Step)
}

func (h *Handler) decodeFor(w http.ResponseWriter, r *http.Request, step intake.Step) (intake.StepData, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		data intake.StepData
		err  error
	)
	switch ct {
	case "application/x-www-form-urlencoded":
		if err = r.ParseForm(); err == nil {
			data, err = h.form.Decode(step, r.PostForm, nil)
		}
	case "multipart/form-data":
		if err = r.ParseMultipartForm(maxBodyBytes); err == nil {
			data, err = h.form.Decode(step, r.MultipartForm.Value, r.MultipartForm.File)
		}
	default:
		var raw []byte
		if raw, err = io.ReadAll(r.Body); err == nil {
			data, err = DecodeJSON(step, raw)
		}
	}
	if err != nil {
		log.Printf("[intake] decode %s body: %v", step, err)
		jsonError(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// writeServiceError maps Service and Controller errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, intake.ErrSubmitted),
		errors.Is(err, intake.ErrStepMismatch),
		errors.Is(err, intake.ErrNotAtReview),
		errors.Is(err, intake.ErrIncomplete):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("[intake] unexpected error: %v", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	jsonWrite(w, http.StatusOK, v)
}

func jsonWrite(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonWrite(w, code, map[string]string{"error": msg})
}
