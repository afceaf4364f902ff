package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// SignHandler serves the stored sign dictionary. Edits take effect the next
// time a recognizer is built from the store.
type SignHandler struct {
	store  *store.Store
	router chi.Router
}

// NewSignHandler creates a SignHandler backed by s.
func NewSignHandler(s *store.Store) *SignHandler {
	h := &SignHandler{store: s, router: chi.NewRouter()}
	h.router.Get("/", h.list)
	h.router.Post("/", h.create)
	h.router.Get("/{key}", h.get)
	h.router.Put("/{key}", h.update)
	h.router.Delete("/{key}", h.delete)
	return h
}

func (h *SignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

type signResponse struct {
	gesture.SignRule
	Position  int    `json:"position"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type listSignsResponse struct {
	Signs []signResponse `json:"signs"`
}

func toSignResponse(sg *store.Sign) signResponse {
	return signResponse{
		SignRule:  sg.SignRule,
		Position:  sg.Position,
		CreatedAt: formatTime(sg.CreatedAt),
		UpdatedAt: formatTime(sg.UpdatedAt),
	}
}

func (h *SignHandler) list(w http.ResponseWriter, r *http.Request) {
	signs, err := h.store.Signs().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list signs")
		return
	}

	response := listSignsResponse{Signs: make([]signResponse, 0, len(signs))}
	for _, sg := range signs {
		response.Signs = append(response.Signs, toSignResponse(sg))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *SignHandler) get(w http.ResponseWriter, r *http.Request) {
	sg, err := h.store.Signs().GetByKey(chi.URLParam(r, "key"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get sign")
		return
	}
	writeJSON(w, http.StatusOK, toSignResponse(sg))
}

func (h *SignHandler) create(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if f, ok := fields["fingers"]; !ok || string(f) == "null" {
		writeError(w, http.StatusBadRequest, "fingers is required")
		return
	}

	var rule gesture.SignRule
	if err := json.Unmarshal(data, &rule); err != nil {
		if errors.Is(err, gesture.ErrInvalidDictionary) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if rule.MinConfidence == 0 {
		rule.MinConfidence = gesture.DefaultMinConfidence
	}
	if err := rule.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.Signs().GetByKey(rule.Key); err == nil {
		writeError(w, http.StatusConflict, "Sign already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check existing sign")
		return
	}

	sg := &store.Sign{SignRule: rule}
	if err := h.store.Signs().Create(sg); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create sign")
		return
	}
	writeJSON(w, http.StatusCreated, toSignResponse(sg))
}

func (h *SignHandler) update(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	existing, err := h.store.Signs().GetByKey(key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get sign")
		return
	}

	rule := existing.SignRule
	if !decodeJSON(w, r, &rule) {
		return
	}
	rule.Key = key
	if err := rule.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing.SignRule = rule
	if err := h.store.Signs().Update(existing); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update sign")
		return
	}
	writeJSON(w, http.StatusOK, toSignResponse(existing))
}

func (h *SignHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Signs().Delete(chi.URLParam(r, "key")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete sign")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

