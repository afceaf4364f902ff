package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
)

// SettingHandler reads and writes persisted recognition tunables. Stored
// values override the environment on the next start.
type SettingHandler struct {
	store  *store.Store
	router chi.Router
}

// NewSettingHandler creates a SettingHandler backed by s.
func NewSettingHandler(s *store.Store) *SettingHandler {
	h := &SettingHandler{store: s, router: chi.NewRouter()}
	h.router.Get("/", h.list)
	h.router.Put("/{key}", h.put)
	h.router.Delete("/{key}", h.delete)
	return h
}

func (h *SettingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

type settingsResponse struct {
	Settings map[string]string `json:"settings"`
	Keys     []string          `json:"keys"`
}

type putSettingRequest struct {
	Value string `json:"value"`
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (h *SettingHandler) list(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings().All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: settings, Keys: config.SettingKeys})
}

func (h *SettingHandler) put(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req putSettingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := config.ValidateSetting(key, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Settings().Set(key, req.Value); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save setting")
		return
	}
	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: req.Value})
}

func (h *SettingHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Settings().Delete(chi.URLParam(r, "key")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete setting")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
