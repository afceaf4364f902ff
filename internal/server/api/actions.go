package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// ActionHandler handles HTTP requests for sign to plugin bindings.
type ActionHandler struct {
	store   *store.Store
	plugins *plugin.Manager
	router  chi.Router
}

// NewActionHandler creates an ActionHandler. When plugins is non-nil,
// bindings must name a discovered plugin and one of its actions.
func NewActionHandler(s *store.Store, plugins *plugin.Manager) *ActionHandler {
	h := &ActionHandler{store: s, plugins: plugins, router: chi.NewRouter()}
	h.router.Get("/", h.list)
	h.router.Post("/", h.create)
	h.router.Get("/{id}", h.get)
	h.router.Put("/{id}", h.update)
	h.router.Delete("/{id}", h.delete)
	return h
}

func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

type createActionRequest struct {
	SignKey    string          `json:"sign_key"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type updateActionRequest struct {
	SignKey    string          `json:"sign_key"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type actionResponse struct {
	ID         string          `json:"id"`
	SignKey    string          `json:"sign_key"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listActionsResponse struct {
	Actions []actionResponse `json:"actions"`
}

func toActionResponse(a *store.Action) actionResponse {
	config := a.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	return actionResponse{
		ID:         a.ID,
		SignKey:    a.SignKey,
		PluginName: a.PluginName,
		ActionName: a.ActionName,
		Config:     config,
		Enabled:    a.Enabled,
		CreatedAt:  formatTime(a.CreatedAt),
	}
}

func (h *ActionHandler) list(w http.ResponseWriter, r *http.Request) {
	actions, err := h.store.Actions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list actions")
		return
	}

	response := listActionsResponse{Actions: make([]actionResponse, 0, len(actions))}
	for _, a := range actions {
		response.Actions = append(response.Actions, toActionResponse(a))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *ActionHandler) get(w http.ResponseWriter, r *http.Request) {
	action, err := h.store.Actions().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}
	writeJSON(w, http.StatusOK, toActionResponse(action))
}

// checkBinding verifies the sign exists and, when plugins are known, that
// the plugin offers the action. It writes the error response itself.
func (h *ActionHandler) checkBinding(w http.ResponseWriter, signKey, pluginName, actionName string) bool {
	if _, err := h.store.Signs().GetByKey(signKey); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Sign not found")
			return false
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify sign")
		return false
	}

	if h.plugins == nil {
		return true
	}
	p, err := h.plugins.Get(pluginName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Plugin not found")
		return false
	}
	if !p.Supports(actionName) {
		writeError(w, http.StatusBadRequest, "Plugin does not support action")
		return false
	}
	return true
}

func (h *ActionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	switch {
	case req.SignKey == "":
		writeError(w, http.StatusBadRequest, "sign_key is required")
		return
	case req.PluginName == "":
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	case req.ActionName == "":
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}
	if !h.checkBinding(w, req.SignKey, req.PluginName, req.ActionName) {
		return
	}

	action := &store.Action{
		SignKey:    req.SignKey,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     req.Config,
		Enabled:    req.Enabled == nil || *req.Enabled,
	}
	if err := h.store.Actions().Create(action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create action")
		return
	}
	writeJSON(w, http.StatusCreated, toActionResponse(action))
}

func (h *ActionHandler) update(w http.ResponseWriter, r *http.Request) {
	action, err := h.store.Actions().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}

	var req updateActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.SignKey != "" {
		action.SignKey = req.SignKey
	}
	if req.PluginName != "" {
		action.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		action.ActionName = req.ActionName
	}
	if req.Config != nil {
		action.Config = req.Config
	}
	if req.Enabled != nil {
		action.Enabled = *req.Enabled
	}
	if !h.checkBinding(w, action.SignKey, action.PluginName, action.ActionName) {
		return
	}

	if err := h.store.Actions().Update(action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update action")
		return
	}
	writeJSON(w, http.StatusOK, toActionResponse(action))
}

func (h *ActionHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Actions().Delete(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete action")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
