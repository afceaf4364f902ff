package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/mudra/internal/store"
)

// Recognition log paging limits.
const (
	DefaultRecognitionLimit = 50
	MaxRecognitionLimit     = 1000
)

// RecognitionHandler serves the recognition log.
type RecognitionHandler struct {
	store  *store.Store
	router chi.Router
}

// NewRecognitionHandler creates a RecognitionHandler backed by s.
func NewRecognitionHandler(s *store.Store) *RecognitionHandler {
	h := &RecognitionHandler{store: s, router: chi.NewRouter()}
	h.router.Get("/", h.list)
	h.router.Delete("/", h.clear)
	return h
}

func (h *RecognitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

type recognitionResponse struct {
	ID           string  `json:"id"`
	SessionID    string  `json:"session_id"`
	SignKey      string  `json:"sign_key"`
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
	Handedness   string  `json:"handedness,omitempty"`
	Sequence     string  `json:"sequence,omitempty"`
	RecognizedAt string  `json:"recognized_at"`
}

type listRecognitionsResponse struct {
	Recognitions []recognitionResponse `json:"recognitions"`
	Total        int                   `json:"total"`
}

type clearRecognitionsResponse struct {
	Deleted int64 `json:"deleted"`
}

func (h *RecognitionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultRecognitionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxRecognitionLimit)
	}

	recs, err := h.store.Recognitions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recognitions")
		return
	}
	total, err := h.store.Recognitions().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count recognitions")
		return
	}

	response := listRecognitionsResponse{
		Recognitions: make([]recognitionResponse, 0, len(recs)),
		Total:        total,
	}
	for _, rec := range recs {
		response.Recognitions = append(response.Recognitions, recognitionResponse{
			ID:           rec.ID,
			SessionID:    rec.SessionID,
			SignKey:      rec.SignKey,
			Text:         rec.Text,
			Confidence:   rec.Confidence,
			Handedness:   rec.Handedness,
			Sequence:     rec.Sequence,
			RecognizedAt: formatTime(rec.RecognizedAt),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *RecognitionHandler) clear(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Recognitions().Clear()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear recognitions")
		return
	}
	writeJSON(w, http.StatusOK, clearRecognitionsResponse{Deleted: n})
}
