package api

import (
	"io"
	"net/http"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// PredictHandler matches a single frame without any temporal state.
type PredictHandler struct {
	matcher *gesture.Matcher
}

// NewPredictHandler creates a PredictHandler over dict.
func NewPredictHandler(dict gesture.Dictionary) *PredictHandler {
	return &PredictHandler{matcher: gesture.NewMatcher(dict)}
}

type handPrediction struct {
	Handedness  string                       `json:"handedness,omitempty"`
	Features    gesture.FeatureVector        `json:"features"`
	Match       *gesture.Match               `json:"match"`
	Scores      []gesture.Match              `json:"scores"`
	Open        bool                         `json:"open"`
	PalmCenter  *detector.Point3D            `json:"palm_center,omitempty"`
	PalmNormal  *detector.Point3D            `json:"palm_normal,omitempty"`
	JointAngles *[gesture.NumFingers]float64 `json:"joint_angles,omitempty"`
}

type predictResponse struct {
	Hands []handPrediction `json:"hands"`
}

// ServeHTTP handles POST /api/predict. The body uses the same frame format
// as the stream endpoint.
func (h *PredictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	frame, err := detector.DecodeFrame(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	response := predictResponse{Hands: make([]handPrediction, 0, len(frame.Hands))}
	for i := range frame.Hands {
		response.Hands = append(response.Hands, h.predict(&frame.Hands[i]))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *PredictHandler) predict(hand *detector.HandLandmarks) handPrediction {
	fv := gesture.Extract(hand)
	p := handPrediction{
		Handedness: hand.Handedness,
		Features:   fv,
		Scores:     h.matcher.Scores(fv),
		Open:       gesture.IsHandOpen(fv),
	}
	if p.Scores == nil {
		p.Scores = []gesture.Match{}
	}
	if m, ok := h.matcher.Match(fv); ok {
		p.Match = &m
	}
	if c, ok := gesture.PalmCenter(hand); ok {
		p.PalmCenter = &c
	}
	if n, ok := gesture.PalmNormal(hand); ok {
		p.PalmNormal = &n
	}
	if a, ok := gesture.JointAngles(hand); ok {
		p.JointAngles = &a
	}
	return p
}
