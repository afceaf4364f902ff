package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

const (
	maxFrameBytes = 1 << 20
	writeWait     = 2 * time.Second
	pongWait      = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StreamHandler runs one Recognizer per WebSocket connection. Clients send
// landmark frames as JSON text messages and receive recognizer events back
// on the same connection.
type StreamHandler struct {
	dict   gesture.Dictionary
	config gesture.Config
	sink   EventSink
	logger *slog.Logger
}

// NewStreamHandler creates a StreamHandler. sink may be nil.
func NewStreamHandler(dict gesture.Dictionary, config gesture.Config, sink EventSink, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{dict: dict, config: config, sink: sink, logger: logger}
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ServeHTTP upgrades the connection and processes frames until the client
// disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session := uuid.NewString()
	logger := h.logger.With("session", session, "remote", r.RemoteAddr)

	rec, err := gesture.NewRecognizer(h.config, h.dict, logger)
	if err != nil {
		logger.Error("failed to create recognizer", "error", err)
		http.Error(w, "recognizer unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	// Events are dispatched synchronously from Process, so every write
	// happens on this goroutine.
	rec.Subscribe(func(ev gesture.Event) {
		if h.sink != nil {
			h.sink.Handle(session, ev)
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			logger.Debug("event write failed", "error", err)
		}
	})

	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	logger.Info("stream connected")
	frames := 0
	var clock sessionClock
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		if msgType != websocket.TextMessage {
			continue
		}

		frame, err := detector.DecodeFrame(data)
		var at time.Time
		if err == nil {
			at, err = clock.next(frame, time.Now())
		}
		if err != nil {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteJSON(errorMessage{Type: "error", Message: err.Error()})
			continue
		}
		frames++
		rec.Process(frame.Hands, at)
	}

	rec.Stop(clock.stopTime(time.Now()))
	stats := rec.Stats()
	logger.Info("stream closed", "frames", frames, "recognitions", stats.TotalRecognitions)
}
