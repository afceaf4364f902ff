package e2e

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

// installRecorder lays out a plugin that saves each request it receives.
func installRecorder(t *testing.T, root string) string {
	t.Helper()

	dir := filepath.Join(root, "recorder")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"recorder","version":"0.1.0","executable":"run.sh","actions":["save"]}`
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ncat > last.json\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(dir, "last.json")
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping e2e test on Windows")
	}

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()
	if _, err := s.Signs().Seed(gesture.DefaultDictionary()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	dict, err := s.Signs().Dictionary()
	if err != nil {
		t.Fatalf("Dictionary() error = %v", err)
	}

	pluginDir := filepath.Join(tmpDir, "plugins")
	lastRequest := installRecorder(t, pluginDir)
	plugins := plugin.NewManager(pluginDir, logger)
	if err := plugins.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	dispatcher := app.NewDispatcher(s, plugins, plugin.NewExecutor(5*time.Second), logger)
	defer dispatcher.Close()

	srv := server.New(server.Config{
		Dictionary:  dict,
		Recognition: gesture.DefaultConfig(),
		Store:       s,
		Plugins:     plugins,
		Sink:        dispatcher,
		Logger:      logger,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	t.Run("BindAction", func(t *testing.T) {
		resp, err := client.Post(
			ts.URL+"/api/actions",
			"application/json",
			strings.NewReader(`{"sign_key":"open_hand","plugin_name":"recorder","action_name":"save","config":{"tag":"e2e"}}`),
		)
		if err != nil {
			t.Fatalf("create action error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
	})

	t.Run("StreamSign", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial error = %v", err)
		}
		defer conn.Close()

		hand := detector.OpenPalmLandmarks()
		for i := range 20 {
			frame := detector.Frame{Hands: []detector.HandLandmarks{hand}, Timestamp: 1_000 + int64(i)*36}
			if err := conn.WriteJSON(frame); err != nil {
				t.Fatalf("write frame error = %v", err)
			}
		}

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		for {
			var ev gesture.Event
			if err := conn.ReadJSON(&ev); err != nil {
				t.Fatalf("waiting for confirmation: %v", err)
			}
			if ev.Type != gesture.EventConfirmed {
				continue
			}
			if ev.Key != "open_hand" || ev.Text != "Hola" {
				t.Errorf("confirmed %s (%q), want open_hand (Hola)", ev.Key, ev.Text)
			}
			break
		}
	})

	dispatcher.Wait()

	t.Run("PluginInvoked", func(t *testing.T) {
		data, err := os.ReadFile(lastRequest)
		if err != nil {
			t.Fatalf("plugin did not run: %v", err)
		}
		var req plugin.Request
		if err := json.Unmarshal(data, &req); err != nil {
			t.Fatalf("decode plugin request: %v", err)
		}
		if req.Action != "save" || req.Sign != "open_hand" || req.Text != "Hola" {
			t.Errorf("unexpected plugin request %+v", req)
		}
		if string(req.Config) != `{"tag":"e2e"}` {
			t.Errorf("config = %s, want {\"tag\":\"e2e\"}", req.Config)
		}
	})

	t.Run("RecognitionLogged", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/recognitions")
		if err != nil {
			t.Fatalf("list recognitions error = %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Recognitions []struct {
				SignKey  string `json:"sign_key"`
				Sequence string `json:"sequence"`
			} `json:"recognitions"`
			Total int `json:"total"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if body.Total != 1 || len(body.Recognitions) != 1 {
			t.Fatalf("total = %d, want 1", body.Total)
		}
		if got := body.Recognitions[0]; got.SignKey != "open_hand" || got.Sequence != "Hola" {
			t.Errorf("unexpected recognition %+v", got)
		}
	})

	t.Run("Health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("health error = %v", err)
		}
		defer resp.Body.Close()

		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode error = %v", err)
		}
		if body["status"] != "ok" {
			t.Errorf("status = %v, want ok", body["status"])
		}
	})
}
