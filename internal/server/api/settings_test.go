package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
)

func TestSettingHandler(t *testing.T) {
	s := newTestStore(t)
	h := NewSettingHandler(s)

	t.Run("list empty", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		got := decode[settingsResponse](t, rec)
		if len(got.Settings) != 0 {
			t.Errorf("expected no settings, got %v", got.Settings)
		}
		if len(got.Keys) != len(config.SettingKeys) {
			t.Errorf("expected %d keys, got %d", len(config.SettingKeys), len(got.Keys))
		}
	})

	t.Run("put", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/"+config.SettingHoldTime, `{"value":"600"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body)
		}
		v, err := s.Settings().Get(config.SettingHoldTime)
		if err != nil || v != "600" {
			t.Errorf("expected stored 600, got %q (%v)", v, err)
		}

		rec = do(t, h, http.MethodGet, "/", nil)
		if got := decode[settingsResponse](t, rec); got.Settings[config.SettingHoldTime] != "600" {
			t.Errorf("expected listed value 600, got %v", got.Settings)
		}
	})

	tests := []struct {
		name string
		key  string
		body string
	}{
		{"unknown key", "frame_rate", `{"value":"30"}`},
		{"not a number", config.SettingCooldown, `{"value":"soon"}`},
		{"zero sequence", config.SettingMaxSequence, `{"value":"0"}`},
		{"not a bool", config.SettingEnableSequence, `{"value":"maybe"}`},
		{"invalid json", config.SettingHoldTime, `{"value":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPut, "/"+tt.key, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}

	t.Run("delete", func(t *testing.T) {
		rec := do(t, h, http.MethodDelete, "/"+config.SettingHoldTime, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
		if _, err := s.Settings().Get(config.SettingHoldTime); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		rec = do(t, h, http.MethodDelete, "/"+config.SettingHoldTime, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}
