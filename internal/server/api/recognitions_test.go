package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/store"
)

func TestRecognitionHandler_List(t *testing.T) {
	s := newTestStore(t)
	h := NewRecognitionHandler(s)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := range 5 {
		err := s.Recognitions().Create(&store.Recognition{
			SessionID:    "session",
			SignKey:      "open_hand",
			Text:         "Hola",
			Confidence:   1,
			Handedness:   "Right",
			Sequence:     fmt.Sprintf("Hola %d", i),
			RecognizedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("failed to create recognition: %v", err)
		}
	}

	t.Run("default limit", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		got := decode[listRecognitionsResponse](t, rec)
		if got.Total != 5 || len(got.Recognitions) != 5 {
			t.Fatalf("expected 5 recognitions, got %d (total %d)", len(got.Recognitions), got.Total)
		}
		if got.Recognitions[0].Sequence != "Hola 4" {
			t.Errorf("expected newest first, got %q", got.Recognitions[0].Sequence)
		}
		if got.Recognitions[0].RecognizedAt != "2026-01-02T03:04:09Z" {
			t.Errorf("unexpected timestamp %q", got.Recognitions[0].RecognizedAt)
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/?limit=2", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		got := decode[listRecognitionsResponse](t, rec)
		if got.Total != 5 || len(got.Recognitions) != 2 {
			t.Errorf("expected 2 of 5 recognitions, got %d of %d", len(got.Recognitions), got.Total)
		}
	})

	for _, limit := range []string{"0", "-3", "abc"} {
		t.Run("invalid limit "+limit, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/?limit="+limit, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestRecognitionHandler_Clear(t *testing.T) {
	s := newTestStore(t)
	h := NewRecognitionHandler(s)

	for range 3 {
		if err := s.Recognitions().Create(&store.Recognition{SessionID: "s", SignKey: "fist", Confidence: 1}); err != nil {
			t.Fatal(err)
		}
	}

	rec := do(t, h, http.MethodDelete, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := decode[clearRecognitionsResponse](t, rec); got.Deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", got.Deleted)
	}

	rec = do(t, h, http.MethodGet, "/", nil)
	got := decode[listRecognitionsResponse](t, rec)
	if got.Total != 0 || len(got.Recognitions) != 0 {
		t.Errorf("expected empty log, got %+v", got)
	}
}
