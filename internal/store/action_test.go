package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/gesture"
)

func seedSign(t *testing.T, s *Store, key string) {
	t.Helper()
	sg := &Sign{SignRule: gesture.SignRule{Key: key, Name: key, MinConfidence: 0.8}}
	if err := s.Signs().Create(sg); err != nil {
		t.Fatalf("create sign %s: %v", key, err)
	}
}

func TestActionRepository(t *testing.T) {
	s := newTestStore(t)
	seedSign(t, s, "open_hand")
	repo := s.Actions()

	speak := &Action{
		SignKey:    "open_hand",
		PluginName: "speak",
		ActionName: "say",
		Config:     json.RawMessage(`{"voice":"es"}`),
		Enabled:    true,
	}
	if err := repo.Create(speak); err != nil {
		t.Fatalf("create: %v", err)
	}
	if speak.ID == "" {
		t.Fatal("expected generated id")
	}

	disabled := &Action{SignKey: "open_hand", PluginName: "speak", ActionName: "say"}
	if err := repo.Create(disabled); err != nil {
		t.Fatalf("create disabled: %v", err)
	}

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByID(speak.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.PluginName != "speak" || string(got.Config) != `{"voice":"es"}` || !got.Enabled {
			t.Errorf("unexpected action %+v", got)
		}
	})

	t.Run("list by sign skips disabled", func(t *testing.T) {
		actions, err := repo.ListBySign("open_hand")
		if err != nil {
			t.Fatalf("list by sign: %v", err)
		}
		if len(actions) != 1 || actions[0].ID != speak.ID {
			t.Errorf("expected only the enabled action, got %v", actions)
		}
	})

	t.Run("unknown sign is rejected", func(t *testing.T) {
		orphan := &Action{SignKey: "missing", PluginName: "speak", ActionName: "say"}
		if err := repo.Create(orphan); err == nil {
			t.Error("expected foreign key violation")
		}
	})

	t.Run("update", func(t *testing.T) {
		disabled.Enabled = true
		if err := repo.Update(disabled); err != nil {
			t.Fatalf("update: %v", err)
		}
		actions, _ := repo.ListBySign("open_hand")
		if len(actions) != 2 {
			t.Errorf("expected 2 enabled actions, got %d", len(actions))
		}
	})

	t.Run("deleting the sign cascades", func(t *testing.T) {
		if err := s.Signs().Delete("open_hand"); err != nil {
			t.Fatalf("delete sign: %v", err)
		}
		if _, err := repo.GetByID(speak.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after cascade, got %v", err)
		}
	})
}
