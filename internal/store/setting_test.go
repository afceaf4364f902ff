package store

import (
	"errors"
	"testing"
)

func TestSettingRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("min_hold_ms"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Set("min_hold_ms", "400"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set("min_hold_ms", "600"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := repo.Set("cooldown_ms", "1000"); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, err := repo.Get("min_hold_ms")
	if err != nil || v != "600" {
		t.Errorf("expected 600, got %q %v", v, err)
	}

	all, err := repo.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 || all["cooldown_ms"] != "1000" {
		t.Errorf("unexpected settings %v", all)
	}

	if err := repo.Delete("cooldown_ms"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete("cooldown_ms"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
