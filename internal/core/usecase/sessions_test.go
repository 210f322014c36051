package usecase

import (
	"context"
	"testing"

	"github.com/visionops/camsight/internal/core/domain"
)

func TestCreateSessionDefaults(t *testing.T) {
	store := newMemoryStore()
	uc := NewSessionUseCase(store)

	session, err := uc.CreateSession(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if session.ID == "" {
		t.Error("session id not assigned")
	}
	if session.Title != "New Analysis Session" {
		t.Errorf("title = %q", session.Title)
	}
	if session.CreatedAt.IsZero() || !session.CreatedAt.Equal(session.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", session.CreatedAt, session.UpdatedAt)
	}

	stored, err := uc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.ID != session.ID {
		t.Errorf("stored id = %q", stored.ID)
	}
}

func TestDeleteSessionPropagatesNotFound(t *testing.T) {
	uc := NewSessionUseCase(newMemoryStore())
	err := uc.DeleteSession(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Errorf("expected session-not-found kind, got %v", err)
	}
}
