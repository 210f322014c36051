package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/visionops/camsight/internal/core/domain"
	"github.com/visionops/camsight/internal/core/ports"
)

// SessionUseCase covers session lifecycle. The title is set lazily by the
// store when the first query is appended.
type SessionUseCase struct {
	store ports.SessionStore
}

func NewSessionUseCase(store ports.SessionStore) *SessionUseCase {
	return &SessionUseCase{store: store}
}

func (uc *SessionUseCase) CreateSession(ctx context.Context) (*domain.Session, error) {
	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Title:     "New Analysis Session",
		CreatedAt: now,
		UpdatedAt: now,
		Queries:   []domain.QueryRecord{},
	}
	if err := uc.store.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (uc *SessionUseCase) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return uc.store.GetByID(ctx, id)
}

func (uc *SessionUseCase) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	return uc.store.List(ctx)
}

func (uc *SessionUseCase) DeleteSession(ctx context.Context, id string) error {
	return uc.store.Delete(ctx, id)
}
