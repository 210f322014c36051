package ports

import (
	"context"

	"github.com/visionops/camsight/internal/core/domain"
)

// QueryStreamer is the inbound contract for submitting a query and consuming
// its live event stream. The returned channel is closed when the job reaches
// a terminal state; cancelling ctx stops dispatching further images.
type QueryStreamer interface {
	SubmitQuery(ctx context.Context, sessionID, query string) (<-chan domain.Event, error)
}

// SessionService is the inbound contract for session lifecycle operations.
type SessionService interface {
	CreateSession(ctx context.Context) (*domain.Session, error)
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessions(ctx context.Context) ([]domain.SessionSummary, error)
	DeleteSession(ctx context.Context, id string) error
}
