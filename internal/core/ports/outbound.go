package ports

import (
	"context"
	"io"
	"time"

	"github.com/visionops/camsight/internal/core/domain"
)

// ImageSource lists the image corpus and resolves ids to fetchable locators.
// The core never assumes bytes are local; a locator is enough to hand to the
// classifier.
type ImageSource interface {
	List(ctx context.Context) ([]domain.ImageRef, error)
	Resolve(ctx context.Context, id string) (string, error)
	Open(ctx context.Context, id string) (io.ReadCloser, error)
}

// VisionClassifier is the opaque vision model behind the analysis engine.
type VisionClassifier interface {
	AnalyzeQuery(ctx context.Context, query string) (domain.QueryAnalysis, error)
	ClassifyImage(ctx context.Context, img domain.ImageRef, meta domain.CameraMetadata, qa domain.QueryAnalysis) (domain.Verdict, error)
	SummarizeFindings(ctx context.Context, query string, result *domain.AnalysisResult) (string, error)
	AnswerFromPrior(ctx context.Context, query string, prior *domain.AnalysisResult) (string, error)
}

// CameraCatalog maps camera IPs to deployment metadata.
type CameraCatalog interface {
	Lookup(cameraIP string) domain.CameraMetadata
}

// SessionStore is the durable append-only log of sessions and their queries.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	List(ctx context.Context) ([]domain.SessionSummary, error)
	AppendQuery(ctx context.Context, sessionID string, record domain.QueryRecord) error
	Delete(ctx context.Context, id string) error
}

// AnalysisNotifier announces completed analyses to downstream consumers.
type AnalysisNotifier interface {
	PublishAnalysisCompleted(ctx context.Context, sessionID, jobID string) error
}

// AnalysisObserver receives job lifecycle telemetry. Implementations must be
// safe for concurrent use; a nil observer is tolerated everywhere.
type AnalysisObserver interface {
	JobStarted()
	JobFinished(status string, duration time.Duration, images, matches, failures int)
}

// FollowUpClassifier decides how a query relates to the previous result. It is
// a pluggable strategy; no particular natural-language heuristic is
// load-bearing for correctness.
type FollowUpClassifier interface {
	Classify(query string, hasPrior bool) domain.QueryKind
}
