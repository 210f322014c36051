package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/visionops/camsight/internal/core/domain"
	"github.com/visionops/camsight/internal/core/ports"
)

// AnalyzeUseCase orchestrates one query end to end: resolve the effective
// image set, run the worker pool (or answer directly from cached verdicts),
// persist the completed result, and notify downstream consumers. Queries
// within the same session are serialized so the prior result stays
// well-defined for contextual resolution.
type AnalyzeUseCase struct {
	resolver   *ContextResolver
	executor   *WorkerPoolExecutor
	aggregator ResultAggregator
	classifier ports.VisionClassifier
	store      ports.SessionStore
	notifier   ports.AnalysisNotifier

	locks sessionLocks
}

func NewAnalyzeUseCase(
	resolver *ContextResolver,
	executor *WorkerPoolExecutor,
	classifier ports.VisionClassifier,
	store ports.SessionStore,
	notifier ports.AnalysisNotifier,
) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		resolver:   resolver,
		executor:   executor,
		classifier: classifier,
		store:      store,
		notifier:   notifier,
		locks:      sessionLocks{entries: make(map[string]*sessionLockEntry)},
	}
}

func (uc *AnalyzeUseCase) SubmitQuery(ctx context.Context, sessionID, query string) (<-chan domain.Event, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit query", errors.New("query text is empty"))
	}
	if _, err := uc.store.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}

	out := make(chan domain.Event, 16)
	go func() {
		defer close(out)
		uc.run(ctx, sessionID, query, out)
	}()
	return out, nil
}

func (uc *AnalyzeUseCase) run(ctx context.Context, sessionID, query string, out chan<- domain.Event) {
	defer uc.locks.lock(sessionID)()

	// Re-read under the lock: an earlier job on this session may have
	// appended a result since submission.
	session, err := uc.store.GetByID(ctx, sessionID)
	if err != nil {
		emit(ctx, out, domain.ErrorEvent(err.Error()))
		return
	}
	prior := session.PriorResult()

	resolution, err := uc.resolver.Resolve(ctx, query, prior)
	if err != nil {
		emit(ctx, out, domain.StartEvent(query))
		emit(ctx, out, domain.ErrorEvent(err.Error()))
		slog.Warn("job_rejected", "session_id", sessionID, "error", err)
		return
	}

	if resolution.Direct {
		uc.runDirect(ctx, sessionID, query, prior, out)
		return
	}

	job := domain.NewAnalysisJob(uuid.NewString(), sessionID, query, resolution.Prompt, resolution.Images, resolution.Contextual)
	slog.Info("job_started",
		"job_id", job.ID,
		"session_id", sessionID,
		"images", len(resolution.Images),
		"contextual", resolution.Contextual,
	)

	for ev := range uc.executor.Run(ctx, job) {
		if ev.Type == domain.EventComplete {
			if result, ok := ev.Data.(domain.AnalysisResult); ok {
				uc.persist(ctx, sessionID, job.ID, query, result)
			}
		}
		if !emit(ctx, out, ev) {
			// Consumer gone; keep draining so the executor can wind down.
			continue
		}
	}
	slog.Info("job_finished", "job_id", job.ID, "session_id", sessionID, "status", string(job.Status()))
}

// runDirect completes a follow-up from cached verdicts: no image is
// classified and the worker pool is bypassed entirely.
func (uc *AnalyzeUseCase) runDirect(ctx context.Context, sessionID, query string, prior *domain.AnalysisResult, out chan<- domain.Event) {
	jobID := uuid.NewString()
	emit(ctx, out, domain.StartEvent(query))
	emit(ctx, out, domain.LogEvent("Answering from previous results (%d images, %d matches)...",
		prior.TotalImages, prior.MatchesFound))

	answer, err := uc.classifier.AnswerFromPrior(ctx, query, prior)
	if err != nil {
		slog.Warn("direct_answer_fallback", "session_id", sessionID, "error", err)
		answer = uc.aggregator.ComposeNarrative(*prior, uc.aggregator.FallbackSummary(query, *prior))
	}

	result := *prior
	result.FinalAnswer = answer
	result.IsContextual = true

	uc.persist(ctx, sessionID, jobID, query, result)
	emit(ctx, out, domain.CompleteEvent(result))
	slog.Info("job_finished", "job_id", jobID, "session_id", sessionID, "status", string(domain.JobCompleted), "direct", true)
}

// persist appends the completed query to the session log and announces it.
// Neither failure retracts the analysis the client already received; both
// are logged.
func (uc *AnalyzeUseCase) persist(ctx context.Context, sessionID, jobID, query string, result domain.AnalysisResult) {
	record := domain.QueryRecord{
		QueryText: query,
		Timestamp: time.Now().UTC(),
		Result:    result,
	}
	if err := uc.store.AppendQuery(ctx, sessionID, record); err != nil {
		slog.Error("append_query_failed", "session_id", sessionID, "job_id", jobID, "error", err)
		return
	}
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.PublishAnalysisCompleted(ctx, sessionID, jobID); err != nil {
		slog.Warn("completion_notify_failed", "session_id", sessionID, "job_id", jobID, "error", err)
	}
}

// sessionLocks serializes jobs per session id. Entries are reference-counted
// and dropped on last release, so deleted or idle sessions do not pin a mutex
// for the life of the process.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[string]*sessionLockEntry
}

type sessionLockEntry struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until the session is exclusively held and returns the release
// func.
func (l *sessionLocks) lock(sessionID string) func() {
	l.mu.Lock()
	entry, ok := l.entries[sessionID]
	if !ok {
		entry = &sessionLockEntry{}
		l.entries[sessionID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, sessionID)
		}
		l.mu.Unlock()
	}
}
