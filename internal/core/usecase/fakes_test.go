package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/visionops/camsight/internal/core/domain"
)

type fakeSource struct {
	mu       sync.Mutex
	refs     []domain.ImageRef
	listErr  error
	resolves int
}

func (s *fakeSource) List(ctx context.Context) ([]domain.ImageRef, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.refs, nil
}

func (s *fakeSource) Resolve(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	s.resolves++
	s.mu.Unlock()
	return "https://frames.example.com/" + id, nil
}

func (s *fakeSource) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

// fakeClassifier matches any image whose name contains "dog". classifyErr
// (keyed by image id) simulates per-image failures; delay and jitter simulate
// the slow, uneven vision API.
type fakeClassifier struct {
	mu            sync.Mutex
	classifyCalls int
	classifyErr   map[string]error
	delay         time.Duration
	jitter        time.Duration

	queryErr   error
	summary    string
	summaryErr error
	priorText  string
	priorErr   error
}

func (c *fakeClassifier) AnalyzeQuery(ctx context.Context, query string) (domain.QueryAnalysis, error) {
	if c.queryErr != nil {
		return domain.QueryAnalysis{}, c.queryErr
	}
	return domain.QueryAnalysis{SearchCriteria: query, AnalysisType: "detection", Category: "animals"}, nil
}

func (c *fakeClassifier) ClassifyImage(ctx context.Context, img domain.ImageRef, meta domain.CameraMetadata, qa domain.QueryAnalysis) (domain.Verdict, error) {
	c.mu.Lock()
	c.classifyCalls++
	c.mu.Unlock()

	wait := c.delay
	if c.jitter > 0 {
		wait += time.Duration(rand.Int64N(int64(c.jitter)))
	}
	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return domain.Verdict{}, ctx.Err()
		}
	}
	if err := c.classifyErr[img.ID]; err != nil {
		return domain.Verdict{}, err
	}

	verdict := domain.Verdict{
		ImageID:    img.ID,
		ImageName:  img.DisplayName,
		Match:      strings.Contains(img.DisplayName, "dog"),
		Status:     domain.VerdictSuccess,
		AnalyzedAt: time.Now().UTC(),
	}
	verdict.ApplyMetadata(meta)
	if verdict.Match {
		verdict.Description = "a dog is visible"
	}
	return verdict, nil
}

func (c *fakeClassifier) SummarizeFindings(ctx context.Context, query string, result *domain.AnalysisResult) (string, error) {
	if c.summaryErr != nil {
		return "", c.summaryErr
	}
	if c.summary != "" {
		return c.summary, nil
	}
	return fmt.Sprintf("Found %d matches.", result.MatchesFound), nil
}

func (c *fakeClassifier) AnswerFromPrior(ctx context.Context, query string, prior *domain.AnalysisResult) (string, error) {
	if c.priorErr != nil {
		return "", c.priorErr
	}
	if c.priorText != "" {
		return c.priorText, nil
	}
	return fmt.Sprintf("From the previous %d matches: answered.", prior.MatchesFound), nil
}

type fakeCatalog struct {
	byIP map[string]domain.CameraMetadata
}

func (c *fakeCatalog) Lookup(cameraIP string) domain.CameraMetadata {
	if meta, ok := c.byIP[cameraIP]; ok {
		return meta
	}
	return domain.UnknownCameraMetadata()
}

// memoryStore is an in-memory SessionStore for orchestration tests.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]*domain.Session)}
}

func (s *memoryStore) Create(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id %s", id))
	}
	copied := *session
	copied.Queries = append([]domain.QueryRecord(nil), session.Queries...)
	return &copied, nil
}

func (s *memoryStore) List(ctx context.Context) ([]domain.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summaries := make([]domain.SessionSummary, 0, len(s.sessions))
	for _, session := range s.sessions {
		summaries = append(summaries, domain.SessionSummary{
			ID: session.ID, Title: session.Title, QueryCount: len(session.Queries),
		})
	}
	return summaries, nil
}

func (s *memoryStore) AppendQuery(ctx context.Context, sessionID string, record domain.QueryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "append query", fmt.Errorf("id %s", sessionID))
	}
	record.QueryNum = len(session.Queries) + 1
	session.Queries = append(session.Queries, record)
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "delete session", fmt.Errorf("id %s", id))
	}
	delete(s.sessions, id)
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (n *fakeNotifier) PublishAnalysisCompleted(ctx context.Context, sessionID, jobID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.published = append(n.published, sessionID+"/"+jobID)
	return nil
}

func dogCorpus(n, matching int) []domain.ImageRef {
	refs := make([]domain.ImageRef, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Street_10_20_30_%d_20251108_133919.jpg", 40+i)
		if i < matching {
			name = fmt.Sprintf("dogpark_10_20_30_%d_20251108_133919.jpg", 40+i)
		}
		refs = append(refs, domain.ImageRef{ID: name, DisplayName: name})
	}
	return refs
}

func collectEvents(events <-chan domain.Event) []domain.Event {
	var all []domain.Event
	for ev := range events {
		all = append(all, ev)
	}
	return all
}

func countByType(events []domain.Event) map[domain.EventType]int {
	counts := make(map[domain.EventType]int)
	for _, ev := range events {
		counts[ev.Type]++
	}
	return counts
}
