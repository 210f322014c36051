package domain

import "sync"

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// QueryKind is the resolver's classification of an incoming query.
type QueryKind string

const (
	// QueryFull scans the entire corpus.
	QueryFull QueryKind = "full"
	// QueryContextual re-classifies only the previously matched images.
	QueryContextual QueryKind = "contextual"
	// QueryDirect is answerable from stored verdicts alone; the worker pool
	// is bypassed entirely.
	QueryDirect QueryKind = "direct"
)

// AnalysisJob is the unit of work for one query. Status moves from running to
// exactly one terminal state; later transitions are rejected.
type AnalysisJob struct {
	ID              string
	SessionID       string
	QueryText       string
	Prompt          string
	EffectiveImages []ImageRef
	IsContextual    bool

	mu     sync.Mutex
	status JobStatus
}

func NewAnalysisJob(id, sessionID, queryText, prompt string, images []ImageRef, contextual bool) *AnalysisJob {
	return &AnalysisJob{
		ID:              id,
		SessionID:       sessionID,
		QueryText:       queryText,
		Prompt:          prompt,
		EffectiveImages: images,
		IsContextual:    contextual,
		status:          JobRunning,
	}
}

func (j *AnalysisJob) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Finish transitions the job to a terminal status. Returns false when the job
// already reached a terminal state.
func (j *AnalysisJob) Finish(status JobStatus) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != JobRunning {
		return false
	}
	j.status = status
	return true
}
