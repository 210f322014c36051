package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/visionops/camsight/internal/core/domain"
	"github.com/visionops/camsight/internal/core/ports"
)

const defaultWorkers = 5

// WorkerPoolExecutor drives one AnalysisJob: it fans the effective image set
// out to a bounded pool of workers, each of which resolves a locator and
// calls the vision classifier, and emits events in true completion order. The
// pool is the only point of concurrency in the engine.
type WorkerPoolExecutor struct {
	source     ports.ImageSource
	classifier ports.VisionClassifier
	catalog    ports.CameraCatalog
	aggregator ResultAggregator
	observer   ports.AnalysisObserver
	workers    int
}

func NewWorkerPoolExecutor(
	source ports.ImageSource,
	classifier ports.VisionClassifier,
	catalog ports.CameraCatalog,
	observer ports.AnalysisObserver,
	workers int,
) *WorkerPoolExecutor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &WorkerPoolExecutor{
		source:     source,
		classifier: classifier,
		catalog:    catalog,
		observer:   observer,
		workers:    workers,
	}
}

// Run executes the job and returns its event stream. The channel is closed
// once the job reaches a terminal status. Run is not restartable: a job
// passes through the pool at most once.
func (e *WorkerPoolExecutor) Run(ctx context.Context, job *domain.AnalysisJob) <-chan domain.Event {
	events := make(chan domain.Event, 16)
	go func() {
		defer close(events)
		e.run(ctx, job, events)
	}()
	return events
}

func (e *WorkerPoolExecutor) run(ctx context.Context, job *domain.AnalysisJob, events chan<- domain.Event) {
	started := time.Now()
	if e.observer != nil {
		e.observer.JobStarted()
	}
	observeFinish := func(images, matches, failures int) {
		if e.observer != nil {
			e.observer.JobFinished(string(job.Status()), time.Since(started), images, matches, failures)
		}
	}

	if !emit(ctx, events, domain.StartEvent(job.QueryText)) {
		job.Finish(domain.JobCancelled)
		observeFinish(0, 0, 0)
		return
	}
	emit(ctx, events, domain.LogEvent("Analyzing your query..."))

	qa, err := e.classifier.AnalyzeQuery(ctx, job.Prompt)
	if err != nil {
		slog.Warn("query_analysis_fallback", "job_id", job.ID, "error", err)
		qa = domain.DefaultQueryAnalysis(job.Prompt)
	}
	emit(ctx, events, domain.QueryAnalysisEvent(qa))

	total := len(job.EffectiveImages)
	if total == 0 {
		emit(ctx, events, domain.ErrorEvent("no images to analyze"))
		job.Finish(domain.JobFailed)
		observeFinish(0, 0, 0)
		return
	}
	emit(ctx, events, domain.LogEvent("Analyzing %d images with %d concurrent workers...", total, e.workers))

	var (
		mu        sync.Mutex
		verdicts  = make([]domain.Verdict, 0, total)
		processed int
		matches   int
		failures  int
	)

	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, img := range job.EffectiveImages {
		// Cancellation stops dispatch; in-flight workers finish their image.
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			verdict := e.analyzeOne(ctx, img, qa)

			// Events go out under the lock so the counter and the wire stay
			// in lockstep: progress is strictly increasing and the last one
			// carries total/total.
			mu.Lock()
			verdicts = append(verdicts, verdict)
			processed++
			if verdict.Match {
				matches++
			}
			if verdict.Status == domain.VerdictError {
				failures++
			}
			emit(ctx, events, domain.ProgressEvent(processed, total))
			emit(ctx, events, domain.LogEvent("Processed: %s", verdict.ImageName))
			if verdict.Match {
				emit(ctx, events, domain.MatchEvent(matches, verdict))
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		job.Finish(domain.JobCancelled)
		observeFinish(processed, matches, failures)
		slog.Info("job_cancelled", "job_id", job.ID, "processed", processed, "total", total)
		return
	}

	emit(ctx, events, domain.LogEvent("Analysis complete. Total analyzed: %d, matches found: %d", processed, matches))
	emit(ctx, events, domain.LogEvent("Generating report..."))

	result := e.aggregator.Fold(verdicts, job.IsContextual)
	summary, err := e.classifier.SummarizeFindings(ctx, job.QueryText, &result)
	if err != nil {
		slog.Warn("summary_fallback", "job_id", job.ID, "error", err)
		summary = e.aggregator.FallbackSummary(job.QueryText, result)
	}
	result.FinalAnswer = e.aggregator.ComposeNarrative(result, summary)

	job.Finish(domain.JobCompleted)
	observeFinish(processed, matches, failures)
	emit(ctx, events, domain.CompleteEvent(result))
}

func (e *WorkerPoolExecutor) analyzeOne(ctx context.Context, img domain.ImageRef, qa domain.QueryAnalysis) domain.Verdict {
	meta := e.catalog.Lookup(domain.CameraIPFromName(img.DisplayName))

	locator, err := e.source.Resolve(ctx, img.ID)
	if err != nil {
		slog.Warn("image_resolve_failed", "image_id", img.ID, "error", err)
		return domain.FailedVerdict(img, meta, err)
	}
	img.Locator = locator

	verdict, err := e.classifier.ClassifyImage(ctx, img, meta, qa)
	if err != nil {
		slog.Warn("image_classify_failed", "image_id", img.ID, "error", err)
		return domain.FailedVerdict(img, meta, err)
	}
	return verdict
}

// emit delivers an event unless the consumer is gone.
func emit(ctx context.Context, events chan<- domain.Event, ev domain.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
