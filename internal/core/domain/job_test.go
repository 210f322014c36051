package domain

import "testing"

func TestJobFinishIsTerminalOnce(t *testing.T) {
	job := NewAnalysisJob("j1", "s1", "find dogs", "find dogs", nil, false)
	if job.Status() != JobRunning {
		t.Fatalf("initial status = %q", job.Status())
	}

	if !job.Finish(JobCompleted) {
		t.Fatal("first transition should succeed")
	}
	if job.Finish(JobCancelled) {
		t.Error("second transition should be rejected")
	}
	if job.Status() != JobCompleted {
		t.Errorf("status = %q, want completed", job.Status())
	}
}

func TestProgressEventGuardsZeroTotal(t *testing.T) {
	ev := ProgressEvent(0, 0)
	payload := ev.Data.(ProgressPayload)
	if payload.Percent != 0 {
		t.Errorf("percent = %d, want 0", payload.Percent)
	}

	ev = ProgressEvent(3, 4)
	payload = ev.Data.(ProgressPayload)
	if payload.Percent != 75 {
		t.Errorf("percent = %d, want 75", payload.Percent)
	}
}
