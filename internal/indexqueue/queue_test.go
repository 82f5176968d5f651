package indexqueue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/doozMen/codesearch-mcp/internal/models"
)

func waitForStatus(t *testing.T, q *Queue, jobID string, want models.JobStatus, timeout time.Duration) *models.Job {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		j := q.Status(jobID)
		if j != nil && j.Status == want {
			return j
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s did not reach status %v within %v (last: %+v)", jobID, want, timeout, j)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEnqueueRunsAndCompletes(t *testing.T) {
	q := New(1)
	id := q.Enqueue("demo", models.PriorityNormal, func() (int, int, error) {
		return 3, 30, nil
	})
	job := waitForStatus(t, q, id, models.JobStatusCompleted, time.Second)
	if job.Counts == nil || job.Counts.Files != 3 || job.Counts.Chunks != 30 {
		t.Fatalf("Counts = %+v, want {3 30}", job.Counts)
	}
}

func TestEnqueueFailurePropagatesAndIsStable(t *testing.T) {
	q := New(1)
	id := q.Enqueue("demo", models.PriorityNormal, func() (int, int, error) {
		return 0, 0, errors.New("boom")
	})
	job := waitForStatus(t, q, id, models.JobStatusFailed, time.Second)
	if job.Error != "boom" {
		t.Fatalf("Error = %q, want boom", job.Error)
	}

	time.Sleep(5 * time.Millisecond)
	again := q.Status(id)
	if again.Status != models.JobStatusFailed {
		t.Fatalf("terminal status changed: %v", again.Status)
	}
}

func TestConcurrencyBoundIsRespected(t *testing.T) {
	q := New(2)
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	release := make(chan struct{})

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, q.Enqueue("demo", models.PriorityNormal, func() (int, int, error) {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()
			<-release
			mu.Lock()
			inFlight--
			mu.Unlock()
			return 1, 1, nil
		}))
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	for _, id := range ids {
		waitForStatus(t, q, id, models.JobStatusCompleted, time.Second)
	}

	mu.Lock()
	defer mu.Unlock()
	if maxInFlight > 2 {
		t.Fatalf("maxInFlight = %d, want <= 2", maxInFlight)
	}
}

func TestPriorityOrderingWithinPendingQueue(t *testing.T) {
	q := New(1)
	started := make(chan string, 3)
	block := make(chan struct{})

	// First job occupies the only slot so the next three queue up and
	// their relative start order reflects priority.
	blockerID := q.Enqueue("blocker", models.PriorityNormal, func() (int, int, error) {
		<-block
		return 0, 0, nil
	})
	_ = blockerID

	q.Enqueue("low", models.PriorityLow, func() (int, int, error) {
		started <- "low"
		return 0, 0, nil
	})
	q.Enqueue("high", models.PriorityHigh, func() (int, int, error) {
		started <- "high"
		return 0, 0, nil
	})
	q.Enqueue("normal", models.PriorityNormal, func() (int, int, error) {
		started <- "normal"
		return 0, 0, nil
	})

	close(block)

	var order []string
	for i := 0; i < 3; i++ {
		order = append(order, <-started)
	}
	if order[0] != "high" {
		t.Fatalf("first started = %q, want high (order: %v)", order[0], order)
	}
}

func TestStatsReportsCounts(t *testing.T) {
	q := New(1)
	block := make(chan struct{})
	q.Enqueue("a", models.PriorityNormal, func() (int, int, error) {
		<-block
		return 0, 0, nil
	})
	q.Enqueue("b", models.PriorityNormal, func() (int, int, error) { return 0, 0, nil })

	time.Sleep(10 * time.Millisecond)
	stats := q.Stats()
	if stats.Active != 1 || stats.Pending != 1 {
		t.Fatalf("Stats = %+v, want active=1 pending=1", stats)
	}
	close(block)
}

func TestStatusUnknownJobReturnsNil(t *testing.T) {
	q := New(1)
	if j := q.Status("nonexistent"); j != nil {
		t.Fatalf("Status(unknown) = %+v, want nil", j)
	}
}
