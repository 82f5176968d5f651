// Package indexqueue implements the priority job queue that serializes
// project indexing work: submissions are ordered by priority
// (descending) and FIFO within a priority; a fixed number of jobs run
// concurrently; job status stays queryable through a stable terminal
// state.
package indexqueue

import (
	"container/heap"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doozMen/codesearch-mcp/internal/models"
)

// Work is the caller-supplied closure run for one project; it returns
// the (file-count, chunk-count) pair recorded on success.
type Work func() (files int, chunks int, err error)

// Stats summarizes the queue's current job-state distribution.
type Stats struct {
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

type job struct {
	id          string
	projectName string
	priority    models.JobPriority
	work        Work
	seq         uint64

	mu     sync.Mutex
	status models.JobStatus
	counts *models.JobCounts
	errMsg string
	queued time.Time
}

func (j *job) snapshot() *models.Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	return &models.Job{
		ID:          j.id,
		ProjectName: j.projectName,
		Priority:    j.priority,
		Status:      j.status,
		Counts:      j.counts,
		Error:       j.errMsg,
		QueuedAt:    j.queued,
	}
}

// priorityHeap orders queued jobs by priority descending, then by
// submission sequence ascending (FIFO within a priority tier).
type priorityHeap []*job

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h priorityHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x any)        { *h = append(*h, x.(*job)) }
func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue is a single-owner job scheduler: all mutation to its interior
// (the pending heap, the active count, the completed-job map) is
// serialized through its own mutex, matching the actor-style model the
// rest of the pipeline's stateful components use.
type Queue struct {
	mu             sync.Mutex
	pending        priorityHeap
	active         map[string]*job
	completed      map[string]*job
	maxConcurrency int
	nextSeq        uint64
}

// New constructs a Queue allowing at most maxConcurrency jobs to run at
// once (a value <= 0 defaults to 1, matching the teacher's "Background"
// single-flight default).
func New(maxConcurrency int) *Queue {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Queue{
		active:         make(map[string]*job),
		completed:      make(map[string]*job),
		maxConcurrency: maxConcurrency,
	}
}

// Enqueue submits work for projectName at the given priority, returning
// its job id immediately; work runs asynchronously, scheduled by
// priority then FIFO.
func (q *Queue) Enqueue(projectName string, priority models.JobPriority, work Work) string {
	q.mu.Lock()
	j := &job{
		id:          uuid.New().String(),
		projectName: projectName,
		priority:    priority,
		work:        work,
		seq:         q.nextSeq,
		status:      models.JobStatusQueued,
		queued:      time.Now(),
	}
	q.nextSeq++
	heap.Push(&q.pending, j)
	q.mu.Unlock()

	go q.drain()
	return j.id
}

// Status returns a snapshot of jobID's current state, or nil if unknown.
func (q *Queue) Status(jobID string) *models.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if j, ok := q.active[jobID]; ok {
		return j.snapshot()
	}
	if j, ok := q.completed[jobID]; ok {
		return j.snapshot()
	}
	for _, j := range q.pending {
		if j.id == jobID {
			return j.snapshot()
		}
	}
	return nil
}

// Stats reports the current pending/active/completed counts.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Pending:   len(q.pending),
		Active:    len(q.active),
		Completed: len(q.completed),
	}
}

// drain starts as many queued jobs as the concurrency budget allows. It
// is safe to call concurrently from multiple goroutines; only one
// dispatch actually proceeds per available slot because slot
// reservation happens under the queue's own lock.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.active) >= q.maxConcurrency || len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		j := heap.Pop(&q.pending).(*job)
		j.mu.Lock()
		j.status = models.JobStatusInProgress
		j.mu.Unlock()
		q.active[j.id] = j
		q.mu.Unlock()

		go q.run(j)
	}
}

func (q *Queue) run(j *job) {
	files, chunks, err := j.work()

	j.mu.Lock()
	if err != nil {
		j.status = models.JobStatusFailed
		j.errMsg = err.Error()
	} else {
		j.status = models.JobStatusCompleted
		j.counts = &models.JobCounts{Files: files, Chunks: chunks}
	}
	j.mu.Unlock()

	q.mu.Lock()
	delete(q.active, j.id)
	q.completed[j.id] = j
	q.mu.Unlock()

	q.drain()
}
