package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sjperalta/payroll-ledger-api/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Worker runs queued jobs on a fixed pool and cron-scheduled jobs on a cron scheduler
type Worker struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	queue      chan namedJob
	numWorkers int
	cron       *cron.Cron
	scheduled  map[string]cron.EntryID
	stats      WorkerStats
	statsMu    sync.RWMutex
}

type namedJob struct {
	name string
	run  Job
}

// WorkerStats holds statistics about the worker
type WorkerStats struct {
	ActiveJobs    int                  `json:"active_jobs"`
	CompletedJobs int64                `json:"completed_jobs"`
	FailedJobs    int64                `json:"failed_jobs"`
	QueueLength   int                  `json:"queue_length"`
	Workers       int                  `json:"workers"`
	LastRuns      map[string]JobRun    `json:"last_runs"`
	Scheduled     map[string]time.Time `json:"scheduled"`
}

// JobRun is the outcome of the latest run of a named job
type JobRun struct {
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Error     string    `json:"error,omitempty"`
}

// NewWorker creates a worker with N concurrent processors
func NewWorker(numWorkers int) *Worker {
	if numWorkers < 1 {
		numWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		ctx:        ctx,
		cancel:     cancel,
		queue:      make(chan namedJob, 100),
		numWorkers: numWorkers,
		cron:       cron.New(cron.WithLocation(time.UTC)),
		scheduled:  make(map[string]cron.EntryID),
		stats: WorkerStats{
			LastRuns: make(map[string]JobRun),
		},
	}

	// Start worker goroutines
	for i := 0; i < numWorkers; i++ {
		w.wg.Add(1)
		go w.process(i)
	}
	w.cron.Start()

	return w
}

// Enqueue adds a job to be processed by the worker pool.
// When the queue is full the job runs synchronously on the caller's goroutine.
func (w *Worker) Enqueue(name string, job Job) {
	select {
	case w.queue <- namedJob{name: name, run: job}:
	default:
		logger.Warn("Worker queue full, running job synchronously", "job", name)
		w.run(name, job)
	}
}

// process handles jobs from the queue
func (w *Worker) process(workerID int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case job, ok := <-w.queue:
			if !ok {
				return
			}
			logger.Debug("Worker picked job", "worker", workerID, "job", job.name)
			w.run(job.name, job.run)
		}
	}
}

// ScheduleCron runs a job on a standard five-field cron spec evaluated in UTC
func (w *Worker) ScheduleCron(spec, name string, job Job) error {
	id, err := w.cron.AddFunc(spec, func() {
		w.wg.Add(1)
		defer w.wg.Done()
		w.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q for job %s: %w", spec, name, err)
	}

	w.statsMu.Lock()
	w.scheduled[name] = id
	w.statsMu.Unlock()

	logger.Info("Scheduled job", "job", name, "spec", spec, "next_run", w.cron.Entry(id).Next)
	return nil
}

// run executes one job, recording stats and recovering from panics
func (w *Worker) run(name string, job Job) {
	w.trackJobStart()
	start := time.Now()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		err = job(w.ctx)
	}()

	run := JobRun{StartedAt: start, Duration: time.Since(start).String()}
	if err != nil {
		run.Error = err.Error()
		logger.Error("Job failed", "job", name, "error", err)
	} else {
		logger.Info("Job completed", "job", name, "duration", time.Since(start))
	}
	w.trackJobEnd(name, run)
}

// Shutdown gracefully stops all workers
func (w *Worker) Shutdown() {
	<-w.cron.Stop().Done()
	w.cancel()
	close(w.queue)
	w.wg.Wait()
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.QueueLength = len(w.queue)
	stats.Workers = w.numWorkers

	stats.LastRuns = make(map[string]JobRun, len(w.stats.LastRuns))
	for k, v := range w.stats.LastRuns {
		stats.LastRuns[k] = v
	}
	stats.Scheduled = make(map[string]time.Time, len(w.scheduled))
	for name, id := range w.scheduled {
		stats.Scheduled[name] = w.cron.Entry(id).Next
	}
	return stats
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

// trackJobEnd counts every finished job as completed; failures are also counted in FailedJobs
func (w *Worker) trackJobEnd(name string, run JobRun) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
	if run.Error != "" {
		w.stats.FailedJobs++
	}
	w.stats.LastRuns[name] = run
}
