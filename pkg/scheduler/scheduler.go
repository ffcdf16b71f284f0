// Package scheduler runs periodic maintenance jobs on their own tickers.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/propertyapp/property-listing/pkg/logger"
	"github.com/propertyapp/property-listing/pkg/metrics"
)

// Job is one periodic task. Run reports how many rows it touched.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run; zero uses Interval.
	Timeout time.Duration
	Run     func(ctx context.Context) (int64, error)
}

// Scheduler runs each job in its own goroutine, once at start and then on
// every tick. Runs of the same job never overlap; ticks that arrive while a
// run is in progress are dropped.
type Scheduler struct {
	jobs     []Job
	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func New(jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(job)
	}
}

// Stop signals every job loop and waits for in-progress runs to return.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}

func (s *Scheduler) loop(job Job) {
	defer s.wg.Done()

	logger.Info("Background job started", "job", job.Name, "interval", job.Interval.String())
	s.runOnce(job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(job)
		case <-s.stopChan:
			logger.Info("Background job stopped", "job", job.Name)
			return
		}
	}
}

func (s *Scheduler) runOnce(job Job) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = job.Interval
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	n, err := RunJob(ctx, job)
	if err != nil {
		logger.Error("Background job failed", "job", job.Name, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return
	}
	if n > 0 {
		logger.Info("Background job completed", "job", job.Name, "affected", n, "elapsed_ms", time.Since(start).Milliseconds())
	}
}

// RunJob executes job once and records its metrics.
func RunJob(ctx context.Context, job Job) (int64, error) {
	n, err := job.Run(ctx)
	if err != nil {
		metrics.JobRuns.WithLabelValues(job.Name, "error").Inc()
		return 0, err
	}
	metrics.JobRuns.WithLabelValues(job.Name, "ok").Inc()
	metrics.JobAffected.WithLabelValues(job.Name).Add(float64(n))
	return n, nil
}
