// Package workerpool runs record builds on a fixed number of goroutines so
// that checksumming one track overlaps reading the next.
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of work, usually building the record of one track.
type Task struct {
	ID      string
	Fn      func(context.Context) error
	Context context.Context
}

// Pool is a bounded set of workers fed from a queue.
type Pool struct {
	name     string
	workers  int
	queue    chan Task
	logger   *zap.Logger
	wg       sync.WaitGroup // workers
	pending  sync.WaitGroup // accepted tasks not yet finished
	stopOnce sync.Once
	stop     chan struct{}
	submitMu sync.RWMutex // held for writing once stop is closed

	active    atomic.Int32
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	rejected  atomic.Uint64
	dropped   atomic.Uint64
}

// Config sizes a Pool. Zero values get defaults.
type Config struct {
	Name      string
	Workers   int
	QueueSize int
	Logger    *zap.Logger
}

// New starts the workers.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4 * cfg.Workers
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	p := &Pool{
		name:    cfg.Name,
		workers: cfg.Workers,
		queue:   make(chan Task, cfg.QueueSize),
		logger:  cfg.Logger,
		stop:    make(chan struct{}),
	}
	for i := range p.workers {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Debug("worker pool started",
		zap.String("pool", p.name),
		zap.Int("workers", p.workers),
		zap.Int("queue_size", cfg.QueueSize))
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case task := <-p.queue:
			p.execute(id, task)
		}
	}
}

func (p *Pool) execute(worker int, task Task) {
	defer p.pending.Done()
	p.active.Add(1)
	defer p.active.Add(-1)

	start := time.Now()
	err := p.safeExecute(task)
	elapsed := time.Since(start)

	if err != nil {
		p.failed.Add(1)
		p.logger.Error("task failed",
			zap.String("pool", p.name),
			zap.Int("worker", worker),
			zap.String("task", task.ID),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return
	}
	p.completed.Add(1)
	p.logger.Debug("task completed",
		zap.String("pool", p.name),
		zap.Int("worker", worker),
		zap.String("task", task.ID),
		zap.Duration("duration", elapsed))
}

func (p *Pool) safeExecute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.ID, r)
		}
	}()
	ctx := task.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return task.Fn(ctx)
}

// Submit queues task, blocking while the queue is full. It fails once the
// pool is stopped or ctx is done.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()
	select {
	case <-p.stop:
		p.rejected.Add(1)
		return fmt.Errorf("worker pool %q is stopped", p.name)
	default:
	}

	p.pending.Add(1)
	select {
	case <-p.stop:
		p.pending.Done()
		p.rejected.Add(1)
		return fmt.Errorf("worker pool %q is stopped", p.name)
	case <-ctx.Done():
		p.pending.Done()
		p.rejected.Add(1)
		return ctx.Err()
	case p.queue <- task:
		p.submitted.Add(1)
		return nil
	}
}

// Wait blocks until every accepted task has finished.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Stop shuts the workers down after their current task. Queued tasks that
// have not started are dropped and count as finished for Wait.
func (p *Pool) Stop(timeout time.Duration) error {
	var err error
	p.stopOnce.Do(func() {
		close(p.stop)
		// no Submit can enqueue after this
		p.submitMu.Lock()
		p.submitMu.Unlock()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			p.logger.Debug("worker pool stopped", zap.String("pool", p.name))
		case <-time.After(timeout):
			err = fmt.Errorf("worker pool %q stop timeout after %v", p.name, timeout)
		}
		if n := p.drain(); n > 0 {
			p.logger.Warn("dropped queued tasks",
				zap.String("pool", p.name),
				zap.Int("tasks", n))
		}
	})
	return err
}

func (p *Pool) drain() int {
	n := 0
	for {
		select {
		case <-p.queue:
			p.dropped.Add(1)
			p.pending.Done()
			n++
		default:
			return n
		}
	}
}

// Stats is a snapshot of the pool's counters.
type Stats struct {
	Name      string
	Workers   int
	Active    int
	Queued    int
	Submitted uint64
	Completed uint64
	Failed    uint64
	Rejected  uint64
	Dropped   uint64
}

func (p *Pool) Stats() Stats {
	return Stats{
		Name:      p.name,
		Workers:   p.workers,
		Active:    int(p.active.Load()),
		Queued:    len(p.queue),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
		Dropped:   p.dropped.Load(),
	}
}

// SuccessRate is the percentage of finished tasks that succeeded.
func (s Stats) SuccessRate() float64 {
	finished := s.Completed + s.Failed
	if finished == 0 {
		return 100.0
	}
	return float64(s.Completed) / float64(finished) * 100.0
}
