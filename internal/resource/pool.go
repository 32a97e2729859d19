package resource

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/viakashmir/admin-console/internal/catalog"
)

// Job is one record-level operation in a batch.
type Job struct {
	Entity catalog.Entity
	ID     string
	Seq    int
}

type Result struct {
	ID  string
	Err error
}

var ErrQueueFull = errors.New("batch queue full, please try again later")

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, process func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			// announce availability, then wait for work or shutdown
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing job", "worker_id", w.ID, "entity", job.Entity.Name, "id", job.ID)
				process(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

// Pool fans batch jobs out to a fixed set of workers.
type Pool struct {
	logger     *slog.Logger
	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewPool(ctx context.Context, maxWorkers, queueSize int, logger *slog.Logger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		logger:     logger,
		jobQueue:   make(chan Job, queueSize),
		workerPool: make(chan chan Job, maxWorkers),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (p *Pool) Start(process func(Job)) {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			NewWorker(i, p.workerPool, p.logger).Start(p.ctx, &p.wg, process)
		}
		p.wg.Add(1)
		go p.dispatch()
		p.logger.Debug("batch worker pool started", "max_workers", p.maxWorkers, "queue_size", cap(p.jobQueue))
	})
}

func (p *Pool) dispatch() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			select {
			case jobChannel := <-p.workerPool:
				select {
				case jobChannel <- job:
				case <-p.ctx.Done():
					return
				}
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) Submit(job Job) error {
	select {
	case p.jobQueue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// DeleteMany removes ids concurrently and reports one result per id, in the
// order given. Failures do not stop the batch; ids not reached before ctx is
// done report ctx.Err().
func (c *Client) DeleteMany(ctx context.Context, e catalog.Entity, ids []string, workers int) []Result {
	results := make([]Result, len(ids))
	finished := make([]bool, len(ids))
	for i, id := range ids {
		results[i] = Result{ID: id}
	}

	var (
		mu      sync.Mutex
		pending sync.WaitGroup
	)
	pool := NewPool(ctx, workers, len(ids), c.logger)
	pool.Start(func(job Job) {
		defer pending.Done()
		err := c.Delete(ctx, job.Entity, job.ID)
		mu.Lock()
		results[job.Seq].Err = err
		finished[job.Seq] = true
		mu.Unlock()
	})

	for i, id := range ids {
		pending.Add(1)
		if err := pool.Submit(Job{Entity: e, ID: id, Seq: i}); err != nil {
			pending.Done()
			results[i].Err = err
			finished[i] = true
		}
	}

	done := make(chan struct{})
	go func() {
		pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	pool.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	for i := range results {
		if !finished[i] {
			results[i].Err = ctx.Err()
		}
	}
	return results
}
