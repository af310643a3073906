// Package worker provides an asynchronous worker pool that persists recorded
// exchanges using the provided storage.Driver and announces them on the
// provided eventstream.Publisher.
//
// The pool decouples storage operations from the gateway's HTTP hot path so
// that the client-gateway-backend interaction stays transparent.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/synergyreader/synergy/pkg/answer"
	"github.com/synergyreader/synergy/pkg/client"
	"github.com/synergyreader/synergy/pkg/eventstream"
	"github.com/synergyreader/synergy/pkg/logger"
	"github.com/synergyreader/synergy/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is one completed /ask exchange waiting to be recorded.
type Job struct {
	Path     string
	Upstream string

	Request *client.AskRequest
	State   answer.State

	StartedAt   time.Time
	CompletedAt time.Time
	HTTPStatus  int
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting entries.
	Driver storage.Driver

	// Publisher is the optional event publisher. Publish failures are
	// logged and never undo the stored entry.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool processes recording jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("worker pool needs a storage driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"path", job.Path,
			"model", job.model(),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"path", job.Path,
			"model", job.model(),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the gateway HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("recording worker stopped", "worker_id", id)
}

// processJob stores the exchange and publishes the recorded event.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	entry := NewEntry(job)
	id, err := p.config.Driver.Put(ctx, entry)
	if err != nil {
		p.logger.Error("storing entry failed",
			"path", job.Path,
			"error", err,
		)
		return
	}

	p.logger.Info("entry stored",
		"id", id,
		"model", entry.Model,
		"failed", len(entry.Errors) > 0,
	)

	if p.config.Publisher == nil {
		return
	}

	event := eventstream.NewEntryRecordedEvent(entry, eventstream.EntryRequestMeta{
		Path:        job.Path,
		Upstream:    job.Upstream,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		HTTPStatus:  job.HTTPStatus,
	})
	if err := p.config.Publisher.PublishEntry(ctx, event); err != nil {
		p.logger.Warn("publishing entry event failed",
			"id", id,
			"event_id", event.EventID,
			"error", err,
		)
	}
}

// NewEntry builds the storage entry for a completed exchange.
func NewEntry(job Job) *storage.Entry {
	entry := &storage.Entry{
		Question:  job.State.Question,
		Answer:    job.State.Answer(),
		BackendID: job.State.EntryID,
		Context:   job.State.Context,
		Errors:    job.State.Errors,
		CreatedAt: job.CompletedAt,
	}

	if job.Request != nil {
		entry.SelectedText = job.Request.SelectedText
		entry.Model = job.Request.Model
		if entry.Question == "" {
			entry.Question = job.Request.Question
		}
	}

	return entry
}

func (j Job) model() string {
	if j.Request == nil {
		return ""
	}
	return j.Request.Model
}
