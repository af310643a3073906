// Package upload extracts local documents and uploads their text to the
// backend with a pool of background workers.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sync"

	"github.com/synergyreader/synergy/pkg/client"
	"github.com/synergyreader/synergy/pkg/extract"
	"github.com/synergyreader/synergy/pkg/logger"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 64
)

// ErrQueueFull is reported for a file that could not be queued.
var ErrQueueFull = errors.New("upload queue full")

// Uploader sends extracted documents to the backend. *client.Client
// implements it.
type Uploader interface {
	Upload(ctx context.Context, docs ...client.UploadDocument) ([]client.UploadResult, error)
}

// Job is one file to extract and upload.
type Job struct {
	Path string

	// index is the position of the file in an UploadAll call.
	index int
}

// Result is the outcome for one file. Err is set when extraction, the
// request, or the backend's processing of the file failed.
type Result struct {
	Path   string
	Chars  int
	Upload *client.UploadResult
	Err    error

	index int
}

// Config is the configuration options for the upload pool.
type Config struct {
	// Uploader receives the extracted documents.
	Uploader Uploader

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// OnResult is called from a worker goroutine for every finished job.
	OnResult func(Result)

	Logger *slog.Logger
}

// Pool extracts and uploads files asynchronously.
type Pool struct {
	ctx    context.Context
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	// mu guards closed against sends racing Close.
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a Pool and starts its workers. Jobs run with ctx; cancel it
// to abandon uploads in flight.
func NewPool(ctx context.Context, c *Config) (*Pool, error) {
	if c.Uploader == nil {
		return nil, errors.New("upload pool needs an uploader")
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

	p := &Pool{
		ctx:    ctx,
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a file for upload.
// Returns true if enqueued, false if the queue is full or the pool is closed
// and the file was dropped.
func (p *Pool) Enqueue(path string) bool {
	return p.enqueue(Job{Path: path})
}

func (p *Pool) enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("upload not queued, pool closed", "path", job.Path)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("upload queued", "path", job.Path)
		return true
	default:
		p.logger.Error("upload not queued, queue full, file dropped", "path", job.Path)
		return false
	}
}

// Close stops accepting jobs and waits for queued uploads to finish.
// Calling Close more than once is a no-op.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("upload worker started", "worker_id", id)

	for job := range p.queue {
		res := p.processJob(job)
		if p.config.OnResult != nil {
			p.config.OnResult(res)
		}
	}

	p.logger.Debug("upload worker stopped", "worker_id", id)
}

// processJob extracts the file's text and uploads it as one document.
func (p *Pool) processJob(job Job) Result {
	res := Result{Path: job.Path, index: job.index}

	if err := p.ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	text, err := extract.File(job.Path)
	if err != nil {
		res.Err = err
		p.logger.Warn("extraction failed", "path", job.Path, "error", err)
		return res
	}
	res.Chars = len([]rune(text))

	results, err := p.config.Uploader.Upload(p.ctx, client.UploadDocument{
		Name: filepath.Base(job.Path),
		Text: text,
	})
	if err != nil {
		res.Err = fmt.Errorf("uploading %s: %w", job.Path, err)
		p.logger.Error("upload failed", "path", job.Path, "error", err)
		return res
	}
	if len(results) == 0 {
		res.Err = fmt.Errorf("uploading %s: backend returned no result", job.Path)
		return res
	}

	res.Upload = &results[0]
	if res.Upload.Error != "" {
		res.Err = errors.New(res.Upload.Error)
		p.logger.Warn("backend rejected document", "path", job.Path, "error", res.Upload.Error)
		return res
	}

	p.logger.Info("document uploaded",
		"path", job.Path,
		"document_id", res.Upload.DocumentID,
		"chunks", res.Upload.ChunksCount,
	)
	return res
}

// UploadAll uploads paths with a temporary pool and returns one Result per
// path, in input order.
func UploadAll(ctx context.Context, c *Config, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))

	var mu sync.Mutex
	onResult := c.OnResult
	cfg := *c
	cfg.QueueSize = uint(max(len(paths), 1))
	cfg.OnResult = func(r Result) {
		mu.Lock()
		results[r.index] = r
		mu.Unlock()
		if onResult != nil {
			onResult(r)
		}
	}

	p, err := NewPool(ctx, &cfg)
	if err != nil {
		return nil, err
	}

	for i, path := range paths {
		if !p.enqueue(Job{Path: path, index: i}) {
			results[i] = Result{Path: path, Err: ErrQueueFull, index: i}
		}
	}
	p.Close()

	return results, nil
}
