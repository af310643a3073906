// Package proxy provides a recording gateway in front of the
// question-answering backend. Every request is forwarded transparently; the
// answer streams of POST /ask are parsed on the way through and recorded.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"

	"github.com/synergyreader/synergy/pkg/answer"
	"github.com/synergyreader/synergy/pkg/client"
	"github.com/synergyreader/synergy/pkg/marker"
	"github.com/synergyreader/synergy/pkg/storage"
	"github.com/synergyreader/synergy/proxy/header"
	"github.com/synergyreader/synergy/proxy/worker"
)

const (
	askPath = "/ask"

	defaultName            = "synergy"
	defaultUpstreamTimeout = 30 * time.Second
)

// errorResponse mirrors the backend's {"detail": ...} error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Proxy is the recording gateway.
type Proxy struct {
	config       Config
	driver       storage.Driver
	workerPool   *worker.Pool
	logger       *slog.Logger
	httpClient   *http.Client
	streamClient *http.Client
	server       *fiber.App
}

// New creates a new Proxy recording into driver.
func New(config Config, driver storage.Driver, logger *slog.Logger) (*Proxy, error) {
	if config.UpstreamURL == "" {
		return nil, errors.New("upstream URL is required")
	}
	config.UpstreamURL = strings.TrimRight(config.UpstreamURL, "/")

	if config.Name == "" {
		config.Name = defaultName
	}
	if config.UpstreamTimeout <= 0 {
		config.UpstreamTimeout = defaultUpstreamTimeout
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StreamRequestBody:     true,
	})

	app.Use(compress.New())

	wp, err := worker.NewPool(&worker.Config{
		Driver:     driver,
		Publisher:  config.Publisher,
		NumWorkers: config.NumWorkers,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	p := &Proxy{
		config:     config,
		driver:     driver,
		workerPool: wp,
		logger:     logger,
		server:     app,
		httpClient: &http.Client{
			Timeout: config.UpstreamTimeout,
		},
		// Answers are generated token by token and can take minutes.
		streamClient: &http.Client{},
	}

	app.Post(askPath, p.handleAsk)
	app.All("/*", p.handleForward)

	return p, nil
}

// Run starts the gateway on the configured listening address
func (p *Proxy) Run() error {
	p.logger.Info("starting gateway",
		"listen", p.config.ListenAddr,
		"upstream", p.config.UpstreamURL,
	)

	return p.server.Listen(p.config.ListenAddr)
}

// RunWithListener starts the gateway using the provided listener.
func (p *Proxy) RunWithListener(listener net.Listener) error {
	p.logger.Info("starting gateway",
		"listen", listener.Addr().String(),
		"upstream", p.config.UpstreamURL,
	)

	return p.server.Listener(listener)
}

// Close stops the server and waits for the worker pool to drain.
func (p *Proxy) Close() error {
	err := p.server.Shutdown()
	p.workerPool.Close()
	return err
}

// handleForward relays any request other than POST /ask to the backend.
func (p *Proxy) handleForward(c *fiber.Ctx) error {
	upstreamURL := p.config.UpstreamURL + c.Path()
	if q := c.Request().URI().QueryString(); len(q) > 0 {
		upstreamURL += "?" + string(q)
	}

	var reqBody io.Reader
	if body := c.Body(); len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(c.Context(), c.Method(), upstreamURL, reqBody)
	if err != nil {
		p.logger.Error("failed to create upstream request", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Detail: "internal error"})
	}

	header.ToUpstream(c, httpReq)

	p.logger.Debug("forwarding request to upstream",
		"method", c.Method(),
		"url", upstreamURL,
	)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.Error("upstream request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Detail: "upstream request failed"})
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		p.logger.Error("failed to read upstream response", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Detail: "failed to read upstream response"})
	}

	header.ToClient(c, httpResp)

	return c.Status(httpResp.StatusCode).Send(respBody)
}

// handleAsk streams an answer from the backend to the client and records it.
func (p *Proxy) handleAsk(c *fiber.Ctx) error {
	startTime := time.Now()
	body := append([]byte(nil), c.Body()...)

	var askReq client.AskRequest
	parsed := true
	if err := json.Unmarshal(body, &askReq); err != nil {
		parsed = false
		p.logger.Warn("failed to parse ask request, forwarding without recording",
			"error", err,
		)
	}

	upstreamURL := p.config.UpstreamURL + askPath

	// context.Background() rather than c.Context(): fasthttp recycles its
	// RequestCtx once the handler returns, while the body is still being
	// streamed from a separate goroutine.
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, upstreamURL, bytes.NewReader(body))
	if err != nil {
		p.logger.Error("failed to create upstream request", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Detail: "internal error"})
	}

	header.ToUpstream(c, httpReq)

	httpResp, err := p.streamClient.Do(httpReq)
	if err != nil {
		p.logger.Error("upstream request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Detail: "upstream request failed"})
	}

	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		respBody, _ := io.ReadAll(httpResp.Body)
		p.logger.Warn("upstream rejected question",
			"status", httpResp.StatusCode,
			"body", string(respBody),
		)
		header.ToClient(c, httpResp)
		return c.Status(httpResp.StatusCode).Send(respBody)
	}

	header.ToClient(c, httpResp)
	recorder := ""
	if parsed {
		recorder = p.config.Name
	}
	header.MarkAnswerStream(c, recorder)

	// io.Pipe + SetBodyStream instead of SetBodyStreamWriter: pw.Write blocks
	// until fasthttp's chunked body writer has consumed the bytes and flushed
	// them, so every answer token reaches the client as soon as it arrives.
	pr, pw := io.Pipe()

	job := worker.Job{
		Path:       askPath,
		Upstream:   p.config.UpstreamURL,
		StartedAt:  startTime,
		HTTPStatus: httpResp.StatusCode,
	}
	if parsed {
		job.Request = &askReq
	}
	go p.streamAnswer(httpResp, pw, job)

	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// streamAnswer copies the answer stream to pw while folding its events, then
// enqueues the exchange for recording.
func (p *Proxy) streamAnswer(httpResp *http.Response, pw *io.PipeWriter, job worker.Job) {
	defer httpResp.Body.Close()
	defer pw.Close()

	question := ""
	if job.Request != nil {
		question = job.Request.Question
	}
	state := answer.New(question)

	tr := marker.NewTeeReader(httpResp.Body, pw)
	for {
		ev, err := tr.Next()
		if err != nil {
			p.logger.Error("error reading answer stream", "error", err)
			state = answer.Reduce(state, marker.StreamError{Message: "answer stream interrupted: " + err.Error()})
			break
		}
		if ev == nil {
			break
		}
		state = answer.Reduce(state, ev)
	}
	state = answer.Finish(state)

	job.State = state
	job.CompletedAt = time.Now()

	p.logger.Debug("answer stream complete",
		"tokens", state.Tokens,
		"errors", len(state.Errors),
		"duration", job.CompletedAt.Sub(job.StartedAt),
	)

	if job.Request == nil {
		return
	}
	p.workerPool.Enqueue(job)
}
