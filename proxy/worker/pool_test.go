package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/synergyreader/synergy/pkg/answer"
	"github.com/synergyreader/synergy/pkg/client"
	"github.com/synergyreader/synergy/pkg/eventstream"
	"github.com/synergyreader/synergy/pkg/logger"
	"github.com/synergyreader/synergy/pkg/marker"
	"github.com/synergyreader/synergy/pkg/storage/inmemory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.EntryRecordedEvent
	err    error
}

func (r *recordingPublisher) PublishEntry(_ context.Context, ev *eventstream.EntryRecordedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) Events() []*eventstream.EntryRecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.EntryRecordedEvent(nil), r.events...)
}

func foldedState(question string, events ...marker.Event) answer.State {
	s := answer.New(question)
	for _, ev := range events {
		s = answer.Reduce(s, ev)
	}
	return answer.Finish(s)
}

func newJob(question, text string) Job {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return Job{
		Path:     "/ask",
		Upstream: "http://backend",
		Request: &client.AskRequest{
			SelectedText: "The mitochondria is the powerhouse of the cell.",
			Question:     question,
			Model:        "llama3.1:8b",
		},
		State:       foldedState(question, marker.Token{Text: text}, marker.EntryRecorded{ID: 7}),
		StartedAt:   started,
		CompletedAt: started.Add(1500 * time.Millisecond),
		HTTPStatus:  200,
	}
}

var _ = Describe("Worker Pool", func() {
	var (
		driver    *inmemory.Driver
		publisher *recordingPublisher
		ctx       context.Context
	)

	BeforeEach(func() {
		driver = inmemory.NewDriver()
		publisher = &recordingPublisher{}
		ctx = context.Background()
	})

	newPool := func(queueSize uint) *Pool {
		wp, err := NewPool(&Config{
			Driver:    driver,
			Publisher: publisher,
			QueueSize: queueSize,
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		return wp
	}

	It("requires a driver", func() {
		_, err := NewPool(&Config{})
		Expect(err).To(HaveOccurred())
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			wp := newPool(0)
			Expect(wp.Enqueue(newJob("What is it?", "An organelle."))).To(BeTrue())
			wp.Close()
		})
	})

	Describe("recording", func() {
		It("stores the folded exchange", func() {
			wp := newPool(0)
			wp.Enqueue(newJob("What is it?", "  An organelle.  "))
			wp.Close()

			entries, err := driver.List(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))

			e := entries[0]
			Expect(e.Question).To(Equal("What is it?"))
			Expect(e.Answer).To(Equal("An organelle."))
			Expect(e.SelectedText).To(ContainSubstring("mitochondria"))
			Expect(e.Model).To(Equal("llama3.1:8b"))
			Expect(e.BackendID).NotTo(BeNil())
			Expect(*e.BackendID).To(Equal(int64(7)))
			Expect(e.Errors).To(BeEmpty())
		})

		It("publishes an event with request metadata", func() {
			wp := newPool(0)
			wp.Enqueue(newJob("What is it?", "An organelle."))
			wp.Close()

			events := publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(eventstream.EventTypeEntryRecorded))
			Expect(events[0].RequestMeta.Path).To(Equal("/ask"))
			Expect(events[0].RequestMeta.DurationMs).To(Equal(int64(1500)))
			Expect(events[0].RequestMeta.HTTPStatus).To(Equal(200))
			Expect(events[0].Entry.ID).NotTo(BeZero())
		})

		It("keeps the entry when publishing fails", func() {
			publisher.err = errors.New("broker down")
			wp := newPool(0)
			wp.Enqueue(newJob("What is it?", "An organelle."))
			wp.Close()

			entries, err := driver.List(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})

		It("records stream errors on the entry", func() {
			job := newJob("Why?", "partial")
			job.State = answer.Reduce(job.State, marker.StreamError{Message: "model overloaded"})

			wp := newPool(0)
			wp.Enqueue(job)
			wp.Close()

			entries, err := driver.List(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries[0].Errors).To(ConsistOf("model overloaded"))
		})

		It("stores every queued job before Close returns", func() {
			wp := newPool(0)
			for range 20 {
				Expect(wp.Enqueue(newJob("q", "a"))).To(BeTrue())
			}
			wp.Close()

			entries, err := driver.List(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(20))
			Expect(publisher.Events()).To(HaveLen(20))
		})
	})

	Describe("NewEntry", func() {
		It("falls back to the request question", func() {
			job := newJob("", "a")
			job.Request.Question = "from request"
			Expect(NewEntry(job).Question).To(Equal("from request"))
		})

		It("uses the completion time as creation time", func() {
			job := newJob("q", "a")
			Expect(NewEntry(job).CreatedAt).To(Equal(job.CompletedAt))
		})
	})
})
