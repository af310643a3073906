package askcmder

import (
	bubbletea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/synergyreader/synergy/pkg/marker"
)

type sliceSource struct {
	events []marker.Event
}

func (s *sliceSource) Next() (marker.Event, error) {
	if len(s.events) == 0 {
		return nil, nil
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func update(m askModel, msg bubbletea.Msg) askModel {
	next, _ := m.Update(msg)
	return next.(askModel)
}

var _ = Describe("answer view", func() {
	var m askModel

	BeforeEach(func() {
		m = newAskModel(&sliceSource{}, "What is a tort?")
		m = update(m, bubbletea.WindowSizeMsg{Width: 80, Height: 24})
	})

	It("sizes the viewport below the header and above the footer", func() {
		Expect(m.ready).To(BeTrue())
		Expect(m.viewport.Height).To(Equal(24 - chrome))
	})

	It("folds stream events into the answer state", func() {
		m = update(m, eventMsg{ev: marker.Token{Text: "A civil wrong."}})
		m = update(m, eventMsg{ev: marker.EntryRecorded{ID: 9}})

		Expect(m.state.Text()).To(Equal("A civil wrong."))
		Expect(*m.state.EntryID).To(Equal(int64(9)))
		Expect(m.View()).To(ContainSubstring("What is a tort?"))
		Expect(m.View()).To(ContainSubstring("answering"))
	})

	It("shows the entry id once the stream completes", func() {
		m = update(m, eventMsg{ev: marker.EntryRecorded{ID: 9}})
		m = update(m, streamDoneMsg{})

		Expect(m.state.Done).To(BeTrue())
		Expect(m.View()).To(ContainSubstring("entry 9"))
	})

	It("records a broken stream as an error", func() {
		m = update(m, streamErrMsg{err: errBoom})

		Expect(m.state.Done).To(BeTrue())
		Expect(m.state.Errors).To(ConsistOf(ContainSubstring("answer stream interrupted")))
	})

	It("quits on q", func() {
		_, cmd := m.Update(bubbletea.KeyMsg{Type: bubbletea.KeyRunes, Runes: []rune("q")})
		Expect(cmd).NotTo(BeNil())
		Expect(cmd()).To(Equal(bubbletea.Quit()))
	})

	It("pulls the next event from the source", func() {
		src := &sliceSource{events: []marker.Event{marker.Token{Text: "x"}}}
		Expect(nextEvent(src)()).To(Equal(eventMsg{ev: marker.Token{Text: "x"}}))
		Expect(nextEvent(src)()).To(Equal(streamDoneMsg{}))
	})
})

var errBoom = bubbleError("connection reset")

type bubbleError string

func (e bubbleError) Error() string { return string(e) }
