package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/synergyreader/synergy/pkg/eventstream"
	"github.com/synergyreader/synergy/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("returns ErrNilEntryEvent for nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishEntry(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilEntryEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishEntry(context.Background(), &eventstream.EntryRecordedEvent{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("closes successfully", func() {
		p := nop.NewPublisher()
		Expect(p.Close()).To(Succeed())
	})
})
