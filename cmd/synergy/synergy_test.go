package synergycmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	synergycmder "github.com/synergyreader/synergy/cmd/synergy"
)

var _ = Describe("NewSynergyCmd", func() {
	It("registers every subcommand", func() {
		cmd := synergycmder.NewSynergyCmd()
		names := []string{}
		for _, c := range cmd.Commands() {
			names = append(names, c.Name())
		}
		Expect(names).To(ContainElements(
			"ask", "replay", "upload", "documents", "history", "rate", "correct",
			"knowledge", "auth", "admin", "ping", "config", "serve", "version",
		))
	})

	It("has the global flags", func() {
		cmd := synergycmder.NewSynergyCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
