package main

import (
	"os"

	synergycmder "github.com/synergyreader/synergy/cmd/synergy"
)

func main() {
	cmd := synergycmder.NewSynergyCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
