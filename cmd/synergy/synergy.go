// Package synergycmder
package synergycmder

import (
	"github.com/spf13/cobra"

	admincmder "github.com/synergyreader/synergy/cmd/synergy/admin"
	askcmder "github.com/synergyreader/synergy/cmd/synergy/ask"
	authcmder "github.com/synergyreader/synergy/cmd/synergy/auth"
	configcmder "github.com/synergyreader/synergy/cmd/synergy/config"
	correctcmder "github.com/synergyreader/synergy/cmd/synergy/correct"
	documentscmder "github.com/synergyreader/synergy/cmd/synergy/documents"
	historycmder "github.com/synergyreader/synergy/cmd/synergy/history"
	knowledgecmder "github.com/synergyreader/synergy/cmd/synergy/knowledge"
	pingcmder "github.com/synergyreader/synergy/cmd/synergy/ping"
	ratecmder "github.com/synergyreader/synergy/cmd/synergy/rate"
	replaycmder "github.com/synergyreader/synergy/cmd/synergy/replay"
	servecmder "github.com/synergyreader/synergy/cmd/synergy/serve"
	uploadcmder "github.com/synergyreader/synergy/cmd/synergy/upload"
	versioncmder "github.com/synergyreader/synergy/cmd/synergy/version"
)

const synergyLongDesc string = `Synergy is a command line reading assistant.

Ask questions about a passage and get streamed answers grounded in your
uploaded documents, then rate or correct them so the model improves.

Ask and review:
  synergy ask "What does this clause mean?" --file clause.txt
  synergy rate last 5
  synergy history

Run the recording gateway and local API:
  synergy serve          Run both servers together
  synergy serve proxy    Run the recording gateway
  synergy serve api      Run the API server`

const synergyShortDesc string = "Synergy - command line reading assistant"

func NewSynergyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "synergy",
		Short:         synergyShortDesc,
		Long:          synergyLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .synergy/ config directory")

	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(replaycmder.NewReplayCmd())
	cmd.AddCommand(uploadcmder.NewUploadCmd())
	cmd.AddCommand(documentscmder.NewDocumentsCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(ratecmder.NewRateCmd())
	cmd.AddCommand(correctcmder.NewCorrectCmd())
	cmd.AddCommand(knowledgecmder.NewKnowledgeCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(admincmder.NewAdminCmd())
	cmd.AddCommand(pingcmder.NewPingCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
