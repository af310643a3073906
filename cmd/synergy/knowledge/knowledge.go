// Package knowledgecmder provides the knowledge command for the curated
// question/answer knowledge base.
package knowledgecmder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/cmd/synergy/backend"
	"github.com/synergyreader/synergy/pkg/client"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/utils"
)

const knowledgeLongDesc string = `Manage the curated knowledge base.

Curated question/answer pairs are preferred by the backend over generated
answers when a question matches.

Examples:
  synergy knowledge list
  synergy knowledge add --question "What is a tort?" --answer "A civil wrong."
  synergy knowledge add --file pairs.json`

func NewKnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the curated knowledge base",
		Long:  knowledgeLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newAddCmd())

	return cmd
}

func newListCmd() *cobra.Command {
	var backendURL string
	var conn *backend.Conn

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List curated question/answer pairs",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			conn, err = backend.Resolve(cmd, backend.Flags, config.FlagBackend)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := conn.Client()
			if err != nil {
				return err
			}

			items, err := cl.Knowledge(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing knowledge base: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintf(out, "\n  %s The knowledge base is empty.\n\n", cliui.DimStyle.Render("●"))
				return nil
			}

			fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Knowledge base"))
			for _, item := range items {
				fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Q:"), cliui.ValueStyle.Render(item.Question))
				fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("A:"), utils.Truncate(utils.OneLine(item.Answer), 120))
				if item.Source != "" {
					fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("source: "+item.Source))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &backendURL)

	return cmd
}

func newAddCmd() *cobra.Command {
	var (
		backendURL string
		item       client.KnowledgeItem
		file       string
		conn       *backend.Conn
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add curated question/answer pairs",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" && (item.Question == "" || item.Answer == "") {
				return errors.New("either --file or both --question and --answer are required")
			}

			var err error
			conn, err = backend.Resolve(cmd, backend.Flags, config.FlagBackend)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			items := []client.KnowledgeItem{item}
			if file != "" {
				var err error
				items, err = readItems(file)
				if err != nil {
					return err
				}
			}

			cl, err := conn.Client()
			if err != nil {
				return err
			}

			if _, err := cl.AddKnowledge(cmd.Context(), items...); err != nil {
				return fmt.Errorf("adding to knowledge base: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Added %d item(s) to the knowledge base\n\n", cliui.SuccessMark, len(items))
			return nil
		},
	}

	config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &backendURL)
	cmd.Flags().StringVarP(&item.Question, "question", "q", "", "Question")
	cmd.Flags().StringVar(&item.Answer, "answer", "", "Curated answer")
	cmd.Flags().StringVar(&item.Source, "source", "", "Where the answer comes from")
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with an array of {question, answer, source} objects")

	return cmd
}

func readItems(path string) ([]client.KnowledgeItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var items []client.KnowledgeItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s contains no items", path)
	}
	return items, nil
}
