package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zaynchat/zaynchat-cli/internal"
	"github.com/zaynchat/zaynchat-cli/internal/export"
)

var (
	exportFormat string
	exportOut    string
	exportAll    bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [conversation-id]",
	Short: "Export conversations to file",
	Long: `Export conversations to various formats (jsonl, md, yaml, json).

Export a single conversation by ID, or everything with --all.
Use 'zaynchat list' to see available conversation IDs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !exportAll {
			return fmt.Errorf("provide a conversation ID or use --all")
		}

		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		user, err := requireUser(store)
		if err != nil {
			return err
		}

		repo := internal.NewConversationRepository(store, user.ID)
		log := internal.NewMessageLog(store, user.ID)

		var targets []internal.Conversation
		if exportAll {
			targets, err = repo.List()
			if err != nil {
				return fmt.Errorf("failed to load conversations: %w", err)
			}
		} else {
			conversation, err := repo.Get(args[0])
			if err != nil {
				return fmt.Errorf("failed to load conversation: %w", err)
			}
			if conversation == nil {
				return fmt.Errorf("conversation %s not found", args[0])
			}
			targets = []internal.Conversation{*conversation}
		}

		if err := os.MkdirAll(exportOut, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		for _, conversation := range targets {
			messages, err := log.Get(conversation.ID)
			if err != nil {
				internal.LogWarn("Skipping %s, messages unreadable: %v", conversation.ID, err)
				continue
			}

			transcript := &internal.Transcript{Conversation: conversation, Messages: messages}
			path := filepath.Join(exportOut, fmt.Sprintf("%s.%s", conversation.ID, exporter.Extension()))

			if err := writeExport(exporter, transcript, path); err != nil {
				return &internal.ExportError{Format: exportFormat, Path: path, Err: err}
			}
			internal.LogInfo("Exported %s (%d message(s)) to %s", conversation.ID, len(messages), path)
		}

		fmt.Printf("Exported %d conversation(s) to %s\n", len(targets), exportOut)
		return nil
	},
}

func writeExport(exporter export.Exporter, transcript *internal.Transcript, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return exporter.Export(transcript, f)
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every conversation")
	rootCmd.AddCommand(exportCmd)
}
