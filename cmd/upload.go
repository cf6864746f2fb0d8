package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zaynchat/zaynchat-cli/internal"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Attach a PDF document to the current conversation",
	Long: `Attach a PDF document to the current conversation.

The document is validated (PDF only, 10MB max) and a system message noting
the upload is added to the conversation, so follow-up questions can refer to
it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		if err := internal.ValidateUpload(path); err != nil {
			return err
		}

		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		user, err := requireUser(store)
		if err != nil {
			return err
		}

		controller, err := internal.NewSessionController(store, user.ID, newClient(cfg), internal.NopRenderer{})
		if err != nil {
			return fmt.Errorf("failed to restore session: %w", err)
		}

		controller.EmitSystemMessage(internal.UploadMessage(path))

		info, err := os.Stat(path)
		if err == nil {
			fmt.Printf("Uploaded %s (%s)\n", path, internal.FormatFileSize(info.Size()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
