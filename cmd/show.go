package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zaynchat/zaynchat-cli/internal"
)

var showLimit int

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show messages of a conversation",
	Long:  `Display the full message log of a conversation.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conversationID := args[0]

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
		conversation, err := repo.Get(conversationID)
		if err != nil {
			return fmt.Errorf("failed to load conversation: %w", err)
		}
		if conversation == nil {
			return fmt.Errorf("conversation %s not found", conversationID)
		}

		messages, err := internal.NewMessageLog(store, user.ID).Get(conversationID)
		if err != nil {
			return fmt.Errorf("failed to load messages: %w", err)
		}

		if showLimit > 0 && len(messages) > showLimit {
			messages = messages[len(messages)-showLimit:]
		}

		internal.NewTermRenderer(cmd.OutOrStdout()).RenderMessages(*conversation, messages)
		return nil
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 0, "Show only the last N messages (0 = all)")
	rootCmd.AddCommand(showCmd)
}
