package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zaynchat/zaynchat-cli/internal"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new conversation and make it current",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		conv := controller.NewConversation()
		fmt.Printf("Created conversation %s\n", conv.ID)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <conversation-id> <title>",
	Short: "Rename a conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		if err := controller.Rename(args[0], strings.Join(args[1:], " ")); err != nil {
			return fmt.Errorf("rename failed: %w", err)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a conversation and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		if err := controller.Delete(args[0]); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}

		fmt.Printf("Deleted %s, current conversation is now %s\n", args[0], controller.Current().ID)
		return nil
	},
}

var switchCmd = &cobra.Command{
	Use:   "switch <conversation-id>",
	Short: "Make another conversation current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		if err := controller.Select(args[0]); err != nil {
			return fmt.Errorf("switch failed: %w", err)
		}
		if controller.Current().ID != args[0] {
			return fmt.Errorf("conversation %s not found", args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(switchCmd)
}
