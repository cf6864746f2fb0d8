package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/zaynchat/zaynchat-cli/internal"
)

var promptStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("39")).
	Bold(true)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat interactively",
	Long: `Open an interactive chat session on the current conversation.

In-session commands:
  /new              start a new conversation
  /switch <id>      switch to another conversation
  /rename <title>   rename the current conversation
  /delete           delete the current conversation
  /list             list conversations
  /quit             leave the session`,
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

		renderer := internal.NewTermRenderer(cmd.OutOrStdout())
		controller, err := internal.NewSessionController(store, user.ID, newClient(cfg), renderer)
		if err != nil {
			return fmt.Errorf("failed to restore session: %w", err)
		}

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for {
			fmt.Fprint(cmd.OutOrStdout(), promptStyle.Render("you> "))
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())

			if strings.HasPrefix(line, "/") {
				done, err := runChatCommand(controller, line)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "error: %v\n", err)
				}
				if done {
					break
				}
				continue
			}

			// Input stays "disabled" for the duration: the loop blocks on
			// Send, so no second send can start for this conversation.
			if err := controller.Send(cmd.Context(), line); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "error: %v\n", err)
			}
		}

		return scanner.Err()
	},
}

func runChatCommand(controller *internal.SessionController, line string) (done bool, err error) {
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch command {
	case "/quit", "/exit":
		return true, nil
	case "/new":
		controller.NewConversation()
	case "/switch":
		if rest == "" {
			return false, fmt.Errorf("usage: /switch <conversation-id>")
		}
		err = controller.Select(rest)
	case "/rename":
		if rest == "" {
			return false, fmt.Errorf("usage: /rename <title>")
		}
		err = controller.Rename(controller.Current().ID, rest)
	case "/delete":
		err = controller.Delete(controller.Current().ID)
	case "/list":
		// The controller re-renders the list on selection changes; force one.
		err = controller.Select(controller.Current().ID)
	default:
		return false, fmt.Errorf("unknown command %s", command)
	}

	return false, err
}

// sendCmd does a single round-trip without entering the REPL.
var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one message to the current conversation",
	Args:  cobra.MinimumNArgs(1),
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

		if err := controller.Send(cmd.Context(), strings.Join(args, " ")); err != nil {
			return err
		}

		messages, err := controller.Messages()
		if err != nil {
			return err
		}
		if len(messages) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), messages[len(messages)-1].Content)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sendCmd)
}
