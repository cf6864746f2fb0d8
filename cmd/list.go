package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/zaynchat/zaynchat-cli/internal"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	currentMarkStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Bold(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your conversations",
	Long:  `List all conversations of the logged-in account, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		conversations, err := repo.List()
		if err != nil {
			return fmt.Errorf("failed to load conversations: %w", err)
		}

		current, err := repo.Current()
		if err != nil {
			internal.LogWarn("Failed to load current conversation: %v", err)
		}
		currentID := ""
		if current != nil {
			currentID = current.ID
		}

		displayConversations(store, user.ID, conversations, currentID)
		return nil
	},
}

func displayConversations(store internal.Store, userID string, conversations []internal.Conversation, currentID string) {
	if len(conversations) == 0 {
		fmt.Println(headerStyle.Render("📋 No conversations yet"))
		return
	}

	header := headerStyle.Render(fmt.Sprintf("📋 Found %d conversation(s)", len(conversations)))
	fmt.Println(header)
	fmt.Println()

	log := internal.NewMessageLog(store, userID)

	// Use tabwriter for aligned columns with better spacing
	w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)

	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Last message")+"\t"+titleStyle.Render("Created")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 110))

	for _, conv := range conversations {
		title := conv.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		if conv.ID == currentID {
			title = currentMarkStyle.Render("* " + title)
		} else {
			title = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Render(title)
		}

		msgCount := "0"
		last := "—"
		if messages, err := log.Get(conv.ID); err == nil {
			msgCount = countStyle.Render(strconv.Itoa(len(messages)))
			if len(messages) > 0 {
				last = dateStyle.Render(messages[len(messages)-1].Preview(40))
			}
		}

		created := dateStyle.Render(formatCreated(conv.CreatedAt))

		// Show short ID (first 8 chars of the uuid) for readability
		id := idStyle.Render(shortConvID(conv.ID))

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", id, title, msgCount, last, created)
	}

	_ = w.Flush()
	fmt.Println()
	fmt.Println(idStyle.Render("💡 Tip: Use the full ID (e.g., ") +
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(conversations[0].ID) +
		idStyle.Render(") with `zaynchat show <id>`"))
}

func formatCreated(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func shortConvID(id string) string {
	trimmed := strings.TrimPrefix(id, "conv_")
	if len(trimmed) > 8 {
		trimmed = trimmed[:8]
	}
	return trimmed
}

func init() {
	rootCmd.AddCommand(listCmd)
}
