package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/zaynchat/zaynchat-cli/internal"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check the local store for consistency",
	Long: `Check the health of the local store by verifying:
  • The store opens and the session record is readable
  • The conversation list parses
  • The current conversation is a member of the list
  • No orphaned message logs exist (deletes cascade)

Useful for debugging storage issues before filing a bug.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(sectionStyle.Render("🔍 zaynchat Store Health Check"))
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 1: Opening local store..."))
		store, cfg, err := openStore()
		if err != nil {
			fmt.Println(errorStyle.Render("❌ Failed to open store:"), err)
			os.Exit(1)
		}
		defer store.Close()
		fmt.Println(successStyle.Render("✅ Store opened at " + cfg.StoragePath))
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 2: Checking session..."))
		user, err := internal.NewAuth(store).CurrentUser()
		if err != nil {
			fmt.Println(errorStyle.Render("❌ Session record unreadable:"), err)
			os.Exit(1)
		}
		if user == nil {
			fmt.Println(successStyle.Render("✅ No active session (log in to check conversation state)"))
			return nil
		}
		fmt.Println(successStyle.Render("✅ Logged in as " + user.ID))
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 3: Checking conversation state..."))
		report, err := internal.CheckHealth(store, user.ID)
		if err != nil {
			fmt.Println(errorStyle.Render("❌ Health check failed:"), err)
			os.Exit(1)
		}

		fmt.Printf("   %d conversation(s), %d message(s)\n", report.ConversationCount, report.MessageCount)
		if report.OK() {
			fmt.Println(successStyle.Render("✅ All invariants hold"))
			return nil
		}

		for _, problem := range report.Problems {
			fmt.Println(errorStyle.Render("❌ " + problem))
		}
		os.Exit(1)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
