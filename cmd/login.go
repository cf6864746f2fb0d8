package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zaynchat/zaynchat-cli/internal"
)

var (
	loginEmail string
	loginName  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a session",
	Long: `Start a session for the given identity.

No password is involved; the identity only selects which locally stored
conversation history you see. Logging in again creates a new account with a
fresh, empty history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" {
			return fmt.Errorf("--email is required")
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		auth := internal.NewAuth(store)
		if err := ensureLoggedOut(auth); err != nil {
			return err
		}

		user, err := auth.Login(loginEmail, loginName)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		fmt.Printf("Logged in as %s (%s)\n", user.Name, user.ID)
		return nil
	},
}

// ensureLoggedOut refuses a login while a session record exists. An
// unreadable record is an error, not an invitation to overwrite it.
func ensureLoggedOut(auth *internal.Auth) error {
	existing, err := auth.CurrentUser()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("already logged in as %s (run `zaynchat logout` first)", existing.Email)
	}
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Long: `End the current session.

Conversation history stays on disk, keyed by the account identifier, but is
unreachable until that account logs in again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := internal.NewAuth(store).Logout(); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}

		fmt.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
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

		fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.ID)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email address to log in with")
	loginCmd.Flags().StringVar(&loginName, "name", "", "Display name (defaults to the email's local part)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
