package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tasknest/taskdeck/internal/observability"
	"github.com/tasknest/taskdeck/pkg/models"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the task service",
	Long: `Authenticate against the task service and persist the session.

The obtained credential is stored on disk, so the session survives
restarts until you log out or the token expires.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Session == nil {
			return fmt.Errorf("session not initialized")
		}

		username := loginUsername
		if username == "" {
			username = prompt("Username: ")
		}
		password := prompt("Password: ")

		if err := Session.Login(cmd.Context(), username, password); err != nil {
			return err
		}

		observability.Record(EventLog, observability.EventLogin, "logged in", map[string]any{"username": username})
		fmt.Printf("Logged in as %s\n", username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Long:  `Clear the stored credential and cached profile. Succeeds without a network call.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Session == nil {
			return fmt.Errorf("session not initialized")
		}

		if err := Session.Logout(); err != nil {
			return err
		}

		observability.Record(EventLog, observability.EventLogout, "logged out", nil)
		fmt.Println("Logged out.")
		return nil
	},
}

var (
	registerUsername string
	registerEmail    string
	registerName     string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Long: `Create a new account on the task service.

Registration does not log you in; run "taskdeck login" afterwards.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Session == nil {
			return fmt.Errorf("session not initialized")
		}

		username := registerUsername
		if username == "" {
			username = prompt("Username: ")
		}
		email := registerEmail
		if email == "" {
			email = prompt("Email: ")
		}
		name := registerName
		if name == "" {
			name = prompt("Full name: ")
		}
		password := prompt("Password: ")
		confirm := prompt("Confirm password: ")

		profile, err := Session.Register(cmd.Context(), models.RegisterInput{
			Username: username,
			Email:    email,
			Password: password,
			Name:     name,
		}, confirm)
		if err != nil {
			return err
		}

		fmt.Printf("Registered %s. Run \"taskdeck login\" to sign in.\n", profile.Username)
		return nil
	},
}

// prompt reads a single line from stdin after printing the label.
func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username to log in with")
	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "Username for the new account")
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "Email for the new account")
	registerCmd.Flags().StringVarP(&registerName, "name", "n", "", "Full name for the new account")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
}
