package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View and update your account profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the account profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireServices(); err != nil {
			return err
		}
		if err := Session.Guard(); err != nil {
			return err
		}

		profile, err := Remote.Profile(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Username: %s\n", profile.Username)
		if profile.Name != "" {
			fmt.Printf("Name:     %s\n", profile.Name)
		}
		fmt.Printf("Email:    %s\n", profile.Email)
		if profile.Phone != "" {
			fmt.Printf("Phone:    %s\n", profile.Phone)
		}
		return nil
	},
}

var (
	profileName  string
	profileEmail string
	profilePhone string
)

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	Long: `Update one or more profile fields. Only the flags you set are
sent; the rest of the profile is untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireServices(); err != nil {
			return err
		}
		if err := Session.Guard(); err != nil {
			return err
		}

		fields := map[string]any{}
		if cmd.Flags().Changed("name") {
			fields["name"] = profileName
		}
		if cmd.Flags().Changed("email") {
			fields["email"] = profileEmail
		}
		if cmd.Flags().Changed("phone") {
			fields["phone"] = profilePhone
		}
		if len(fields) == 0 {
			return fmt.Errorf("nothing to update, set at least one of --name, --email, --phone")
		}

		if _, err := Remote.UpdateProfile(cmd.Context(), fields); err != nil {
			return err
		}

		fmt.Println("Profile updated.")
		return nil
	},
}

var profilePasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change the account password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireServices(); err != nil {
			return err
		}
		if err := Session.Guard(); err != nil {
			return err
		}

		oldPassword := prompt("Current password: ")
		newPassword := prompt("New password: ")
		confirm := prompt("Confirm new password: ")
		if newPassword != confirm {
			return fmt.Errorf("passwords do not match")
		}

		if err := Remote.UpdatePassword(cmd.Context(), oldPassword, newPassword); err != nil {
			return err
		}

		fmt.Println("Password updated.")
		return nil
	},
}

func init() {
	profileUpdateCmd.Flags().StringVar(&profileName, "name", "", "New display name")
	profileUpdateCmd.Flags().StringVar(&profileEmail, "email", "", "New email address")
	profileUpdateCmd.Flags().StringVar(&profilePhone, "phone", "", "New phone number")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profilePasswordCmd)
	rootCmd.AddCommand(profileCmd)
}
