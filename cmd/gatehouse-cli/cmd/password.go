package cmd

import (
	"errors"
	"fmt"

	"github.com/nfrund/gatehouse/internal/validation"
	"github.com/spf13/cobra"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Password policy tools",
}

var passwordCheckCmd = &cobra.Command{
	Use:   "check <password>",
	Short: "Check a password against the sign-up rules",
	Long: `Check a password against the rules enforced by the login and sign-up
forms: at least 7 characters, letters and numbers only, with at least one
uppercase letter and one number. Exits non-zero when the password fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !validation.ValidPassword(args[0]) {
			return errors.New(validation.PasswordMessage)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password meets the policy.")
		return nil
	},
}

func init() {
	passwordCmd.AddCommand(passwordCheckCmd)
	rootCmd.AddCommand(passwordCmd)
}
