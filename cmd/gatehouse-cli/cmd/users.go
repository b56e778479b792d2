package cmd

import (
	"fmt"
	"os"

	"github.com/nfrund/gatehouse/cmd/gatehouse-cli/internal/format"
	"github.com/nfrund/gatehouse/internal/directory"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	usersFile         string
	usersOutputFormat string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Print the static user list",
	Long: `Print the user list shown in the landing page team table.

The list is read from --file, then USERS_FILE, and falls back to the list
built into the server.

Examples:
  gatehouse-cli users                      # Table of the built-in list
  gatehouse-cli users --file users.json    # Table of a custom list
  gatehouse-cli users --format json        # JSON, as served by /api/users`,
	RunE: usersHandler,
}

func usersHandler(cmd *cobra.Command, args []string) error {
	path := usersFile
	if path == "" {
		path = os.Getenv("USERS_FILE")
	}

	dir, err := directory.New(afero.NewOsFs(), path)
	if err != nil {
		return err
	}
	users := dir.Users(cmd.Context())

	switch usersOutputFormat {
	case "table":
		return format.UsersTable(cmd.OutOrStdout(), users)
	case "json":
		return format.UsersJSON(cmd.OutOrStdout(), users)
	default:
		return fmt.Errorf("invalid format %q: valid formats are table, json", usersOutputFormat)
	}
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.Flags().StringVar(&usersFile, "file", "", "Path to a users JSON file")
	usersCmd.Flags().StringVarP(&usersOutputFormat, "format", "f", "table", "Output format (table, json)")
}
