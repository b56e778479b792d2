// Package format renders CLI output.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nfrund/gatehouse/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var title = cases.Title(language.English)

// UsersTable writes users as an aligned table with title-cased role and
// status.
func UsersTable(out io.Writer, users []domain.UserRow) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tSTATUS")
	fmt.Fprintln(w, "--\t----\t-----\t----\t------")
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found")
	}
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, title.String(u.Role), title.String(u.Status))
	}
	return w.Flush()
}

// UsersJSON writes users in the /api/users response shape.
func UsersJSON(out io.Writer, users []domain.UserRow) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Users []domain.UserRow `json:"users"`
		Count int              `json:"count"`
	}{Users: users, Count: len(users)})
}
