package main

import (
	"fmt"
	"strings"

	"github.com/jonathan/grant-portal/internal/db"
	"github.com/spf13/cobra"
)

var (
	setRoleEmail string
	setRoleRole  string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts",
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role",
	Short: "Change the role of an account",
	Long: `Change the role of an account. Registration always creates plain users;
reviewers and admins are promoted with this command.`,
	Example: "  grant_portal users set-role --email reviewer@example.com --role reviewer",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		role, err := parseRole(setRoleRole)
		if err != nil {
			return err
		}
		return withDatabase(cmd, func(env *dbEnv) error {
			ok, err := env.db.SetUserRole(cmd.Context(), setRoleEmail, role)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no account with email %s", setRoleEmail)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", strings.ToLower(setRoleEmail), role)
			return nil
		})
	},
}

func init() {
	setRoleCmd.Flags().StringVar(&setRoleEmail, "email", "", "Email of the account")
	setRoleCmd.Flags().StringVar(&setRoleRole, "role", "", "New role: user, reviewer or admin")
	_ = setRoleCmd.MarkFlagRequired("email")
	_ = setRoleCmd.MarkFlagRequired("role")

	usersCmd.AddCommand(setRoleCmd)
	rootCmd.AddCommand(usersCmd)
}

func parseRole(s string) (db.Role, error) {
	role := db.Role(strings.ToLower(strings.TrimSpace(s)))
	switch role {
	case db.RoleUser, db.RoleReviewer, db.RoleAdmin:
		return role, nil
	}
	return "", fmt.Errorf("invalid role %q: must be user, reviewer or admin", s)
}
