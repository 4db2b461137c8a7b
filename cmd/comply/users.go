package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/comply/internal/api"
	"github.com/jackzampolin/comply/internal/auth"
)

var (
	userPassword    string
	userEmail       string
	userDisplayName string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage API users",
	Long: `Manage the users allowed to request tokens from comply serve.

Users live in a SQLite database (auth.users_db, default ~/.comply/data/users.db).`,
}

var usersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a user",
	Long: `Add a user with a bcrypt-hashed password.

Pass --password - to read the password from the first line of stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(userPassword)
		if err != nil {
			return err
		}

		logger, err := newLogger(os.Stderr)
		if err != nil {
			return err
		}
		a, err := loadApp(logger)
		if err != nil {
			return err
		}
		users, err := a.openUsers(cmd.Context())
		if err != nil {
			return err
		}
		defer users.Close()

		u := auth.User{Username: args[0], Email: userEmail, DisplayName: userDisplayName}
		if err := users.Add(cmd.Context(), u, password); err != nil {
			return err
		}
		return api.Output(u)
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(os.Stderr)
		if err != nil {
			return err
		}
		a, err := loadApp(logger)
		if err != nil {
			return err
		}
		users, err := a.openUsers(cmd.Context())
		if err != nil {
			return err
		}
		defer users.Close()

		list, err := users.List(cmd.Context())
		if err != nil {
			return err
		}
		if list == nil {
			list = []auth.User{}
		}
		return api.Output(list)
	},
}

func readPassword(flag string) (string, error) {
	if flag != "-" {
		if flag == "" {
			return "", fmt.Errorf("--password is required")
		}
		return flag, nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	usersAddCmd.Flags().StringVarP(&userPassword, "password", "p", "", "Password, or - to read from stdin")
	usersAddCmd.Flags().StringVar(&userEmail, "email", "", "Email address")
	usersAddCmd.Flags().StringVar(&userDisplayName, "display-name", "", "Display name")

	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersListCmd)
	rootCmd.AddCommand(usersCmd)
}
