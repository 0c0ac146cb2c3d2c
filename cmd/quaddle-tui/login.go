// ABOUTME: login and signup subcommands: exchange credentials for a token.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func loginCmd(flags *rootFlags) *cobra.Command {
	var (
		name   string
		signup bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print an auth token",
		Long: `Log in to the Quaddle server and print the resulting token.

Put the token in the config file (auth.token) or the QUADDLE_TOKEN
environment variable for the other commands to pick up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			api, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			if name == "" {
				fmt.Print("Username: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading username: %w", err)
				}
				name = strings.TrimSpace(line)
			}

			fmt.Print("Password: ")
			password, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}

			ctx := cmd.Context()
			if signup {
				user, err := api.Signup(ctx, name, string(password))
				if err != nil {
					return fmt.Errorf("signing up: %w", err)
				}
				color.New(color.FgGreen).Printf("Created account %s (id %s)\n", user.Name, user.ID)
			}

			if err := api.Login(ctx, name, string(password)); err != nil {
				return fmt.Errorf("logging in: %w", err)
			}

			fmt.Println(api.Token())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name (prompted when omitted)")
	cmd.Flags().BoolVar(&signup, "signup", false, "create the account before logging in")
	return cmd
}
