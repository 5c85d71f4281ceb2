package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"visiverse/internal/models"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

var errPasswordMismatch = errors.New("passwords do not match")

func newUserCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCmd(configFile))
	return cmd
}

func newUserAddCmd(configFile *string) *cobra.Command {
	var displayName, description string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Register a user, prompting for the password",
		Long: `Register a user. On a terminal the password is read twice without echo;
otherwise the first line of standard input is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configFile)
			if err != nil {
				return err
			}
			pw, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), int(os.Stdin.Fd()))
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.services.SignUp(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}

			fields := profileFields(displayName, description)
			if !fields.Empty() {
				if err := a.repos.Users.UpdateUserFields(cmd.Context(), u.Username, fields); err != nil {
					return fmt.Errorf("set profile: %w", err)
				}
			}
			cmd.Printf("user %q created\n", u.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&displayName, "display-name", "", "display name")
	cmd.Flags().StringVar(&description, "description", "", "profile description")
	return cmd
}

func profileFields(displayName, description string) models.UserFields {
	var f models.UserFields
	if displayName != "" {
		f.DisplayName = &displayName
	}
	if description != "" {
		f.Description = &description
	}
	return f
}

// promptPassword reads a password from the terminal fd without echo and asks for
// confirmation. When fd is not a terminal it reads one line from in instead.
func promptPassword(in io.Reader, out io.Writer, fd int) (string, error) {
	if !isTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(out, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(out, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}
