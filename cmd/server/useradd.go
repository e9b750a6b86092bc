package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"imagestore/internal/auth"
	"imagestore/internal/database"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var useraddCmd = &cobra.Command{
	Use:   "useradd <username>",
	Short: "Creates a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(args[0])
		if username == "" {
			return errors.New("username must not be empty")
		}

		cfg, err := loadConfig(cmd, true)
		if err != nil {
			return err
		}

		password, err := cmd.Flags().GetString("password")
		if err != nil {
			return fmt.Errorf("failed to get password flag: %w", err)
		}
		if password == "" {
			password, err = promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
		}
		if password == "" {
			return errors.New("password must not be empty")
		}

		hash, err := auth.HashPasswordWithParams(password, cfg.Auth.Argon2)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		pool, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		user, err := database.New(pool).CreateUser(cmd.Context(), username, hash)
		if err != nil {
			if errors.Is(err, database.ErrUserAlreadyExists) {
				return fmt.Errorf("user %q already exists", username)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		slog.Info("user created", "username", user.Username)
		return nil
	},
}

func init() {
	useraddCmd.Flags().String("password", "", "password for the new user (prompted when omitted)")
}

// promptPassword reads without echo from a terminal, or a single line from
// any other input so the command can be scripted.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Enter password: ")
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
