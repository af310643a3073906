// Package authcmder provides the auth command for signing in to the reading
// assistant.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/synergyreader/synergy/cmd/synergy/backend"
	"github.com/synergyreader/synergy/pkg/client"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/credentials"
)

const authLongDesc string = `Manage sessions with the reading assistant.

Sessions are stored in credentials.toml in the .synergy/ directory, keyed
by backend URL. The stored token is sent with every request that needs a
signed-in user: history, admin and the recording of answers.

Examples:
  synergy auth register --username ada --email ada@example.com
  synergy auth login --username ada
  echo $PASSWORD | synergy auth login --username ada
  synergy auth status
  synergy auth logout`

const authShortDesc string = "Sign in to the reading assistant"

func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: authShortDesc,
		Long:  authLongDesc,
	}

	cmd.AddCommand(newSignInCmd("login", "Sign in and store the session"))
	cmd.AddCommand(newSignInCmd("register", "Create an account and store the session"))
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func newSignInCmd(use, short string) *cobra.Command {
	var (
		backendURL string
		creds      client.Credentials
		conn       *backend.Conn
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(creds.Username) == "" {
				return errors.New("--username is required")
			}

			var err error
			conn, err = backend.Resolve(cmd, backend.Flags, config.FlagBackend)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			creds.Password = strings.TrimSpace(password)
			if creds.Password == "" {
				return errors.New("password cannot be empty")
			}

			cl := client.NewClient(conn.BackendURL(), client.WithLogger(conn.Logger))

			var resp *client.AuthResponse
			if use == "register" {
				resp, err = cl.Register(cmd.Context(), &creds)
			} else {
				resp, err = cl.Login(cmd.Context(), &creds)
			}
			if err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}

			mgr, err := credentials.NewManager(conn.ConfigDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}
			err = mgr.SetSession(conn.BackendURL(), credentials.Session{
				Username: creds.Username,
				Token:    resp.Token,
				SavedAt:  time.Now().UTC(),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Signed in as %s %s\n\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(creds.Username),
				cliui.DimStyle.Render("("+conn.BackendURL()+")"),
			)
			return nil
		},
	}

	config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &backendURL)
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "Account name")
	if use == "register" {
		cmd.Flags().StringVarP(&creds.Email, "email", "e", "", "Email address")
	}

	return cmd
}

func newLogoutCmd() *cobra.Command {
	var backendURL string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session for the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := backend.Resolve(cmd, backend.Flags, config.FlagBackend)
			if err != nil {
				return err
			}

			mgr, err := credentials.NewManager(conn.ConfigDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}
			if err := mgr.RemoveSession(conn.BackendURL()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Signed out of %s\n\n",
				cliui.SuccessMark, cliui.NameStyle.Render(conn.BackendURL()))
			return nil
		},
	}

	config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &backendURL)

	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			backends, err := mgr.ListBackends()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(backends) == 0 {
				fmt.Fprintf(out, "\n  %s Not signed in anywhere.\n", cliui.DimStyle.Render("●"))
				fmt.Fprintf(out, "  Use 'synergy auth login --username <name>' to sign in.\n\n")
				return nil
			}

			fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Sessions"))
			for _, b := range backends {
				s, err := mgr.GetSession(b)
				if err != nil || s == nil {
					continue
				}
				fmt.Fprintf(out, "  %s  %s  %s\n",
					cliui.SuccessMark,
					cliui.NameStyle.Render(s.Username),
					cliui.DimStyle.Render("→ "+b+", since "+s.SavedAt.Local().Format(time.DateTime)),
				)
			}
			fmt.Fprintln(out)

			return nil
		},
	}

	return cmd
}

// readPassword reads the first line of in when it is piped. On a terminal it
// prompts on prompt with hidden input.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no password received on stdin")
}
