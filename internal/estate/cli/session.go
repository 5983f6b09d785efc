package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/pkg/jwtx"
	"github.com/aussiebroadwan/estate/pkg/tokenstore"
)

func newLoginCommand(opts *options) *cobra.Command {
	var creds domain.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token bound to this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := opts.parseRole()
			if err != nil {
				return err
			}
			if creds.Password == "" {
				// Read the password from stdin so it stays out of shell history
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password required (--password or stdin)")
				}
				creds.Password = strings.TrimRight(line, "\r\n")
			}

			user, err := opts.app.Market.Login(cmd.Context(), role, creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", user.Email, role)
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password, read from stdin when empty")
	cmd.Flags().StringVar(&creds.OTP, "otp", "", "one-time code for back-office roles")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget every role's session and the cached favorites",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.app.Market.Logout(cmd.Context()) {
				return errors.New("some session entries could not be removed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCommand(opts *options) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the profile of the current role's session",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := opts.parseRole()
			if err != nil {
				return err
			}

			var user domain.User
			if cached {
				var ok bool
				if user, ok = opts.app.Market.CachedUser(cmd.Context(), role); !ok {
					return fmt.Errorf("no cached %s profile", role)
				}
			} else if user, err = opts.app.Market.Me(cmd.Context(), role); err != nil {
				return err
			}

			return opts.render(cmd.OutOrStdout(), user,
				[]string{"id", "email", "name", "role"},
				[][]string{{user.ID, user.Email, user.Name, user.Role}},
			)
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "print the profile stored at login without calling the API")
	return cmd
}

func newTokenCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect stored session tokens",
	}
	cmd.AddCommand(newTokenInspectCommand(opts))
	return cmd
}

type tokenReport struct {
	Role        string     `json:"role"`
	TokenKey    string     `json:"tokenKey"`
	StoredAt    *time.Time `json:"storedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Legacy      bool       `json:"legacy"`
	Status      string     `json:"status"`
	Fingerprint string     `json:"fingerprint"`
}

func newTokenInspectCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Validate the current role's token; a token moved from another machine is purged",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := opts.parseRole()
			if err != nil {
				return err
			}

			report := tokenReport{Role: string(role), Status: "absent", Fingerprint: opts.app.Tokens.Fingerprint()}
			if sess, ok := opts.app.Market.Session(cmd.Context(), role); ok {
				report.TokenKey = sess.TokenKey
				report.Legacy = sess.Record.Legacy()
				if !sess.Record.StoredAt.IsZero() {
					report.StoredAt = &sess.Record.StoredAt
				}
				if exp, ok := jwtx.ExpiryDate(sess.Record.Value); ok {
					report.ExpiresAt = &exp
				}
				report.Status = tokenStatus(sess.Err)
			}

			return opts.render(cmd.OutOrStdout(), report,
				[]string{"role", "status", "legacy", "stored", "expires"},
				[][]string{{
					report.Role, report.Status, fmt.Sprint(report.Legacy),
					formatTime(report.StoredAt), formatTime(report.ExpiresAt),
				}},
			)
		},
	}
}

func tokenStatus(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, tokenstore.ErrFingerprintMismatch):
		return "purged (fingerprint mismatch)"
	case errors.Is(err, tokenstore.ErrTokenExpired):
		return "expired"
	case errors.Is(err, tokenstore.ErrNoToken):
		return "absent"
	default:
		return err.Error()
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}
