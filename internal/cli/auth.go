package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/samvad-hq/bizdesk/internal/domain"
)

const passwordEnv = "BIZDESK_PASSWORD"

func newLoginCmd(e *env) *cobra.Command {
	var (
		email      string
		password   string
		rememberMe bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session cookie",
		Long: `Sign in with email and password. The password is read from --password,
then $BIZDESK_PASSWORD, then the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			st, err := e.rt.Sessions.Login(cmd.Context(), e.rt.Services.Auth, email, pw, rememberMe)
			if err != nil {
				return err
			}
			name := gjson.GetBytes(st.User, "email").String()
			if name == "" {
				name = email
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&rememberMe, "remember", false, "keep the session past the session TTL")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func resolvePassword(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(passwordEnv); env != "" {
		return env, nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("password required (--password, $%s or stdin)", passwordEnv)
		}
		return "", fmt.Errorf("password must not be empty")
	}
	return line, nil
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.rt.Sessions.Logout(cmd.Context(), e.rt.Services.Auth); err != nil {
				return fmt.Errorf("local session cleared, but the backend call failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Verify the session with the backend and print the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := e.rt.Sessions.Verify(cmd.Context(), e.rt.Services.Auth)
			if err != nil {
				return err
			}
			if len(st.User) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Signed in")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), st.User)
		},
	}
}

func newRegisterCmd(e *env) *cobra.Command {
	var (
		in        domain.RegisterInput
		birthDate string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if birthDate != "" {
				t, err := time.Parse(dateLayout, birthDate)
				if err != nil {
					return fmt.Errorf("--birth-date must be YYYY-MM-DD: %w", err)
				}
				in.BirthDate = domain.Date{Time: t}
			}
			pw, err := resolvePassword(in.Password)
			if err != nil {
				return err
			}
			in.Password = pw
			resp, err := e.rt.Services.Auth.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	f.StringVar(&in.Email, "email", "", "account email")
	f.StringVar(&in.Password, "password", "", "account password")
	f.StringVar(&in.PhoneNumber, "phone", "", "phone number without country code")
	f.StringVar(&in.CountryCode, "country-code", "", "dialing code, e.g. +994")
	f.StringVar(&in.Gender, "gender", "", "gender")
	f.StringVar(&birthDate, "birth-date", "", "birth date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	return cmd
}
