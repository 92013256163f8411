package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/dto"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/postgres"
)

const tokenEnv = "FTA_TOKEN"

var bcryptGenerate = bcrypt.GenerateFromPassword

type options struct {
	baseURL string
	token   string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "fta",
		Short:         "Financial tracker CLI",
		Long:          `A command line interface for the financial tracker savings API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv(tokenEnv), "Bearer token (defaults to $"+tokenEnv+")")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		loginCmd(opts),
		accountsCmd(opts),
		ledgerCmd(opts),
		migrateCmd(),
		hashPasswordCmd(),
	)

	return rootCmd
}

// apiError is a non-2xx response from the API.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("request failed (HTTP %d)", e.Status)
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(opts *options) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		token:   opts.token,
		http:    &http.Client{Timeout: opts.timeout},
	}
}

func (c *apiClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &apiError{Status: resp.StatusCode}
		var er dto.ErrorResponse
		if json.Unmarshal(raw, &er) == nil {
			apiErr.Code = er.Error
			apiErr.Message = er.Message
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func loginCmd(opts *options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print an access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.TokenResponse
			err := newClient(opts).do(http.MethodPost, "/api/v1/auth/login",
				dto.CredentialsRequest{Email: email, Password: password}, &resp)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.AccessToken)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func accountsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.ListAccountsResponse
			if err := newClient(opts).do(http.MethodGet, "/api/v1/accounts", nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBALANCE")
			for _, a := range resp.Accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.ID, truncate(a.Name, 32), a.Balance)
			}
			return tw.Flush()
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.AccountResponse
			if err := newClient(opts).do(http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0]), nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	var start, end string
	sumsCmd := &cobra.Command{
		Use:   "sums <account-id>",
		Short: "Total an account's transactions per type over a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("start", start)
			q.Set("end", end)

			var resp dto.TransactionSumsResponse
			path := "/api/v1/accounts/" + url.PathEscape(args[0]) + "/transactions/sums?" + q.Encode()
			if err := newClient(opts).do(http.MethodGet, path, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	sumsCmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	sumsCmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD), inclusive")
	_ = sumsCmd.MarkFlagRequired("start")
	_ = sumsCmd.MarkFlagRequired("end")

	cmd.AddCommand(listCmd, getCmd, sumsCmd)
	return cmd
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.ConsistencyResponse
			err := newClient(opts).do(http.MethodGet, "/api/v1/ledger/consistency", nil, &resp)

			var apiErr *apiError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusInternalServerError {
				fmt.Fprintln(cmd.OutOrStdout(), "Consistency check FAILED")
				return err
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Consistency check PASSED")
			fmt.Fprintf(cmd.OutOrStdout(), "Checked at: %s\n", resp.CheckedAt.Format(time.RFC3339))
			return nil
		},
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile every account against its transaction history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.ReconciliationReportResponse
			if err := newClient(opts).do(http.MethodGet, "/api/v1/ledger/reconciliation", nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.AddCommand(consistencyCmd, reconcileCmd)
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL (defaults to $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "internal/infrastructure/postgres/migrations", "Migrations directory")

	migrator := func(cmd *cobra.Command) (*postgres.Migrator, error) {
		if databaseURL == "" {
			return nil, errors.New("--database-url or DATABASE_URL is required")
		}
		log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).With().Timestamp().Logger()
		return postgres.NewMigrator(databaseURL, migrationsPath, log), nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			return m.Up()
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := migrator(cmd)
			if err != nil {
				return err
			}
			return m.Down()
		},
	}

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for seeding users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
