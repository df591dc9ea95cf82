// cmd/diagnose/main.go
//
// escalado-diagnose – operator CLI that checks the backend the web app
// talks to.
//
// Context
// -------
// Every subcommand builds one diagnostics.Report and prints it with pterm.
// Failures are part of the report, so the process exits 0 once the report
// is printed.  Only configuration and flag errors exit non-zero.
//
// Passwords are read from the terminal without echo unless --password is
// given.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/toescalado/escalado/internal/config"
	"github.com/toescalado/escalado/internal/diagnostics"
	"github.com/toescalado/escalado/internal/logger"
	"github.com/toescalado/escalado/internal/supabase"
)

var (
	email    string
	password string
	fullName string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "escalado-diagnose",
	Short: "Diagnose the Tô Escalado backend",
	Long: `escalado-diagnose probes the configured backend: connectivity, the
profiles table, sign-in, test user creation, and table structure.`,
	SilenceUsage: true,
	RunE:         runReport(func(ctx context.Context, r *diagnostics.Runner) (*diagnostics.Report, error) { return r.Check(ctx), nil }),
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log backend calls to stderr")

	check := &cobra.Command{
		Use:   "check",
		Short: "Run the full diagnosis",
		RunE:  rootCmd.RunE,
	}
	connection := &cobra.Command{
		Use:   "connection",
		Short: "Check connectivity and auth settings",
		RunE: runReport(func(ctx context.Context, r *diagnostics.Runner) (*diagnostics.Report, error) {
			return r.Connection(ctx), nil
		}),
	}
	database := &cobra.Command{
		Use:   "database",
		Short: "Check the profiles table and its policies",
		RunE: runReport(func(ctx context.Context, r *diagnostics.Runner) (*diagnostics.Report, error) {
			return r.Database(ctx), nil
		}),
	}
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a real account",
		RunE: runReport(func(ctx context.Context, r *diagnostics.Runner) (*diagnostics.Report, error) {
			e, p, err := credentials()
			if err != nil {
				return nil, err
			}
			return r.Login(ctx, e, p), nil
		}),
	}
	createUser := &cobra.Command{
		Use:   "create-user",
		Short: "Create a test user with a profile row",
		RunE: runReport(func(ctx context.Context, r *diagnostics.Runner) (*diagnostics.Report, error) {
			e, p, err := credentials()
			if err != nil {
				return nil, err
			}
			name := fullName
			if name == "" {
				name = "Usuário Teste"
			}
			return r.CreateUser(ctx, e, p, name), nil
		}),
	}
	schema := &cobra.Command{
		Use:   "schema",
		Short: "Inspect table structure",
		Long:  "Inspect table structure.  With --email the probe runs signed in.",
		RunE: runReport(func(ctx context.Context, r *diagnostics.Runner) (*diagnostics.Report, error) {
			return r.Schema(ctx, schemaToken(ctx, r)), nil
		}),
	}

	for _, c := range []*cobra.Command{login, createUser, schema} {
		c.Flags().StringVar(&email, "email", "", "Account email")
		c.Flags().StringVar(&password, "password", "", "Account password (prompted when empty)")
	}
	createUser.Flags().StringVar(&fullName, "name", "", "Full name for the new profile")

	rootCmd.AddCommand(check, connection, database, login, createUser, schema)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// runReport wraps a report producer with config loading and printing.
func runReport(fn func(context.Context, *diagnostics.Runner) (*diagnostics.Report, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		level := zapcore.WarnLevel
		if verbose {
			level = zapcore.DebugLevel
		}
		log := logger.Console(level)

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		client, err := supabase.New(supabase.Options{
			URL:     cfg.Backend.URL,
			AnonKey: cfg.Backend.AnonKey,
			Timeout: cfg.Backend.Timeout,
		})
		if err != nil {
			return err
		}

		ctx := logger.WithContext(cmd.Context(), log)
		rep, err := fn(ctx, diagnostics.New(client))
		if err != nil {
			return err
		}
		printReport(rep)
		return nil
	}
}

// schemaToken signs in when --email is set.  An empty token keeps the
// probe anonymous.
func schemaToken(ctx context.Context, r *diagnostics.Runner) string {
	if email == "" {
		return ""
	}
	e, p, err := credentials()
	if err != nil {
		pterm.Warning.Printfln("Continuando sem login: %v", err)
		return ""
	}
	sess, err := r.Backend().SignInWithPassword(ctx, e, p)
	if err != nil {
		pterm.Warning.Printfln("Continuando sem login: %s", supabase.Message(err))
		return ""
	}
	return sess.AccessToken
}

// credentials returns the flag values, prompting for whatever is missing.
func credentials() (string, string, error) {
	e := strings.TrimSpace(email)
	if e == "" {
		fmt.Fprint(os.Stderr, "Email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("read email: %w", err)
		}
		e = strings.TrimSpace(line)
	}
	if e == "" {
		return "", "", fmt.Errorf("email is required")
	}

	p := password
	if p == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return "", "", fmt.Errorf("password is required (use --password when stdin is not a terminal)")
		}
		fmt.Fprint(os.Stderr, "Senha: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		p = string(b)
	}
	if p == "" {
		return "", "", fmt.Errorf("password is required")
	}
	return e, p, nil
}

func printReport(rep *diagnostics.Report) {
	pterm.DefaultHeader.WithFullWidth().Println(rep.Title)

	for i, s := range rep.Steps {
		line := fmt.Sprintf("%d. %s: %s", i+1, s.Name, s.Summary)
		switch s.Status {
		case diagnostics.Pass:
			pterm.Success.Println(line)
		case diagnostics.Warn:
			pterm.Warning.Println(line)
		case diagnostics.Fail:
			pterm.Error.Println(line)
		default:
			pterm.Info.Println(line)
		}
		for _, d := range s.Details {
			pterm.Println("     " + d)
		}
	}

	section := func(title string, items []string, style pterm.Style) {
		if len(items) == 0 {
			return
		}
		pterm.Println()
		pterm.DefaultSection.Println(title)
		for _, it := range items {
			pterm.Println(style.Sprint("  • " + it))
		}
	}
	section("Problemas encontrados", rep.Issues, *pterm.NewStyle(pterm.FgRed))
	section("Recomendações", rep.Recommendations, *pterm.NewStyle(pterm.FgYellow))
	section("Próximos passos", rep.NextSteps, *pterm.NewStyle(pterm.FgCyan))

	pterm.Println()
	if rep.OK() {
		pterm.Success.Println("Nenhum problema encontrado.")
	} else {
		pterm.Warning.Printfln("%d problema(s) encontrado(s).", len(rep.Issues))
	}
}
