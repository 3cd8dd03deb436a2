package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"itransfer/internal/app"
	"itransfer/internal/config"
	"itransfer/internal/encryption"
	"itransfer/internal/transfer"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var rep reportedError
		if !errors.As(err, &rep) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// reportedError wraps an error the notifier has already shown to the user.
type reportedError struct{ err error }

func (r reportedError) Error() string { return r.err.Error() }
func (r reportedError) Unwrap() error { return r.err }

// submitReported reports whether the pipeline already notified the user
// about err. Cancellation is silent.
func submitReported(err error) bool {
	var verr *transfer.ValidationError
	var httpErr *transfer.HTTPError
	var netErr *transfer.NetworkError
	var sizeErr *transfer.SizeChangedError
	return errors.As(err, &verr) || errors.As(err, &httpErr) || errors.As(err, &netErr) ||
		errors.As(err, &sizeErr) || errors.Is(err, transfer.ErrCancelled)
}

// newApp reads the config and creates an ITransferApp. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "send", "download").
func newApp(cmd *cobra.Command, operation string, args []string) (*app.ITransferApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config (run 'itransfer config init' first): %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewITransferApp(cfg, operation, app.Options{
		Out:     os.Stdout,
		Verbose: verbose,
		Args:    args,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withInterrupts runs fn with a context that the exit guard cancels.
func withInterrupts(a *app.ITransferApp, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)

	stop := app.WatchInterrupts(sigs, a.Service(), a.Notifier(), cancel)
	defer stop()

	return fn(ctx)
}

var rootCmd = &cobra.Command{
	Use:           "itransfer",
	Short:         "Send files through an iTransfer server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and session key",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["backend_url"], defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return err
		}
		if !enc.IsConfigured() {
			if err := enc.Setup(); err != nil {
				return fmt.Errorf("creating session key: %w", err)
			}
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Backend:  %s\n", cfg.BackendURL)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Backend:    %s\n", app.BackendURL(cfg.BackendURL))
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Staging:    %s\n", cfg.Staging.Type)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		for _, s := range cfg.Sinks {
			fmt.Printf("Sink:       %s (%s)\n", s.Name, s.Type)
		}
		return nil
	},
}

// session commands
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")

		a, err := newApp(cmd, "login", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if username == "" {
			username, err = promptLine(bufio.NewReader(os.Stdin), "Username", os.Stdout)
			if err != nil {
				return err
			}
		}
		password, err := promptPassword("Password", os.Stdout)
		if err != nil {
			return err
		}

		if err := a.Login(cmd.Context(), username, password); err != nil {
			a.Fail()
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Printf("Logged in as %s\n", username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "logout", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show whether a session is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "whoami", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		state, err := a.Auth()
		if err != nil {
			return err
		}
		if state.IsAuthenticated() {
			fmt.Println("Logged in.")
		} else {
			fmt.Println("Not logged in.")
		}
		return nil
	},
}

// staging commands
var addCmd = &cobra.Command{
	Use:   "add PATH...",
	Short: "Stage files and folders for sending",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flat, _ := cmd.Flags().GetBool("flat")

		a, err := newApp(cmd, "add", args)
		if err != nil {
			return err
		}
		defer a.Close()

		var count int
		err = withInterrupts(a, func(ctx context.Context) error {
			count, err = a.AddPaths(ctx, args, flat)
			return err
		})
		fmt.Printf("Staged %d file(s)\n", count)
		if err != nil {
			a.Fail()
			return err
		}
		return nil
	},
}

var stagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "List staged files",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "staged", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.VerifyStaged(); err != nil {
			a.Notifier().Warning(err.Error())
		}

		items, err := a.Staged()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Nothing staged.")
			return nil
		}
		for _, item := range items {
			fmt.Printf("%12d  %s\n", item.Size, item.Path)
		}
		fmt.Printf("%d file(s), %d bytes\n", len(items), transfer.TotalSize(items))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear staged files",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "clear", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ClearStaged(); err != nil {
			return err
		}
		fmt.Println("Staging area cleared.")
		return nil
	},
}

// send command
var sendCmd = &cobra.Command{
	Use:   "send [PATH...]",
	Short: "Upload staged files (and PATHs) to a recipient",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		from, _ := cmd.Flags().GetString("from")
		flat, _ := cmd.Flags().GetBool("flat")

		a, err := newApp(cmd, "send", args)
		if err != nil {
			return err
		}
		defer a.Close()

		form := a.NewForm()
		form.Recipient = to
		form.Sender = from
		if cmd.Flags().Changed("expires") {
			form.ExpirationDays, _ = cmd.Flags().GetInt("expires")
		}

		printer := app.NewProgressPrinter(os.Stdout, app.IsTerminal(os.Stdout))
		a.Service().OnProgress(printer.Update)

		var result *transfer.UploadResult
		err = withInterrupts(a, func(ctx context.Context) error {
			if len(args) > 0 {
				if _, err := a.AddPaths(ctx, args, flat); err != nil {
					return fmt.Errorf("staging: %w", err)
				}
			}
			var err error
			if result, err = a.Send(ctx, form); err != nil && submitReported(err) {
				return reportedError{err}
			}
			return err
		})
		if err != nil {
			a.Fail()
			return err
		}

		fmt.Printf("Transfer ID: %s\n", result.TransferID)
		return nil
	},
}

// download commands
var transferCmd = &cobra.Command{
	Use:   "transfer ID",
	Short: "List the files behind a transfer link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "transfer", args)
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.Transfer(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, f := range info.Files {
			fmt.Printf("%12d  %s\n", f.Size, f.Name)
		}
		if !info.ExpiresAt.IsZero() {
			fmt.Printf("Expires: %s\n", info.ExpiresAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download ID",
	Short: "Download the payload behind a transfer link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sinkName, _ := cmd.Flags().GetString("sink")

		a, err := newApp(cmd, "download", args)
		if err != nil {
			return err
		}
		defer a.Close()

		var loc string
		err = withInterrupts(a, func(ctx context.Context) error {
			loc, err = a.Download(ctx, args[0], sinkName)
			return err
		})
		if err != nil {
			a.Fail()
			return err
		}
		fmt.Printf("Saved to %s\n", loc)
		return nil
	},
}

// smtp commands
var smtpCmd = &cobra.Command{
	Use:   "smtp",
	Short: "Manage the server's SMTP settings",
}

var smtpSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save SMTP settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "smtp-save", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		settings := a.SMTPDefaults()
		in := bufio.NewReader(os.Stdin)
		fields := []struct {
			prompt string
			value  *string
		}{
			{"SMTP server", &settings.Server},
			{"SMTP port", &settings.Port},
			{"SMTP user", &settings.User},
			{"Sender email", &settings.SenderEmail},
		}
		for _, f := range fields {
			if *f.value, err = promptDefault(in, f.prompt, *f.value, os.Stdout); err != nil {
				return err
			}
		}
		if settings.Password, err = promptPassword("SMTP password", os.Stdout); err != nil {
			return err
		}

		if err := a.SaveSMTPSettings(cmd.Context(), settings); err != nil {
			a.Fail()
			return err
		}
		a.Notifier().Success("SMTP settings saved.")
		return nil
	},
}

var smtpTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test email",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "smtp-test", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		msg, err := a.TestSMTP(cmd.Context())
		if err != nil {
			a.Fail()
			return err
		}
		a.Notifier().Success(msg)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recent transfers",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "history", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.History(limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No transfers recorded.")
			return nil
		}

		for _, r := range records {
			duration := ""
			if r.FinishedAt != nil {
				duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("%s  %-9s  %-28s  %3d file(s)  %-10s  %s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Status,
				r.Recipient,
				r.ItemCount,
				duration,
				r.TransferID,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Echo debug logs to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	// session
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringP("username", "u", "", "Username (prompted when empty)")
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	// staging
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().Bool("flat", false, "Stage files at the root and reject folders")
	rootCmd.AddCommand(stagedCmd)
	rootCmd.AddCommand(clearCmd)

	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().String("to", "", "Recipient email address")
	sendCmd.Flags().String("from", "", "Sender email address")
	sendCmd.Flags().IntP("expires", "e", transfer.DefaultExpirationDays, "Days until the link expires (3, 5, 7 or 10)")
	sendCmd.Flags().Bool("flat", false, "Stage PATHs at the root and reject folders")

	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().String("sink", "", "Sink to save into (default: first configured)")

	smtpCmd.AddCommand(smtpSaveCmd)
	smtpCmd.AddCommand(smtpTestCmd)
	rootCmd.AddCommand(smtpCmd)

	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of transfers to show")
}
