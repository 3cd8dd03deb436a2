package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"itransfer/internal/archive"
	"itransfer/internal/client"
	"itransfer/internal/config"
	"itransfer/internal/database"
	"itransfer/internal/encryption"
	"itransfer/internal/fs"
	"itransfer/internal/session"
	"itransfer/internal/sink"
	"itransfer/internal/staging"
	"itransfer/internal/transfer"
)

// ITransferApp is the application layer between the CLI and transfer.Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and releases resources on Close.
type ITransferApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	staging   transfer.StagingArea
	fsmgr     *fs.OSFilesystemManager
	encryptor encryption.Encryptor
	session   *session.Store
	client    *client.Client
	notifier  transfer.Notifier
	service   *transfer.Service
	clock     transfer.Clock
	op        *Operation
	logger    *slog.Logger
	logFile   *os.File
}

// Options tune how the app talks to the user.
type Options struct {
	// Out receives notices. Defaults to os.Stdout.
	Out io.Writer
	// Verbose echoes debug logs to stderr; otherwise only warnings and errors.
	Verbose bool
	// Args are recorded with the operation.
	Args []string
}

// NewITransferApp creates a fully wired app from cfg.
// operation identifies the CLI command being run (e.g. "send", "download").
// The caller must call Close when done.
func NewITransferApp(cfg *config.Config, operation string, opts Options) (*ITransferApp, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	stderrLevel := slog.LevelWarn
	if opts.Verbose {
		stderrLevel = slog.LevelDebug
	}

	clock := transfer.RealClock{}
	op := NewOperation(operation, opts.Args, clock.Now())

	logger, logFile, err := newLogger(cfg.LogDir, op.ID, stderrLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	a := &ITransferApp{
		cfg:     cfg,
		fsmgr:   fs.NewOSFilesystemManager(),
		clock:   clock,
		op:      op,
		logger:  logger,
		logFile: logFile,
	}
	if err := a.wire(log, opts.Out); err != nil {
		a.Close()
		return nil, err
	}

	logger.Debug("operation started", "operation", op.Name, "params", op.Parameters)
	return a, nil
}

func (a *ITransferApp) wire(log transfer.Logger, out io.Writer) error {
	cfg := a.cfg

	sa, err := staging.NewStagingAreaFromConfig(cfg.Staging)
	if err != nil {
		return fmt.Errorf("creating staging area: %w", err)
	}
	a.staging = sa

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	a.db = db
	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	a.encryptor = enc
	a.session = session.NewStore(cfg.Session.Path, enc)

	ignore, err := a.ignoreMatcher()
	if err != nil {
		return err
	}

	a.client = client.NewClient(BackendURL(cfg.BackendURL), nil, transfer.UUIDGenerator{}, log)
	a.notifier = NewTerminalNotifier(out)
	a.service = transfer.NewService(
		sa,
		transfer.NewWalker(ignore, log),
		archive.NewZipArchiver(a.clock, log),
		a.client,
		db,
		a.notifier,
		log,
		a.clock,
		transfer.UUIDGenerator{},
	)
	return nil
}

// ignoreMatcher combines the configured patterns with <base_dir>/ignore.
func (a *ITransferApp) ignoreMatcher() (*fs.IgnoreMatcher, error) {
	patterns := append([]string{}, a.cfg.Filesystem.Ignore...)
	if a.cfg.BaseDir != "" {
		filePatterns, err := fs.ParseIgnoreFile(filepath.Join(a.cfg.BaseDir, fs.IgnoreFileName))
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, filePatterns...)
	}
	return fs.NewIgnoreMatcher(patterns), nil
}

// Service exposes the pipeline for progress reporting and the exit guard.
func (a *ITransferApp) Service() *transfer.Service {
	return a.service
}

// Notifier returns the notifier used for user-facing notices.
func (a *ITransferApp) Notifier() transfer.Notifier {
	return a.notifier
}

// Fail marks the current operation as failed; it is logged on Close.
func (a *ITransferApp) Fail() {
	a.op.Fail()
}

// Login exchanges credentials for a token and stores it.
func (a *ITransferApp) Login(ctx context.Context, username, password string) error {
	if !a.encryptor.IsConfigured() {
		return encryption.ErrNotConfigured
	}
	token, err := a.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := a.session.Save(token); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	a.logger.Info("logged in", "user", username)
	return nil
}

// Logout removes the stored session.
func (a *ITransferApp) Logout() error {
	return a.session.Clear()
}

// Auth returns the stored auth state.
func (a *ITransferApp) Auth() (transfer.AuthState, error) {
	return a.session.Load()
}

// authenticate loads the session and hands its token to the client.
// Operations behind the login screen call it first.
func (a *ITransferApp) authenticate() error {
	state, err := a.session.Load()
	if err != nil {
		return err
	}
	token, err := state.Require()
	if err != nil {
		return fmt.Errorf("%w: run 'itransfer login' first", err)
	}
	a.client.SetToken(token)
	return nil
}

// AddPaths resolves the given paths and stages their contents.
// With flat set, only files are accepted and each is staged at the root.
// Returns the number of items staged.
func (a *ITransferApp) AddPaths(ctx context.Context, rawPaths []string, flat bool) (int, error) {
	entries, err := a.fsmgr.ResolveAll(rawPaths)
	if err != nil {
		return 0, fmt.Errorf("resolving paths: %w", err)
	}
	return a.service.Stage(ctx, entries, flat)
}

// Staged returns the items waiting to be sent.
func (a *ITransferApp) Staged() ([]transfer.UploadItem, error) {
	return a.service.Staged()
}

// ClearStaged empties the staging area.
func (a *ITransferApp) ClearStaged() error {
	return a.service.Clear()
}

// VerifyStaged checks staged files against the disk when the staging area
// supports it.
func (a *ITransferApp) VerifyStaged() error {
	if v, ok := a.staging.(interface{ Verify() error }); ok {
		return v.Verify()
	}
	return nil
}

// Send submits everything staged to the backend.
func (a *ITransferApp) Send(ctx context.Context, form *transfer.Form) (*transfer.UploadResult, error) {
	if err := a.authenticate(); err != nil {
		return nil, err
	}
	return a.service.Submit(ctx, form)
}

// NewForm returns a form with the configured default expiration.
func (a *ITransferApp) NewForm() *transfer.Form {
	days := a.cfg.DefaultExpirationDays
	if days == 0 {
		days = transfer.DefaultExpirationDays
	}
	return transfer.NewForm(days)
}

// Transfer returns the file list behind a transfer link.
func (a *ITransferApp) Transfer(ctx context.Context, id string) (*transfer.TransferInfo, error) {
	return a.client.Transfer(ctx, id)
}

// Download fetches the payload behind a transfer link into the named sink
// (the first configured sink when sinkName is empty) and returns where it
// was stored.
func (a *ITransferApp) Download(ctx context.Context, id, sinkName string) (string, error) {
	sinkCfg, err := a.cfg.Sink(sinkName)
	if err != nil {
		return "", err
	}
	dest, err := sink.NewSinkFromConfig(ctx, sinkCfg)
	if err != nil {
		return "", fmt.Errorf("creating sink: %w", err)
	}

	info, err := a.client.Transfer(ctx, id)
	if err != nil {
		return "", err
	}

	body, size, err := a.client.Download(ctx, id)
	if err != nil {
		return "", err
	}
	defer body.Close()

	name := DownloadName(info, a.clock.Now())
	loc, err := dest.Put(ctx, name, body, size)
	if err != nil {
		return "", fmt.Errorf("saving %s: %w", name, err)
	}
	a.logger.Info("transfer downloaded", "id", id, "sink", dest.Name(), "location", loc)
	return loc, nil
}

// SaveSMTPSettings stores the outbound-mail settings on the backend.
func (a *ITransferApp) SaveSMTPSettings(ctx context.Context, settings transfer.SMTPSettings) error {
	if err := a.authenticate(); err != nil {
		return err
	}
	return a.client.SaveSMTPSettings(ctx, settings)
}

// TestSMTP asks the backend to send a test email.
func (a *ITransferApp) TestSMTP(ctx context.Context) (string, error) {
	if err := a.authenticate(); err != nil {
		return "", err
	}
	return a.client.TestSMTP(ctx)
}

// SMTPDefaults returns the settings preloaded from the [smtp] config section.
func (a *ITransferApp) SMTPDefaults() transfer.SMTPSettings {
	return transfer.SMTPSettings{
		Server:      a.cfg.SMTP.Server,
		Port:        a.cfg.SMTP.Port,
		User:        a.cfg.SMTP.User,
		SenderEmail: a.cfg.SMTP.SenderEmail,
	}
}

// History returns the most recent submissions, newest first.
func (a *ITransferApp) History(limit int) ([]*transfer.TransferRecord, error) {
	return a.db.ListTransferRecords(limit)
}

// Close logs the operation outcome and closes all resources.
func (a *ITransferApp) Close() error {
	var errs []error

	if a.logger != nil {
		a.logger.Debug("operation finished",
			"operation", a.op.Name,
			"status", a.op.Status,
			"elapsed", a.op.Elapsed(a.clock.Now()).Round(time.Millisecond))
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return errors.Join(errs...)
}
