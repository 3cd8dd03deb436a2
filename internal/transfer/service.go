package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Phase names the two progress counters exposed while submitting.
type Phase string

const (
	PhaseCompressing Phase = "compressing"
	PhaseUploading   Phase = "uploading"
)

// Status is a snapshot of the form's progress.
type Status struct {
	State       State
	Compression int
	Upload      int
}

// Service orchestrates the upload pipeline: walk entries into the staging
// area, bundle multiple items into an archive, submit to the backend, and
// notify the user of the outcome.
type Service struct {
	staging  StagingArea
	walker   *Walker
	archiver Archiver
	backend  Backend
	history  History
	notifier Notifier
	logger   Logger
	clock    Clock
	idgen    IDGenerator

	machine *Machine

	mu          sync.Mutex
	cancel      context.CancelFunc
	compression int
	upload      int
	onProgress  func(Phase, int)
}

// NewService creates a Service. history may be nil, in which case
// submissions are not recorded.
func NewService(staging StagingArea, walker *Walker, archiver Archiver, backend Backend, history History, notifier Notifier, logger Logger, clock Clock, idgen IDGenerator) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Service{
		staging:  staging,
		walker:   walker,
		archiver: archiver,
		backend:  backend,
		history:  history,
		notifier: notifier,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
		machine:  NewMachine(),
	}
}

// OnProgress registers fn to receive every progress update.
func (s *Service) OnProgress(fn func(Phase, int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onProgress = fn
}

// Status returns the current state and progress counters.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:       s.machine.State(),
		Compression: s.compression,
		Upload:      s.upload,
	}
}

// ShouldWarnOnExit reports whether leaving now would interrupt work: an
// archive is being built or an upload is partway through.
func (s *Service) ShouldWarnOnExit() bool {
	st := s.Status()
	return st.State == StateCompressing || (st.Upload > 0 && st.Upload < 100)
}

// Stage expands entries and appends the result to the staging area.
// With flat set, entries are treated as a file-picker selection: files are
// staged at the root and directories are rejected.
// Items that could be read are staged even when others fail.
func (s *Service) Stage(ctx context.Context, entries []Entry, flat bool) (int, error) {
	if err := s.machine.Begin(StateCollecting); err != nil {
		return 0, err
	}
	defer s.machine.Transition(StateIdle)

	var items []UploadItem
	var walkErr error
	if flat {
		items, walkErr = s.walker.Files(entries)
	} else {
		items, walkErr = s.walker.Walk(ctx, entries)
	}

	if len(items) > 0 {
		if err := s.staging.Add(items...); err != nil {
			s.notifier.Error(err.Error())
			return 0, fmt.Errorf("staging files: %w", err)
		}
	}

	if walkErr != nil {
		s.logger.Warn("some entries could not be read", "error", walkErr)
		s.notifier.Warning(MsgCollectFailed)
		return len(items), walkErr
	}

	s.logger.Info("files staged", "count", len(items))
	return len(items), nil
}

// Staged returns the staged items.
func (s *Service) Staged() ([]UploadItem, error) {
	return s.staging.List()
}

// Clear empties the staging area.
func (s *Service) Clear() error {
	if s.machine.Busy() {
		return ErrBusy
	}
	return s.staging.Clear()
}

// Cancel aborts an in-flight upload. It returns false when nothing
// cancellable is running; archive builds cannot be cancelled.
func (s *Service) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

// Submit validates the form and sends the staged items to the backend.
//
// A single staged item is uploaded as-is; several are first bundled into one
// archive. Only a clean success resets the form and the staging area; a
// warning, a rejection or a network failure leave everything in place for a retry.
func (s *Service) Submit(ctx context.Context, form *Form) (*UploadResult, error) {
	items, err := s.staging.List()
	if err != nil {
		return nil, fmt.Errorf("listing staged files: %w", err)
	}

	if err := form.Validate(len(items)); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.notifier.Error(verr.Message)
		}
		return nil, err
	}

	if err := CheckSizes(items); err != nil {
		s.logger.Warn("staged files changed on disk", "error", err)
		s.notifier.Error(err.Error())
		return nil, err
	}

	first := StateUploading
	if len(items) > 1 {
		first = StateCompressing
	}
	if err := s.machine.Begin(first); err != nil {
		return nil, err
	}
	s.clearProgress(PhaseCompressing, PhaseUploading)

	req := &UploadRequest{
		Recipient:      form.Recipient,
		Sender:         form.Sender,
		ExpirationDays: form.ExpirationDays,
		Manifest:       Manifest(items),
	}

	var archiveName string
	if len(items) > 1 {
		archive, err := s.archiver.Build(items, s.progressFunc(PhaseCompressing))
		if err != nil {
			s.machine.Transition(StateFailed)
			s.logger.Error("building archive failed", "error", err)
			s.notifier.Error(failureMessage(err))
			rec := s.startRecord(form, items, "")
			s.finishRecord(rec, StatusFailed, "", err.Error())
			return nil, fmt.Errorf("building archive: %w", err)
		}
		archiveName = archive.Name
		req.Parts = []UploadPart{{
			Filename: archive.Name,
			Path:     "/" + archive.Name,
			Size:     archive.Size(),
			Content:  archive,
		}}
		if err := s.machine.Transition(StateUploading); err != nil {
			return nil, err
		}
		s.logger.Info("archive built", "name", archive.Name, "size", archive.Size(), "items", len(items))
	} else {
		for _, item := range items {
			req.Parts = append(req.Parts, UploadPart{
				Filename: item.Name,
				Path:     item.Path,
				Size:     item.Size,
				Content:  item,
			})
		}
	}

	rec := s.startRecord(form, items, archiveName)

	uploadCtx, cancel := context.WithCancel(ctx)
	s.setCancel(cancel)
	result, err := s.backend.Upload(uploadCtx, req, s.progressFunc(PhaseUploading))
	s.setCancel(nil)
	cancel()

	return s.finish(rec, form, result, err)
}

func (s *Service) finish(rec *TransferRecord, form *Form, result *UploadResult, err error) (*UploadResult, error) {
	var httpErr *HTTPError
	var netErr *NetworkError

	switch {
	case err == nil && !result.Warning:
		s.machine.Transition(StateSucceeded)
		s.finishRecord(rec, StatusSucceeded, result.TransferID, result.Message)
		s.logger.Info("upload complete", "transfer_id", result.TransferID)
		s.notifier.Success(MsgUploaded)
		if err := s.reset(form); err != nil {
			return result, err
		}
		return result, nil

	case err == nil:
		s.machine.Transition(StateSucceeded)
		s.finishRecord(rec, StatusWarning, result.TransferID, result.WarningMessage)
		s.logger.Warn("upload complete with notification problem", "transfer_id", result.TransferID, "warning", result.WarningMessage)
		s.notifier.Warning(MsgUploadedWarning)
		return result, nil

	case errors.Is(err, context.Canceled):
		s.clearProgress(PhaseUploading)
		s.machine.Transition(StateCancelled)
		s.finishRecord(rec, StatusCancelled, "", "")
		s.logger.Info("upload cancelled")
		return nil, ErrCancelled

	case errors.As(err, &httpErr):
		s.machine.Transition(StateFailed)
		s.finishRecord(rec, StatusFailed, "", err.Error())
		s.logger.Error("upload rejected", "status", httpErr.StatusCode, "error", err)
		s.notifier.Error(MsgUploadFailed)
		return nil, err

	case errors.As(err, &netErr):
		s.machine.Transition(StateFailed)
		s.finishRecord(rec, StatusFailed, "", err.Error())
		s.logger.Error("upload network failure", "error", err)
		s.notifier.Error(MsgNetworkFailed)
		return nil, err

	default:
		s.machine.Transition(StateFailed)
		s.finishRecord(rec, StatusFailed, "", err.Error())
		s.logger.Error("upload failed", "error", err)
		s.notifier.Error(failureMessage(err))
		return nil, err
	}
}

// reset returns the form to its initial values after a successful submission.
func (s *Service) reset(form *Form) error {
	form.Reset()
	s.clearProgress(PhaseCompressing, PhaseUploading)
	if err := s.staging.Clear(); err != nil {
		return fmt.Errorf("clearing staged files: %w", err)
	}
	return nil
}

// failureMessage is the notification for errors that are neither a backend
// rejection nor a network failure.
func failureMessage(err error) string {
	var sizeErr *SizeChangedError
	if errors.As(err, &sizeErr) {
		return sizeErr.Error()
	}
	return MsgInternalFailed
}

// clearProgress zeroes the counters of the given phases and reports each
// one that was not already zero to the progress listener.
func (s *Service) clearProgress(phases ...Phase) {
	s.mu.Lock()
	var changed []Phase
	for _, phase := range phases {
		counter := &s.upload
		if phase == PhaseCompressing {
			counter = &s.compression
		}
		if *counter != 0 {
			*counter = 0
			changed = append(changed, phase)
		}
	}
	fn := s.onProgress
	s.mu.Unlock()

	if fn == nil {
		return
	}
	for _, phase := range changed {
		fn(phase, 0)
	}
}

func (s *Service) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

func (s *Service) progressFunc(phase Phase) ProgressFunc {
	tracker := NewProgressTracker(func(p int) {
		s.mu.Lock()
		if phase == PhaseCompressing {
			s.compression = p
		} else {
			s.upload = p
		}
		fn := s.onProgress
		s.mu.Unlock()
		if fn != nil {
			fn(phase, p)
		}
	})
	return tracker.Report
}

func (s *Service) startRecord(form *Form, items []UploadItem, archiveName string) *TransferRecord {
	rec := &TransferRecord{
		ID:             s.idgen.New(),
		Recipient:      form.Recipient,
		Sender:         form.Sender,
		ExpirationDays: form.ExpirationDays,
		ItemCount:      len(items),
		TotalSize:      TotalSize(items),
		ArchiveName:    archiveName,
		Status:         StatusPending,
		StartedAt:      s.clock.Now(),
	}
	if s.history == nil {
		return rec
	}
	if err := s.history.CreateTransferRecord(rec); err != nil {
		s.logger.Warn("recording transfer failed", "error", err)
	}
	return rec
}

func (s *Service) finishRecord(rec *TransferRecord, status TransferStatus, transferID, message string) {
	if s.history == nil {
		return
	}
	if err := s.history.FinishTransferRecord(rec.ID, status, transferID, message, s.clock.Now()); err != nil {
		s.logger.Warn("updating transfer record failed", "id", rec.ID, "error", err)
	}
}
