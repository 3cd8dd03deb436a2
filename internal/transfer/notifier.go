package transfer

// Notifier surfaces terminal outcomes to the user.
type Notifier interface {
	Info(msg string)
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Info(string)    {}
func (NopNotifier) Success(string) {}
func (NopNotifier) Warning(string) {}
func (NopNotifier) Error(string)   {}

// User-facing messages for the submission outcomes.
const (
	MsgNoFiles         = "Please select at least one file."
	MsgNoRecipient     = "Please fill in the recipient's email address."
	MsgNoSender        = "Please fill in your email address."
	MsgBadExpiration   = "Please choose an expiration of 3, 5, 7 or 10 days."
	MsgUploaded        = "The files were uploaded and the notifications were sent."
	MsgUploadedWarning = "The files were uploaded but there was a problem sending the notifications."
	MsgUploadFailed    = "An error occurred during the upload. Please check that the email addresses are valid and try again."
	MsgNetworkFailed   = "A network error occurred. Please check your connection and try again."
	MsgInternalFailed  = "An error occurred during the upload."
	MsgCollectFailed   = "Some files could not be read and were not added."
)
