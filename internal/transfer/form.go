package transfer

// Form holds the fields entered alongside the staged files.
type Form struct {
	Recipient      string
	Sender         string
	ExpirationDays int
}

// NewForm returns an empty form with the given expiration.
func NewForm(expirationDays int) *Form {
	if expirationDays == 0 {
		expirationDays = DefaultExpirationDays
	}
	return &Form{ExpirationDays: expirationDays}
}

// Validate checks the preconditions for a submission, in order: at least one
// staged item, a recipient, a sender, and a supported expiration.
// Email format is left to the backend.
func (f *Form) Validate(staged int) error {
	switch {
	case staged == 0:
		return &ValidationError{Field: "files", Message: MsgNoFiles}
	case f.Recipient == "":
		return &ValidationError{Field: "email", Message: MsgNoRecipient}
	case f.Sender == "":
		return &ValidationError{Field: "sender_email", Message: MsgNoSender}
	case !ValidExpiration(f.ExpirationDays):
		return &ValidationError{Field: "expiration_days", Message: MsgBadExpiration}
	}
	return nil
}

// Reset clears the email fields. The expiration choice is kept.
func (f *Form) Reset() {
	f.Recipient = ""
	f.Sender = ""
}
