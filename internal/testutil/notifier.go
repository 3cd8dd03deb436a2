package testutil

import "sync"

// Notification is one message captured by RecordingNotifier.
type Notification struct {
	Level   string
	Message string
}

// RecordingNotifier captures notifications for assertions.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) record(level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{Level: level, Message: msg})
}

func (n *RecordingNotifier) Info(msg string)    { n.record("info", msg) }
func (n *RecordingNotifier) Success(msg string) { n.record("success", msg) }
func (n *RecordingNotifier) Warning(msg string) { n.record("warning", msg) }
func (n *RecordingNotifier) Error(msg string)   { n.record("error", msg) }

// All returns every notification in order.
func (n *RecordingNotifier) All() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.sent))
	copy(out, n.sent)
	return out
}

// Last returns the most recent notification, or the zero value.
func (n *RecordingNotifier) Last() Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return Notification{}
	}
	return n.sent[len(n.sent)-1]
}
