// Package notify delivers customer-facing messages. The development backend
// has no mail relay, so messages go to the log.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/logging"
)

// Message is one outgoing notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier sends messages to customers.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Log writes every message to the logger at info level.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logging.OrNop(logger).Named("notify")}
}

func (l *Log) Notify(_ context.Context, msg Message) error {
	l.logger.Info("notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// Recorder keeps messages in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
}

func (r *Recorder) Notify(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

// Last returns the most recent message sent to addr.
func (r *Recorder) Last(addr string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].To == addr {
			return r.sent[i], true
		}
	}
	return Message{}, false
}
