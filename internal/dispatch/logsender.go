package dispatch

import (
	"context"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/logger"
)

// LogSender writes messages to the structured log instead of a provider.
// Used for channels without a wired provider (sms, whatsapp, push, task,
// alert) and for local development.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logger.Info("channel message",
		"channel", string(msg.Channel),
		"recipient", msg.To,
		"subject", msg.Subject,
		"contact_id", msg.ContactID,
		"sequence_id", msg.SequenceID,
		"send_at", msg.SendAt.Format("2006-01-02T15:04:05Z07:00"),
	)
	return nil
}
