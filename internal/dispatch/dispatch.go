// Package dispatch routes resolved channel messages to their providers.
// Retry, backoff and per-attempt timeouts live here, behind the
// collaborator boundary, so scheduling loops never block on provider I/O
// beyond the configured budget.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/campaign"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/domain"
	"github.com/hadrianfebri/CustomerRelationshipManager-sub000/internal/pkg/logger"
)

// Message is one channel send.
type Message struct {
	Channel    domain.Channel
	To         string
	Subject    string
	Body       string
	SendAt     time.Time
	ContactID  string
	SequenceID string
}

// Sender delivers messages for one channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher fans messages out to per-channel senders with bounded retry.
// It satisfies the sequencer's dispatch contract and the calendar
// notifier contract.
type Dispatcher struct {
	senders        map[domain.Channel]Sender
	fallback       Sender
	metrics        *Metrics
	maxAttempts    int
	backoff        time.Duration
	attemptTimeout time.Duration
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		senders:        make(map[domain.Channel]Sender),
		metrics:        NewMetrics(),
		maxAttempts:    3,
		backoff:        500 * time.Millisecond,
		attemptTimeout: 10 * time.Second,
	}
}

// RegisterSender routes a channel to a sender.
func (d *Dispatcher) RegisterSender(ch domain.Channel, s Sender) {
	d.senders[ch] = s
}

// SetFallback handles channels with no registered sender.
func (d *Dispatcher) SetFallback(s Sender) { d.fallback = s }

// Metrics exposes the per-sequence delivery counters.
func (d *Dispatcher) Metrics() *Metrics { return d.metrics }

// Send delivers one message with exponential backoff. Permanent failure
// after all attempts is logged and counted, then returned so callers can
// record the outcome; it never panics or blocks past the retry budget.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	sender, ok := d.senders[msg.Channel]
	if !ok {
		sender = d.fallback
	}
	if sender == nil {
		d.metrics.Record(msg.SequenceID, false)
		return fmt.Errorf("no sender registered for channel %q", msg.Channel)
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
		lastErr = sender.Send(attemptCtx, msg)
		cancel()
		if lastErr == nil {
			d.metrics.Record(msg.SequenceID, true)
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < d.maxAttempts {
			wait := d.backoff * time.Duration(1<<(attempt-1))
			logger.Warn("dispatch attempt failed, retrying",
				"channel", string(msg.Channel), "recipient", msg.To,
				"attempt", attempt, "error", lastErr.Error())
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				attempt = d.maxAttempts
			}
		}
	}

	d.metrics.Record(msg.SequenceID, false)
	log.Printf("[Dispatch] permanent failure channel=%s after %d attempts: %v", msg.Channel, d.maxAttempts, lastErr)
	return fmt.Errorf("dispatch %s: %w", msg.Channel, lastErr)
}

// Dispatch adapts sequencer deliveries onto Send.
func (d *Dispatcher) Dispatch(ctx context.Context, delivery campaign.Delivery) error {
	return d.Send(ctx, Message{
		Channel:    delivery.Channel,
		To:         delivery.To,
		Subject:    delivery.Subject,
		Body:       delivery.Body,
		SendAt:     delivery.SendAt,
		ContactID:  delivery.ContactID,
		SequenceID: delivery.SequenceID,
	})
}

// SendInvitation emails a meeting invitation to the event's attendees.
func (d *Dispatcher) SendInvitation(ctx context.Context, event domain.CalendarEvent) error {
	return d.sendEventMail(ctx, event,
		fmt.Sprintf("Invitation: %s", event.Title),
		fmt.Sprintf("You are invited to %q on %s.", event.Title, event.StartTime.Format(time.RFC1123)))
}

// SendReminder emails a reminder ahead of the meeting start.
func (d *Dispatcher) SendReminder(ctx context.Context, event domain.CalendarEvent) error {
	return d.sendEventMail(ctx, event,
		fmt.Sprintf("Reminder: %s", event.Title),
		fmt.Sprintf("Your meeting %q starts at %s.", event.Title, event.StartTime.Format(time.RFC1123)))
}

func (d *Dispatcher) sendEventMail(ctx context.Context, event domain.CalendarEvent, subject, body string) error {
	var lastErr error
	for _, to := range event.Attendees {
		msg := Message{
			Channel: domain.ChannelEmail,
			To:      to,
			Subject: subject,
			Body:    body,
			SendAt:  time.Now(),
		}
		if event.ContactID != nil {
			msg.ContactID = *event.ContactID
		}
		if err := d.Send(ctx, msg); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
