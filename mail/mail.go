// Package mail forwards composed notification emails to an outbound mail
// server using credentials held by the service.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrNotConfigured = errors.New("server configuration error")
	ErrSendFailed    = errors.New("failed to send email")
)

// DefaultFromName is the display name used on outgoing notifications.
const DefaultFromName = "好家改造官网"

// Config holds the outbound account. User and Password are required at send
// time; Recipient falls back to User.
type Config struct {
	User      string
	Password  string
	Recipient string
	FromName  string
}

// Message is a single outgoing email.
type Message struct {
	From    mail.Address
	To      string
	Subject string
	HTML    string
}

// Transport delivers a message using the given account credentials.
type Transport interface {
	Send(ctx context.Context, user, password string, msg Message) error
}

// Relay validates a subject/body pair and hands it to the transport. It holds
// no state between calls.
type Relay struct {
	cfg       Config
	transport Transport
	log       *otelzap.SugaredLogger
}

func NewRelay(cfg Config, transport Transport, log *otelzap.SugaredLogger) *Relay {
	return &Relay{
		cfg:       cfg,
		transport: transport,
		log:       log,
	}
}

// Send emails subject and html to the notification recipient.
func (r *Relay) Send(ctx context.Context, subject, html string) error {
	if subject == "" || html == "" {
		return ErrMissingFields
	}

	if r.cfg.User == "" || r.cfg.Password == "" {
		r.log.Ctx(ctx).Errorw("relay", "status", "missing outbound mail configuration")
		return ErrNotConfigured
	}

	msg := r.message(subject, html)
	if err := r.transport.Send(ctx, r.cfg.User, r.cfg.Password, msg); err != nil {
		r.log.Ctx(ctx).Errorw("relay", "status", "sending email", "to", msg.To, "error", err)
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	r.log.Ctx(ctx).Infow("relay", "status", "email sent", "to", msg.To)
	return nil
}

func (r *Relay) message(subject, html string) Message {
	name := r.cfg.FromName
	if name == "" {
		name = DefaultFromName
	}

	to := r.cfg.Recipient
	if to == "" {
		to = r.cfg.User
	}

	return Message{
		From:    mail.Address{Name: name, Address: r.cfg.User},
		To:      to,
		Subject: subject,
		HTML:    html,
	}
}

// recipients splits a comma separated address list.
func recipients(to string) []string {
	var out []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
