// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
)

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPTransport sends mail through one SMTP server.
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
	useTLS   bool
	timeout  time.Duration
	now      func() time.Time
}

// NewSMTPTransport creates a transport for cfg.
func NewSMTPTransport(cfg *config.EmailConfig) *SMTPTransport {
	return &SMTPTransport{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		useTLS:   cfg.UseTLS,
		timeout:  30 * time.Second,
		now:      time.Now,
	}
}

// Send delivers msg. The envelope sender is the bare From address.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	body, err := msg.Bytes(t.now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	dialer := &net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }() //nolint:errcheck // Best effort cleanup

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline) //nolint:errcheck // Dial already succeeded
	} else {
		_ = conn.SetDeadline(time.Now().Add(t.timeout)) //nolint:errcheck // Dial already succeeded
	}

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }() //nolint:errcheck // Best effort cleanup

	if t.useTLS {
		tlsConfig := &tls.Config{
			ServerName: t.host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if t.username != "" && t.password != "" {
		auth := smtp.PlainAuth("", t.username, t.password, t.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(msg.From.Address); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write(body); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// The message is accepted once DATA closes; a failed QUIT changes nothing.
	_ = client.Quit() //nolint:errcheck // Message already delivered
	return nil
}

// LogTransport writes messages to the log instead of sending them.
type LogTransport struct {
	logger zerolog.Logger
}

// NewLogTransport creates a LogTransport on the "email" component logger.
func NewLogTransport() *LogTransport {
	return &LogTransport{logger: logging.WithComponent("email")}
}

// NewLogTransportWithLogger creates a LogTransport writing to logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewLogTransportWithLogger(logger zerolog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Send logs the recipient, subject and plain text body.
func (t *LogTransport) Send(_ context.Context, msg *Message) error {
	t.logger.Info().
		Str("from", msg.From.String()).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("Email not sent, no SMTP host configured")
	return nil
}
