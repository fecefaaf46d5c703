// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/mail"
	texttemplate "text/template"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
	"github.com/arko8919/cotswold-cycling-adventures/internal/metrics"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

// Template names, also used as the metrics label.
const (
	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "passwordReset"
)

// Subjects of the account emails.
const (
	SubjectWelcome       = "Welcome to the Cotswold Cycling family!"
	SubjectPasswordReset = "Your password reset token ( valid for only 10 minutes"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// templateData is what every template receives.
type templateData struct {
	FirstName string
	URL       string
	Subject   string
}

// Mailer renders account emails and hands them to a Transport.
type Mailer struct {
	transport Transport
	from      mail.Address
	html      *htmltemplate.Template
	text      *texttemplate.Template
}

// NewMailer builds a Mailer for cfg. An empty host selects LogTransport.
func NewMailer(cfg *config.EmailConfig) (*Mailer, error) {
	var transport Transport
	if cfg.Host == "" {
		transport = NewLogTransport()
	} else {
		transport = NewSMTPTransport(cfg)
	}
	return NewMailerWithTransport(cfg, transport)
}

// NewMailerWithTransport builds a Mailer that delivers through t.
func NewMailerWithTransport(cfg *config.EmailConfig, t Transport) (*Mailer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}

	return &Mailer{
		transport: t,
		from:      mail.Address{Name: cfg.FromName, Address: cfg.From},
		html:      html,
		text:      text,
	}, nil
}

// SendWelcome sends the welcome email pointing at url.
func (m *Mailer) SendWelcome(ctx context.Context, user *models.User, url string) error {
	return m.send(ctx, TemplateWelcome, SubjectWelcome, user, url)
}

// SendPasswordReset sends the reset link url.
func (m *Mailer) SendPasswordReset(ctx context.Context, user *models.User, url string) error {
	return m.send(ctx, TemplatePasswordReset, SubjectPasswordReset, user, url)
}

func (m *Mailer) send(ctx context.Context, template, subject string, user *models.User, url string) error {
	msg, err := m.render(template, subject, user, url)
	if err == nil {
		err = m.transport.Send(ctx, msg)
	}
	metrics.RecordEmail(template, err)

	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("template", template).
			Str("to", logging.SanitizeEmail(user.Email)).
			Msg("Failed to send email")
		return fmt.Errorf("send %s email: %w", template, err)
	}

	logging.Ctx(ctx).Info().
		Str("template", template).
		Str("to", logging.SanitizeEmail(user.Email)).
		Msg("Email sent")
	return nil
}

func (m *Mailer) render(template, subject string, user *models.User, url string) (*Message, error) {
	data := templateData{FirstName: user.FirstName(), URL: url, Subject: subject}

	var html, text bytes.Buffer
	if err := m.html.ExecuteTemplate(&html, template+".html", data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", template, err)
	}
	if err := m.text.ExecuteTemplate(&text, template+".txt", data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", template, err)
	}

	return &Message{
		From:    m.from,
		To:      user.Email,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
