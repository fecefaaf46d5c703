// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

/*
Package email renders and delivers account emails.

Two messages exist: the welcome email sent after signup and the password
reset email. Each is rendered from an embedded html/template and
text/template pair and sent as multipart/alternative.

Delivery goes through a Transport. SMTPTransport speaks SMTP with optional
STARTTLS and PLAIN auth. LogTransport writes the message to the log and is
selected when no SMTP host is configured, which suits local development.

Usage:

	mailer, err := email.NewMailer(&cfg.Email)
	if err != nil {
	    return err
	}
	err = mailer.SendWelcome(ctx, user, baseURL+"/me")
*/
package email
