// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package email

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"time"
)

// Message is one rendered email.
type Message struct {
	From    mail.Address
	To      string
	Subject string
	HTML    string
	Text    string
}

// Bytes encodes m as a multipart/alternative RFC 5322 message. The text
// part comes first so clients prefer the HTML part.
func (m *Message) Bytes(now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	headers := []struct{ key, value string }{
		{"From", m.From.String()},
		{"To", m.To},
		{"Subject", mime.QEncoding.Encode("utf-8", m.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary())},
	}
	for _, h := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.key, h.value)
	}
	buf.WriteString("\r\n")

	if err := writePart(mw, "text/plain", m.Text); err != nil {
		return nil, err
	}
	if err := writePart(mw, "text/html", m.HTML); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), nil
}

func writePart(mw *multipart.Writer, contentType, body string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType+"; charset=UTF-8")
	header.Set("Content-Transfer-Encoding", "quoted-printable")

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(body)); err != nil {
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	return qp.Close()
}
