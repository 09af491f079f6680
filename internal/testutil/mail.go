package testutil

import (
	"context"
	"regexp"
	"sync"
)

// SentMail is one message captured by Mailer.
type SentMail struct {
	To      string
	Subject string
	Body    string
}

// Mailer records every message instead of delivering it.
type Mailer struct {
	mu   sync.Mutex
	sent []SentMail

	// Err, when set, is returned by Send after recording the attempt.
	Err error
}

func (m *Mailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMail{To: to, Subject: subject, Body: htmlBody})
	return m.Err
}

// Sent returns a copy of the captured messages.
func (m *Mailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// LastCode extracts the six digit code from the most recent mail to addr.
func (m *Mailer) LastCode(addr string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == addr {
			return codePattern.FindString(m.sent[i].Body)
		}
	}
	return ""
}
