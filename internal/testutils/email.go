package testutils

import (
	"context"
	"regexp"
	"sync"
)

// SentEmail is one message recorded by CaptureSender.
type SentEmail struct {
	To, Subject, Body string
}

// CaptureSender is a domain.EmailSender that records messages instead of
// sending them. Err, when set, is returned by every Send.
type CaptureSender struct {
	mu   sync.Mutex
	sent []SentEmail
	Err  error
}

// Send implements domain.EmailSender.
func (c *CaptureSender) Send(ctx context.Context, to, subject, body string) error {
	if c.Err != nil {
		return c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, SentEmail{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of the recorded messages.
func (c *CaptureSender) Sent() []SentEmail {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentEmail, len(c.sent))
	copy(out, c.sent)
	return out
}

var resetCodePattern = regexp.MustCompile(`code=([0-9A-Za-z%_-]+)`)

// ResetCode extracts the code query parameter from a reset email body, or
// returns "".
func ResetCode(body string) string {
	m := resetCodePattern.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return m[1]
}
