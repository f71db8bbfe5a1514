// Package messaging sends templated outbound messages to customers. The SMS
// gateway integration lives behind the Messenger interface; the default
// implementation only records the send, which is what non-production
// environments run with.
package messaging

import (
	"context"
	"log/slog"
)

// TemplateWelcome greets a newly registered customer.
const TemplateWelcome = "welcome"

// Messenger delivers one templated message to a phone number.
type Messenger interface {
	SendTemplate(ctx context.Context, phone, template string, vars map[string]string) error
}

// LogMessenger records sends to the structured log instead of delivering
// them.
type LogMessenger struct{}

// SendTemplate implements Messenger.
func (LogMessenger) SendTemplate(ctx context.Context, phone, template string, vars map[string]string) error {
	slog.Info("outbound message", "phone", phone, "template", template, "vars", vars)
	return nil
}
