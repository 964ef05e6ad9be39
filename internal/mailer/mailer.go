// Package mailer turns queued mail messages into SMTP messages.
package mailer

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/taskmaster-dev/task-master/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

// ErrUnknownType marks a message whose type has no template.
var ErrUnknownType = errors.New("unsupported mail type")

type kind struct {
	template string
	subject  string
	data     func() any
}

var kinds = map[string]kind{
	domain.MailTypeWelcome: {
		template: "welcome_email.html",
		subject:  "Task Master - Welcome",
		data:     func() any { return &domain.WelcomeMailData{} },
	},
	domain.MailTypeTaskAssigned: {
		template: "task_assigned_email.html",
		subject:  "Task Master - New task assigned",
		data:     func() any { return &domain.TaskAssignedMailData{} },
	},
}

type Composer struct {
	from      string
	templates fs.FS
}

func NewComposer(from string, templates fs.FS) *Composer {
	return &Composer{
		from:      from,
		templates: templates,
	}
}

// Compose decodes a queued message body and renders it. Every error is
// permanent: retrying the same body fails the same way.
func (c *Composer) Compose(body []byte) (*mail.Msg, error) {
	var envelope struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	k, ok := kinds[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, envelope.Type)
	}

	data := k.data()
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", envelope.Type, err)
		}
	}

	tmpl, err := template.ParseFS(c.templates, k.template)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(c.from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(envelope.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(k.subject)
	if err := msg.SetBodyHTMLTemplate(tmpl, data); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	return msg, nil
}
