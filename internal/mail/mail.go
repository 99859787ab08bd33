// Package mail 把队列中的邮件消息渲染成可以发送的邮件
package mail

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/sysu-ecnc-dev/nail-salon/backend/internal/domain"
	gomail "github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var embedded embed.FS

var (
	ErrMalformedMessage = errors.New("malformed mail message")
	ErrUnsupportedType  = errors.New("unsupported mail type")
)

// DefaultTemplates 返回编译进二进制的邮件模板
func DefaultTemplates() fs.FS {
	sub, _ := fs.Sub(embedded, "templates")
	return sub
}

type queuedMessage struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type view struct {
	SalonName string
	Data      any
}

type Composer struct {
	from      string
	salonName string
	templates *template.Template
}

func NewComposer(from, salonName string, templates fs.FS) (*Composer, error) {
	tmpl, err := template.ParseFS(templates, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}

	return &Composer{
		from:      from,
		salonName: salonName,
		templates: tmpl,
	}, nil
}

// Compose 解析队列中的消息体并生成邮件，返回的错误都不值得重试
func (c *Composer) Compose(body []byte) (*gomail.Msg, error) {
	var queued queuedMessage
	if err := json.Unmarshal(body, &queued); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	var (
		data    any
		subject string
	)
	switch queued.Type {
	case domain.MailTypeCreateUser:
		data, subject = &domain.CreateUserMailData{}, "Your staff account"
	case domain.MailTypeAppointmentConfirmation:
		data, subject = &domain.AppointmentMailData{}, "Appointment confirmed"
	case domain.MailTypeAppointmentCancelled:
		data, subject = &domain.AppointmentMailData{}, "Appointment cancelled"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, queued.Type)
	}

	if err := json.Unmarshal(queued.Data, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	tmpl := c.templates.Lookup(queued.Type + ".html")
	if tmpl == nil {
		return nil, fmt.Errorf("%w: no template for %q", ErrUnsupportedType, queued.Type)
	}

	msg := gomail.NewMsg()
	if err := msg.From(c.from); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(queued.To); err != nil {
		return nil, fmt.Errorf("%w: invalid recipient: %v", ErrMalformedMessage, err)
	}
	msg.Subject(c.salonName + " - " + subject)
	if err := msg.SetBodyHTMLTemplate(tmpl, view{SalonName: c.salonName, Data: data}); err != nil {
		return nil, fmt.Errorf("render mail body: %w", err)
	}

	return msg, nil
}
