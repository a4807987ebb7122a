package mailer

import (
	"bytes"
	"fmt"
	"net/http"
	"text/template"
	"time"

	mail "gopkg.in/mail.v2"
)

type SMTPMailer struct {
	fromEmail string
	dialer    *mail.Dialer
}

func NewSMTP(host string, port int, username, password, fromEmail string) *SMTPMailer {
	dialer := mail.NewDialer(host, port, username, password)
	return &SMTPMailer{
		fromEmail: fromEmail,
		dialer:    dialer,
	}
}

func (m *SMTPMailer) Send(templateFile, username, email string, data any) (int, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return -1, fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return -1, err
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return -1, err
	}

	message := mail.NewMessage()
	message.SetAddressHeader("From", m.fromEmail, FromName)
	message.SetAddressHeader("To", email, username)
	message.SetHeader("Subject", subject.String())
	message.SetBody("text/html", body.String())

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := m.dialer.DialAndSend(message); err != nil {
			lastErr = err
			time.Sleep(time.Second * time.Duration(i+1))
			continue
		}
		return http.StatusOK, nil
	}

	return -1, fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
