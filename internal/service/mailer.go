package service

import (
	"context"
	"errors"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Mailer abstracts the outgoing email transport so the dispatcher can be
// tested without an SMTP server. Implementations should honor ctx where the
// underlying transport allows it; the dispatcher additionally bounds every
// call so a transport that can't is still cut off.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPMailer struct {
	host   string
	port   int
	sender string
	passwd string
}

func NewSMTPMailer() *SMTPMailer {
	return &SMTPMailer{
		host:   viper.GetString("mail.host"),
		port:   viper.GetInt("mail.port"),
		sender: viper.GetString("mail.sender_address"),
		passwd: viper.GetString("mail.password"),
	}
}

// Send delivers one message. gomail's dialer takes no context, so past this
// point the call runs to completion; the dispatcher abandons it if it
// outlives the send timeout.
func (s *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if to == s.sender {
		return errors.New("invalid email address")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.sender)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.host, s.port, s.sender, s.passwd)

	return d.DialAndSend(m)
}
