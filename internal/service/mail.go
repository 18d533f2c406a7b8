package service

import (
	"context"
	"fmt"
	"hungrypanda/hub-api/config"
	"time"

	"gopkg.in/gomail.v2"
)

// Mailer delivers magic links to users
type Mailer interface {
	SendMagicLink(ctx context.Context, to, link string, ttl time.Duration) error
}

type SMTPMailer struct {
	d       *gomail.Dialer
	from    string
	appName string
}

func NewSMTPMailer(c config.MailConfig, appName string) *SMTPMailer {
	return &SMTPMailer{
		d:       gomail.NewDialer(c.Host, c.Port, c.Username, c.Password),
		from:    c.From,
		appName: appName,
	}
}

func (s *SMTPMailer) SendMagicLink(ctx context.Context, to, link string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.d.DialAndSend(magicLinkMessage(s.from, to, s.appName, link, ttl))
}

func magicLinkMessage(from, to, appName, link string, ttl time.Duration) *gomail.Message {
	m := gomail.NewMessage(gomail.SetEncoding(gomail.Unencoded))

	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Your %s login link", appName))
	m.SetBody("text/plain", fmt.Sprintf("Open this link to log in to %s:\n\n%s\n\nThis link will expire in %v and can only be used once.", appName, link, ttl))
	m.AddAlternative("text/html", fmt.Sprintf("Click <a href='%v'>here</a> to log in to %v.<br><br>This link will expire in %v and can only be used once.", link, appName, ttl))

	return m
}
