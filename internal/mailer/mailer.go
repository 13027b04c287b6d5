package mailer

import (
	"bytes"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/iliyamo/document-tracking/internal/config"
)

var (
	//go:embed templates/password_reset.html
	emailTemplates embed.FS

	passwordResetTemplate = template.Must(template.New("password_reset.html").ParseFS(emailTemplates, "templates/password_reset.html"))
)

const passwordResetSubject = "Password Reset Request"

type Client struct {
	cfg      config.EmailConfig
	validFor time.Duration
}

// NewClient returns a mailer; validFor is quoted in the reset email.
func NewClient(cfg config.EmailConfig, validFor time.Duration) *Client {
	return &Client{cfg: cfg, validFor: validFor}
}

func (c *Client) SendPasswordResetEmail(toEmail, resetLink string) error {
	if c.cfg.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}
	if c.cfg.FromAddress == "" {
		return fmt.Errorf("smtp from address is not configured")
	}

	body, err := renderPasswordReset(resetLink, c.validFor)
	if err != nil {
		return err
	}
	from := mail.Address{Name: c.cfg.FromName, Address: c.cfg.FromAddress}
	msg := buildHTMLMessage(from.String(), toEmail, passwordResetSubject, body)

	addr := c.cfg.Host + ":" + strconv.Itoa(c.cfg.Port)
	if c.cfg.Username == "" && c.cfg.Password == "" {
		return smtp.SendMail(addr, nil, c.cfg.FromAddress, []string{toEmail}, []byte(msg))
	}

	auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	if c.cfg.Port == 465 {
		return c.sendSMTPTLS(addr, auth, c.cfg.FromAddress, toEmail, msg)
	}
	return smtp.SendMail(addr, auth, c.cfg.FromAddress, []string{toEmail}, []byte(msg))
}

// sendSMTPTLS speaks SMTP over an implicit TLS connection (port 465),
// which smtp.SendMail does not support.
func (c *Client) sendSMTPTLS(addr string, auth smtp.Auth, from, toEmail, msg string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: c.cfg.Host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(toEmail); err != nil {
		return err
	}
	wc, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func renderPasswordReset(resetLink string, validFor time.Duration) (string, error) {
	var body bytes.Buffer
	data := struct {
		ResetLink template.URL
		ValidFor  string
	}{ResetLink: template.URL(resetLink), ValidFor: humanDuration(validFor)}
	if err := passwordResetTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render password reset template: %w", err)
	}
	return body.String(), nil
}

func humanDuration(d time.Duration) string {
	if d > 0 && d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return strconv.Itoa(m) + " minutes"
	}
	return d.String()
}

func buildHTMLMessage(from, to, subject, htmlBody string) string {
	return fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"utf-8\"\r\n\r\n%s", from, to, subject, htmlBody)
}
