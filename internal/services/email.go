package services

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"

	"collocshare/internal/logging"
)

// EmailService sends transactional mail (invitations, password resets)
// over SMTP.
type EmailService struct {
	host     string
	port     int
	user     string
	password string
	from     string
}

func NewEmailService() *EmailService {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     port,
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASS"),
		from:     os.Getenv("EMAIL_FROM"),
	}
}

func (s *EmailService) send(to, subject, body string) error {
	if s.host == "" || s.port == 0 || s.user == "" || s.password == "" {
		return fmt.Errorf("SMTP credentials not fully configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(s.host, s.port, s.user, s.password)
	if err := d.DialAndSend(msg); err != nil {
		logging.Logger.WithError(err).Errorf("failed to send email to %s", to)
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendInvitationEmail mails a join link for a colocation
func (s *EmailService) SendInvitationEmail(to, inviteURL, colocationName, inviterName string) error {
	subject := fmt.Sprintf("%s invited you to join \"%s\" on CollocShare", inviterName, colocationName)
	body := fmt.Sprintf(`
	<p>Hello,</p>
	<p><strong>%s</strong> invited you to join the colocation <strong>%s</strong> on CollocShare.</p>
	<p><a href="%s">Accept the invitation</a></p>
	<p>This link expires in 7 days. If you were not expecting this email you can ignore it.</p>
	`, inviterName, colocationName, inviteURL)

	return s.send(to, subject, body)
}

// SendOTPEmail mails a one-time password-reset code
func (s *EmailService) SendOTPEmail(to, code string) error {
	subject := "Your CollocShare password reset code"
	body := fmt.Sprintf(`
	<p>Hello,</p>
	<p>Your password reset code is: <strong>%s</strong></p>
	<p>It expires in 10 minutes. If you did not request a reset you can ignore this email.</p>
	`, code)

	return s.send(to, subject, body)
}
